package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/draftroom/internal/session"
	"github.com/DoyleJ11/draftroom/internal/ws"
)

type Deps struct {
	Source   ws.LobbySource
	Resolver session.Resolver
	WS       ws.Options
	Logger   *zap.Logger
}

func SetupRoutes(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	api := &api{src: d.Source, lookahead: d.WS.Lookahead, logger: d.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(d.Logger))
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(d.Source, d.Resolver, d.WS, d.Logger.Named("ws")))

	r.Group(func(r chi.Router) {
		r.Use(api.requireLobby)

		r.Get("/items", api.SearchItems)
		r.Route("/draft", func(r chi.Router) {
			r.Get("/", api.GetDraft)
			r.Get("/upcoming", api.GetUpcoming)
			r.Get("/rosters/{participantID}", api.GetRoster)

			// Admin routes
			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin(d.Resolver))
				r.Post("/undo", api.Undo)
				r.Post("/pause", api.SetPaused)
			})
		})
	})
	return r
}
