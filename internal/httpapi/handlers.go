package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/draftroom/internal/engine"
	"github.com/DoyleJ11/draftroom/internal/lobby"
	"github.com/DoyleJ11/draftroom/internal/search"
	"github.com/DoyleJ11/draftroom/internal/session"
	"github.com/DoyleJ11/draftroom/internal/types"
	"github.com/DoyleJ11/draftroom/internal/ws"
	wire "github.com/DoyleJ11/draftroom/pkg/types"
)

// maxUpcoming caps GET /draft/upcoming?n=.
const maxUpcoming = 100

type api struct {
	src       ws.LobbySource
	lookahead int
	logger    *zap.Logger
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (a *api) GetDraft(w http.ResponseWriter, r *http.Request) {
	snap := lobbyFrom(r.Context()).Latest()
	writeJSON(w, http.StatusOK, wire.ServerMessage{
		Type:    wire.MsgHydrationSnapshot,
		Version: snap.Version,
		Payload: types.Hydration(snap.State, "", a.lookahead),
	})
}

func (a *api) GetUpcoming(w http.ResponseWriter, r *http.Request) {
	n := a.lookahead
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, "n must be a non-negative integer")
			return
		}
		n = min(v, maxUpcoming)
	}

	snap := lobbyFrom(r.Context()).Latest()
	writeJSON(w, http.StatusOK, wire.Upcoming{
		Cursor:        snap.State.Cursor,
		UpcomingTurns: types.TurnSlots(slices.Collect(snap.State.Upcoming(n))),
	})
}

func (a *api) GetRoster(w http.ResponseWriter, r *http.Request) {
	participantID := chi.URLParam(r, "participantID")
	entries, err := lobbyFrom(r.Context()).Latest().State.Roster(participantID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, types.Roster(participantID, entries))
}

func (a *api) SearchItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query, category := q.Get("query"), q.Get("category")
	items := search.Items(lobbyFrom(r.Context()).Latest().State.Items, query, category)
	writeJSON(w, http.StatusOK, wire.SearchResults{
		Query:    query,
		Category: category,
		Items:    types.Items(items),
	})
}

func (a *api) Undo(w http.ResponseWriter, r *http.Request) {
	lb := lobbyFrom(r.Context())
	if err := lb.Undo(r.Context()); err != nil {
		a.writeLobbyError(w, err)
		return
	}
	a.logger.Info("undo over http", zap.String("admin", identityFrom(r).ParticipantID))
	writeJSON(w, http.StatusOK, map[string]int{"version": lb.Latest().Version})
}

func (a *api) SetPaused(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Paused *bool `json:"paused"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Paused == nil {
		writeError(w, http.StatusBadRequest, `body must be {"paused": bool}`)
		return
	}

	lb := lobbyFrom(r.Context())
	if err := lb.SetPaused(r.Context(), *body.Paused); err != nil {
		a.writeLobbyError(w, err)
		return
	}
	snap := lb.Latest()
	writeJSON(w, http.StatusOK, struct {
		Version int  `json:"version"`
		Paused  bool `json:"paused"`
	}{Version: snap.Version, Paused: snap.State.Paused})
}

// writeLobbyError answers a failed lobby request. Engine rejections carry
// their reason code like the websocket does.
func (a *api) writeLobbyError(w http.ResponseWriter, err error) {
	if errors.Is(err, lobby.ErrClosed) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if engine.ReasonOf(err) == engine.ReasonUnknown {
		a.logger.Error("lobby request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusConflict, types.Rejected(err).Payload)
}

func identityFrom(r *http.Request) session.Identity {
	id, _ := r.Context().Value(identityKey).(session.Identity)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, wire.Error{Error: msg})
}
