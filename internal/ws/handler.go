package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/draftroom/internal/engine"
	"github.com/DoyleJ11/draftroom/internal/lobby"
	"github.com/DoyleJ11/draftroom/internal/search"
	"github.com/DoyleJ11/draftroom/internal/session"
	"github.com/DoyleJ11/draftroom/internal/types"
	wire "github.com/DoyleJ11/draftroom/pkg/types"
)

const writeTimeout = 3 * time.Second

// LobbySource returns the draft lobby, or nil while the draft is still loading.
type LobbySource interface {
	Lobby() *lobby.Lobby
}

type Options struct {
	HydrationAttempts int
	HydrationInterval time.Duration
	Lookahead         int
	OriginPatterns    []string
}

func Handler(src LobbySource, resolver session.Resolver, opts Options, logger *zap.Logger) http.HandlerFunc {
	if opts.Lookahead <= 0 {
		opts.Lookahead = engine.DefaultLookahead
	}
	if opts.HydrationInterval <= 0 {
		opts.HydrationInterval = time.Second
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := resolver.Resolve(r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: opts.OriginPatterns})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		c := &client{
			id:       uuid.NewString(),
			identity: id,
			conn:     conn,
			opts:     opts,
			logger:   logger.With(zap.String("participant", id.ParticipantID)),
		}
		c.serve(r.Context(), src)
	}
}

type client struct {
	id       string
	identity session.Identity
	conn     *websocket.Conn
	lb       *lobby.Lobby
	opts     Options
	logger   *zap.Logger
}

func (c *client) serve(ctx context.Context, src LobbySource) {
	c.write(ctx, wire.ServerMessage{
		Type:    wire.MsgConnectionVerified,
		Payload: wire.ConnectionVerified{ParticipantID: c.identity.ParticipantID, Admin: c.identity.Admin},
	})

	lb, ok := c.awaitLobby(ctx, src)
	if !ok {
		c.logger.Warn("draft not ready, telling client to reset", zap.Int("attempts", c.opts.HydrationAttempts))
		c.write(ctx, wire.ServerMessage{Type: wire.MsgReset})
		return
	}
	c.lb = lb

	out := make(chan lobby.Update, 32)
	if err := lb.Send(lobby.Join{ClientID: c.id, ParticipantID: c.identity.ParticipantID, Outbox: out}); err != nil {
		c.write(ctx, wire.ServerMessage{Type: wire.MsgReset})
		return
	}
	defer func() { _ = lb.Send(lobby.Leave{ClientID: c.id}) }()
	c.logger.Info("client joined", zap.String("client", c.id))

	// Writer goroutine
	writeCtx, writeCancel := context.WithCancel(ctx)
	defer writeCancel()
	go func() {
		for upd := range out {
			c.write(writeCtx, c.render(upd))
		}
		// lobby dropped us or shut down
		c.conn.Close(websocket.StatusTryAgainLater, "lobby closed")
	}()

	// Reader loop
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				c.logger.Debug("read failed", zap.Error(err))
			}
			return
		}

		var cm types.ClientMessage
		if err := json.Unmarshal(data, &cm); err != nil {
			c.reply(ctx, types.RejectedReason(types.ReasonBadRequest, "invalid json"))
			continue
		}
		if !c.dispatch(ctx, cm) {
			return
		}
	}
}

// awaitLobby retries on a fixed schedule while the draft is loading.
func (c *client) awaitLobby(ctx context.Context, src LobbySource) (*lobby.Lobby, bool) {
	if lb := src.Lobby(); lb != nil {
		return lb, true
	}
	ticker := time.NewTicker(c.opts.HydrationInterval)
	defer ticker.Stop()
	for attempt := 1; attempt <= c.opts.HydrationAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, false
		case <-ticker.C:
		}
		if lb := src.Lobby(); lb != nil {
			return lb, true
		}
		c.logger.Debug("draft not loaded yet", zap.Int("attempt", attempt))
	}
	return nil, false
}

// dispatch handles one client message. It returns false once the lobby is gone.
func (c *client) dispatch(ctx context.Context, cm types.ClientMessage) bool {
	var err error
	switch cm.Type {
	case wire.MsgPick:
		if c.identity.ParticipantID == "" {
			c.reply(ctx, types.RejectedReason(types.ReasonForbidden, "spectators cannot pick"))
			return true
		}
		if cm.ItemID == nil {
			c.reply(ctx, types.RejectedReason(types.ReasonBadRequest, "pick needs item_id"))
			return true
		}
		err = c.lb.Pick(ctx, c.identity.ParticipantID, *cm.ItemID)

	case wire.MsgUndoLastPick:
		if !c.identity.Admin {
			c.reply(ctx, types.RejectedReason(types.ReasonForbidden, "admin only"))
			return true
		}
		err = c.lb.Undo(ctx)

	case wire.MsgSetPaused:
		if !c.identity.Admin {
			c.reply(ctx, types.RejectedReason(types.ReasonForbidden, "admin only"))
			return true
		}
		err = c.lb.SetPaused(ctx, cm.Paused)

	case wire.MsgGetRoster:
		entries, rerr := c.lb.Latest().State.Roster(cm.ParticipantID)
		if rerr != nil {
			c.reply(ctx, types.Rejected(rerr))
			return true
		}
		c.reply(ctx, wire.ServerMessage{Type: wire.MsgRoster, Payload: types.Roster(cm.ParticipantID, entries)})

	case wire.MsgSearchItems:
		items := search.Items(c.lb.Latest().State.Items, cm.Query, cm.Category)
		c.reply(ctx, wire.ServerMessage{Type: wire.MsgSearchResults, Payload: wire.SearchResults{
			Query:    cm.Query,
			Category: cm.Category,
			Items:    types.Items(items),
		}})

	case wire.MsgHydrate:
		err = c.lb.Send(lobby.Hydrate{ClientID: c.id})

	default:
		c.reply(ctx, types.RejectedReason(types.ReasonBadRequest, fmt.Sprintf("unknown message type %q", cm.Type)))
	}

	switch {
	case err == nil:
		return true
	case errors.Is(err, lobby.ErrClosed), errors.Is(err, context.Canceled):
		return false
	default:
		c.reply(ctx, types.Rejected(err))
		return true
	}
}

// reply sends a unicast answer stamped with the latest committed version.
func (c *client) reply(ctx context.Context, msg wire.ServerMessage) {
	msg.Version = c.lb.Latest().Version
	c.write(ctx, msg)
}

func (c *client) render(upd lobby.Update) wire.ServerMessage {
	if upd.Hydration != nil {
		return wire.ServerMessage{
			Type:    wire.MsgHydrationSnapshot,
			Version: upd.Version,
			Payload: types.Hydration(*upd.Hydration, c.identity.ParticipantID, c.opts.Lookahead),
		}
	}
	msg, _ := types.FromUpdate(upd)
	return msg
}

func (c *client) write(ctx context.Context, msg wire.ServerMessage) {
	if msg.Type == "" {
		return
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("marshal server message", zap.String("type", string(msg.Type)), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = c.conn.Write(ctx, websocket.MessageText, payload)
}
