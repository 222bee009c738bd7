package lobby

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/DoyleJ11/draftroom/internal/engine"
)

var ErrClosed = errors.New("lobby closed")

type Msg interface{ isLobbyMsg() }

type Pick struct {
	ParticipantID string
	ItemID        int
	Reply         chan error // buffered; nil on success
}

func (Pick) isLobbyMsg() {}

type Undo struct {
	Reply chan error
}

func (Undo) isLobbyMsg() {}

type SetPaused struct {
	Paused bool
	Reply  chan error
}

func (SetPaused) isLobbyMsg() {}

type Join struct {
	ClientID      string
	ParticipantID string      // empty for spectators
	Outbox        chan Update // where this client wants to receive updates
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

// Hydrate re-sends the full draft state to one client.
type Hydrate struct{ ClientID string }

func (Hydrate) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

// Update is one message on a client outbox: either a broadcast event or a
// hydration snapshot meant for that client only.
type Update struct {
	Version   int
	Event     *engine.Event
	Hydration *engine.Snapshot
}

// Snapshot is the state published after each commit.
type Snapshot struct {
	Version int
	State   engine.Snapshot
}

type View struct {
	Version    int
	NumClients int
	State      engine.Snapshot
}

// Publisher mirrors broadcasts outside the process. Publish must not block.
type Publisher interface {
	Publish(Update)
}

type Option func(*Lobby)

func WithLogger(logger *zap.Logger) Option {
	return func(l *Lobby) { l.logger = logger }
}

func WithPublisher(p Publisher) Option {
	return func(l *Lobby) { l.publisher = p }
}

type client struct {
	participantID string
	outbox        chan Update
}

type Lobby struct {
	inbox       chan Msg
	draft       *engine.Draft
	version     int
	clients     map[string]client
	connections map[string]int // participant id -> open connections
	latest      atomic.Pointer[Snapshot]
	publisher   Publisher
	logger      *zap.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	done        chan struct{}

	// senders hold mu.RLock while enqueueing; shutdown flips stopped under
	// mu.Lock so nothing lands in the inbox after it has been drained
	mu      sync.RWMutex
	stopped bool
	quit    chan struct{}
}

// NewLobby takes ownership of d. Nothing else may touch d afterwards.
func NewLobby(parent context.Context, d *engine.Draft, opts ...Option) *Lobby {
	ctx, cancel := context.WithCancel(parent)

	l := &Lobby{
		inbox:       make(chan Msg, 64), // Small buffer
		draft:       d,
		clients:     make(map[string]client),
		connections: make(map[string]int),
		logger:      zap.NewNop(),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		quit:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.publish()

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	defer close(l.done)
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				// announce first so the newcomer's hydration already shows them online
				if msg.ParticipantID != "" {
					l.connections[msg.ParticipantID]++
					if l.connections[msg.ParticipantID] == 1 {
						if evt, ok := l.setOnline(msg.ParticipantID, true); ok {
							l.broadcast(evt)
						}
					}
				}
				l.clients[msg.ClientID] = client{participantID: msg.ParticipantID, outbox: msg.Outbox}
				l.hydrate(msg.ClientID)

			case Leave:
				if evt, ok := l.removeClient(msg.ClientID); ok {
					l.broadcast(evt)
				}

			case Hydrate:
				l.hydrate(msg.ClientID)

			case Pick:
				change, err := l.draft.Pick(msg.ParticipantID, msg.ItemID)
				if err != nil {
					l.logger.Debug("pick rejected",
						zap.String("participant", msg.ParticipantID),
						zap.Int("item", msg.ItemID),
						zap.Error(err))
					msg.Reply <- err
					break
				}
				l.logger.Info("pick committed",
					zap.String("participant", msg.ParticipantID),
					zap.Int("item", msg.ItemID),
					zap.Int("pick_number", change.Previous.PickNumber),
					zap.Bool("completed", change.Completed))
				l.commit()
				msg.Reply <- nil
				l.broadcast(engine.Event{Type: engine.EvtTurnAdvanced, Turn: &change})

			case Undo:
				change, err := l.draft.UndoLastPick()
				if err != nil {
					msg.Reply <- err
					break
				}
				l.logger.Info("pick undone",
					zap.String("participant", change.Previous.ParticipantID),
					zap.Int("item", change.Previous.ItemID),
					zap.Int("pick_number", change.Previous.PickNumber))
				l.commit()
				msg.Reply <- nil
				l.broadcast(engine.Event{Type: engine.EvtUndoApplied, Turn: &change})

			case SetPaused:
				if !l.draft.SetPaused(msg.Paused) {
					msg.Reply <- nil
					break
				}
				l.logger.Info("pause toggled", zap.Bool("paused", msg.Paused))
				l.commit()
				msg.Reply <- nil
				evt := engine.Event{Type: engine.EvtDraftResumed, Paused: false}
				if msg.Paused {
					evt = engine.Event{Type: engine.EvtDraftPaused, Paused: true}
				}
				l.broadcast(evt)

			case GetState:
				// test-only: reflect internal state without data races
				msg.Reply <- View{
					Version:    l.version,
					NumClients: len(l.clients),
					State:      l.draft.Snapshot(),
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) commit() {
	l.version++
	l.publish()
}

func (l *Lobby) publish() {
	l.latest.Store(&Snapshot{Version: l.version, State: l.draft.Snapshot()})
}

func (l *Lobby) setOnline(participantID string, online bool) (engine.Event, bool) {
	if err := l.draft.SetOnline(participantID, online); err != nil {
		// spectators and admins without a seat are not tracked
		return engine.Event{}, false
	}
	l.commit()
	return engine.Event{Type: engine.EvtParticipantStatus, ParticipantID: participantID, Online: online}, true
}

// removeClient forgets a client and closes its outbox. When it was the participant's last connection the
// participant goes offline and the status event is returned for the caller to broadcast.
func (l *Lobby) removeClient(clientID string) (engine.Event, bool) {
	c, ok := l.clients[clientID]
	if !ok {
		return engine.Event{}, false
	}
	delete(l.clients, clientID)
	close(c.outbox) // Tell client no more updates
	if c.participantID == "" {
		return engine.Event{}, false
	}

	l.connections[c.participantID]--
	if l.connections[c.participantID] > 0 {
		return engine.Event{}, false
	}
	delete(l.connections, c.participantID)

	return l.setOnline(c.participantID, false)
}

func (l *Lobby) hydrate(clientID string) {
	c, ok := l.clients[clientID]
	if !ok {
		return
	}
	snap := l.latest.Load()
	select {
	case c.outbox <- Update{Version: snap.Version, Hydration: &snap.State}:
	default:
		l.logger.Warn("client outbox full on hydrate", zap.String("client", clientID))
	}
}

func (l *Lobby) shutdown() {
	close(l.quit)
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()

	for id, c := range l.clients {
		close(c.outbox) // Tell client no more updates
		delete(l.clients, id)
	}
	l.drain()
	l.cancel()
}

// drain answers whatever was queued behind the shutdown.
func (l *Lobby) drain() {
	for {
		select {
		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				close(msg.Outbox)
			case Pick:
				msg.Reply <- ErrClosed
			case Undo:
				msg.Reply <- ErrClosed
			case SetPaused:
				msg.Reply <- ErrClosed
			}
		default:
			return
		}
	}
}

func (l *Lobby) broadcast(evt engine.Event) {
	pending := []Update{{Version: l.version, Event: &evt}}
	for len(pending) > 0 {
		upd := pending[0]
		pending = pending[1:]

		if l.publisher != nil {
			l.publisher.Publish(upd)
		}

		var slow []string
		for id, c := range l.clients {
			select {
			case c.outbox <- upd:
				//ok
			default:
				slow = append(slow, id)
			}
		}
		// Client is slow/full - drop them.
		slices.Sort(slow)
		for _, id := range slow {
			l.logger.Warn("dropping slow client", zap.String("client", id))
			if status, ok := l.removeClient(id); ok {
				pending = append(pending, Update{Version: l.version, Event: &status})
			}
		}
	}
}

// Send delivers m unless the lobby has shut down.
func (l *Lobby) Send(m Msg) error {
	return l.enqueue(context.Background(), m)
}

func (l *Lobby) enqueue(ctx context.Context, m Msg) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.stopped {
		return ErrClosed
	}
	select {
	case l.inbox <- m:
		return nil
	case <-l.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once the lobby loop has exited.
func (l *Lobby) Done() <-chan struct{} { return l.done }

// Latest returns the state published by the most recent commit. Callers must
// treat it as read-only; it is shared between readers.
func (l *Lobby) Latest() *Snapshot { return l.latest.Load() }

func (l *Lobby) Pick(ctx context.Context, participantID string, itemID int) error {
	return l.request(ctx, func(reply chan error) Msg {
		return Pick{ParticipantID: participantID, ItemID: itemID, Reply: reply}
	})
}

func (l *Lobby) Undo(ctx context.Context) error {
	return l.request(ctx, func(reply chan error) Msg { return Undo{Reply: reply} })
}

func (l *Lobby) SetPaused(ctx context.Context, paused bool) error {
	return l.request(ctx, func(reply chan error) Msg { return SetPaused{Paused: paused, Reply: reply} })
}

func (l *Lobby) request(ctx context.Context, build func(chan error) Msg) error {
	reply := make(chan error, 1)
	if err := l.enqueue(ctx, build(reply)); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-l.done:
		select {
		case err := <-reply:
			return err
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}
