package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/draftroom/internal/engine"
	"github.com/DoyleJ11/draftroom/internal/lobby"
	"github.com/DoyleJ11/draftroom/internal/session"
	"github.com/DoyleJ11/draftroom/internal/types"
	wire "github.com/DoyleJ11/draftroom/pkg/types"
)

const testSecret = "test-secret"

type fixedSource struct{ lb *lobby.Lobby }

func (f fixedSource) Lobby() *lobby.Lobby { return f.lb }

type frame struct {
	Type    wire.MessageType `json:"type"`
	Version int              `json:"version"`
	Payload json.RawMessage  `json:"payload"`
}

func newTestLobby(t *testing.T) *lobby.Lobby {
	t.Helper()
	items := []engine.Item{
		{ID: 101, Name: "Mike Trout", Categories: []string{"cf"}},
		{ID: 102, Name: "Aaron Judge", Categories: []string{"rf"}},
		{ID: 103, Name: "Gerrit Cole", Categories: []string{"sp"}},
		{ID: 104, Name: "Juan Soto", Categories: []string{"lf"}},
	}
	participants := []engine.Participant{{ID: "P2", Name: "Ana"}, {ID: "P3", Name: "Ben"}}
	order := []engine.TurnSlot{
		{ParticipantID: "P2", Round: 1, PickNumber: 1},
		{ParticipantID: "P3", Round: 1, PickNumber: 2},
		{ParticipantID: "P3", Round: 2, PickNumber: 3},
		{ParticipantID: "P2", Round: 2, PickNumber: 4},
	}
	d, err := engine.New(items, participants, order)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return lobby.NewLobby(ctx, d)
}

func newTestServer(t *testing.T, src LobbySource, opts Options) (*httptest.Server, *session.TokenResolver) {
	t.Helper()
	resolver := session.NewTokenResolver(testSecret)
	srv := httptest.NewServer(Handler(src, resolver, opts, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv, resolver
}

func dial(t *testing.T, srv *httptest.Server, resolver *session.TokenResolver, id session.Identity) *websocket.Conn {
	t.Helper()
	token, err := resolver.Issue(id, time.Minute)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?token=" + token
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var f frame
	require.NoError(t, json.Unmarshal(data, &f))
	return f
}

// readUntil skips frames until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ wire.MessageType) frame {
	t.Helper()
	for {
		f := readFrame(t, conn)
		if f.Type == typ {
			return f
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, msg types.ClientMessage) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, data))
}

// connect dials and consumes the greeting so the caller starts at live updates.
func connect(t *testing.T, srv *httptest.Server, resolver *session.TokenResolver, id session.Identity) (*websocket.Conn, wire.HydrationSnapshot) {
	t.Helper()
	conn := dial(t, srv, resolver, id)
	require.Equal(t, wire.MsgConnectionVerified, readFrame(t, conn).Type)

	f := readFrame(t, conn)
	require.Equal(t, wire.MsgHydrationSnapshot, f.Type)
	var snap wire.HydrationSnapshot
	require.NoError(t, json.Unmarshal(f.Payload, &snap))
	return conn, snap
}

func pickMsg(itemID int) types.ClientMessage {
	return types.ClientMessage{Type: wire.MsgPick, ItemID: &itemID}
}

func assertRejected(t *testing.T, f frame, reason string) {
	t.Helper()
	require.Equal(t, wire.MsgPickRejected, f.Type)
	assert.Equal(t, reason, decode[wire.PickRejected](t, f).Reason)
}

func decode[T any](t *testing.T, f frame) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(f.Payload, &v))
	return v
}

func TestHandler_RejectsMissingToken(t *testing.T) {
	srv, _ := newTestServer(t, fixedSource{lb: newTestLobby(t)}, Options{})

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/?token=garbage")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandler_VerifiesThenHydrates(t *testing.T) {
	srv, resolver := newTestServer(t, fixedSource{lb: newTestLobby(t)}, Options{})

	conn := dial(t, srv, resolver, session.Identity{ParticipantID: "P2"})
	verified := readFrame(t, conn)
	require.Equal(t, wire.MsgConnectionVerified, verified.Type)
	assert.Equal(t, "P2", decode[wire.ConnectionVerified](t, verified).ParticipantID)

	f := readFrame(t, conn)
	require.Equal(t, wire.MsgHydrationSnapshot, f.Type)
	snap := decode[wire.HydrationSnapshot](t, f)
	assert.Equal(t, "P2", snap.CurrentParticipantID)
	assert.Equal(t, 4, snap.TotalTurns)
	assert.Len(t, snap.Items, 4)
	assert.Empty(t, snap.Roster)
	assert.Contains(t, snap.Participants, wire.Participant{ID: "P2", Name: "Ana", Online: true})
}

func TestHandler_PickIsBroadcast(t *testing.T) {
	lb := newTestLobby(t)
	srv, resolver := newTestServer(t, fixedSource{lb: lb}, Options{})

	watcher, _ := connect(t, srv, resolver, session.Identity{})
	picker, _ := connect(t, srv, resolver, session.Identity{ParticipantID: "P2"})

	send(t, picker, pickMsg(101))

	for _, conn := range []*websocket.Conn{watcher, picker} {
		f := readUntil(t, conn, wire.MsgTurnAdvanced)
		assert.Equal(t, 2, f.Version) // presence took version 1
		change := decode[wire.TurnChange](t, f)
		assert.Equal(t, 101, change.PreviousItemID)
		assert.Equal(t, "P2", change.PreviousParticipantID)
		assert.Equal(t, "P3", change.CurrentParticipantID)
		assert.False(t, change.Completed)
	}
}

func TestHandler_RejectionsAreUnicast(t *testing.T) {
	lb := newTestLobby(t)
	srv, resolver := newTestServer(t, fixedSource{lb: lb}, Options{})

	spectator, _ := connect(t, srv, resolver, session.Identity{})
	p3, _ := connect(t, srv, resolver, session.Identity{ParticipantID: "P3"})
	before := lb.Latest().Version

	send(t, p3, pickMsg(101))
	f := readUntil(t, p3, wire.MsgPickRejected)
	assert.Equal(t, string(engine.ReasonOutOfTurn), decode[wire.PickRejected](t, f).Reason)
	assert.Equal(t, before, f.Version)

	send(t, spectator, pickMsg(101))
	f = readUntil(t, spectator, wire.MsgPickRejected)
	assert.Equal(t, types.ReasonForbidden, decode[wire.PickRejected](t, f).Reason)

	send(t, p3, types.ClientMessage{Type: wire.MsgUndoLastPick})
	f = readUntil(t, p3, wire.MsgPickRejected)
	assert.Equal(t, types.ReasonForbidden, decode[wire.PickRejected](t, f).Reason)

	send(t, p3, types.ClientMessage{Type: wire.MsgSetPaused, Paused: true})
	f = readUntil(t, p3, wire.MsgPickRejected)
	assert.Equal(t, types.ReasonForbidden, decode[wire.PickRejected](t, f).Reason)

	assert.Equal(t, before, lb.Latest().Version)
}

func TestHandler_AdminControls(t *testing.T) {
	lb := newTestLobby(t)
	srv, resolver := newTestServer(t, fixedSource{lb: lb}, Options{})

	admin, _ := connect(t, srv, resolver, session.Identity{Admin: true})
	p2, _ := connect(t, srv, resolver, session.Identity{ParticipantID: "P2"})

	send(t, admin, types.ClientMessage{Type: wire.MsgUndoLastPick})
	f := readUntil(t, admin, wire.MsgPickRejected)
	assert.Equal(t, string(engine.ReasonNothingToUndo), decode[wire.PickRejected](t, f).Reason)

	send(t, p2, pickMsg(103))
	readUntil(t, admin, wire.MsgTurnAdvanced)

	send(t, admin, types.ClientMessage{Type: wire.MsgUndoLastPick})
	f = readUntil(t, p2, wire.MsgUndoApplied)
	change := decode[wire.TurnChange](t, f)
	assert.Equal(t, 103, change.PreviousItemID)
	assert.Equal(t, "P2", change.CurrentParticipantID)

	send(t, admin, types.ClientMessage{Type: wire.MsgSetPaused, Paused: true})
	f = readUntil(t, p2, wire.MsgDraftPaused)
	assert.True(t, decode[wire.Paused](t, f).Paused)

	send(t, p2, pickMsg(103))
	f = readUntil(t, p2, wire.MsgPickRejected)
	assert.Equal(t, string(engine.ReasonDraftPaused), decode[wire.PickRejected](t, f).Reason)

	send(t, admin, types.ClientMessage{Type: wire.MsgSetPaused, Paused: false})
	f = readUntil(t, p2, wire.MsgDraftResumed)
	assert.False(t, decode[wire.Paused](t, f).Paused)
}

func TestHandler_RosterAndSearch(t *testing.T) {
	lb := newTestLobby(t)
	srv, resolver := newTestServer(t, fixedSource{lb: lb}, Options{})

	p2, _ := connect(t, srv, resolver, session.Identity{ParticipantID: "P2"})
	send(t, p2, pickMsg(102))
	readUntil(t, p2, wire.MsgTurnAdvanced)

	send(t, p2, types.ClientMessage{Type: wire.MsgGetRoster, ParticipantID: "P2"})
	roster := decode[wire.Roster](t, readUntil(t, p2, wire.MsgRoster))
	assert.Equal(t, []wire.RosterEntry{{ItemID: 102, Round: 1, PickNumber: 1}}, roster.Entries)

	send(t, p2, types.ClientMessage{Type: wire.MsgGetRoster, ParticipantID: "nobody"})
	f := readUntil(t, p2, wire.MsgPickRejected)
	assert.Equal(t, string(engine.ReasonNotFound), decode[wire.PickRejected](t, f).Reason)

	send(t, p2, types.ClientMessage{Type: wire.MsgSearchItems, Category: "of"})
	results := decode[wire.SearchResults](t, readUntil(t, p2, wire.MsgSearchResults))
	var ids []int
	for _, it := range results.Items {
		ids = append(ids, it.ID)
		if it.ID == 102 {
			assert.True(t, it.Drafted)
		}
	}
	assert.ElementsMatch(t, []int{101, 102, 104}, ids)

	send(t, p2, types.ClientMessage{Type: wire.MsgSearchItems, Query: "cole"})
	results = decode[wire.SearchResults](t, readUntil(t, p2, wire.MsgSearchResults))
	require.Len(t, results.Items, 1)
	assert.Equal(t, 103, results.Items[0].ID)
}

func TestHandler_HydrateAndBadInput(t *testing.T) {
	lb := newTestLobby(t)
	srv, resolver := newTestServer(t, fixedSource{lb: lb}, Options{Lookahead: 2})

	p2, first := connect(t, srv, resolver, session.Identity{ParticipantID: "P2"})
	assert.Len(t, first.UpcomingTurns, 2)

	require.NoError(t, p2.Write(context.Background(), websocket.MessageText, []byte("{not json")))
	assertRejected(t, readFrame(t, p2), types.ReasonBadRequest)

	send(t, p2, types.ClientMessage{Type: "teleport"})
	assertRejected(t, readFrame(t, p2), types.ReasonBadRequest)

	// a pick without item_id must not be read as item 0
	send(t, p2, types.ClientMessage{Type: wire.MsgPick})
	assertRejected(t, readFrame(t, p2), types.ReasonBadRequest)
	assert.Equal(t, 0, lb.Latest().State.Cursor)

	send(t, p2, pickMsg(101))
	readUntil(t, p2, wire.MsgTurnAdvanced)

	send(t, p2, types.ClientMessage{Type: wire.MsgHydrate})
	f := readUntil(t, p2, wire.MsgHydrationSnapshot)
	snap := decode[wire.HydrationSnapshot](t, f)
	assert.Equal(t, 1, snap.Cursor)
	assert.Equal(t, "P3", snap.CurrentParticipantID)
	assert.Equal(t, []wire.RosterEntry{{ItemID: 101, Round: 1, PickNumber: 1}}, snap.Roster)
	assert.Equal(t, lb.Latest().Version, f.Version)
}

func TestHandler_ResetWhenDraftNeverLoads(t *testing.T) {
	srv, resolver := newTestServer(t, fixedSource{}, Options{
		HydrationAttempts: 2,
		HydrationInterval: 10 * time.Millisecond,
	})

	conn := dial(t, srv, resolver, session.Identity{ParticipantID: "P2"})
	assert.Equal(t, wire.MsgConnectionVerified, readFrame(t, conn).Type)
	assert.Equal(t, wire.MsgReset, readFrame(t, conn).Type)
}

func TestHandler_WaitsForLateLobby(t *testing.T) {
	var holder lobby.Holder
	srv, resolver := newTestServer(t, &holder, Options{
		HydrationAttempts: 50,
		HydrationInterval: 10 * time.Millisecond,
	})

	conn := dial(t, srv, resolver, session.Identity{ParticipantID: "P2"})
	assert.Equal(t, wire.MsgConnectionVerified, readFrame(t, conn).Type)

	holder.Set(newTestLobby(t))
	assert.Equal(t, wire.MsgHydrationSnapshot, readFrame(t, conn).Type)
}
