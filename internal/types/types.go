package types

import (
	"slices"

	"github.com/DoyleJ11/draftroom/internal/engine"
	"github.com/DoyleJ11/draftroom/internal/lobby"
	wire "github.com/DoyleJ11/draftroom/pkg/types"
)

// Rejection reasons decided by the transport rather than the engine.
const (
	ReasonForbidden  = "FORBIDDEN"
	ReasonBadRequest = "BAD_REQUEST"
)

type ClientMessage struct {
	Type          wire.MessageType `json:"type"`
	ItemID        *int             `json:"item_id,omitempty"` // nil when absent
	Paused        bool             `json:"paused,omitempty"`
	ParticipantID string           `json:"participant_id,omitempty"`
	Query         string           `json:"query,omitempty"`
	Category      string           `json:"category,omitempty"`
}

// FromUpdate converts a lobby broadcast into its wire message. Hydrations are
// per-client and go through Hydration instead.
func FromUpdate(u lobby.Update) (wire.ServerMessage, bool) {
	if u.Event == nil {
		return wire.ServerMessage{}, false
	}
	evt := u.Event
	msg := wire.ServerMessage{Version: u.Version}

	switch evt.Type {
	case engine.EvtTurnAdvanced, engine.EvtUndoApplied:
		msg.Type = wire.MsgTurnAdvanced
		if evt.Type == engine.EvtUndoApplied {
			msg.Type = wire.MsgUndoApplied
		}
		msg.Payload = TurnChange(*evt.Turn)
	case engine.EvtDraftPaused:
		msg.Type = wire.MsgDraftPaused
		msg.Payload = wire.Paused{Paused: true}
	case engine.EvtDraftResumed:
		msg.Type = wire.MsgDraftResumed
		msg.Payload = wire.Paused{Paused: false}
	case engine.EvtParticipantStatus:
		msg.Type = wire.MsgParticipantStatus
		msg.Payload = wire.ParticipantStatus{ParticipantID: evt.ParticipantID, Online: evt.Online}
	default:
		return wire.ServerMessage{}, false
	}
	return msg, true
}

func TurnChange(c engine.TurnChange) wire.TurnChange {
	out := wire.TurnChange{
		PreviousParticipantID: c.Previous.ParticipantID,
		PreviousItemID:        c.Previous.ItemID,
		PreviousRound:         c.Previous.Round,
		PreviousPickNumber:    c.Previous.PickNumber,
		UpcomingTurns:         TurnSlots(c.Upcoming),
		Completed:             c.Completed,
	}
	if !c.Completed {
		out.CurrentParticipantID = c.Current.ParticipantID
	}
	return out
}

func TurnSlots(slots []engine.TurnSlot) []wire.TurnSlot {
	out := make([]wire.TurnSlot, len(slots))
	for i, s := range slots {
		out[i] = wire.TurnSlot{ParticipantID: s.ParticipantID, Round: s.Round, PickNumber: s.PickNumber}
	}
	return out
}

func Items(items []engine.Item) []wire.Item {
	out := make([]wire.Item, len(items))
	for i, it := range items {
		out[i] = wire.Item{
			ID:         it.ID,
			Name:       it.Name,
			Categories: it.Categories,
			Attributes: it.Attributes,
			Drafted:    it.Drafted,
		}
	}
	return out
}

func Roster(participantID string, entries []engine.RosterEntry) wire.Roster {
	out := wire.Roster{ParticipantID: participantID, Entries: make([]wire.RosterEntry, len(entries))}
	for i, e := range entries {
		out.Entries[i] = wire.RosterEntry{ItemID: e.ItemID, Round: e.Round, PickNumber: e.PickNumber}
	}
	return out
}

// Hydration projects a snapshot for one requester. An unknown or empty
// participant id yields an empty roster.
func Hydration(s engine.Snapshot, participantID string, lookahead int) wire.HydrationSnapshot {
	h := wire.HydrationSnapshot{
		Items:         Items(s.Items),
		Participants:  make([]wire.Participant, len(s.Participants)),
		History:       make([]wire.HistoryEntry, len(s.History)),
		Roster:        []wire.RosterEntry{},
		UpcomingTurns: TurnSlots(slices.Collect(s.Upcoming(lookahead))),
		Cursor:        s.Cursor,
		TotalTurns:    s.Order.Len(),
		Paused:        s.Paused,
		Completed:     s.Completed(),
	}
	for i, p := range s.Participants {
		h.Participants[i] = wire.Participant{ID: p.ID, Name: p.Name, Online: p.Online}
	}
	for i, e := range s.History {
		h.History[i] = wire.HistoryEntry{ItemID: e.ItemID, ParticipantID: e.ParticipantID, Round: e.Round, PickNumber: e.PickNumber}
	}
	if current, ok := s.Current(); ok {
		h.CurrentParticipantID = current.ParticipantID
	}
	if entries, err := s.Roster(participantID); err == nil {
		h.Roster = Roster(participantID, entries).Entries
	}
	return h
}

func Rejected(err error) wire.ServerMessage {
	return wire.ServerMessage{
		Type:    wire.MsgPickRejected,
		Payload: wire.PickRejected{Reason: string(engine.ReasonOf(err)), Message: err.Error()},
	}
}

// RejectedReason builds a rejection for failures decided outside the engine.
func RejectedReason(reason, message string) wire.ServerMessage {
	return wire.ServerMessage{
		Type:    wire.MsgPickRejected,
		Payload: wire.PickRejected{Reason: reason, Message: message},
	}
}
