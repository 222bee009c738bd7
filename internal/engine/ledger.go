package engine

import (
	"fmt"
	"maps"
	"slices"
)

type LedgerEntry struct {
	ItemID        int    `json:"item_id"`
	ParticipantID string `json:"participant_id"`
	Round         int    `json:"round"`
	PickNumber    int    `json:"pick_number"`
}

// Ledger is the append-only pick history. Its tail doubles as the undo stack.
type Ledger struct {
	entries []LedgerEntry
}

func (l *Ledger) Len() int { return len(l.entries) }

func (l *Ledger) Last() (LedgerEntry, bool) {
	if len(l.entries) == 0 {
		return LedgerEntry{}, false
	}
	return l.entries[len(l.entries)-1], true
}

func (l *Ledger) Entries() []LedgerEntry { return slices.Clone(l.entries) }

func (l *Ledger) append(e LedgerEntry) { l.entries = append(l.entries, e) }

func (l *Ledger) pop() (LedgerEntry, bool) {
	last, ok := l.Last()
	if !ok {
		return LedgerEntry{}, false
	}
	l.entries = l.entries[:len(l.entries)-1]
	return last, true
}

type RosterEntry struct {
	ItemID     int `json:"item_id"`
	Round      int `json:"round"`
	PickNumber int `json:"pick_number"`
}

// Rosters groups won items per participant, in pick order.
type Rosters struct {
	byParticipant map[string][]RosterEntry
}

func NewRosters(participantIDs []string) Rosters {
	r := Rosters{byParticipant: make(map[string][]RosterEntry, len(participantIDs))}
	for _, id := range participantIDs {
		r.byParticipant[id] = []RosterEntry{}
	}
	return r
}

func (r Rosters) Get(participantID string) ([]RosterEntry, error) {
	entries, ok := r.byParticipant[participantID]
	if !ok {
		return nil, fmt.Errorf("%w: participant %q", ErrNotFound, participantID)
	}
	return slices.Clone(entries), nil
}

// Total is the number of roster entries across all participants.
func (r Rosters) Total() int {
	n := 0
	for _, entries := range r.byParticipant {
		n += len(entries)
	}
	return n
}

func (r Rosters) clone() map[string][]RosterEntry {
	out := maps.Clone(r.byParticipant)
	for id, entries := range out {
		out[id] = slices.Clone(entries)
	}
	return out
}

func (r Rosters) append(participantID string, e RosterEntry) {
	r.byParticipant[participantID] = append(r.byParticipant[participantID], e)
}

// pop removes the newest entry for participantID. The engine only calls it
// with the participant of the ledger tail, whose newest roster entry is that pick.
func (r Rosters) pop(participantID string) {
	entries := r.byParticipant[participantID]
	if len(entries) == 0 {
		return
	}
	r.byParticipant[participantID] = entries[:len(entries)-1]
}
