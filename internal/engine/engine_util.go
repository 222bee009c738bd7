package engine

import (
	"iter"
	"slices"
)

// Snapshot is a deep copy of the draft taken between mutations. It shares
// nothing mutable with the Draft it came from.
type Snapshot struct {
	Items        []Item
	Participants []Participant
	History      []LedgerEntry
	Rosters      map[string][]RosterEntry
	Order        Order
	Cursor       int
	Paused       bool
	Status       Status
}

func (d *Draft) Snapshot() Snapshot {
	return Snapshot{
		Items:        d.pool.Items(),
		Participants: slices.Clone(d.participants),
		History:      d.ledger.Entries(),
		Rosters:      d.rosters.clone(),
		Order:        d.order,
		Cursor:       d.cursor,
		Paused:       d.paused,
		Status:       DeriveStatus(d.cursor, d.order.Len(), d.paused),
	}
}

func DeriveStatus(cursor, total int, paused bool) Status {
	if cursor >= total {
		return StatusCompleted
	}
	if paused {
		return StatusPaused
	}
	return StatusActive
}

func (s Snapshot) Completed() bool { return s.Status == StatusCompleted }

func (s Snapshot) Current() (TurnSlot, bool) { return s.Order.At(s.Cursor) }

func (s Snapshot) Upcoming(k int) iter.Seq[TurnSlot] { return s.Order.Window(s.Cursor, k) }

func (s Snapshot) Roster(participantID string) ([]RosterEntry, error) {
	return Rosters{byParticipant: s.Rosters}.Get(participantID)
}

func (s Snapshot) Participant(id string) (Participant, bool) {
	for _, p := range s.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return Participant{}, false
}
