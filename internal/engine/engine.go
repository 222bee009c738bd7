package engine

import (
	"fmt"
	"iter"
	"slices"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

type Participant struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Online bool   `json:"online"`
}

type EventType string

const (
	EvtTurnAdvanced      EventType = "turnAdvanced"
	EvtUndoApplied       EventType = "undoApplied"
	EvtDraftPaused       EventType = "draftPaused"
	EvtDraftResumed      EventType = "draftResumed"
	EvtParticipantStatus EventType = "participantStatus"
)

// TurnChange describes a committed pick or undo. For an undo, Previous is the
// pick that was removed and Current is the turn it hands back.
type TurnChange struct {
	Previous  LedgerEntry
	Current   TurnSlot // zero when Completed
	Upcoming  []TurnSlot
	Completed bool
	Cursor    int
}

type Event struct {
	Type          EventType
	Turn          *TurnChange
	Paused        bool
	ParticipantID string
	Online        bool
}

const DefaultLookahead = 10

type Option func(*Draft)

// WithPaused creates the draft already paused.
func WithPaused(paused bool) Option {
	return func(d *Draft) { d.paused = paused }
}

// WithLookahead sets how many upcoming turns a TurnChange carries.
func WithLookahead(n int) Option {
	return func(d *Draft) {
		if n > 0 {
			d.lookahead = n
		}
	}
}

// Draft is the authoritative draft state. It is not safe for concurrent use;
// callers serialize access (see the lobby package).
type Draft struct {
	pool         *Pool
	order        Order
	ledger       Ledger
	rosters      Rosters
	participants []Participant
	byID         map[string]int
	cursor       int
	paused       bool
	lookahead    int
}

func New(items []Item, participants []Participant, order []TurnSlot, opts ...Option) (*Draft, error) {
	pool, err := NewPool(items)
	if err != nil {
		return nil, err
	}

	d := &Draft{
		pool:         pool,
		order:        NewOrder(order),
		participants: slices.Clone(participants),
		byID:         make(map[string]int, len(participants)),
		lookahead:    DefaultLookahead,
	}

	ids := make([]string, 0, len(participants))
	for i, p := range participants {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: participant %d has no id", ErrInvalidDraft, i)
		}
		if _, dup := d.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate participant %q", ErrInvalidDraft, p.ID)
		}
		d.byID[p.ID] = i
		ids = append(ids, p.ID)
	}
	d.rosters = NewRosters(ids)

	for i, slot := range order {
		if _, ok := d.byID[slot.ParticipantID]; !ok {
			return nil, fmt.Errorf("%w: turn %d belongs to unknown participant %q", ErrInvalidDraft, i, slot.ParticipantID)
		}
	}

	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func (d *Draft) Status() Status { return DeriveStatus(d.cursor, d.order.Len(), d.paused) }

func (d *Draft) Cursor() int     { return d.cursor }
func (d *Draft) Paused() bool    { return d.paused }
func (d *Draft) Completed() bool { return d.cursor >= d.order.Len() }

// Current returns the slot whose owner must pick next. ok is false once the draft is complete.
func (d *Draft) Current() (TurnSlot, bool) { return d.order.At(d.cursor) }

// Previous returns the most recent committed pick.
func (d *Draft) Previous() (LedgerEntry, bool) { return d.ledger.Last() }

func (d *Draft) Upcoming(k int) iter.Seq[TurnSlot] { return d.order.Window(d.cursor, k) }

func (d *Draft) Roster(participantID string) ([]RosterEntry, error) {
	return d.rosters.Get(participantID)
}

func (d *Draft) Item(id int) (Item, error) { return d.pool.Lookup(id) }

func (d *Draft) History() []LedgerEntry { return d.ledger.Entries() }

// Pick validates and applies a pick for the current turn. A rejected pick leaves
// the draft untouched.
func (d *Draft) Pick(participantID string, itemID int) (TurnChange, error) {
	slot, ok := d.Current()
	if !ok {
		return TurnChange{}, ErrDraftComplete
	}
	if d.paused {
		return TurnChange{}, ErrDraftPaused
	}
	if participantID != slot.ParticipantID {
		return TurnChange{}, fmt.Errorf("%w: turn %d belongs to %q, not %q", ErrOutOfTurn, slot.PickNumber, slot.ParticipantID, participantID)
	}
	if !d.pool.available(itemID) {
		return TurnChange{}, fmt.Errorf("%w: item %d", ErrItemUnavailable, itemID)
	}

	entry := LedgerEntry{
		ItemID:        itemID,
		ParticipantID: slot.ParticipantID,
		Round:         slot.Round,
		PickNumber:    slot.PickNumber,
	}
	d.pool.markDrafted(itemID)
	d.ledger.append(entry)
	d.rosters.append(slot.ParticipantID, RosterEntry{ItemID: itemID, Round: slot.Round, PickNumber: slot.PickNumber})
	d.cursor++

	return d.turnChange(entry), nil
}

// UndoLastPick reverses the newest pick, handing its turn back to the same participant.
func (d *Draft) UndoLastPick() (TurnChange, error) {
	entry, ok := d.ledger.pop()
	if !ok {
		return TurnChange{}, ErrNothingToUndo
	}
	d.rosters.pop(entry.ParticipantID)
	d.pool.markUndrafted(entry.ItemID)
	d.cursor--

	return d.turnChange(entry), nil
}

// SetPaused sets the pause flag and reports whether it changed. A completed
// draft only leaves Completed through undo, so pausing it changes nothing.
func (d *Draft) SetPaused(paused bool) bool {
	if d.paused == paused || (paused && d.Completed()) {
		return false
	}
	d.paused = paused
	return true
}

// SetOnline records liveness reported by the connection layer.
func (d *Draft) SetOnline(participantID string, online bool) error {
	i, ok := d.byID[participantID]
	if !ok {
		return fmt.Errorf("%w: participant %q", ErrNotFound, participantID)
	}
	d.participants[i].Online = online
	return nil
}

func (d *Draft) turnChange(prev LedgerEntry) TurnChange {
	current, _ := d.Current()
	return TurnChange{
		Previous:  prev,
		Current:   current,
		Upcoming:  slices.Collect(d.Upcoming(d.lookahead)),
		Completed: d.Completed(),
		Cursor:    d.cursor,
	}
}
