package engine

import (
	"fmt"
	"iter"
	"slices"
)

type TurnSlot struct {
	ParticipantID string `json:"participant_id" yaml:"participant_id"`
	Round         int    `json:"round" yaml:"round"`
	PickNumber    int    `json:"pick_number" yaml:"pick_number"`
}

// Order is the fixed sequence of turns. It is never mutated after NewOrder.
type Order struct {
	slots []TurnSlot
}

func NewOrder(slots []TurnSlot) Order {
	return Order{slots: slices.Clone(slots)}
}

func (o Order) Len() int { return len(o.slots) }

func (o Order) At(i int) (TurnSlot, bool) {
	if i < 0 || i >= len(o.slots) {
		return TurnSlot{}, false
	}
	return o.slots[i], true
}

// Window yields at most k slots starting at from. Each range over the
// returned sequence starts again from the beginning.
func (o Order) Window(from, k int) iter.Seq[TurnSlot] {
	return func(yield func(TurnSlot) bool) {
		if from < 0 {
			from = 0
		}
		end := min(from+max(k, 0), len(o.slots))
		for i := from; i < end; i++ {
			if !yield(o.slots[i]) {
				return
			}
		}
	}
}

// Slots returns a copy of the whole order.
func (o Order) Slots() []TurnSlot { return slices.Clone(o.slots) }

type OrderStyle string

const (
	OrderLinear OrderStyle = "linear" // same sequence every round
	OrderSnake  OrderStyle = "snake"  // even rounds reversed
)

func ParseOrderStyle(s string) (OrderStyle, error) {
	switch OrderStyle(s) {
	case OrderLinear, "":
		return OrderLinear, nil
	case OrderSnake:
		return OrderSnake, nil
	default:
		return "", fmt.Errorf("%w: unknown order style %q", ErrInvalidDraft, s)
	}
}

// GenerateOrder builds a turn order for participants over the given number of rounds.
// Pick numbers are overall and start at 1.
func GenerateOrder(participantIDs []string, rounds int, style OrderStyle) ([]TurnSlot, error) {
	if len(participantIDs) == 0 {
		return nil, fmt.Errorf("%w: no participants", ErrInvalidDraft)
	}
	if rounds <= 0 {
		return nil, fmt.Errorf("%w: rounds must be positive, got %d", ErrInvalidDraft, rounds)
	}

	slots := make([]TurnSlot, 0, len(participantIDs)*rounds)
	reversed := slices.Clone(participantIDs)
	slices.Reverse(reversed)

	pick := 1
	for round := 1; round <= rounds; round++ {
		seq := participantIDs
		if style == OrderSnake && round%2 == 0 {
			seq = reversed
		}
		for _, id := range seq {
			slots = append(slots, TurnSlot{ParticipantID: id, Round: round, PickNumber: pick})
			pick++
		}
	}
	return slots, nil
}
