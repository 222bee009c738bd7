// Package seed loads the item pool, participant list and turn order a draft
// starts from.
package seed

import (
	"context"
	"fmt"

	"github.com/DoyleJ11/draftroom/internal/engine"
)

type Seed struct {
	Items        []engine.Item
	Participants []engine.Participant
	Order        []engine.TurnSlot
}

type Source interface {
	Load(ctx context.Context) (Seed, error)
}

// OrderDefaults generate a turn order when the source does not supply one.
type OrderDefaults struct {
	Rounds int
	Style  engine.OrderStyle
}

func (s *Seed) fillOrder(def OrderDefaults) error {
	if len(s.Order) > 0 {
		return nil
	}
	ids := make([]string, len(s.Participants))
	for i, p := range s.Participants {
		ids[i] = p.ID
	}
	order, err := engine.GenerateOrder(ids, def.Rounds, def.Style)
	if err != nil {
		return fmt.Errorf("generate order: %w", err)
	}
	s.Order = order
	return nil
}

// Draft builds a fresh draft from the seed.
func (s Seed) Draft(opts ...engine.Option) (*engine.Draft, error) {
	return engine.New(s.Items, s.Participants, s.Order, opts...)
}
