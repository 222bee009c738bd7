package engine

import (
	"fmt"
	"maps"
	"slices"
)

type Item struct {
	ID         int               `json:"id"`
	Name       string            `json:"name"`
	Categories []string          `json:"categories,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Drafted    bool              `json:"drafted"`
}

func (it Item) clone() Item {
	it.Categories = slices.Clone(it.Categories)
	it.Attributes = maps.Clone(it.Attributes)
	return it
}

// Pool holds every draftable item in source order. Only the engine flips drafted flags.
type Pool struct {
	items []Item
	index map[int]int // item id -> position in items
}

func NewPool(items []Item) (*Pool, error) {
	p := &Pool{
		items: make([]Item, 0, len(items)),
		index: make(map[int]int, len(items)),
	}
	for _, it := range items {
		if _, dup := p.index[it.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate item id %d", ErrInvalidDraft, it.ID)
		}
		it = it.clone()
		it.Drafted = false
		p.index[it.ID] = len(p.items)
		p.items = append(p.items, it)
	}
	return p, nil
}

func (p *Pool) Lookup(id int) (Item, error) {
	i, ok := p.index[id]
	if !ok {
		return Item{}, fmt.Errorf("%w: item %d", ErrNotFound, id)
	}
	return p.items[i].clone(), nil
}

// Items returns a copy of the pool, safe to hand to readers.
func (p *Pool) Items() []Item {
	out := make([]Item, len(p.items))
	for i, it := range p.items {
		out[i] = it.clone()
	}
	return out
}

func (p *Pool) available(id int) bool {
	i, ok := p.index[id]
	return ok && !p.items[i].Drafted
}

func (p *Pool) markDrafted(id int)   { p.items[p.index[id]].Drafted = true }
func (p *Pool) markUndrafted(id int) { p.items[p.index[id]].Drafted = false }
