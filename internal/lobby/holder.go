package lobby

import "sync/atomic"

// Holder publishes the lobby once the draft has been loaded. Until then
// Lobby returns nil.
type Holder struct {
	p atomic.Pointer[Lobby]
}

func (h *Holder) Set(l *Lobby) { h.p.Store(l) }

func (h *Holder) Lobby() *Lobby { return h.p.Load() }
