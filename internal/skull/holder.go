package skull

import "sync"

// StateHolder keeps one value behind an exclusive lock. Values are swapped
// whole, so readers only ever see a completed transition.
type StateHolder[S any] struct {
	mu    sync.Mutex
	state S
}

func NewStateHolder[S any](initial S) *StateHolder[S] {
	return &StateHolder[S]{state: initial}
}

func (h *StateHolder[S]) Get() S {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Modify runs transition on the current value and stores the value it
// returns. A transition that rejects its input returns it unchanged.
func Modify[S, R any](h *StateHolder[S], transition func(S) (S, R)) R {
	h.mu.Lock()
	defer h.mu.Unlock()

	next, result := transition(h.state)
	h.state = next
	return result
}
