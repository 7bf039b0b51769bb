package localhist

import (
	"context"
	"sync"
)

// gate serializes operations per resource: one in-flight operation per
// key, unrelated keys proceed in parallel. Slots are created on demand
// and never removed, so an in-flight operation can never race a slot
// teardown (acceptable low-cardinality growth for a local store).
type gate struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newGate() *gate {
	return &gate{slots: make(map[string]chan struct{})}
}

func (g *gate) slot(key string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.slots[key]
	if !ok {
		s = make(chan struct{}, 1)
		g.slots[key] = s
	}
	return s
}

// acquire admits one operation for key, waiting behind any in-flight
// operation. Returns the context error if cancelled first, so callers
// can bail out before performing any I/O.
func (g *gate) acquire(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case g.slot(key) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gate) release(key string) {
	<-g.slot(key)
}
