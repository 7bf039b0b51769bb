// Package lifecycle coordinates graceful shutdown of long-lived components.
package lifecycle

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Blocker is async work that must complete before shutdown finishes.
type Blocker func(ctx context.Context) error

// Coordinator collects will-shutdown blockers and runs them on Shutdown.
type Coordinator struct {
	log zerolog.Logger

	mu       sync.Mutex
	blockers []Blocker
	done     bool
}

// New creates an empty coordinator.
func New(log zerolog.Logger) *Coordinator {
	return &Coordinator{log: log}
}

// RegisterWillShutdown adds a blocker invoked during Shutdown.
// Registration after Shutdown has run is ignored.
func (c *Coordinator) RegisterWillShutdown(b Blocker) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done {
		c.log.Warn().Msg("blocker registered after shutdown, ignoring")
		return
	}
	c.blockers = append(c.blockers, b)
}

// Shutdown runs every registered blocker and blocks until all complete.
// Blocker failures are joined and returned; the remaining blockers still
// run. Subsequent calls are no-ops.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return nil
	}
	c.done = true
	blockers := c.blockers
	c.mu.Unlock()

	c.log.Debug().Int("blockers", len(blockers)).Msg("shutting down")

	var errs []error
	for _, b := range blockers {
		if err := b(ctx); err != nil {
			c.log.Error().Err(err).Msg("shutdown blocker failed")
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
