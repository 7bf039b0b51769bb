package localhist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_SerializesSameKey(t *testing.T) {
	g := newGate()

	require.NoError(t, g.acquire(context.Background(), "a"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, g.acquire(ctx, "a"), "second acquire should block until released")

	g.release("a")
	require.NoError(t, g.acquire(context.Background(), "a"))
	g.release("a")
}

func TestGate_IndependentKeys(t *testing.T) {
	g := newGate()

	require.NoError(t, g.acquire(context.Background(), "a"))
	require.NoError(t, g.acquire(context.Background(), "b"))

	g.release("a")
	g.release("b")
}

func TestGate_CancelledBeforeAdmission(t *testing.T) {
	g := newGate()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Even a free slot must not admit a cancelled request.
	assert.ErrorIs(t, g.acquire(ctx, "a"), context.Canceled)

	require.NoError(t, g.acquire(context.Background(), "a"))
	g.release("a")
}
