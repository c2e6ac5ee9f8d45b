package reactor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromiseResolveSettlesFuture(t *testing.T) {
	p := NewPromise[int](nil)
	p.Resolve(42)

	assert.True(t, p.IsFulfilled())
	assert.False(t, p.IsPending())

	v, err := p.GetFuture().Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestPromiseRejectSettlesFuture(t *testing.T) {
	p := NewPromise[int](nil)
	p.Reject(ErrCancelled)

	assert.True(t, p.IsRejected())

	_, err := p.GetFuture().Await(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestPromiseFirstSettlementWins(t *testing.T) {
	p := NewPromise[int](nil)
	p.Resolve(1)
	p.Resolve(2)
	p.Reject(ErrElapsed)

	v, err := p.GetFuture().Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestFutureThenOrderingIsFIFO(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runDone := make(chan error, 1)
	go func() { runDone <- loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	p := NewPromise[int](loop)
	f := p.GetFuture()

	var order []int
	done := make(chan struct{})
	f.Then(func(v int, _ error) { order = append(order, 1) })
	f.Then(func(v int, _ error) {
		order = append(order, 2)
		close(done)
	})

	require.NoError(t, loop.Submit(func() { p.Resolve(7) }))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Then callbacks")
	}

	assert.Equal(t, []int{1, 2}, order)
}

func TestFutureThenRunsInlineWithNilLoop(t *testing.T) {
	p := NewPromise[int](nil)
	p.Resolve(5)

	var invoked bool
	p.GetFuture().Then(func(int, error) { invoked = true })
	// post() with a nil loop runs fn synchronously as a documented fallback,
	// so the callback has already run when Then returns.
	assert.True(t, invoked)
}

func TestFutureAwaitRespectsContextCancellation(t *testing.T) {
	p := NewPromise[int](nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.GetFuture().Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
