package reactor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolSubmitResolvesPromise(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	pool := NewWorkerPool(loop, 2)
	defer pool.Close()

	p := NewPromise[any](loop)
	pool.Submit(func() (any, error) { return 21 * 2, nil }, p)

	v, err := p.GetFuture().Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestWorkerPoolSubmitPropagatesError(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	pool := NewWorkerPool(loop, 1)
	defer pool.Close()

	boom := errors.New("worker boom")
	p := NewPromise[any](loop)
	pool.Submit(func() (any, error) { return nil, boom }, p)

	_, err = p.GetFuture().Await(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestToThreadReturnsTypedResult(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	pool := NewWorkerPool(loop, 1)
	defer pool.Close()

	task := ToThread(loop, pool, context.Background(), func(context.Context) (string, error) {
		time.Sleep(10 * time.Millisecond)
		return "result", nil
	}, func() error { return ErrWillBeDone })

	v, err := task.Future().Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "result", v)
}

func TestWorkerPoolDistributesAcrossWorkers(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	pool := NewWorkerPool(loop, 4)
	defer pool.Close()

	const n = 8
	results := make(chan int, n)
	for i := 0; i < n; i++ {
		i := i
		p := NewPromise[any](loop)
		p.GetFuture().Then(func(v any, _ error) {
			results <- v.(int)
		})
		pool.Submit(func() (any, error) { return i, nil }, p)
	}

	seen := map[int]bool{}
	for i := 0; i < n; i++ {
		select {
		case v := <-results:
			seen[v] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for worker results")
		}
	}
	assert.Len(t, seen, n)
}
