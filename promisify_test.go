package reactor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromisifyResolvesWithFunctionResult(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	p := loop.Promisify(context.Background(), func(ctx context.Context) (any, error) {
		return "ok", nil
	})

	v, err := p.GetFuture().Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestPromisifyRejectsOnFunctionError(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	boom := errors.New("promisify boom")
	p := loop.Promisify(context.Background(), func(ctx context.Context) (any, error) {
		return nil, boom
	})

	_, err = p.GetFuture().Await(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestPromisifyRejectsOnPanic(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	p := loop.Promisify(context.Background(), func(ctx context.Context) (any, error) {
		panic("promisify panic")
	})

	_, err = p.GetFuture().Await(context.Background())
	var panicErr PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "promisify panic", panicErr.Value)
}

func TestPromisifyWithTimeoutRejectsOnDeadline(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	p := loop.PromisifyWithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	_, err = p.GetFuture().Await(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
