package reactor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDrivesRootTaskToCompletion(t *testing.T) {
	result, err := Run(func(loop *Loop) (any, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, result)
}

func TestRunPropagatesRootTaskError(t *testing.T) {
	_, err := Run(func(loop *Loop) (any, error) {
		return nil, ErrElapsed
	})
	assert.ErrorIs(t, err, ErrElapsed)
}

func TestSleepResumesAfterDuration(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	start := time.Now()
	task := Go(loop, func(t *Task[struct{}]) (struct{}, error) {
		return struct{}{}, Sleep(context.Background(), loop, t.Coro(), 30*time.Millisecond)
	})

	_, err = task.Future().Await(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestSleepCancelledEarlyReturnsCancelled(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	started := make(chan struct{})
	task := Go(loop, func(t *Task[struct{}]) (struct{}, error) {
		close(started)
		return struct{}{}, Sleep(context.Background(), loop, t.Coro(), 5*time.Second)
	})

	<-started
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, task.Cancel())

	_, err = task.Future().Await(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestTimeoutFailsWithElapsedWhenTaskTooSlow(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	slow := Go(loop, func(t *Task[int]) (int, error) {
		return 0, Sleep(context.Background(), loop, t.Coro(), time.Second)
	})

	outer := Go(loop, func(t *Task[int]) (int, error) {
		return Timeout(context.Background(), loop, t.Coro(), slow, 20*time.Millisecond)
	})

	_, err = outer.Future().Await(context.Background())
	assert.ErrorIs(t, err, ErrElapsed)
}

func TestTimeoutReturnsResultWhenTaskFastEnough(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	fast := Go(loop, func(t *Task[int]) (int, error) {
		return 11, nil
	})

	outer := Go(loop, func(t *Task[int]) (int, error) {
		return Timeout(context.Background(), loop, t.Coro(), fast, time.Second)
	})

	v, err := outer.Future().Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 11, v)
}
