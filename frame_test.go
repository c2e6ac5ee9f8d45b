package reactor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoReturnsResultThroughFuture(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	task := Go(loop, func(t *Task[int]) (int, error) {
		return 9, nil
	})

	v, err := task.Future().Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, v)
	assert.True(t, task.Done())
}

func TestGoRecoversPanicAsPanicError(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	task := Go(loop, func(t *Task[int]) (int, error) {
		panic("boom")
	})

	_, err = task.Future().Await(context.Background())
	require.Error(t, err)
	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "boom", panicErr.Value)
}

func TestCurrentLoopResolvesInsideTask(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	task := Go(loop, func(t *Task[bool]) (bool, error) {
		return CurrentLoop() == loop, nil
	})

	same, err := task.Future().Await(context.Background())
	require.NoError(t, err)
	assert.True(t, same)
}

func TestCurrentLoopPanicsOutsideTask(t *testing.T) {
	assert.Panics(t, func() { CurrentLoop() })
}

func TestSuspendResumesOnSettlement(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	p := NewPromise[string](loop)

	task := Go(loop, func(t *Task[string]) (string, error) {
		return Suspend(context.Background(), t.Coro(), p.GetFuture(), func() error {
			return ErrCancellationNotSupported
		})
	})

	require.NoError(t, loop.Submit(func() { p.Resolve("done") }))

	v, err := task.Future().Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "done", v)
}

func TestTaskCancelInvokesLeafCancelHook(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	p := NewPromise[string](loop)
	suspended := make(chan struct{})

	task := Go(loop, func(t *Task[string]) (string, error) {
		return Suspend(context.Background(), t.Coro(), p.GetFuture(), func() error {
			p.Reject(ErrCancelled)
			return nil
		})
	})

	go func() {
		// give the task goroutine a chance to reach Suspend
		time.Sleep(20 * time.Millisecond)
		close(suspended)
	}()
	<-suspended

	require.NoError(t, task.Cancel())

	_, err = task.Future().Await(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestTaskCancelReportsUnsupportedWithNoHook(t *testing.T) {
	f := newFrame("root")
	err := f.cancelChain()
	assert.ErrorIs(t, err, ErrCancellationNotSupported)
}

func TestTaskCancelRefusedWhileLocked(t *testing.T) {
	f := newFrame("root")
	f.lock()
	defer f.unlock()

	err := f.cancelChain()
	assert.ErrorIs(t, err, ErrLocked)
}

func TestTaskTraceListsFrameChain(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	entered := make(chan struct{})
	release := NewPromise[struct{}](loop)

	task := Go(loop, func(t *Task[struct{}]) (struct{}, error) {
		close(entered)
		return Suspend(context.Background(), t.Coro(), release.GetFuture(), func() error {
			return errors.New("no cancel")
		})
	})

	<-entered
	time.Sleep(10 * time.Millisecond)
	trace := task.Trace()
	assert.Contains(t, trace, "0:")
	assert.Contains(t, trace, "1:")

	require.NoError(t, loop.Submit(func() { release.Resolve(struct{}{}) }))
	_, _ = task.Future().Await(context.Background())
}
