package reactor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskGroupWaitReturnsFirstError(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	g := NewTaskGroup(loop)
	Add(g, Go(loop, func(t *Task[int]) (int, error) { return 1, nil }))
	Add(g, Go(loop, func(t *Task[int]) (int, error) { return 0, ErrElapsed }))

	err = g.Wait(context.Background())
	assert.ErrorIs(t, err, ErrElapsed)
}

func TestTaskGroupWaitWithNoChildrenSucceeds(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	g := NewTaskGroup(loop)
	assert.NoError(t, g.Wait(context.Background()))
}

func TestTaskGroupAddAfterCancelCancelsChild(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	g := NewTaskGroup(loop)
	require.NoError(t, g.Cancel())

	p := NewPromise[struct{}](loop)
	task := Go(loop, func(t *Task[struct{}]) (struct{}, error) {
		return Suspend(context.Background(), t.Coro(), p.GetFuture(), func() error {
			p.Reject(ErrCancelled)
			return nil
		})
	})
	Add(g, task)

	_, err = task.Future().Await(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestRaceCancelsRemainingChildren(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	fast := NewPromise[int](loop)
	slow := NewPromise[int](loop)

	g := NewTaskGroup(loop)
	fastTask := Go(loop, func(t *Task[int]) (int, error) {
		return Suspend(context.Background(), t.Coro(), fast.GetFuture(), func() error {
			return ErrWillBeDone
		})
	})
	slowCancelled := make(chan struct{}, 1)
	slowTask := Go(loop, func(t *Task[int]) (int, error) {
		return Suspend(context.Background(), t.Coro(), slow.GetFuture(), func() error {
			slowCancelled <- struct{}{}
			slow.Reject(ErrCancelled)
			return nil
		})
	})
	Add(g, fastTask)
	Add(g, slowTask)

	require.NoError(t, loop.Submit(func() { fast.Resolve(1) }))

	err = Race(context.Background(), g)
	assert.NoError(t, err)

	select {
	case <-slowCancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("slow task was not cancelled by Race")
	}
}

func TestAllSettledDoesNotCancelSiblingsOnFailure(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	g := NewTaskGroup(loop)
	Add(g, Go(loop, func(t *Task[int]) (int, error) { return 0, ErrElapsed }))
	okTask := Go(loop, func(t *Task[int]) (int, error) { return 3, nil })
	Add(g, okTask)

	err = AllSettled(context.Background(), g)
	assert.ErrorIs(t, err, ErrElapsed)

	v, verr := okTask.Future().Await(context.Background())
	require.NoError(t, verr)
	assert.Equal(t, 3, v)
}
