package reactor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutexSerializesAccess(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	m := NewMutex(loop)
	var counter int
	const n = 20

	g := NewTaskGroup(loop)
	for i := 0; i < n; i++ {
		Add(g, Go(loop, func(t *Task[struct{}]) (struct{}, error) {
			if err := m.Lock(context.Background(), t.Coro()); err != nil {
				return struct{}{}, err
			}
			defer m.Unlock()
			counter++
			return struct{}{}, nil
		}))
	}

	require.NoError(t, g.Wait(context.Background()))
	assert.Equal(t, n, counter)
}

func TestMutexCancelWhileQueuedRemovesWaiter(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	m := NewMutex(loop)
	require.NoError(t, m.Lock(context.Background(), newTaskCore()))

	waiterCtx, waiterCancel := context.WithCancel(context.Background())
	waiting := make(chan struct{})
	result := make(chan error, 1)
	task := Go(loop, func(t *Task[struct{}]) (struct{}, error) {
		close(waiting)
		return struct{}{}, m.Lock(waiterCtx, t.Coro())
	})
	task.Future().Then(func(_ struct{}, err error) { result <- err })

	<-waiting
	time.Sleep(20 * time.Millisecond)
	waiterCancel()
	require.NoError(t, task.Cancel())

	select {
	case err := <-result:
		assert.ErrorIs(t, err, ErrCancelled)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cancelled waiter")
	}

	m.Unlock()
	assert.False(t, m.Locked())
}

func TestEventLatchesAndReplaysToLateWaiters(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	e := NewEvent(loop)
	require.NoError(t, loop.Submit(e.Set))
	time.Sleep(10 * time.Millisecond)

	task := Go(loop, func(t *Task[struct{}]) (struct{}, error) {
		return struct{}{}, e.Wait(context.Background(), t.Coro())
	})

	_, err = task.Future().Await(context.Background())
	require.NoError(t, err)
	assert.True(t, e.IsSet())
}

func TestEventResetClearsLatch(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	e := NewEvent(loop)
	e.Set()
	assert.True(t, e.IsSet())
	e.Reset()
	assert.False(t, e.IsSet())
}

func TestConditionNotifyWakesOneWaiter(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	m := NewMutex(loop)
	c := NewCondition(loop)

	woken := make(chan struct{}, 1)
	task := Go(loop, func(t *Task[struct{}]) (struct{}, error) {
		if err := m.Lock(context.Background(), t.Coro()); err != nil {
			return struct{}{}, err
		}
		defer m.Unlock()
		if err := c.Wait(context.Background(), t.Coro(), m); err != nil {
			return struct{}{}, err
		}
		woken <- struct{}{}
		return struct{}{}, nil
	})

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, loop.Submit(c.Notify))

	select {
	case <-woken:
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not notified")
	}
	_, err = task.Future().Await(context.Background())
	require.NoError(t, err)
}

func TestConditionCancelledWaiterDoesNotStealWakeupFromNext(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	m := NewMutex(loop)
	c := NewCondition(loop)

	cancelledCtx, cancelWaiterA := context.WithCancel(context.Background())
	resultA := make(chan error, 1)
	taskA := Go(loop, func(t *Task[struct{}]) (struct{}, error) {
		if err := m.Lock(context.Background(), t.Coro()); err != nil {
			return struct{}{}, err
		}
		defer m.Unlock()
		return struct{}{}, c.Wait(cancelledCtx, t.Coro(), m)
	})
	taskA.Future().Then(func(_ struct{}, err error) { resultA <- err })

	woken := make(chan struct{}, 1)
	taskB := Go(loop, func(t *Task[struct{}]) (struct{}, error) {
		if err := m.Lock(context.Background(), t.Coro()); err != nil {
			return struct{}{}, err
		}
		defer m.Unlock()
		if err := c.Wait(context.Background(), t.Coro(), m); err != nil {
			return struct{}{}, err
		}
		woken <- struct{}{}
		return struct{}{}, nil
	})

	time.Sleep(20 * time.Millisecond)
	cancelWaiterA()
	require.NoError(t, taskA.Cancel())

	select {
	case err := <-resultA:
		assert.ErrorIs(t, err, ErrCancelled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled waiter never settled")
	}

	require.NoError(t, loop.Submit(c.Notify))

	select {
	case <-woken:
	case <-time.After(2 * time.Second):
		t.Fatal("second waiter never woken: notify was lost to the cancelled waiter")
	}

	_, err = taskB.Future().Await(context.Background())
	require.NoError(t, err)
}

func TestConditionWaitPredicateLoopsUntilTrue(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	m := NewMutex(loop)
	c := NewCondition(loop)
	ready := false

	task := Go(loop, func(t *Task[struct{}]) (struct{}, error) {
		if err := m.Lock(context.Background(), t.Coro()); err != nil {
			return struct{}{}, err
		}
		defer m.Unlock()
		err := c.WaitPredicate(context.Background(), t.Coro(), m, func() bool { return ready })
		return struct{}{}, err
	})

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, loop.Submit(c.Broadcast)) // spurious wakeup, predicate still false

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, loop.Submit(func() {
		ready = true
		c.Broadcast()
	}))

	_, err = task.Future().Await(context.Background())
	require.NoError(t, err)
}
