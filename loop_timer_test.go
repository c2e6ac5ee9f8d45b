package reactor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleTimerFiresAfterDelay(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	fired := make(chan struct{})
	_, err = loop.ScheduleTimer(10*time.Millisecond, func() { close(fired) })
	require.NoError(t, err)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestCancelTimerSuppressesCallback(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	var fired atomic.Bool
	id, err := loop.ScheduleTimer(30*time.Millisecond, func() { fired.Store(true) })
	require.NoError(t, err)

	require.NoError(t, loop.CancelTimer(id))

	time.Sleep(60 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestCancelTimerTwiceReturnsNotFound(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	id, err := loop.ScheduleTimer(time.Second, func() {})
	require.NoError(t, err)

	require.NoError(t, loop.CancelTimer(id))
	assert.ErrorIs(t, loop.CancelTimer(id), ErrTimerNotFound)
}

func TestCancelTimerAfterFiringReturnsNotFound(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	fired := make(chan struct{})
	id, err := loop.ScheduleTimer(10*time.Millisecond, func() { close(fired) })
	require.NoError(t, err)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
	time.Sleep(10 * time.Millisecond)

	assert.ErrorIs(t, loop.CancelTimer(id), ErrTimerNotFound)
}

func TestCancelTimerUnknownIDReturnsNotFound(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	assert.ErrorIs(t, loop.CancelTimer(999999), ErrTimerNotFound)
}
