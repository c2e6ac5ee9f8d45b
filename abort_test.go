//go:build linux || darwin

package reactor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbortControllerAbortTripsSignal(t *testing.T) {
	controller := NewAbortController()
	signal := controller.Signal()
	assert.False(t, signal.Aborted())

	reason := errors.New("stop")
	controller.Abort(reason)

	assert.True(t, signal.Aborted())
	assert.ErrorIs(t, signal.Reason(), reason)
	assert.ErrorIs(t, signal.ThrowIfAborted(), reason)
}

func TestAbortControllerAbortNilReasonDefaultsToCancelled(t *testing.T) {
	controller := NewAbortController()
	controller.Abort(nil)
	assert.ErrorIs(t, controller.Signal().Reason(), ErrCancelled)
}

func TestAbortOnlyFirstAbortWins(t *testing.T) {
	controller := NewAbortController()
	controller.Abort(errors.New("first"))
	controller.Abort(errors.New("second"))
	assert.Equal(t, "first", controller.Signal().Reason().Error())
}

func TestAbortSignalOnAbortFiresImmediatelyIfAlreadyTripped(t *testing.T) {
	controller := NewAbortController()
	controller.Abort(errors.New("done"))

	var got error
	controller.Signal().OnAbort(func(reason error) { got = reason })
	require.Error(t, got)
}

func TestAbortSignalContextCancelledOnAbort(t *testing.T) {
	controller := NewAbortController()
	ctx := controller.Signal().Context(context.Background())

	reason := errors.New("aborted via context")
	controller.Abort(reason)

	<-ctx.Done()
	assert.ErrorIs(t, context.Cause(ctx), reason)
}

func TestAbortTimeoutTripsAfterDelay(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	controller, err := AbortTimeout(loop, 20*time.Millisecond)
	require.NoError(t, err)

	deadline := time.After(2 * time.Second)
	for !controller.Signal().Aborted() {
		select {
		case <-deadline:
			t.Fatal("AbortTimeout did not trip")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	assert.ErrorIs(t, controller.Signal().Reason(), ErrElapsed)
}

func TestAbortAnyTripsOnFirstSignal(t *testing.T) {
	a := NewAbortController()
	b := NewAbortController()

	combined := AbortAny([]*AbortSignal{a.Signal(), b.Signal()})
	assert.False(t, combined.Aborted())

	reason := errors.New("a tripped")
	a.Abort(reason)

	assert.True(t, combined.Aborted())
	assert.ErrorIs(t, combined.Reason(), reason)
}

func TestAbortAnyAlreadyAbortedInputTripsImmediately(t *testing.T) {
	a := NewAbortController()
	a.Abort(errors.New("pre-aborted"))

	combined := AbortAny([]*AbortSignal{a.Signal()})
	assert.True(t, combined.Aborted())
}

func TestAbortAnyEmptyNeverTrips(t *testing.T) {
	combined := AbortAny(nil)
	assert.False(t, combined.Aborted())
}
