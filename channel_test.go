package reactor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelTrySendTryReceiveRoundTrip(t *testing.T) {
	ch := NewChannel[int](nil, 2)
	require.NoError(t, ch.TrySend(1))
	require.NoError(t, ch.TrySend(2))
	assert.ErrorIs(t, ch.TrySend(3), ErrFull)

	v, err := ch.TryReceive()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = ch.TryReceive()
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = ch.TryReceive()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestChannelCloseDrainsBufferedThenDisconnects(t *testing.T) {
	ch := NewChannel[string](nil, 4)
	require.NoError(t, ch.TrySend("a"))
	ch.Close()

	v, err := ch.TryReceive()
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	_, err = ch.TryReceive()
	assert.ErrorIs(t, err, ErrDisconnected)

	assert.ErrorIs(t, ch.TrySend("b"), ErrDisconnected)
}

func TestChannelSendSuspendsUntilSpaceFrees(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	ch := NewChannel[int](loop, 1)
	require.NoError(t, ch.TrySend(0)) // fill capacity

	sent := make(chan struct{})
	task := Go(loop, func(t *Task[struct{}]) (struct{}, error) {
		err := ch.Send(context.Background(), t.Coro(), 99)
		close(sent)
		return struct{}{}, err
	})

	select {
	case <-sent:
		t.Fatal("Send returned before space freed")
	case <-time.After(50 * time.Millisecond):
	}

	v, err := ch.TryReceive()
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	_, err = task.Future().Await(context.Background())
	require.NoError(t, err)

	v, err = ch.TryReceive()
	require.NoError(t, err)
	assert.Equal(t, 99, v)
}

func TestChannelReceiveSuspendsUntilValueArrives(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	waitForLoopRunning(t, loop)

	ch := NewChannel[int](loop, 1)
	task := Go(loop, func(t *Task[int]) (int, error) {
		return ch.Receive(context.Background(), t.Coro())
	})

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, loop.Submit(func() { _ = ch.TrySend(7) }))

	v, err := task.Future().Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestChannelSyncRoundTrip(t *testing.T) {
	ch := NewChannel[int](nil, 1)
	done := make(chan struct{})
	go func() {
		v, err := ch.ReceiveSync(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, 5, v)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, ch.SendSync(context.Background(), 5))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ReceiveSync did not complete")
	}
}

func TestChannelSendSyncRespectsContext(t *testing.T) {
	ch := NewChannel[int](nil, 1)
	require.NoError(t, ch.SendSync(context.Background(), 1)) // fill capacity

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := ch.SendSync(ctx, 2)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
