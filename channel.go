package reactor

import (
	"container/list"
	"context"
	"sync"
)

// Channel is a bounded queue of capacity N shared between Tasks (via the
// async Send/Receive pair) and ordinary goroutines (via the blocking
// SendSync/ReceiveSync pair). Receivers observe sends in send order.
type Channel[T any] struct {
	loop *Loop

	mu   sync.Mutex
	cond *sync.Cond

	buf    []T
	head   int
	count  int
	closed bool

	sendWaiters *list.List // *Promise[struct{}]
	recvWaiters *list.List // *Promise[struct{}]
}

// NewChannel creates a Channel of the given capacity (minimum 1) bound to
// loop. loop may be nil when the channel is only ever used via the Sync
// methods.
func NewChannel[T any](loop *Loop, capacity int) *Channel[T] {
	if capacity <= 0 {
		capacity = 1
	}
	c := &Channel[T]{
		loop:        loop,
		buf:         make([]T, capacity),
		sendWaiters: list.New(),
		recvWaiters: list.New(),
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

func (c *Channel[T]) pushLocked(v T) {
	idx := (c.head + c.count) % len(c.buf)
	c.buf[idx] = v
	c.count++
}

func (c *Channel[T]) popLocked() T {
	v := c.buf[c.head]
	var zero T
	c.buf[c.head] = zero
	c.head = (c.head + 1) % len(c.buf)
	c.count--
	return v
}

func (c *Channel[T]) wakeOneRecvLocked() {
	if el := c.recvWaiters.Front(); el != nil {
		c.recvWaiters.Remove(el)
		el.Value.(*Promise[struct{}]).Resolve(struct{}{})
	}
	c.cond.Broadcast()
}

func (c *Channel[T]) wakeOneSendLocked() {
	if el := c.sendWaiters.Front(); el != nil {
		c.sendWaiters.Remove(el)
		el.Value.(*Promise[struct{}]).Resolve(struct{}{})
	}
	c.cond.Broadcast()
}

// TrySend never suspends: it fails with ErrFull if the buffer has no free
// capacity, or ErrDisconnected if the channel is closed.
func (c *Channel[T]) TrySend(v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrDisconnected
	}
	if c.count == len(c.buf) {
		return ErrFull
	}
	c.pushLocked(v)
	c.wakeOneRecvLocked()
	return nil
}

// TryReceive never suspends: it fails with ErrEmpty if no value is
// available, or ErrDisconnected once the channel is closed and drained.
func (c *Channel[T]) TryReceive() (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	if c.count == 0 {
		if c.closed {
			return zero, ErrDisconnected
		}
		return zero, ErrEmpty
	}
	v := c.popLocked()
	c.wakeOneSendLocked()
	return v, nil
}

// Send suspends core's Task while the buffer is full, resuming once space
// opens up or the channel closes.
func (c *Channel[T]) Send(ctx context.Context, core *taskCore, v T) error {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return ErrDisconnected
		}
		if c.count < len(c.buf) {
			c.pushLocked(v)
			c.wakeOneRecvLocked()
			c.mu.Unlock()
			return nil
		}

		p := NewPromise[struct{}](c.loop)
		elem := c.sendWaiters.PushBack(p)
		c.mu.Unlock()

		cancelFn := func() error {
			c.mu.Lock()
			if !p.IsPending() {
				c.mu.Unlock()
				return ErrWillBeDone
			}
			c.sendWaiters.Remove(elem)
			c.mu.Unlock()
			p.Reject(ErrCancelled)
			return nil
		}

		if _, err := NewCancellable(p.GetFuture(), cancelFn).Await(ctx, core); err != nil {
			return err
		}
	}
}

// Receive suspends core's Task while the buffer is empty, resuming once a
// value is sent or the channel closes.
func (c *Channel[T]) Receive(ctx context.Context, core *taskCore) (T, error) {
	var zero T
	for {
		c.mu.Lock()
		if c.count > 0 {
			v := c.popLocked()
			c.wakeOneSendLocked()
			c.mu.Unlock()
			return v, nil
		}
		if c.closed {
			c.mu.Unlock()
			return zero, ErrDisconnected
		}

		p := NewPromise[struct{}](c.loop)
		elem := c.recvWaiters.PushBack(p)
		c.mu.Unlock()

		cancelFn := func() error {
			c.mu.Lock()
			if !p.IsPending() {
				c.mu.Unlock()
				return ErrWillBeDone
			}
			c.recvWaiters.Remove(elem)
			c.mu.Unlock()
			p.Reject(ErrCancelled)
			return nil
		}

		if _, err := NewCancellable(p.GetFuture(), cancelFn).Await(ctx, core); err != nil {
			return zero, err
		}
	}
}

// SendSync blocks the calling OS thread (not a Task) until v is accepted,
// ctx is done, or the channel closes. For use by goroutines that cannot
// suspend, such as Worker callbacks.
func (c *Channel[T]) SendSync(ctx context.Context, v T) error {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			c.cond.Broadcast()
		case <-done:
		}
	}()
	defer close(done)

	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		if c.closed {
			return ErrDisconnected
		}
		if c.count < len(c.buf) {
			c.pushLocked(v)
			c.wakeOneRecvLocked()
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		c.cond.Wait()
	}
}

// ReceiveSync blocks the calling OS thread until a value is available, ctx
// is done, or the channel closes and drains.
func (c *Channel[T]) ReceiveSync(ctx context.Context) (T, error) {
	var zero T
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			c.cond.Broadcast()
		case <-done:
		}
	}()
	defer close(done)

	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		if c.count > 0 {
			v := c.popLocked()
			c.wakeOneSendLocked()
			return v, nil
		}
		if c.closed {
			return zero, ErrDisconnected
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}
		c.cond.Wait()
	}
}

// Close idempotently closes the channel and wakes every waiter. Subsequent
// Receives drain any remaining buffered items, then fail with
// ErrDisconnected.
func (c *Channel[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true

	sendWaiters := c.sendWaiters
	recvWaiters := c.recvWaiters
	c.sendWaiters = list.New()
	c.recvWaiters = list.New()
	c.mu.Unlock()

	c.cond.Broadcast()

	for el := sendWaiters.Front(); el != nil; el = el.Next() {
		el.Value.(*Promise[struct{}]).Reject(ErrDisconnected)
	}
	for el := recvWaiters.Front(); el != nil; el = el.Next() {
		el.Value.(*Promise[struct{}]).Reject(ErrDisconnected)
	}
}
