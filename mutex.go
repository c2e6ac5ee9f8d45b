package reactor

import (
	"container/list"
	"context"
	"sync"
)

// Mutex is an async mutual-exclusion lock: Lock suspends the calling Task
// rather than blocking its goroutine when the lock is already held.
// Waiters are served strictly FIFO.
type Mutex struct {
	loop *Loop

	mu      sync.Mutex
	locked  bool
	pending *list.List // of *Promise[struct{}]
}

// NewMutex creates an unlocked Mutex bound to loop.
func NewMutex(loop *Loop) *Mutex {
	return &Mutex{loop: loop, pending: list.New()}
}

// Locked reports whether the mutex is currently held.
func (m *Mutex) Locked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locked
}

// Lock acquires the mutex, suspending core's Task if it is already held.
// If the await is cancelled while queued, the waiter is removed from the
// queue and Lock returns ErrCancelled. If Unlock had already handed it
// ownership, the cancel reports ErrWillBeDone and Lock returns nil with the
// mutex held, so the lock is never left silently held by nobody.
func (m *Mutex) Lock(ctx context.Context, core *taskCore) error {
	m.mu.Lock()
	if !m.locked {
		m.locked = true
		m.mu.Unlock()
		return nil
	}

	p := NewPromise[struct{}](m.loop)
	elem := m.pending.PushBack(p)
	m.mu.Unlock()

	cancelFn := func() error {
		m.mu.Lock()
		if !p.IsPending() {
			m.mu.Unlock()
			return ErrWillBeDone
		}
		m.pending.Remove(elem)
		m.mu.Unlock()
		p.Reject(ErrCancelled)
		return nil
	}

	_, err := NewCancellable(p.GetFuture(), cancelFn).Await(ctx, core)
	if err != nil {
		return err
	}

	return nil
}

// Unlock releases the mutex. If waiters are queued, ownership transfers
// directly to the head of the queue (the mutex stays locked).
func (m *Mutex) Unlock() {
	m.mu.Lock()
	if m.pending.Len() == 0 {
		m.locked = false
		m.mu.Unlock()
		return
	}

	front := m.pending.Front()
	m.pending.Remove(front)
	// Resolve before releasing mu, so a concurrent cancelFn either removes
	// the waiter first or sees it already resolved.
	front.Value.(*Promise[struct{}]).Resolve(struct{}{})
	m.mu.Unlock()
}
