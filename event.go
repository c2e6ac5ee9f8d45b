package reactor

import (
	"container/list"
	"context"
	"sync"
)

// Event is a manual-reset latch. Set resolves every current waiter and
// latches the flag: future Waits return immediately until Reset clears it.
type Event struct {
	loop *Loop

	mu      sync.Mutex
	value   bool
	pending *list.List // of *Promise[struct{}]
}

// NewEvent creates an unset Event bound to loop.
func NewEvent(loop *Loop) *Event {
	return &Event{loop: loop, pending: list.New()}
}

// IsSet reports whether the event is currently latched.
func (e *Event) IsSet() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

// Wait suspends core's Task until Set is called, or returns immediately if
// the event is already set.
func (e *Event) Wait(ctx context.Context, core *taskCore) error {
	e.mu.Lock()
	if e.value {
		e.mu.Unlock()
		return nil
	}

	p := NewPromise[struct{}](e.loop)
	elem := e.pending.PushBack(p)
	e.mu.Unlock()

	cancelFn := func() error {
		e.mu.Lock()
		if !p.IsPending() {
			e.mu.Unlock()
			return ErrWillBeDone
		}
		e.pending.Remove(elem)
		e.mu.Unlock()
		p.Reject(ErrCancelled)
		return nil
	}

	_, err := NewCancellable(p.GetFuture(), cancelFn).Await(ctx, core)
	return err
}

// Set latches the event and resolves every waiter registered so far. A
// no-op if already set.
func (e *Event) Set() {
	e.mu.Lock()
	if e.value {
		e.mu.Unlock()
		return
	}
	e.value = true
	waiters := e.pending
	e.pending = list.New()
	e.mu.Unlock()

	for el := waiters.Front(); el != nil; el = el.Next() {
		el.Value.(*Promise[struct{}]).Resolve(struct{}{})
	}
}

// Reset clears the latch. It does not affect Waits that already completed.
func (e *Event) Reset() {
	e.mu.Lock()
	e.value = false
	e.mu.Unlock()
}
