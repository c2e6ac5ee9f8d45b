package reactor

import (
	"container/list"
	"context"
	"sync"
)

// condWaiter is one queued Wait call. claimed is set exactly once, under
// Condition.mu, by whichever of Notify/Broadcast/Wait's cancelFn removes it
// from the pending list first — that mutual exclusion is what keeps a
// concurrent cancel and a concurrent Notify from both acting on the same
// waiter.
type condWaiter struct {
	promise *Promise[struct{}]
	claimed bool
}

// Condition is an async condition variable paired with a Mutex. The caller
// must hold the mutex on entry to Wait; Wait releases it before suspending
// and reacquires it (which may itself suspend) before returning.
type Condition struct {
	loop *Loop

	mu      sync.Mutex
	pending *list.List // of *condWaiter
}

// NewCondition creates a Condition bound to loop.
func NewCondition(loop *Loop) *Condition {
	return &Condition{loop: loop, pending: list.New()}
}

// Wait releases mutex, suspends core's Task until Notify or Broadcast
// wakes it, then reacquires mutex before returning. Cancellation only
// rejects this waiter's promise if it wins the race to claim it off the
// pending list; if a concurrent Notify claimed it first, cancelFn defers
// to that signal instead of discarding it, so no wakeup is ever lost.
func (c *Condition) Wait(ctx context.Context, core *taskCore, mutex *Mutex) error {
	w := &condWaiter{promise: NewPromise[struct{}](c.loop)}
	c.mu.Lock()
	elem := c.pending.PushBack(w)
	c.mu.Unlock()

	mutex.Unlock()

	cancelFn := func() error {
		c.mu.Lock()
		if w.claimed {
			c.mu.Unlock()
			return ErrWillBeDone
		}
		w.claimed = true
		c.pending.Remove(elem)
		c.mu.Unlock()
		w.promise.Reject(ErrCancelled)
		return nil
	}

	_, waitErr := NewCancellable(w.promise.GetFuture(), cancelFn).Await(ctx, core)

	for {
		if err := mutex.Lock(ctx, core); err == nil {
			break
		}
	}

	return waitErr
}

// WaitPredicate repeatedly calls Wait until predicate returns true, holding
// mutex on entry and on every return.
func (c *Condition) WaitPredicate(ctx context.Context, core *taskCore, mutex *Mutex, predicate func() bool) error {
	for !predicate() {
		if err := c.Wait(ctx, core, mutex); err != nil {
			return err
		}
	}
	return nil
}

// Notify wakes one waiter, if any.
func (c *Condition) Notify() {
	c.mu.Lock()
	if c.pending.Len() == 0 {
		c.mu.Unlock()
		return
	}
	front := c.pending.Front()
	w := front.Value.(*condWaiter)
	w.claimed = true
	c.pending.Remove(front)
	c.mu.Unlock()

	w.promise.Resolve(struct{}{})
}

// Broadcast wakes every waiter.
func (c *Condition) Broadcast() {
	c.mu.Lock()
	waiters := c.pending
	c.pending = list.New()
	for el := waiters.Front(); el != nil; el = el.Next() {
		el.Value.(*condWaiter).claimed = true
	}
	c.mu.Unlock()

	for el := waiters.Front(); el != nil; el = el.Next() {
		el.Value.(*condWaiter).promise.Resolve(struct{}{})
	}
}
