package reactor

import (
	"context"
	"sync"
)

// PromiseState represents the settlement state of a Promise.
type PromiseState int32

const (
	// Pending indicates the promise has not yet been settled.
	Pending PromiseState = iota
	// Fulfilled indicates the promise settled with a value.
	Fulfilled
	// Rejected indicates the promise settled with an error.
	Rejected
)

// String returns a human-readable representation of the state.
func (s PromiseState) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Fulfilled:
		return "Fulfilled"
	case Rejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

// promiseCore is the untyped portion of a Promise. It is embedded as the
// first field of every Promise[T] so the registry can track settlement
// generically, via a weak pointer into the promise's own allocation,
// without needing a type parameter on registry itself.
type promiseCore struct {
	mu        sync.Mutex
	state     PromiseState
	observers []func()
	// reject is installed by the owning Promise[T] and lets RejectAll force
	// rejection without knowing the concrete T.
	reject func(error)
}

// State returns the current settlement state.
func (c *promiseCore) State() PromiseState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reject forces rejection with err, a no-op if already settled.
func (c *promiseCore) Reject(err error) {
	if c.reject != nil {
		c.reject(err)
	}
}

// Promise is a single-assignment value cell with a FIFO list of observers.
// A Promise is resolved or rejected at most once; later calls are silently
// ignored (first-write-wins). Resolution never invokes observers
// synchronously: every observer runs as a task posted back to the owning
// Loop, so callers never observe partial state from inside Resolve/Reject.
type Promise[T any] struct {
	core promiseCore

	loop  *Loop
	value T
	err   error
}

// NewPromise creates a Promise bound to loop and registers it with the
// loop's promise registry for weak-pointer-based scavenging. A nil loop is
// permitted for use outside an event loop (observers then run inline).
func NewPromise[T any](loop *Loop) *Promise[T] {
	p := &Promise[T]{loop: loop}
	p.core.reject = func(err error) {
		p.settle(*new(T), err)
	}
	if loop != nil {
		loop.registry.Register(&p.core)
	}
	return p
}

// GetFuture returns a read-only Future view of this Promise.
func (p *Promise[T]) GetFuture() Future[T] {
	return Future[T]{p: p}
}

// Resolve settles the promise with val. A no-op if already settled.
func (p *Promise[T]) Resolve(val T) {
	p.settle(val, nil)
}

// Reject settles the promise with err. A no-op if already settled.
func (p *Promise[T]) Reject(err error) {
	var zero T
	p.settle(zero, err)
}

// IsPending reports whether the promise has not yet settled.
func (p *Promise[T]) IsPending() bool { return p.core.State() == Pending }

// IsFulfilled reports whether the promise settled with a value.
func (p *Promise[T]) IsFulfilled() bool { return p.core.State() == Fulfilled }

// IsRejected reports whether the promise settled with an error.
func (p *Promise[T]) IsRejected() bool { return p.core.State() == Rejected }

func (p *Promise[T]) settle(val T, err error) {
	p.core.mu.Lock()
	if p.core.state != Pending {
		p.core.mu.Unlock()
		return
	}
	p.value = val
	p.err = err
	if err != nil {
		p.core.state = Rejected
	} else {
		p.core.state = Fulfilled
	}
	observers := p.core.observers
	p.core.observers = nil
	p.core.mu.Unlock()

	for _, obs := range observers {
		p.post(obs)
	}
}

// onSettle registers fn to run, via post, once the promise settles. If the
// promise has already settled, fn is posted immediately rather than
// appended, preserving the "always post, never call inline" discipline.
func (p *Promise[T]) onSettle(fn func()) {
	p.core.mu.Lock()
	if p.core.state != Pending {
		p.core.mu.Unlock()
		p.post(fn)
		return
	}
	p.core.observers = append(p.core.observers, fn)
	p.core.mu.Unlock()
}

// post schedules fn on the owning loop, falling back to direct execution
// when there is no loop (e.g. a Promise constructed for use outside Run) or
// when the loop has already finished shutting down.
func (p *Promise[T]) post(fn func()) {
	if p.loop == nil {
		fn()
		return
	}
	if err := p.loop.Post(fn); err != nil {
		fn()
	}
}

// Future is the read-only observer side of a Promise. Multiple Futures
// (and multiple observers on one Future) may share the same underlying
// Promise; each receives its own copy of the settled value.
type Future[T any] struct {
	p *Promise[T]
}

// Then registers a continuation invoked with the terminal value and error.
// Two Thens registered on the same Future fire in registration order. If the
// Future has already settled, f is posted rather than invoked inline.
func (f Future[T]) Then(cb func(T, error)) {
	f.p.onSettle(func() {
		cb(f.p.value, f.p.err)
	})
}

// Fail registers a continuation invoked only on rejection.
func (f Future[T]) Fail(onRejected func(error)) {
	f.Then(func(v T, err error) {
		if err != nil {
			onRejected(err)
		}
	})
}

// Await blocks the calling goroutine until the Future settles or ctx is
// done, whichever comes first. It is safe to call from any goroutine,
// including a Task's dedicated goroutine suspending on an awaited
// operation.
func (f Future[T]) Await(ctx context.Context) (T, error) {
	done := make(chan struct{})
	var val T
	var err error
	f.p.onSettle(func() {
		val, err = f.p.value, f.p.err
		close(done)
	})

	select {
	case <-done:
		return val, err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
