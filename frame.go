package reactor

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
)

// frameState tracks a Frame's lifecycle: Created, Running, Suspended, or
// Finished. Transitions are made under the Frame's mutex by the Task's own
// goroutine (in Suspend and when the Task finishes).
type frameState int32

const (
	frameCreated frameState = iota
	frameRunning
	frameSuspended
	frameFinished
)

// Frame is one node in a Task's suspension chain: either the Task's root
// frame, or a frame created by a single Suspend call nested inside it. The
// chain forms a single spine (next), since a coroutine's own goroutine can
// only be suspended at one point at a time.
type Frame struct {
	mu        sync.Mutex
	state     frameState
	cancelled bool
	locked    bool
	cancel    func() error
	next      *Frame
	group     *TaskGroup
	site      string
}

func newFrame(site string) *Frame {
	return &Frame{state: frameCreated, site: site}
}

// Cancelled reports whether this frame has been marked cancelled by a
// Task.Cancel walk.
func (f *Frame) Cancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

// lock marks the frame as inside a critical section: cancellation of the
// chain is refused with ErrLocked until unlock is called. None of the
// package's synchronization primitives call it.
func (f *Frame) lock() {
	f.mu.Lock()
	f.locked = true
	f.mu.Unlock()
}

func (f *Frame) unlock() {
	f.mu.Lock()
	f.locked = false
	f.mu.Unlock()
}

// setGroup records the TaskGroup this frame belongs to, so that cancelling
// the frame (when it has no direct cancel hook of its own) delegates to the
// group.
func (f *Frame) setGroup(g *TaskGroup) {
	f.mu.Lock()
	f.group = g
	f.mu.Unlock()
}

// cancelChain marks every frame from f to the deepest (leaf) frame as
// cancelled, then applies the Task.Cancel contract at the leaf: invoke its
// cancel hook if present, else delegate to its group, else fail with
// ErrCancellationNotSupported. A locked leaf refuses with ErrLocked. The
// hook is cleared as it is taken, before it runs, so it is never invoked
// twice.
func (f *Frame) cancelChain() error {
	cur := f
	var leaf *Frame
	for {
		cur.mu.Lock()
		cur.cancelled = true
		next := cur.next
		if next == nil {
			leaf = cur
		}
		cur.mu.Unlock()
		if next == nil {
			break
		}
		cur = next
	}

	leaf.mu.Lock()
	if leaf.locked {
		leaf.mu.Unlock()
		return ErrLocked
	}
	cancel := leaf.cancel
	leaf.cancel = nil
	group := leaf.group
	leaf.mu.Unlock()

	if cancel != nil {
		return cancel()
	}
	if group != nil {
		return group.Cancel()
	}
	return ErrCancellationNotSupported
}

// taskCore is the non-generic portion of a Task: its Frame chain. It is
// embedded in every Task[T] so Suspend and Cancellable, which operate on a
// Future[V] of possibly different type V, can extend and unwind the chain
// without a type parameter of their own.
type taskCore struct {
	root *Frame
	mu   sync.Mutex
	leaf *Frame
}

func newTaskCore() *taskCore {
	root := newFrame("<task root>")
	root.state = frameRunning
	return &taskCore{root: root, leaf: root}
}

func (c *taskCore) currentLeaf() *Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.leaf
}

func (c *taskCore) attachChild(parent, child *Frame) {
	parent.mu.Lock()
	parent.next = child
	parent.mu.Unlock()
	c.mu.Lock()
	c.leaf = child
	c.mu.Unlock()
}

func (c *taskCore) detachChild(parent, child *Frame) {
	parent.mu.Lock()
	parent.next = nil
	parent.mu.Unlock()
	c.mu.Lock()
	c.leaf = parent
	c.mu.Unlock()
}

// callerSite formats the file:line of the caller skip frames up the stack,
// for use in Frame.site / Task.Trace diagnostics.
func callerSite(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// Suspend installs cancelFn as the cancellation hook for a new leaf Frame
// extending core's chain, registers an observer on f, and blocks the
// calling goroutine until that observer fires. It is the primitive that
// Cancellable and the synchronization primitives (Mutex, Condition,
// Channel) build their cancellable await points on.
//
// cancelFn follows the Task.Cancel contract: return ErrWillBeDone if the
// awaited operation has already completed, nil if cancellation was
// initiated (f must still settle, typically with ErrCancelled), or any
// other error to report that the cancel attempt itself failed.
//
// If ctx is done before f settles, cancelFn is invoked as a best-effort
// local cancellation, unless a Task.Cancel call has already taken the hook
// (the hook runs at most once either way); Suspend still waits for f's actual
// settlement before returning, so observers registered elsewhere on f see
// a consistent outcome.
func Suspend[T any](ctx context.Context, core *taskCore, f Future[T], cancelFn func() error) (T, error) {
	parent := core.currentLeaf()
	child := newFrame(callerSite(3))
	core.attachChild(parent, child)
	defer core.detachChild(parent, child)

	child.mu.Lock()
	child.state = frameSuspended
	child.cancel = cancelFn
	child.mu.Unlock()

	type settled struct {
		val T
		err error
	}
	ch := make(chan settled, 1)
	f.Then(func(v T, err error) {
		ch <- settled{v, err}
	})

	var r settled
	select {
	case r = <-ch:
	case <-ctx.Done():
		child.mu.Lock()
		cancel := child.cancel
		child.cancel = nil
		child.mu.Unlock()
		if cancel != nil {
			_ = cancel()
		}
		r = <-ch
	}

	child.mu.Lock()
	child.cancel = nil
	child.state = frameRunning
	child.mu.Unlock()

	return r.val, r.err
}

// Task is a handle to a running coroutine: a Frame chain plus a typed
// result slot. The coroutine body runs on a dedicated goroutine, posting
// its result back onto the owning Loop when it finishes.
type Task[T any] struct {
	core *taskCore
	loop *Loop

	mu       sync.Mutex
	finished bool
	value    T
	err      error

	promise *Promise[T]
}

// Go starts fn as a Task bound to loop, running on a dedicated goroutine.
// fn receives the Task handle it must thread through Suspend/Cancellable
// calls inside its body, so nested awaits correctly extend the Frame
// chain.
func Go[T any](loop *Loop, fn func(t *Task[T]) (T, error)) *Task[T] {
	t := &Task[T]{
		loop:    loop,
		core:    newTaskCore(),
		promise: NewPromise[T](loop),
	}

	go func() {
		registerCurrentLoop(loop)
		defer unregisterCurrentLoop()
		defer func() {
			if r := recover(); r != nil {
				var zero T
				t.finish(zero, &PanicError{Value: r})
			}
		}()

		val, err := fn(t)
		t.finish(val, err)
	}()

	return t
}

// Coro returns the task's internal coroutine handle, for use with Suspend
// and Cancellable.Await from inside the task's body.
func (t *Task[T]) Coro() *taskCore { return t.core }

func (t *Task[T]) finish(val T, err error) {
	t.mu.Lock()
	if t.finished {
		t.mu.Unlock()
		return
	}
	t.finished = true
	t.value = val
	t.err = err
	t.mu.Unlock()

	t.core.root.mu.Lock()
	t.core.root.state = frameFinished
	t.core.root.mu.Unlock()

	t.post(func() {
		if err != nil {
			t.promise.Reject(err)
		} else {
			t.promise.Resolve(val)
		}
	})
}

func (t *Task[T]) post(fn func()) {
	if t.loop == nil {
		fn()
		return
	}
	if err := t.loop.Post(fn); err != nil {
		fn()
	}
}

// Cancel walks the Task's Frame chain from the root to the deepest
// suspended frame and attempts to cancel the pending await there. See
// Frame.cancelChain for the precise contract.
func (t *Task[T]) Cancel() error {
	return t.core.root.cancelChain()
}

// Done reports whether the Task has finished.
func (t *Task[T]) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.finished
}

// Result returns the Task's outcome. Valid only once Done reports true.
func (t *Task[T]) Result() (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value, t.err
}

// Future returns a Future that resolves when the Task finishes.
func (t *Task[T]) Future() Future[T] {
	return t.promise.GetFuture()
}

// Trace walks the Frame chain and produces a tree of source locations for
// diagnostics, one line per suspension depth.
func (t *Task[T]) Trace() string {
	var sb strings.Builder
	cur := t.core.root
	depth := 0
	for cur != nil {
		cur.mu.Lock()
		site := cur.site
		next := cur.next
		cur.mu.Unlock()
		if depth > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%d: %s", depth, site)
		cur = next
		depth++
	}
	return sb.String()
}
