package reactor

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	currentLoopMu sync.RWMutex
	currentLoops  = map[uint64]*Loop{}
)

func registerCurrentLoop(loop *Loop) {
	currentLoopMu.Lock()
	currentLoops[getGoroutineID()] = loop
	currentLoopMu.Unlock()
}

func unregisterCurrentLoop() {
	currentLoopMu.Lock()
	delete(currentLoops, getGoroutineID())
	currentLoopMu.Unlock()
}

// CurrentLoop returns the Loop driving the calling goroutine's Task tree.
// It panics outside a goroutine started by Run or Go; back-ends should
// prefer receiving a *Loop explicitly over relying on this.
func CurrentLoop() *Loop {
	currentLoopMu.RLock()
	loop, ok := currentLoops[getGoroutineID()]
	currentLoopMu.RUnlock()
	if !ok {
		panic("reactor: CurrentLoop called outside a Run-driven goroutine tree")
	}
	return loop
}

// Run creates a Loop with opts, schedules body as the root Task, drives the
// loop until that Task finishes, tears the loop down, and returns the
// Task's result. A rejected root Task surfaces as an error from Run.
func Run(body func(*Loop) (any, error), opts ...LoopOption) (any, error) {
	loop, err := New(opts...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = loop.Close() }()

	root := Go(loop, func(t *Task[any]) (any, error) {
		return body(loop)
	})

	root.Future().Then(func(_ any, _ error) {
		// Shutdown waits for the loop goroutine to exit, so it is called
		// from a separate goroutine rather than from this loop callback.
		go func() { _ = loop.Shutdown(context.Background()) }()
	})

	if runErr := loop.Run(context.Background()); runErr != nil && !root.Done() {
		return nil, runErr
	}

	return root.Result()
}

// Sleep suspends core's Task for duration, resuming early with ErrCancelled
// if the await is cancelled.
func Sleep(ctx context.Context, loop *Loop, core *taskCore, duration time.Duration) error {
	p := NewPromise[struct{}](loop)

	timerID, err := loop.ScheduleTimer(duration, func() {
		p.Resolve(struct{}{})
	})
	if err != nil {
		return err
	}

	cancelFn := func() error {
		if !p.IsPending() {
			return ErrWillBeDone
		}
		loop.CancelTimer(timerID)
		p.Reject(ErrCancelled)
		return nil
	}

	_, err = NewCancellable(p.GetFuture(), cancelFn).Await(ctx, core)
	return err
}

// Timeout awaits task's Future, failing with ErrElapsed if duration elapses
// first. On timeout, task.Cancel is invoked; if it reports ErrWillBeDone,
// Timeout returns the task's own result instead of ErrElapsed.
func Timeout[T any](ctx context.Context, loop *Loop, core *taskCore, task *Task[T], duration time.Duration) (T, error) {
	deadline := NewPromise[struct{}](loop)
	timerID, err := loop.ScheduleTimer(duration, func() {
		deadline.Resolve(struct{}{})
	})
	var zero T
	if err != nil {
		return zero, err
	}

	result := NewPromise[T](loop)
	task.Future().Then(func(v T, e error) {
		loop.CancelTimer(timerID)
		if e != nil {
			result.Reject(e)
		} else {
			result.Resolve(v)
		}
	})
	deadline.GetFuture().Then(func(_ struct{}, _ error) {
		if errors.Is(task.Cancel(), ErrWillBeDone) {
			// The task's own result settles result via the Then above.
			return
		}
		result.Reject(ErrElapsed)
	})

	cancelFn := func() error {
		if !result.IsPending() {
			return ErrWillBeDone
		}
		loop.CancelTimer(timerID)
		_ = task.Cancel()
		result.Reject(ErrCancelled)
		return nil
	}

	return NewCancellable(result.GetFuture(), cancelFn).Await(ctx, core)
}
