// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

//go:build linux || darwin

package reactor

import (
	"context"
	"sync"
	"time"
)

// AbortSignal is a composable cancellation broadcast: a one-shot flag plus
// a FIFO list of handlers run exactly once when the flag trips. It is the
// building block AbortTimeout and AbortAny use to compose cancellation over
// trees of pending operations, in the same spirit as TaskGroup but without
// requiring the operations to be Tasks at all — anything that can register
// a callback and test a bool can participate.
//
// Thread safe: its methods may be called from any goroutine, not just the
// loop thread. It is tripped through AbortController.Abort.
type AbortSignal struct {
	mu       sync.RWMutex
	handlers []func(reason error)
	reason   error
	aborted  bool
}

func newAbortSignal() *AbortSignal {
	return &AbortSignal{}
}

// Aborted reports whether the signal has tripped.
func (s *AbortSignal) Aborted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.aborted
}

// Reason returns the error the signal was aborted with, or nil if it has
// not tripped.
func (s *AbortSignal) Reason() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reason
}

// OnAbort registers handler to run when the signal trips. If it has
// already tripped, handler runs immediately (synchronously, on the calling
// goroutine) with the existing reason.
func (s *AbortSignal) OnAbort(handler func(reason error)) {
	if handler == nil {
		return
	}

	s.mu.Lock()
	if s.aborted {
		reason := s.reason
		s.mu.Unlock()
		handler(reason)
		return
	}
	s.handlers = append(s.handlers, handler)
	s.mu.Unlock()
}

// ThrowIfAborted returns ErrCancelled (or whatever reason the signal
// carries) if the signal has tripped, else nil.
func (s *AbortSignal) ThrowIfAborted() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.aborted {
		return s.reason
	}
	return nil
}

// Context derives a context.Context that is cancelled when s trips, with
// the signal's reason available via context.Cause. This is the bridge used
// to plug an AbortSignal into Suspend/Cancellable.Await, which take a
// context.Context rather than an AbortSignal directly.
func (s *AbortSignal) Context(parent context.Context) context.Context {
	ctx, cancel := context.WithCancelCause(parent)
	s.OnAbort(func(reason error) {
		cancel(reason)
	})
	return ctx
}

func (s *AbortSignal) abort(reason error) {
	s.mu.Lock()
	if s.aborted {
		s.mu.Unlock()
		return
	}
	s.aborted = true
	s.reason = reason
	handlers := make([]func(reason error), len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.Unlock()

	for _, handler := range handlers {
		handler(reason)
	}
}

// AbortController owns an AbortSignal and is the only thing that can trip
// it. Separating the two mirrors Promise/Future: the controller is the
// write side, the signal the read side handed out to observers.
type AbortController struct {
	signal *AbortSignal
}

// NewAbortController returns a controller with a fresh, untripped signal.
func NewAbortController() *AbortController {
	return &AbortController{signal: newAbortSignal()}
}

// Signal returns the controller's AbortSignal.
func (c *AbortController) Signal() *AbortSignal {
	return c.signal
}

// Abort trips the controller's signal with reason. A nil reason is
// replaced with ErrCancelled. Subsequent calls are no-ops; the first
// reason wins.
func (c *AbortController) Abort(reason error) {
	if reason == nil {
		reason = ErrCancelled
	}
	c.signal.abort(reason)
}

// AbortTimeout returns a controller whose signal trips with ErrElapsed
// after delay, scheduled via loop's timer wheel. The returned controller
// can still be aborted early with a different reason.
func AbortTimeout(loop *Loop, delay time.Duration) (*AbortController, error) {
	controller := NewAbortController()

	_, err := loop.ScheduleTimer(delay, func() {
		controller.Abort(ErrElapsed)
	})
	if err != nil {
		return nil, err
	}

	return controller, nil
}

// AbortAny returns a signal that trips the moment any of signals trips,
// carrying that signal's reason. A nil or empty input yields a signal that
// never trips on its own. This is the non-Task analogue of
// TaskGroup.Cancel: fan-in cancellation without requiring the fanned-in
// operations to be coroutines.
func AbortAny(signals []*AbortSignal) *AbortSignal {
	composite := newAbortSignal()
	if len(signals) == 0 {
		return composite
	}

	for _, sig := range signals {
		if sig != nil && sig.Aborted() {
			composite.abort(sig.Reason())
			return composite
		}
	}

	var once sync.Once
	for _, sig := range signals {
		if sig == nil {
			continue
		}
		sig.OnAbort(func(reason error) {
			once.Do(func() {
				composite.abort(reason)
			})
		})
	}

	return composite
}
