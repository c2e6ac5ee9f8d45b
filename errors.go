// Package reactor provides error types and sentinel values shared across
// the runtime's coroutine, synchronization, and channel primitives.
package reactor

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the coroutine, synchronization, and channel
// primitives. Callers should match these with errors.Is, since several are
// also wrapped inside structured error types (TimeoutError, PanicError).
var (
	// ErrEOF indicates a stream or channel has been exhausted permanently.
	ErrEOF = errors.New("reactor: EOF")

	// ErrUnexpectedEOF indicates a stream ended before a complete unit of
	// data could be read.
	ErrUnexpectedEOF = errors.New("reactor: unexpected EOF")

	// ErrBrokenPipe indicates a write to a closed or reset endpoint.
	ErrBrokenPipe = errors.New("reactor: broken pipe")

	// ErrBadFileDescriptor indicates an operation on an invalid or closed
	// file descriptor.
	ErrBadFileDescriptor = errors.New("reactor: bad file descriptor")

	// ErrDeviceOrResourceBusy indicates a resource could not be acquired
	// because it is currently in use.
	ErrDeviceOrResourceBusy = errors.New("reactor: device or resource busy")

	// ErrResourceDestroyed indicates an operation was attempted on a
	// resource (loop, worker, channel) that has already been torn down.
	ErrResourceDestroyed = errors.New("reactor: resource destroyed")

	// ErrCancelled indicates a Frame or Task was cancelled before it
	// completed.
	ErrCancelled = errors.New("reactor: cancelled")

	// ErrWillBeDone is returned by a cancellation hook when the underlying
	// operation is already in the process of settling and cannot be
	// cancelled; the caller should await the existing completion instead.
	ErrWillBeDone = errors.New("reactor: will be done")

	// ErrLocked is returned when cancellation is attempted on a Frame that
	// is inside a critical section and cannot be safely interrupted.
	ErrLocked = errors.New("reactor: locked")

	// ErrCancellationNotSupported is returned when a Frame exposes no
	// cancellation hook and has no child to delegate cancellation to.
	ErrCancellationNotSupported = errors.New("reactor: cancellation not supported")

	// ErrElapsed indicates a deadline or timeout fired before the awaited
	// operation completed.
	ErrElapsed = errors.New("reactor: elapsed")

	// ErrFull indicates a bounded Channel rejected a non-blocking send
	// because it has no free capacity.
	ErrFull = errors.New("reactor: full")

	// ErrEmpty indicates a non-blocking receive found no value available.
	ErrEmpty = errors.New("reactor: empty")

	// ErrDisconnected indicates an operation on a Channel that has been
	// closed and drained.
	ErrDisconnected = errors.New("reactor: disconnected")

	// ErrTimerNotFound indicates CancelTimer was called with an ID that
	// already fired or was never scheduled.
	ErrTimerNotFound = errors.New("reactor: timer not found")
)

// AggregateError collects multiple errors into a single error value. No
// function in this package returns one; TaskGroup.Wait reports only the
// first child error.
type AggregateError struct {
	Errors []error
}

// Error implements the error interface.
func (e *AggregateError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "reactor: aggregate error (no errors)"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("reactor: %d errors occurred, first: %v", len(e.Errors), e.Errors[0])
	}
}

// Unwrap returns the underlying error if the panic value is an error type.
// This enables use with [errors.Is] and [errors.As] for error matching
// through the cause chain.
//
// If the panic Value is not an error (e.g., a string or other type),
// returns nil.
//
// Example:
//
//	// If a function panics with an error
//	panicErr := PanicError{Value: io.EOF}
//
//	// We can check if it wraps a specific error
//	if errors.Is(panicErr, io.EOF) {
//	    // This will match
//	}
func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// AggregateErrorCause returns the first error in the Errors slice, if any.
// This is provided for ES2022 .cause compatibility where you might want
// to access a primary underlying cause.
//
// Returns nil if Errors is empty.
func (e *AggregateError) AggregateErrorCause() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// Unwrap returns the errors slice for multi-error unwrapping (Go 1.20+).
// This enables [errors.Is] and [errors.As] to check against all errors
// in the aggregate.
//
// Example:
//
//	aggErr := &AggregateError{
//	    Errors: []error{io.EOF, io.ErrUnexpectedEOF},
//	}
//
//	// Both of these will return true:
//	errors.Is(aggErr, io.EOF)
//	errors.Is(aggErr, io.ErrUnexpectedEOF)
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// Is implements custom error matching for AggregateError.
// Returns true if target is an AggregateError, regardless of contents.
// Matching against the contained errors is done by errors.Is through
// Unwrap, not by this method.
func (e *AggregateError) Is(target error) bool {
	// Check if target is an AggregateError type
	var aggTarget *AggregateError
	return errors.As(target, &aggTarget)
}

// TypeError represents a type error, similar to JavaScript's TypeError.
// This is used when a value is not of the expected type.
type TypeError struct {
	Cause   error
	Message string
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	if e.Message == "" {
		return "type error"
	}
	return e.Message
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *TypeError) Unwrap() error {
	return e.Cause
}

// RangeError represents a range error, similar to JavaScript's RangeError.
// This is used when a value is not within the expected range.
type RangeError struct {
	Cause   error
	Message string
}

// Error implements the error interface.
func (e *RangeError) Error() string {
	if e.Message == "" {
		return "range error"
	}
	return e.Message
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *RangeError) Unwrap() error {
	return e.Cause
}

// TimeoutError represents a timeout error for promise timeouts.
// This is used when an operation times out.
type TimeoutError struct {
	Cause   error
	Message string
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	if e.Message == "" {
		return "operation timed out"
	}
	return e.Message
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// WrapError wraps an error with a message and optional cause chain.
// This is a convenience function for creating wrapped errors with cause.
//
// If the original error should be the cause, pass it as both arguments:
//
//	WrapError("context failed", originalErr)
//
// The result satisfies errors.Is(result, originalErr) == true.
func WrapError(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}
