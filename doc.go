// Package reactor provides a coroutine runtime for Go built around a
// single-goroutine event loop: the loop, a Promise/Future pair for single-assignment async
// results, stackful coroutines modeled as [Task], and a small set of async
// synchronization primitives (mutex, event, condition, channel) that suspend
// a Task without blocking the underlying OS thread.
//
// # Architecture
//
// A [Loop] drives queued callbacks, timer expiry, and I/O readiness
// notification from a single goroutine. Promise observers and callbacks
// queued via [Loop.Submit], [Loop.SubmitInternal], or the internal post
// helper used by Promise and Task run on that goroutine. Promise settlement
// and the synchronization primitives' wait queues are guarded by their own
// mutexes and may be changed from any goroutine.
//
// [Promise] and [Future] model a single-assignment async result: a Promise
// is resolved or rejected at most once, and every observer runs as a task
// posted back to the loop rather than invoked synchronously from Resolve or
// Reject.
//
// A [Task] wraps a coroutine body running on its own goroutine, suspended
// and resumed via channel handoff with the loop: at each await the body
// blocks until an observer running on the loop goroutine hands it the
// result. Task bodies are not serialised with each other; several may run
// in parallel. Cooperative cancellation and structured grouping build on
// top of the Task/Future pair.
//
// # Platform Support
//
// I/O polling is implemented using platform-native mechanisms:
//   - macOS: kqueue
//   - Linux: epoll
//   - Windows: IOCP (I/O Completion Ports)
//
// File descriptor operations ([Loop.RegisterFD], [Loop.UnregisterFD],
// [Loop.ModifyFD]) provide cross-platform I/O readiness notification.
//
// # Thread Safety
//
// The loop is designed for concurrent access:
//   - [Loop.Submit] and [Loop.SubmitInternal] are safe to call from any goroutine
//   - [Loop.ScheduleMicrotask] is lock-free (MPSC ring buffer)
//   - Timer and FD registration methods are thread-safe
//   - Promise observers are dispatched on the loop goroutine; Resolve and
//     Reject may be called from any goroutine
//
// # Execution Model
//
// The loop supports a dual-path execution model:
//   - Fast path (~50ns/task): channel-based scheduling for low-latency scenarios
//   - I/O path (~8-15us): poll-based scheduling when I/O FDs are registered
//
// Task priority ordering within each tick:
//  1. Timer callbacks (earliest deadline first)
//  2. Internal queue tasks ([Loop.SubmitInternal])
//  3. External queue tasks ([Loop.Submit])
//  4. Microtasks (drained after each macrotask when strict ordering is enabled)
//
// # Usage
//
//	loop, err := reactor.New(reactor.WithStrictMicrotaskOrdering(true))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer loop.Close()
//
//	loop.Submit(func() {
//	    loop.ScheduleTimer(100*time.Millisecond, func() {
//	        fmt.Println("Hello after 100ms")
//	        // Shutdown waits for the loop goroutine to exit, so it is
//	        // started on its own goroutine from inside a loop callback.
//	        go loop.Shutdown(context.Background())
//	    })
//	})
//
//	if err := loop.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// # Error Types
//
// The package provides sentinel errors and structured error types shared
// across its primitives:
//   - [AggregateError]: collects multiple errors from a composite operation
//   - [TypeError], [RangeError]: for argument validation
//   - [TimeoutError]: for deadline and timeout failures
//   - [PanicError]: wraps recovered panics from [Loop.Promisify]
//
// All error types implement the standard [error] interface and an Unwrap
// method, so [errors.Is] and [errors.As] see their causes. Only
// [AggregateError] defines its own Is(), matching any *AggregateError target.
package reactor
