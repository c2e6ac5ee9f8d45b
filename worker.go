package reactor

import (
	"context"
	"sync"
	"sync/atomic"
)

// workerTask is the one-slot unit of work handed to a worker goroutine.
type workerTask struct {
	fn      func() (any, error)
	resolve func(val any, err error)
}

// worker is a single dedicated goroutine with a condition-variable-guarded
// one-slot work queue.
type worker struct {
	mu   sync.Mutex
	cond *sync.Cond
	task *workerTask
	exit bool
	done chan struct{}
}

func newWorker() *worker {
	w := &worker{done: make(chan struct{})}
	w.cond = sync.NewCond(&w.mu)
	go w.run()
	return w
}

func (w *worker) run() {
	defer close(w.done)
	for {
		w.mu.Lock()
		for w.task == nil && !w.exit {
			w.cond.Wait()
		}
		if w.task == nil && w.exit {
			w.mu.Unlock()
			return
		}
		t := w.task
		w.task = nil
		w.mu.Unlock()
		w.cond.Broadcast()

		val, err := func() (val any, err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &PanicError{Value: r}
				}
			}()
			return t.fn()
		}()
		t.resolve(val, err)
	}
}

func (w *worker) submit(t *workerTask) {
	w.mu.Lock()
	for w.task != nil {
		w.cond.Wait()
	}
	w.task = t
	w.mu.Unlock()
	w.cond.Broadcast()
}

func (w *worker) stop() {
	w.mu.Lock()
	w.exit = true
	w.mu.Unlock()
	w.cond.Signal()
}

func (w *worker) wait() {
	<-w.done
}

// WorkerPool owns a small pool of dedicated goroutines, each running
// off-loaded blocking work one item at a time. Results are resolved back
// onto the owning Loop via Post; only with a nil loop, or once Post fails
// because the loop has terminated, are they resolved from the worker
// goroutine directly.
type WorkerPool struct {
	loop    *Loop
	workers []*worker
	next    atomic.Uint64
}

// NewWorkerPool creates a pool of size goroutines (minimum 1) bound to
// loop. A nil loop resolves results directly rather than posting.
func NewWorkerPool(loop *Loop, size int) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	p := &WorkerPool{loop: loop}
	for i := 0; i < size; i++ {
		p.workers = append(p.workers, newWorker())
	}
	return p
}

// Submit stashes fn on the next worker (round-robin) and signals it. The
// worker computes fn() and asks the owning Loop to resolve resultPromise,
// falling back to a direct resolve if the loop has already begun shutdown.
func (p *WorkerPool) Submit(fn func() (any, error), resultPromise *Promise[any]) {
	idx := p.next.Add(1) % uint64(len(p.workers))
	w := p.workers[idx]

	w.submit(&workerTask{
		fn: fn,
		resolve: func(val any, err error) {
			settle := func() {
				if err != nil {
					resultPromise.Reject(err)
				} else {
					resultPromise.Resolve(val)
				}
			}
			if p.loop == nil {
				settle()
				return
			}
			if postErr := p.loop.Post(settle); postErr != nil {
				settle()
			}
		},
	})
}

// Close signals every worker to exit and waits for them to drain.
func (p *WorkerPool) Close() {
	for _, w := range p.workers {
		w.stop()
	}
	for _, w := range p.workers {
		w.wait()
	}
}

// ToThread runs fn on pool as a cancellable Task. The worker goroutine
// itself is never preempted: cancellation is cooperative, relying on fn to
// observe whatever flag cancelFn sets before the result settles.
func ToThread[T any](loop *Loop, pool *WorkerPool, ctx context.Context, fn func(context.Context) (T, error), cancelFn func() error) *Task[T] {
	return Go(loop, func(t *Task[T]) (T, error) {
		p := NewPromise[any](loop)
		pool.Submit(func() (any, error) {
			return fn(ctx)
		}, p)

		v, err := NewCancellable(p.GetFuture(), cancelFn).Await(ctx, t.Coro())
		var zero T
		if err != nil {
			return zero, err
		}
		result, _ := v.(T)
		return result, nil
	})
}
