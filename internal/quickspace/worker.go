package quickspace

import (
	"context"
	"sync"
)

// worker runs submitted tasks one at a time on its own goroutine. Once shut
// down it accepts nothing and a new worker must be created.
type worker struct {
	mu       sync.Mutex
	shutdown bool

	tasks  chan func(context.Context)
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func newWorker(queue int) *worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &worker{
		tasks:  make(chan func(context.Context), queue),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *worker) run() {
	defer close(w.done)
	for {
		select {
		case <-w.ctx.Done():
			return
		case task := <-w.tasks:
			if w.ctx.Err() != nil {
				return
			}
			task(w.ctx)
		}
	}
}

// execute queues task. It reports false when the worker is shut down or the
// queue is full.
func (w *worker) execute(task func(context.Context)) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.shutdown {
		return false
	}
	select {
	case w.tasks <- task:
		return true
	default:
		return false
	}
}

// shutdownNow cancels the running task's context and drops queued tasks.
func (w *worker) shutdownNow() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.shutdown {
		return
	}
	w.shutdown = true
	w.cancel()
}

func (w *worker) isShutdown() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.shutdown
}
