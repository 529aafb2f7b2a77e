package messaging

import "sync"

// serialExecutor runs submitted tasks one at a time, in submission order, on a
// single goroutine created when the executor is. It provides the mutual
// exclusion for the drain loop: enqueues and state-change notifications post
// drain attempts here instead of draining inline, so the pop-scan-dispatch
// sequence never runs twice concurrently.
type serialExecutor struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []func()
	closed bool
	done   chan struct{}
}

func newSerialExecutor() *serialExecutor {
	e := &serialExecutor{done: make(chan struct{})}
	e.cond = sync.NewCond(&e.mu)
	go e.run()
	return e
}

func (e *serialExecutor) run() {
	defer close(e.done)
	for {
		e.mu.Lock()
		for len(e.tasks) == 0 && !e.closed {
			e.cond.Wait()
		}
		if len(e.tasks) == 0 {
			e.mu.Unlock()
			return
		}
		t := e.tasks[0]
		e.tasks = e.tasks[1:]
		e.mu.Unlock()
		t()
	}
}

// Do submits a task. Returns false once the executor is closed.
func (e *serialExecutor) Do(fn func()) bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	e.tasks = append(e.tasks, fn)
	e.mu.Unlock()
	e.cond.Signal()
	return true
}

// Close stops accepting new tasks, runs everything already queued, and waits
// for the worker goroutine to exit. Safe to call more than once.
func (e *serialExecutor) Close() {
	e.mu.Lock()
	already := e.closed
	e.closed = true
	e.mu.Unlock()
	if !already {
		e.cond.Signal()
	}
	<-e.done
}
