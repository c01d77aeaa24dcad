package worker

import (
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Task is a unit of work submitted to a Pool; it is how the traversal
// scheduler runs one worker's DFS loop concurrently with the others.
type Task func() error

// Pool runs submitted tasks across a fixed number of goroutines, collecting
// every error into a single aggregate, patterned on the teacher's
// internal/worker.WorkerPool.
type Pool struct {
	tasks   chan Task
	wg      sync.WaitGroup
	mu      sync.Mutex
	errs    *multierror.Error
	closeMu sync.Mutex
	closed  bool
}

// NewPool starts a Pool with size worker goroutines.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}

	p := &Pool{tasks: make(chan Task, size*4)}

	for range size {
		go p.loop()
	}

	return p
}

func (p *Pool) loop() {
	for task := range p.tasks {
		if err := task(); err != nil {
			p.mu.Lock()
			p.errs = multierror.Append(p.errs, err)
			p.mu.Unlock()
		}

		p.wg.Done()
	}
}

// Submit enqueues task for execution. Submit after Stop panics, mirroring
// a send on a closed channel.
func (p *Pool) Submit(task Task) {
	p.wg.Add(1)
	p.tasks <- task
}

// Wait blocks until every submitted task has completed and returns the
// aggregate error, or nil if every task succeeded.
func (p *Pool) Wait() error {
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.errs == nil {
		return nil
	}

	return p.errs.ErrorOrNil()
}

// Stop shuts down the pool's goroutines. Safe to call multiple times.
func (p *Pool) Stop() {
	p.closeMu.Lock()
	defer p.closeMu.Unlock()

	if p.closed {
		return
	}

	p.closed = true

	close(p.tasks)
}
