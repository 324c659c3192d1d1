package parallel

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// Errors reported by WorkerPool.Run.
var (
	// ErrPoolClosed is returned when work is submitted after Close.
	ErrPoolClosed = errors.New("parallel: worker pool closed")

	// ErrWorkPanicked wraps the value recovered from a panicking work item.
	ErrWorkPanicked = errors.New("parallel: work item panicked")
)

// WorkerPool is a fixed set of goroutines executing tile work.
//
// Each worker has its own queue and steals from the others when its queue
// is empty, which balances tiles of uneven cost: tiles inside the set run
// the full iteration budget while tiles far outside escape immediately.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers int

	// workQueues holds per-worker work queues.
	workQueues []chan func()

	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewWorkerPool creates a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
// Workers start immediately and wait for work.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := max(workers*4, 8)

	p := &WorkerPool{
		workers:    workers,
		workQueues: make([]chan func(), workers),
		done:       make(chan struct{}),
	}
	for i := range workers {
		p.workQueues[i] = make(chan func(), queueSize)
	}

	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	own := p.workQueues[id]
	for {
		select {
		case <-p.done:
			p.drainQueue(own)
			return

		case work := <-own:
			if work != nil {
				work()
			}

		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			// Nothing anywhere, block on own queue.
			select {
			case <-p.done:
				p.drainQueue(own)
				return
			case work := <-own:
				if work != nil {
					work()
				}
			}
		}
	}
}

// drainQueue executes all remaining work in a queue.
func (p *WorkerPool) drainQueue(queue chan func()) {
	for {
		select {
		case work := <-queue:
			if work != nil {
				work()
			}
		default:
			return
		}
	}
}

// steal takes one item from another worker's queue, or returns nil.
func (p *WorkerPool) steal(self int) func() {
	for i := range p.workers {
		if i == self {
			continue
		}
		select {
		case work := <-p.workQueues[i]:
			return work
		default:
		}
	}
	return nil
}

// ExecuteAll distributes work round-robin across workers and waits for all
// items to complete. If the pool is closed, this is a no-op.
//
// A panicking item kills its worker; use Run for work that may fail.
func (p *WorkerPool) ExecuteAll(work []func()) {
	if len(work) == 0 || !p.running.Load() {
		return
	}

	var pending sync.WaitGroup
	pending.Add(len(work))

	for i, fn := range work {
		wrapped := func() {
			defer pending.Done()
			fn()
		}
		select {
		case p.workQueues[i%p.workers] <- wrapped:
		case <-p.done:
			pending.Done()
		}
	}

	pending.Wait()
}

// Run executes work as one unit and waits for every item to finish.
//
// A panic in any item is recovered on its worker, the remaining items
// still run, and Run returns an error wrapping ErrWorkPanicked with the
// first recovered value. The caller observes either complete success or a
// single failure for the whole unit.
func (p *WorkerPool) Run(work []func()) error {
	if !p.running.Load() {
		return ErrPoolClosed
	}
	if len(work) == 0 {
		return nil
	}

	var (
		once  sync.Once
		fault error
	)
	guarded := make([]func(), len(work))
	for i, fn := range work {
		guarded[i] = func() {
			defer func() {
				if r := recover(); r != nil {
					once.Do(func() {
						fault = fmt.Errorf("%w: %v", ErrWorkPanicked, r)
					})
				}
			}()
			fn()
		}
	}

	p.ExecuteAll(guarded)
	return fault
}

// Close stops accepting work, lets queued work finish, and stops all
// workers. Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}
