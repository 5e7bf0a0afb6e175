// Package worker runs background tasks on a fixed set of goroutines.
package worker

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Pool runs submitted tasks on a fixed number of workers. Submit never
// blocks: when the queue is full the task is refused.
type Pool struct {
	workers int
	jobs    chan func()
	logger  *zap.Logger

	mu      sync.RWMutex
	started bool
	stopped bool
	wg      sync.WaitGroup

	completed atomic.Uint64
	panicked  atomic.Uint64
}

// Stats counts tasks processed by the pool.
type Stats struct {
	Queued    int    `json:"queued"`
	Completed uint64 `json:"completed"`
	Panicked  uint64 `json:"panicked"`
}

// NewPool creates a pool with the given number of workers and queue size.
func NewPool(workers, queueSize int, logger *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &Pool{
		workers: workers,
		jobs:    make(chan func(), queueSize),
		logger:  logger,
	}
}

// Start launches the workers. They exit when ctx is cancelled or Stop is
// called.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func(workerID int) {
			defer p.wg.Done()
			p.worker(ctx, workerID)
		}(i)
	}
	p.logger.Debug("worker pool started", zap.Int("workers", p.workers), zap.Int("queue", cap(p.jobs)))
}

// Submit queues task for execution.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.jobs <- task:
		return nil
	default:
		return ErrPoolFull
	}
}

// Stop refuses new tasks, lets queued ones finish and waits for the workers.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Debug("worker pool stopped", zap.Uint64("completed", p.completed.Load()))
}

// Stats returns current counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Queued:    len(p.jobs),
		Completed: p.completed.Load(),
		Panicked:  p.panicked.Load(),
	}
}

func (p *Pool) worker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-p.jobs:
			if !ok {
				return
			}
			p.run(id, task)
		}
	}
}

func (p *Pool) run(id int, task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.panicked.Add(1)
			p.logger.Error("task panicked", zap.Int("worker", id), zap.Any("panic", r))
		}
	}()
	task()
	p.completed.Add(1)
}
