// Package queue provides a bounded in-process task queue for background
// jobs. Tagging goes through here so that upload responses never wait on
// the detector, while the semaphore keeps concurrent jobs from overloading
// the model servers.
package queue

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/mural-labs/mural/internal/core/ports/driven"
	"github.com/mural-labs/mural/internal/logger"
)

// Ensure Pool implements the interface.
var _ driven.TaskQueue = (*Pool)(nil)

// DefaultWorkers is the default concurrency bound.
const DefaultWorkers = 2

// Pool runs tasks in the background with bounded concurrency.
type Pool struct {
	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

// NewPool creates a pool running at most workers tasks concurrently.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		sem:    semaphore.NewWeighted(int64(workers)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Enqueue schedules the task and returns immediately. The task runs with a
// context independent of the enqueuing request, cancelled only when the
// pool shuts down.
func (p *Pool) Enqueue(name string, task func(ctx context.Context)) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		logger.Warn("Task %q dropped: queue is closed", name)
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		if err := p.sem.Acquire(p.ctx, 1); err != nil {
			logger.Debug("Task %q cancelled before start: %v", name, err)
			return
		}
		defer p.sem.Release(1)
		task(p.ctx)
	}()
}

// Close stops accepting new tasks and waits for in-flight tasks.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()
}
