package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ternarybob/arbor"
)

// ProcessFunc handles one queued asset
type ProcessFunc func(ctx context.Context, assetID string) error

// Task is the handle returned by Submit. Callers can await completion or
// ignore it; the pool processes the asset either way.
type Task struct {
	AssetID string
	done    chan struct{}
	err     error
}

// Wait blocks until the task completes or the context is cancelled
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pool is a bounded-concurrency worker pool for asset processing. At most
// concurrency assets are processed at once; excess submissions wait in an
// in-memory FIFO and are dispatched as worker slots free up. The pending
// list and active count are the only shared mutable state and are guarded
// by the pool's mutex.
type Pool struct {
	process     ProcessFunc
	concurrency int
	logger      arbor.ILogger

	mu      sync.Mutex
	pending []*Task
	active  int32

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPool creates a worker pool with the given concurrency bound
func NewPool(concurrency int, process ProcessFunc, logger arbor.ILogger) *Pool {
	if concurrency <= 0 {
		concurrency = 3
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		process:     process,
		concurrency: concurrency,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Submit queues an asset for processing and returns a completion handle.
// If a worker slot is free the task starts immediately; otherwise it waits
// in FIFO order.
func (p *Pool) Submit(assetID string) *Task {
	task := &Task{AssetID: assetID, done: make(chan struct{})}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx.Err() != nil {
		task.err = fmt.Errorf("pool is shut down")
		close(task.done)
		return task
	}

	if int(p.active) < p.concurrency {
		p.startLocked(task)
	} else {
		p.pending = append(p.pending, task)
		p.logger.Debug().
			Str("asset_id", assetID).
			Int("queued", len(p.pending)).
			Msg("Worker slots busy, asset waiting in queue")
	}

	return task
}

// startLocked dispatches a task to a new worker goroutine. Caller holds p.mu.
func (p *Pool) startLocked(task *Task) {
	atomic.AddInt32(&p.active, 1)
	p.wg.Add(1)

	go func() {
		defer p.wg.Done()
		defer func() {
			// A panicking handler releases its slot and fails only its task
			if r := recover(); r != nil {
				task.err = fmt.Errorf("processing panic: %v", r)
				p.logger.Error().
					Str("asset_id", task.AssetID).
					Str("panic", fmt.Sprintf("%v", r)).
					Msg("Recovered from processing panic")
				close(task.done)
			}
			p.finish()
		}()

		task.err = p.process(p.ctx, task.AssetID)
		close(task.done)
	}()
}

// finish releases the worker slot and dispatches the next pending task
func (p *Pool) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	atomic.AddInt32(&p.active, -1)

	if len(p.pending) > 0 && p.ctx.Err() == nil && int(p.active) < p.concurrency {
		next := p.pending[0]
		p.pending = p.pending[1:]
		p.startLocked(next)
	}
}

// Active returns the number of assets currently being processed
func (p *Pool) Active() int {
	return int(atomic.LoadInt32(&p.active))
}

// PendingCount returns the number of assets waiting for a worker slot
func (p *Pool) PendingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Shutdown stops accepting work, cancels in-flight contexts, and waits for
// workers to exit. Pending tasks are failed with a shutdown error.
func (p *Pool) Shutdown() {
	p.cancel()

	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()

	for _, task := range pending {
		task.err = fmt.Errorf("pool is shut down")
		close(task.done)
	}

	p.wg.Wait()
}
