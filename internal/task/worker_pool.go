package task

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// WorkerPoolConfig holds configuration options for the worker pool.
type WorkerPoolConfig struct {
	// WorkerCount determines how many concurrent worker goroutines to start.
	// If zero or negative, defaults to 1.
	WorkerCount int

	// ShutdownTimeout bounds how long Stop waits for in-flight tasks before
	// abandoning the join. Zero means DefaultShutdownTimeout.
	ShutdownTimeout time.Duration
}

// DefaultShutdownTimeout bounds the Stop join wait when unconfigured.
const DefaultShutdownTimeout = 5 * time.Second

// DefaultWorkerPoolConfig returns a WorkerPoolConfig with reasonable defaults.
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		WorkerCount:     3,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// WorkerPool runs a fixed set of long-lived workers that pull tasks off a
// queue and execute them synchronously. Execution order across workers is not
// globally deterministic once more than one worker runs; dequeue order is
// FIFO. Construct one pool at the composition root and pass it by reference.
type WorkerPool struct {
	queue       *Queue
	workerCount int
	timeout     time.Duration
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	logger      *slog.Logger

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewWorkerPool creates a worker pool draining the given queue.
func NewWorkerPool(queue *Queue, config WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
	}
	timeout := config.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		queue:       queue,
		workerCount: workerCount,
		timeout:     timeout,
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
	}
}

// Start launches the worker goroutines. Safe to call once.
func (p *WorkerPool) Start() {
	p.startOnce.Do(func() {
		for i := 0; i < p.workerCount; i++ {
			p.wg.Add(1)
			go p.worker(i)
		}
		p.logger.Info("worker pool started", "worker_count", p.workerCount)
	})
}

// Stop signals workers to exit and joins them with a bounded wait. In-flight
// tasks are never interrupted; if they outlast the timeout the join is
// abandoned and the workers are left to finish on their own.
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() {
		p.cancel()

		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			p.logger.Info("worker pool stopped")
		case <-time.After(p.timeout):
			p.logger.Warn("worker pool shutdown timed out, abandoning wait",
				"timeout", p.timeout)
		}
	})
}

// worker loops pulling tasks until the pool context is cancelled or the
// queue channel is closed and drained.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	logger := p.logger.With("worker_id", id)
	logger.Debug("starting worker")

	for {
		select {
		case <-p.ctx.Done():
			logger.Debug("stopping worker")
			return

		case t, ok := <-p.queue.Channel():
			if !ok {
				logger.Debug("task channel closed, stopping worker")
				return
			}
			p.runTask(t, logger)
		}
	}
}

// runTask executes one dequeued task. A task cancelled while it sat in the
// queue is skipped without touching its state further.
func (p *WorkerPool) runTask(t *Task, logger *slog.Logger) {
	if t.Status() == StatusCancelled {
		logger.Debug("skipping cancelled task", "task_id", t.ID())
		return
	}

	logger.Info("processing task", "task_id", t.ID())
	t.execute(p.ctx, logger)

	switch t.Status() {
	case StatusCompleted:
		logger.Info("task completed", "task_id", t.ID(),
			"duration", t.FinishedAt().Sub(t.StartedAt()))
	case StatusFailed:
		logger.Error("task failed", "task_id", t.ID(), "error", t.Err())
	}
}
