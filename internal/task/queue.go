package task

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Common errors returned by the Queue.
var (
	ErrQueueClosed = errors.New("task queue is closed")
	ErrQueueFull   = errors.New("task queue is full")
)

// Queue is a bounded FIFO of pending tasks backed by a buffered channel.
// Enqueue never blocks: a full queue is reported to the submitter instead of
// stalling the caller.
type Queue struct {
	tasks  chan *Task
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewQueue creates a queue with the given buffer size.
func NewQueue(size int, logger *slog.Logger) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{
		tasks:  make(chan *Task, size),
		logger: logger,
	}
}

// Enqueue adds a task in FIFO order and returns immediately.
func (q *Queue) Enqueue(t *Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.tasks <- t:
		q.logger.Debug("task enqueued",
			"task_id", t.ID(),
			"queue_len", len(q.tasks),
			"queue_cap", cap(q.tasks))
		return nil
	default:
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(q.tasks))
	}
}

// Close stops further submission. Tasks already queued remain consumable.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.tasks)
		q.logger.Info("task queue closed")
	}
}

// Channel returns the read side of the queue for worker consumption.
func (q *Queue) Channel() <-chan *Task {
	return q.tasks
}

// Len returns the number of tasks currently waiting.
func (q *Queue) Len() int {
	return len(q.tasks)
}
