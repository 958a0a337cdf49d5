package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/askdb/askdb/internal/task"
	"github.com/google/uuid"
)

// DefaultBuffer is the default capacity of the completion channel.
const DefaultBuffer = 64

// Dispatcher fans task completions into an in-memory store. Publish may be
// called from any goroutine; exactly one goroutine drains the channel and
// applies completions to the store.
type Dispatcher struct {
	ch     chan Completion
	logger *slog.Logger

	mu      sync.RWMutex
	results map[uuid.UUID]Completion

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	stopped   chan struct{}
}

// NewDispatcher creates a dispatcher with the given channel buffer.
func NewDispatcher(buffer int, logger *slog.Logger) *Dispatcher {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Dispatcher{
		ch:      make(chan Completion, buffer),
		logger:  logger.With(slog.String("component", "dispatcher")),
		results: make(map[uuid.UUID]Completion),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start launches the consuming goroutine. Calling Start more than once has
// no effect.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		go d.run()
	})
}

// Stop drains pending completions and stops the consuming goroutine.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.done)
		<-d.stopped
	})
}

// Publish records a completion. It blocks while the channel buffer is full
// so completions are never dropped.
func (d *Dispatcher) Publish(c Completion) {
	select {
	case d.ch <- c:
	case <-d.done:
		d.logger.Warn("completion published after dispatcher stop",
			slog.String("task_id", c.TaskID.String()))
	}
}

// Callback adapts the dispatcher to the worker callback signature.
func (d *Dispatcher) Callback() task.Callback {
	return func(t *task.Task) {
		d.Publish(CompletionOf(t))
	}
}

// Latest returns the stored completion for a task, if any.
func (d *Dispatcher) Latest(id uuid.UUID) (Completion, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.results[id]
	return c, ok
}

// Prune removes completions that finished before the given time and returns
// how many were removed.
func (d *Dispatcher) Prune(before time.Time) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	removed := 0
	for id, c := range d.results {
		if c.FinishedAt.Before(before) {
			delete(d.results, id)
			removed++
		}
	}
	return removed
}

func (d *Dispatcher) run() {
	defer close(d.stopped)
	for {
		select {
		case c := <-d.ch:
			d.apply(c)
		case <-d.done:
			// Drain anything already buffered before exiting.
			for {
				select {
				case c := <-d.ch:
					d.apply(c)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) apply(c Completion) {
	d.mu.Lock()
	d.results[c.TaskID] = c
	d.mu.Unlock()
	d.logger.Debug("completion recorded",
		slog.String("task_id", c.TaskID.String()),
		slog.String("status", string(c.Status)))
}
