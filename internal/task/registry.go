package task

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownTask is returned when a task identifier is not registered.
var ErrUnknownTask = errors.New("unknown task")

// Registry owns every task from creation until pruning or process teardown.
// It is the submission front door: Submit creates the task, records it and
// places it on the queue in one step.
type Registry struct {
	queue *Queue

	mu    sync.Mutex
	tasks map[uuid.UUID]*Task
}

// NewRegistry creates a registry submitting to the given queue.
func NewRegistry(queue *Queue) *Registry {
	return &Registry{
		queue: queue,
		tasks: make(map[uuid.UUID]*Task),
	}
}

// Submit creates a task for fn, registers it and enqueues it. The callback,
// if non-nil, fires once when the task reaches Completed or Failed. Returns
// the new task's identifier.
func (r *Registry) Submit(fn Func, callback Callback) (uuid.UUID, error) {
	t := newTask(fn, callback)

	r.mu.Lock()
	r.tasks[t.ID()] = t
	r.mu.Unlock()

	if err := r.queue.Enqueue(t); err != nil {
		r.mu.Lock()
		delete(r.tasks, t.ID())
		r.mu.Unlock()
		return uuid.Nil, err
	}
	return t.ID(), nil
}

// Get returns the task with the given identifier.
func (r *Registry) Get(id uuid.UUID) (*Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	return t, ok
}

// Status returns the status of the identified task.
func (r *Registry) Status(id uuid.UUID) (Status, error) {
	t, ok := r.Get(id)
	if !ok {
		return "", ErrUnknownTask
	}
	return t.Status(), nil
}

// Cancel requests cancellation of a Pending task. It returns true only if
// the task was still Pending; a task that has begun Running always runs to
// completion.
func (r *Registry) Cancel(id uuid.UUID) bool {
	t, ok := r.Get(id)
	if !ok {
		return false
	}
	return t.cancel()
}

// Prune removes terminal tasks that finished before the cutoff and returns
// how many were removed.
func (r *Registry) Prune(before time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, t := range r.tasks {
		if t.Status().Terminal() && !t.FinishedAt().IsZero() && t.FinishedAt().Before(before) {
			delete(r.tasks, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of registered tasks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}
