package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of a task.
type Status string

// Task lifecycle states. Pending transitions to Running when a worker picks
// the task up, or to Cancelled on an accepted cancel request. Running
// transitions to Completed or Failed. Completed, Failed and Cancelled are
// terminal.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether s is a terminal status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Func is the body of a task. The returned value becomes the task result on
// success; a non-nil error marks the task failed.
type Func func(ctx context.Context) (any, error)

// Callback is invoked exactly once when a task reaches Completed or Failed,
// synchronously on the worker goroutine, with the task itself as argument.
// Callback panics are caught and logged; they never change the task's
// terminal status.
type Callback func(t *Task)

// Task is a unit of deferred work. Status, result and timestamps are mutated
// only by the executing worker; cancellation is the one submitter-side
// mutation and is accepted only while the task is still Pending.
type Task struct {
	id       uuid.UUID
	fn       Func
	callback Callback

	mu         sync.Mutex
	status     Status
	result     any
	errMsg     string
	startedAt  time.Time
	finishedAt time.Time
}

// newTask wires a task up; tasks are created through Registry.Submit.
func newTask(fn Func, callback Callback) *Task {
	return &Task{
		id:       uuid.New(),
		fn:       fn,
		callback: callback,
		status:   StatusPending,
	}
}

// ID returns the task's unique identifier.
func (t *Task) ID() uuid.UUID {
	return t.id
}

// Status returns the current task status.
func (t *Task) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Result returns the task result. The second result is true only once the
// task has Completed.
func (t *Task) Result() (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, t.status == StatusCompleted
}

// Err returns the failure description, empty unless the task Failed.
func (t *Task) Err() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.errMsg
}

// StartedAt returns when execution began (zero until Running).
func (t *Task) StartedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.startedAt
}

// FinishedAt returns when execution ended (zero until terminal).
func (t *Task) FinishedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.finishedAt
}

// cancel moves a Pending task to Cancelled. It reports false if the task has
// already started or finished; a Running task always runs to completion.
func (t *Task) cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusPending {
		return false
	}
	t.status = StatusCancelled
	t.finishedAt = time.Now()
	return true
}

// execute runs the task body on the calling worker goroutine and drives the
// status machine to a terminal state. The callback fires after the terminal
// status is recorded.
func (t *Task) execute(ctx context.Context, logger *slog.Logger) {
	t.mu.Lock()
	if t.status != StatusPending {
		// A cancelled task reaching a worker is skipped without side effects.
		t.mu.Unlock()
		return
	}
	t.status = StatusRunning
	t.startedAt = time.Now()
	t.mu.Unlock()

	result, err := t.runBody(ctx, logger)

	t.mu.Lock()
	t.finishedAt = time.Now()
	if err != nil {
		t.status = StatusFailed
		t.errMsg = err.Error()
	} else {
		t.status = StatusCompleted
		t.result = result
	}
	t.mu.Unlock()

	t.invokeCallback(logger)
}

// runBody invokes the task function, converting a panic into a failure so a
// misbehaving pipeline stage cannot take down the worker.
func (t *Task) runBody(ctx context.Context, logger *slog.Logger) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("task body panicked", "task_id", t.id, "panic", r)
			err = &panicError{value: r}
		}
	}()
	return t.fn(ctx)
}

func (t *Task) invokeCallback(logger *slog.Logger) {
	if t.callback == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("task callback panicked", "task_id", t.id, "panic", r)
		}
	}()
	t.callback(t)
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.value)
}
