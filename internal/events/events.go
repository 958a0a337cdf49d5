// Package events carries task completion notifications from the worker
// goroutines to the rest of the application. Workers publish onto a buffered
// channel; a single dispatcher goroutine owns the completion store, so
// results are applied in arrival order without shared-state races between
// workers.
package events

import (
	"time"

	"github.com/askdb/askdb/internal/task"
	"github.com/google/uuid"
)

// Completion records the terminal state of one background task.
type Completion struct {
	// TaskID identifies the finished task.
	TaskID uuid.UUID

	// Status is the terminal status the task reached.
	Status task.Status

	// Result holds the task's result value for completed tasks, nil
	// otherwise.
	Result any

	// Err holds the failure message for failed tasks, empty otherwise.
	Err string

	// FinishedAt is when the task reached its terminal status.
	FinishedAt time.Time
}

// CompletionOf builds a Completion from a finished task.
func CompletionOf(t *task.Task) Completion {
	c := Completion{
		TaskID:     t.ID(),
		Status:     t.Status(),
		Err:        t.Err(),
		FinishedAt: t.FinishedAt(),
	}
	if result, ok := t.Result(); ok {
		c.Result = result
	}
	return c
}
