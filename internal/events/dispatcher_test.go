package events

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/askdb/askdb/internal/task"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	d := NewDispatcher(8, slog.New(slog.DiscardHandler))
	d.Start()
	t.Cleanup(d.Stop)
	return d
}

func waitForCompletion(t *testing.T, d *Dispatcher, id uuid.UUID) Completion {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if c, ok := d.Latest(id); ok {
			return c
		}
		select {
		case <-deadline:
			t.Fatalf("no completion recorded for task %s", id)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestPublishAndLatest(t *testing.T) {
	d := newTestDispatcher(t)
	id := uuid.New()

	d.Publish(Completion{TaskID: id, Status: task.StatusCompleted, Result: 42, FinishedAt: time.Now()})

	c := waitForCompletion(t, d, id)
	assert.Equal(t, task.StatusCompleted, c.Status)
	assert.Equal(t, 42, c.Result)

	_, ok := d.Latest(uuid.New())
	assert.False(t, ok, "unknown task must have no completion")
}

func TestPrune(t *testing.T) {
	d := newTestDispatcher(t)
	oldID, newID := uuid.New(), uuid.New()

	d.Publish(Completion{TaskID: oldID, Status: task.StatusFailed, FinishedAt: time.Now().Add(-time.Hour)})
	d.Publish(Completion{TaskID: newID, Status: task.StatusCompleted, FinishedAt: time.Now()})
	waitForCompletion(t, d, newID)

	removed := d.Prune(time.Now().Add(-time.Minute))

	assert.Equal(t, 1, removed)
	_, ok := d.Latest(oldID)
	assert.False(t, ok)
	_, ok = d.Latest(newID)
	assert.True(t, ok)
}

// End to end: a worker pool runs a task whose callback publishes into the
// dispatcher, and the completion becomes readable from the store.
func TestCallbackFromWorkerPool(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	d := newTestDispatcher(t)

	queue := task.NewQueue(4, logger)
	registry := task.NewRegistry(queue)
	pool := task.NewWorkerPool(queue, task.WorkerPoolConfig{WorkerCount: 1, ShutdownTimeout: time.Second}, logger)
	pool.Start()
	defer pool.Stop()

	id, err := registry.Submit(func(ctx context.Context) (any, error) {
		return "done", nil
	}, d.Callback())
	require.NoError(t, err)

	c := waitForCompletion(t, d, id)
	assert.Equal(t, task.StatusCompleted, c.Status)
	assert.Equal(t, "done", c.Result)
	assert.False(t, c.FinishedAt.IsZero())
}
