package task

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func waitForStatus(t *testing.T, get func() Status, want Status) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if get() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for status %s, last was %s", want, get())
}

func TestStatusTerminal(t *testing.T) {
	t.Parallel()
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusRunning.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}

func TestQueueEnqueueFIFO(t *testing.T) {
	t.Parallel()
	q := NewQueue(4, discard())

	first := newTask(nil, nil)
	second := newTask(nil, nil)
	require.NoError(t, q.Enqueue(first))
	require.NoError(t, q.Enqueue(second))
	assert.Equal(t, 2, q.Len())

	assert.Same(t, first, <-q.Channel())
	assert.Same(t, second, <-q.Channel())
}

func TestQueueFull(t *testing.T) {
	t.Parallel()
	q := NewQueue(1, discard())

	require.NoError(t, q.Enqueue(newTask(nil, nil)))
	err := q.Enqueue(newTask(nil, nil))
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestQueueClosed(t *testing.T) {
	t.Parallel()
	q := NewQueue(1, discard())
	q.Close()
	q.Close() // double close is safe

	assert.ErrorIs(t, q.Enqueue(newTask(nil, nil)), ErrQueueClosed)
}

func TestQueueClosedDrainsRemaining(t *testing.T) {
	t.Parallel()
	q := NewQueue(2, discard())
	queued := newTask(nil, nil)
	require.NoError(t, q.Enqueue(queued))
	q.Close()

	got, ok := <-q.Channel()
	require.True(t, ok)
	assert.Same(t, queued, got)

	_, ok = <-q.Channel()
	assert.False(t, ok, "channel closed after drain")
}

func TestRegistrySubmitAndGet(t *testing.T) {
	t.Parallel()
	q := NewQueue(4, discard())
	r := NewRegistry(q)

	id, err := r.Submit(func(context.Context) (any, error) { return "ok", nil }, nil)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	tsk, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, id, tsk.ID())
	assert.Equal(t, StatusPending, tsk.Status())

	status, err := r.Status(id)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, status)

	_, err = r.Status(uuid.New())
	assert.ErrorIs(t, err, ErrUnknownTask)
}

func TestRegistrySubmitFullQueueUnregisters(t *testing.T) {
	t.Parallel()
	q := NewQueue(1, discard())
	r := NewRegistry(q)

	_, err := r.Submit(func(context.Context) (any, error) { return nil, nil }, nil)
	require.NoError(t, err)

	id, err := r.Submit(func(context.Context) (any, error) { return nil, nil }, nil)
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, uuid.Nil, id)
	assert.Equal(t, 1, r.Len(), "rejected task must not stay registered")
}

func TestRegistryCancelPendingOnly(t *testing.T) {
	t.Parallel()
	q := NewQueue(4, discard())
	r := NewRegistry(q)

	id, err := r.Submit(func(context.Context) (any, error) { return nil, nil }, nil)
	require.NoError(t, err)

	assert.True(t, r.Cancel(id))
	assert.False(t, r.Cancel(id), "second cancel is rejected")
	assert.False(t, r.Cancel(uuid.New()), "unknown id")

	status, err := r.Status(id)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, status)

	tsk, _ := r.Get(id)
	assert.False(t, tsk.FinishedAt().IsZero())
}

func TestRegistryPrune(t *testing.T) {
	t.Parallel()
	q := NewQueue(4, discard())
	r := NewRegistry(q)

	done, err := r.Submit(func(context.Context) (any, error) { return nil, nil }, nil)
	require.NoError(t, err)
	require.True(t, r.Cancel(done))

	pending, err := r.Submit(func(context.Context) (any, error) { return nil, nil }, nil)
	require.NoError(t, err)

	removed := r.Prune(time.Now().Add(time.Second))
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, r.Len())

	_, ok := r.Get(pending)
	assert.True(t, ok, "non-terminal tasks survive pruning")
}

func TestWorkerPoolExecutesTask(t *testing.T) {
	t.Parallel()
	q := NewQueue(4, discard())
	r := NewRegistry(q)
	pool := NewWorkerPool(q, WorkerPoolConfig{WorkerCount: 2}, discard())
	pool.Start()
	defer pool.Stop()

	var callbackStatus atomic.Value
	id, err := r.Submit(
		func(context.Context) (any, error) { return 42, nil },
		func(tsk *Task) { callbackStatus.Store(tsk.Status()) },
	)
	require.NoError(t, err)

	tsk, _ := r.Get(id)
	waitForStatus(t, tsk.Status, StatusCompleted)

	result, ok := tsk.Result()
	require.True(t, ok)
	assert.Equal(t, 42, result)
	assert.Equal(t, StatusCompleted, callbackStatus.Load(),
		"callback sees the terminal status")
	assert.False(t, tsk.StartedAt().IsZero())
	assert.False(t, tsk.FinishedAt().IsZero())
}

func TestWorkerPoolRecordsFailure(t *testing.T) {
	t.Parallel()
	q := NewQueue(4, discard())
	r := NewRegistry(q)
	pool := NewWorkerPool(q, WorkerPoolConfig{WorkerCount: 1}, discard())
	pool.Start()
	defer pool.Stop()

	id, err := r.Submit(func(context.Context) (any, error) {
		return nil, errors.New("generation refused")
	}, nil)
	require.NoError(t, err)

	tsk, _ := r.Get(id)
	waitForStatus(t, tsk.Status, StatusFailed)
	assert.Equal(t, "generation refused", tsk.Err())

	_, ok := tsk.Result()
	assert.False(t, ok, "failed task has no result")
}

func TestWorkerPoolRecoversPanic(t *testing.T) {
	t.Parallel()
	q := NewQueue(4, discard())
	r := NewRegistry(q)
	pool := NewWorkerPool(q, WorkerPoolConfig{WorkerCount: 1}, discard())
	pool.Start()
	defer pool.Stop()

	id, err := r.Submit(func(context.Context) (any, error) {
		panic("render blew up")
	}, nil)
	require.NoError(t, err)

	tsk, _ := r.Get(id)
	waitForStatus(t, tsk.Status, StatusFailed)
	assert.Contains(t, tsk.Err(), "render blew up")

	// The worker survived; the next task still runs.
	next, err := r.Submit(func(context.Context) (any, error) { return "alive", nil }, nil)
	require.NoError(t, err)
	nextTask, _ := r.Get(next)
	waitForStatus(t, nextTask.Status, StatusCompleted)
}

func TestWorkerPoolSkipsCancelledTask(t *testing.T) {
	t.Parallel()
	q := NewQueue(4, discard())
	r := NewRegistry(q)

	var ran atomic.Bool
	var callbackFired atomic.Bool
	id, err := r.Submit(
		func(context.Context) (any, error) { ran.Store(true); return nil, nil },
		func(*Task) { callbackFired.Store(true) },
	)
	require.NoError(t, err)

	// Cancel while the task sits in the queue, before any worker starts.
	require.True(t, r.Cancel(id))

	marker, err := r.Submit(func(context.Context) (any, error) { return nil, nil }, nil)
	require.NoError(t, err)

	pool := NewWorkerPool(q, WorkerPoolConfig{WorkerCount: 1}, discard())
	pool.Start()
	defer pool.Stop()

	markerTask, _ := r.Get(marker)
	waitForStatus(t, markerTask.Status, StatusCompleted)

	tsk, _ := r.Get(id)
	assert.Equal(t, StatusCancelled, tsk.Status())
	assert.False(t, ran.Load(), "cancelled task body must not run")
	assert.False(t, callbackFired.Load(), "cancelled task fires no callback")
}

func TestWorkerPoolCallbackPanicDoesNotChangeStatus(t *testing.T) {
	t.Parallel()
	q := NewQueue(4, discard())
	r := NewRegistry(q)
	pool := NewWorkerPool(q, WorkerPoolConfig{WorkerCount: 1}, discard())
	pool.Start()
	defer pool.Stop()

	id, err := r.Submit(
		func(context.Context) (any, error) { return "done", nil },
		func(*Task) { panic("callback bug") },
	)
	require.NoError(t, err)

	tsk, _ := r.Get(id)
	waitForStatus(t, tsk.Status, StatusCompleted)

	result, ok := tsk.Result()
	require.True(t, ok)
	assert.Equal(t, "done", result)
}

func TestWorkerPoolStopIsIdempotent(t *testing.T) {
	t.Parallel()
	q := NewQueue(1, discard())
	pool := NewWorkerPool(q, WorkerPoolConfig{WorkerCount: 1, ShutdownTimeout: time.Second}, discard())
	pool.Start()
	pool.Stop()
	pool.Stop()
}

func TestWorkerPoolDefaultsInvalidCount(t *testing.T) {
	t.Parallel()
	q := NewQueue(1, discard())
	pool := NewWorkerPool(q, WorkerPoolConfig{WorkerCount: -1}, discard())
	assert.Equal(t, 1, pool.workerCount)
}
