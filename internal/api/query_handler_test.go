package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/askdb/askdb/internal/datatable"
	"github.com/askdb/askdb/internal/events"
	"github.com/askdb/askdb/internal/orchestrator"
	"github.com/askdb/askdb/internal/recommend"
	"github.com/askdb/askdb/internal/render"
	"github.com/askdb/askdb/internal/sqlcheck"
	"github.com/askdb/askdb/internal/task"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDB struct {
	pingErr error
}

func (s *stubDB) SchemaDescription(context.Context) (string, sqlcheck.Schema, error) {
	return "Table: sales\nColumns: region (text), revenue (numeric)",
		sqlcheck.Schema{"sales": {"region", "revenue"}}, nil
}

func (s *stubDB) Query(context.Context, string) (*datatable.Table, error) {
	return &datatable.Table{
		Columns: []datatable.Column{
			{Name: "region", Kind: datatable.KindCategorical},
			{Name: "revenue", Kind: datatable.KindNumeric},
		},
		Rows: [][]any{{"north", 10.0}, {"south", 20.0}},
	}, nil
}

func (s *stubDB) Ping(context.Context) error { return s.pingErr }

type stubGenerator struct{}

func (stubGenerator) GenerateSQL(context.Context, string, string) (string, error) {
	return "SELECT region, revenue FROM sales;", nil
}

type stubSummarizer struct{}

func (stubSummarizer) Summarize(context.Context, string, string, *datatable.Table) (string, error) {
	return "Revenue is higher in the south.", nil
}

// testServer wires the full handler stack around an in-process worker pool.
type testServer struct {
	router     chi.Router
	registry   *task.Registry
	dispatcher *events.Dispatcher
	pool       *task.WorkerPool
}

func newTestServer(t *testing.T, llmEnabled bool, startWorkers bool) *testServer {
	t.Helper()
	return newTestServerDispatch(t, llmEnabled, startWorkers, true)
}

// newTestServerDispatch additionally controls whether the dispatcher
// goroutine runs, so tests can observe the window between a worker finishing
// and the completion being applied.
func newTestServerDispatch(t *testing.T, llmEnabled, startWorkers, startDispatcher bool) *testServer {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	queue := task.NewQueue(8, logger)
	registry := task.NewRegistry(queue)
	dispatcher := events.NewDispatcher(8, logger)
	if startDispatcher {
		dispatcher.Start()
		t.Cleanup(dispatcher.Stop)
	}

	pipeline := orchestrator.New(
		&stubDB{},
		stubGenerator{},
		stubSummarizer{},
		recommend.NewRecommender(nil, 10, logger),
		render.NewPipeline(10, logger),
		logger,
	)

	pool := task.NewWorkerPool(queue, task.WorkerPoolConfig{WorkerCount: 1, ShutdownTimeout: time.Second}, logger)
	if startWorkers {
		pool.Start()
		t.Cleanup(pool.Stop)
	}

	queryHandler := NewQueryHandler(registry, dispatcher, pipeline, llmEnabled, logger)
	chartHandler := NewChartHandler(dispatcher, pipeline, logger)
	healthHandler := NewHealthHandler(&stubDB{}, llmEnabled)

	r := chi.NewRouter()
	r.Get("/health", healthHandler.Health)
	r.Route("/api", func(r chi.Router) {
		r.Post("/queries", queryHandler.SubmitQuery)
		r.Get("/tasks/{id}", queryHandler.GetTask)
		r.Delete("/tasks/{id}", queryHandler.CancelTask)
		r.Get("/tasks/{id}/chart", chartHandler.GetChart)
	})

	return &testServer{router: r, registry: registry, dispatcher: dispatcher, pool: pool}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) submit(t *testing.T) string {
	t.Helper()
	rec := s.do(http.MethodPost, "/api/queries", `{"question":"revenue by region"}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var resp SubmitQueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.TaskID
}

func (s *testServer) waitCompleted(t *testing.T, id string) TaskResponse {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		rec := s.do(http.MethodGet, "/api/tasks/"+id, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var resp TaskResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		if resp.Status == string(task.StatusCompleted) || resp.Status == string(task.StatusFailed) {
			return resp
		}
		select {
		case <-deadline:
			t.Fatalf("task %s never finished, last status %s", id, resp.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestSubmitQueryAccepted(t *testing.T) {
	s := newTestServer(t, true, true)

	id := s.submit(t)
	resp := s.waitCompleted(t, id)

	assert.Equal(t, string(task.StatusCompleted), resp.Status)
	require.NotNil(t, resp.Result)
	assert.Equal(t, "SELECT region, revenue FROM sales;", resp.Result.SQL)
	assert.Equal(t, 2, resp.Result.RowCount)
	assert.Equal(t, "Revenue is higher in the south.", resp.Result.Summary)
	require.NotNil(t, resp.Result.Recommendation)
	assert.NotEmpty(t, resp.Result.ChartKind)
	require.NotNil(t, resp.FinishedAt)
}

func TestGetTaskHidesResultlessCompletion(t *testing.T) {
	// The dispatcher goroutine is held back, so the worker finishes but the
	// completion stays unapplied. The task must read as running until the
	// result is actually retrievable.
	s := newTestServerDispatch(t, true, true, false)
	id := s.submit(t)

	taskID, err := uuid.Parse(id)
	require.NoError(t, err)
	tsk, ok := s.registry.Get(taskID)
	require.True(t, ok)

	deadline := time.Now().Add(3 * time.Second)
	for tsk.Status() != task.StatusCompleted {
		if time.Now().After(deadline) {
			t.Fatalf("task never completed, status %s", tsk.Status())
		}
		time.Sleep(5 * time.Millisecond)
	}

	rec := s.do(http.MethodGet, "/api/tasks/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp TaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(task.StatusRunning), resp.Status)
	assert.Nil(t, resp.Result)

	assert.Equal(t, http.StatusNotFound,
		s.do(http.MethodGet, "/api/tasks/"+id+"/chart", "").Code,
		"chart is unavailable until the completion is applied")

	s.dispatcher.Start()
	t.Cleanup(s.dispatcher.Stop)

	final := s.waitCompleted(t, id)
	assert.Equal(t, string(task.StatusCompleted), final.Status)
	require.NotNil(t, final.Result)
	assert.Equal(t, "SELECT region, revenue FROM sales;", final.Result.SQL)
}

func TestSubmitQueryWithoutLLM(t *testing.T) {
	s := newTestServer(t, false, false)

	rec := s.do(http.MethodPost, "/api/queries", `{"question":"anything"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "no LLM API key")
}

func TestSubmitQueryValidation(t *testing.T) {
	s := newTestServer(t, true, false)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/queries", `not json`).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/queries", `{"question":""}`).Code)
}

func TestGetTaskUnknown(t *testing.T) {
	s := newTestServer(t, true, false)

	assert.Equal(t, http.StatusNotFound,
		s.do(http.MethodGet, "/api/tasks/6e7adec2-9876-4a02-9f4c-2f0d437a1fd5", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/tasks/not-a-uuid", "").Code)
}

func TestCancelPendingTask(t *testing.T) {
	// Workers never started, so the task stays pending and is cancellable.
	s := newTestServer(t, true, false)
	id := s.submit(t)

	rec := s.do(http.MethodDelete, "/api/tasks/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp TaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(task.StatusCancelled), resp.Status)

	// A second cancel finds the task already terminal.
	assert.Equal(t, http.StatusConflict, s.do(http.MethodDelete, "/api/tasks/"+id, "").Code)
}

func TestCancelCompletedTaskConflicts(t *testing.T) {
	s := newTestServer(t, true, true)
	id := s.submit(t)
	s.waitCompleted(t, id)

	assert.Equal(t, http.StatusConflict, s.do(http.MethodDelete, "/api/tasks/"+id, "").Code)
}

func TestGetChart(t *testing.T) {
	s := newTestServer(t, true, true)
	id := s.submit(t)
	s.waitCompleted(t, id)

	png := s.do(http.MethodGet, "/api/tasks/"+id+"/chart", "")
	require.Equal(t, http.StatusOK, png.Code)
	assert.Equal(t, "image/png", png.Header().Get("Content-Type"))
	assert.NotEmpty(t, png.Body.Bytes())

	svg := s.do(http.MethodGet, "/api/tasks/"+id+"/chart?format=svg", "")
	require.Equal(t, http.StatusOK, svg.Code)
	assert.Equal(t, "image/svg+xml", svg.Header().Get("Content-Type"))
	assert.Contains(t, svg.Body.String(), "<svg")

	alt := s.do(http.MethodGet, "/api/tasks/"+id+"/chart?format=svg&kind=pie", "")
	require.Equal(t, http.StatusOK, alt.Code)

	assert.Equal(t, http.StatusBadRequest,
		s.do(http.MethodGet, "/api/tasks/"+id+"/chart?format=gif", "").Code)
}

func TestGetChartBeforeCompletion(t *testing.T) {
	s := newTestServer(t, true, false)
	id := s.submit(t)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/tasks/"+id+"/chart", "").Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, true, false)

	rec := s.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "up", resp.Database)
	assert.Equal(t, "configured", resp.LLM)
}
