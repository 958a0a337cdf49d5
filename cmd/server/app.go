package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/events"
	"github.com/askdb/askdb/internal/orchestrator"
	"github.com/askdb/askdb/internal/platform/gemini"
	"github.com/askdb/askdb/internal/platform/postgres"
	"github.com/askdb/askdb/internal/recommend"
	"github.com/askdb/askdb/internal/render"
	"github.com/askdb/askdb/internal/task"
)

// application holds the wired components of the running server.
type application struct {
	config     *config.Config
	logger     *slog.Logger
	db         *postgres.Executor
	registry   *task.Registry
	queue      *task.Queue
	pool       *task.WorkerPool
	dispatcher *events.Dispatcher
	pipeline   *orchestrator.Orchestrator
}

// newApplication builds the full dependency graph from configuration.
// Without an LLM API key the server still starts: health and task endpoints
// work, query submission is rejected until a key is configured.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := postgres.Connect(ctx, cfg.Database.URL, cfg.Database.ChunkSize, logger)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	var advisor recommend.Advisor
	var generator *gemini.Generator
	if cfg.LLMEnabled() {
		generator, err = gemini.NewGenerator(ctx, logger, cfg.LLM)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("initializing Gemini client: %w", err)
		}
		advisor = generator
		logger.Info("LLM configured", slog.String("model", cfg.LLM.ModelName))
	} else {
		logger.Warn("no LLM API key configured, query submission will be rejected")
	}

	recommender := recommend.NewRecommender(advisor, cfg.Cache.RecommendationCapacity, logger)
	renderer := render.NewPipeline(cfg.Cache.FigureCapacity, logger)

	queue := task.NewQueue(cfg.Worker.QueueSize, logger)
	registry := task.NewRegistry(queue)
	pool := task.NewWorkerPool(queue, task.WorkerPoolConfig{
		WorkerCount:     cfg.Worker.Count,
		ShutdownTimeout: cfg.Worker.ShutdownTimeout,
	}, logger)
	dispatcher := events.NewDispatcher(cfg.Worker.QueueSize, logger)

	var pipeline *orchestrator.Orchestrator
	if generator != nil {
		pipeline = orchestrator.New(db, generator, generator, recommender, renderer, logger)
	} else {
		pipeline = orchestrator.New(db, nil, nil, recommender, renderer, logger)
	}

	return &application{
		config:     cfg,
		logger:     logger,
		db:         db,
		registry:   registry,
		queue:      queue,
		pool:       pool,
		dispatcher: dispatcher,
		pipeline:   pipeline,
	}, nil
}

// start launches the background machinery.
func (app *application) start() {
	app.dispatcher.Start()
	app.pool.Start()
}

// cleanup stops background work and releases connections, in reverse
// dependency order.
func (app *application) cleanup() {
	app.queue.Close()
	app.pool.Stop()
	app.dispatcher.Stop()
	app.db.Close()
}
