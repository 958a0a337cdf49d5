package main

import (
	"net/http"

	"github.com/askdb/askdb/internal/api"
	apimiddleware "github.com/askdb/askdb/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// setupRouter configures all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apimiddleware.Trace)

	queryHandler := api.NewQueryHandler(
		app.registry,
		app.dispatcher,
		app.pipeline,
		app.config.LLMEnabled(),
		app.logger,
	)
	chartHandler := api.NewChartHandler(app.dispatcher, app.pipeline, app.logger)
	healthHandler := api.NewHealthHandler(app.db, app.config.LLMEnabled())

	r.Get("/health", healthHandler.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/queries", queryHandler.SubmitQuery)
		r.Get("/tasks/{id}", queryHandler.GetTask)
		r.Delete("/tasks/{id}", queryHandler.CancelTask)
		r.Get("/tasks/{id}/chart", chartHandler.GetChart)
	})

	return r
}
