// Package api exposes the planner over HTTP for scripted use.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kingrea/eventplanner/internal/logging"
	"github.com/kingrea/eventplanner/internal/planner"
)

// Handler serves the planner API.
type Handler struct {
	service *planner.Service
	logger  *logging.Logger
	maxBody int64
}

// NewHandler binds the API to a planner service.
func NewHandler(service *planner.Service, logger *logging.Logger, maxBody int64) *Handler {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &Handler{service: service, logger: logger, maxBody: maxBody}
}

// NewRouter registers the routes and middleware stack.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(h.recoverMiddleware)
	r.Use(h.loggingMiddleware)

	r.Get("/healthz", h.healthz)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/models", h.listModels)
		r.Post("/plans", h.createPlan)
		r.Get("/artifacts/{id}", h.getArtifact)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})
	return r
}
