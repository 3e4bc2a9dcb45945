// Package api exposes the two recurring jobs over http so that an external
// scheduler can trigger them.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"lmswatch-backend/internal/assert"
	"lmswatch-backend/internal/service"
	"lmswatch-backend/internal/session"
	"lmswatch-backend/internal/telemetry"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

const report_api_job = "api.job"

// Jobs are the entry points a scheduler invokes.
type Jobs interface {
	SyncCourses(ctx context.Context, userID int64) error
	CheckNewMessages(ctx context.Context, userID int64, firstBatch bool) (int, error)
}

type Handler struct {
	jobs Jobs
	tel  telemetry.API
}

func NewHandler(jobs Jobs, tel telemetry.API) *Handler {
	assert.NotNil(jobs, "jobs")
	assert.NotNil(tel, "telemetry")
	return &Handler{jobs: jobs, tel: telemetry.NewScopedAPI("api", tel)}
}

// Router builds the http routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/users/{id}", func(r chi.Router) {
		r.Post("/courses/sync", h.SyncCourses)
		r.Post("/messages/check", h.CheckMessages)
	})
	return r
}

// JSON writes v as a JSON response.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		Error(w, http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return id, true
}

func (h *Handler) jobError(w http.ResponseWriter, id int64, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownUser):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrLoginFailed):
		Error(w, http.StatusUnauthorized, err.Error())
	default:
		h.tel.ReportWarning(report_api_job, err, id)
		Error(w, http.StatusBadGateway, err.Error())
	}
}

// SyncCourses refreshes the course roster of a user.
func (h *Handler) SyncCourses(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	err := h.jobs.SyncCourses(r.Context(), id)
	if err != nil {
		h.jobError(w, id, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"user_id": id})
}

// CheckMessages runs a message check, ?first=true stores without notifying.
func (h *Handler) CheckMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	first, _ := strconv.ParseBool(r.URL.Query().Get("first"))

	count, err := h.jobs.CheckNewMessages(r.Context(), id, first)
	if err != nil {
		h.jobError(w, id, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"user_id": id, "stored": count})
}
