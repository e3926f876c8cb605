package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"mercator-hq/courier/pkg/retention"
)

// CleanupEngine runs and previews retention.
type CleanupEngine interface {
	RunCleanup(ctx context.Context) (*retention.Summary, error)
	ComputeStats(ctx context.Context) (*retention.Stats, error)
}

// SchedulerStatusProvider reports the daily cleanup schedule.
type SchedulerStatusProvider interface {
	Status() retention.SchedulerStatus
}

// CleanupHandler serves the /cleanup endpoints.
type CleanupHandler struct {
	engine    CleanupEngine
	scheduler SchedulerStatusProvider
	logger    *slog.Logger
}

// NewCleanupHandler creates the cleanup endpoints. scheduler may be nil when
// the daily job is disabled.
func NewCleanupHandler(engine CleanupEngine, scheduler SchedulerStatusProvider) *CleanupHandler {
	return &CleanupHandler{
		engine:    engine,
		scheduler: scheduler,
		logger:    slog.Default().With("component", "handlers.cleanup"),
	}
}

// Run executes one cleanup pass and returns its summary. Per-item failures
// are reported inside the summary, not as an error status.
func (h *CleanupHandler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, err := h.engine.RunCleanup(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "manual cleanup interrupted", "error", err)
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Stats previews what the next cleanup would remove.
func (h *CleanupHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.ComputeStats(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Scheduler reports whether the daily job is running and when it fires next.
func (h *CleanupHandler) Scheduler(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		writeJSON(w, http.StatusOK, retention.SchedulerStatus{
			Schedule: retention.DefaultSchedule,
			Timezone: retention.Timezone,
		})
		return
	}
	writeJSON(w, http.StatusOK, h.scheduler.Status())
}
