package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"mercator-hq/courier/pkg/generation"
	"mercator-hq/courier/pkg/newsletter"
)

// History limits.
const (
	DefaultHistoryLimit = 30
	MaxHistoryLimit     = 365
)

// maxGenerateBody bounds the generate request body.
const maxGenerateBody = 4 << 10

// RecordReader is the read and delete surface of the record store.
type RecordReader interface {
	GetByDate(ctx context.Context, date string) (*newsletter.Record, error)
	GetLatestComplete(ctx context.Context) (*newsletter.Record, error)
	GetHistory(ctx context.Context, limit int) ([]*newsletter.Record, error)
	DeleteByID(ctx context.Context, id string) error
}

// Generator starts a background generation run.
type Generator interface {
	Start(ctx context.Context, date string) (generation.Task, error)
}

// GenerateRequest is the body of POST /newsletter/generate.
type GenerateRequest struct {
	Date string `json:"date"`
}

// GenerateResponse acknowledges an accepted run.
type GenerateResponse struct {
	Status newsletter.Status `json:"status"`
	Date   string            `json:"date"`
	TaskID string            `json:"task_id,omitempty"`
}

// HistoryResponse is the body of GET /newsletter/history.
type HistoryResponse struct {
	Newsletters []*newsletter.Record `json:"newsletters"`
	Count       int                  `json:"count"`
}

// DeleteResponse is the body of DELETE /newsletter/{id}.
type DeleteResponse struct {
	Deleted string `json:"deleted"`
}

// NewsletterHandler serves the /newsletter endpoints.
type NewsletterHandler struct {
	store     RecordReader
	generator Generator
	logger    *slog.Logger
}

// NewNewsletterHandler creates the newsletter endpoints.
func NewNewsletterHandler(store RecordReader, generator Generator) *NewsletterHandler {
	return &NewsletterHandler{
		store:     store,
		generator: generator,
		logger:    slog.Default().With("component", "handlers.newsletter"),
	}
}

// Generate accepts a run for the requested date and answers 202 once the
// generating status is stored. The pipeline continues after the response.
func (h *NewsletterHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req GenerateRequest
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxGenerateBody))
	if err := decoder.Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrorTypeInvalidRequest,
			fmt.Sprintf("Invalid JSON in request body: %v", err), CodeInvalidJSON)
		return
	}
	if err := newsletter.ValidateDate(req.Date); err != nil {
		writeServiceError(w, r, err)
		return
	}

	task, err := h.generator.Start(ctx, req.Date)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "generation requested", "date", req.Date, "task_id", task.ID)
	writeJSON(w, http.StatusAccepted, &GenerateResponse{
		Status: newsletter.StatusGenerating,
		Date:   req.Date,
		TaskID: task.ID,
	})
}

// Latest returns the most recent complete newsletter.
func (h *NewsletterHandler) Latest(w http.ResponseWriter, r *http.Request) {
	record, err := h.store.GetLatestComplete(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// History returns up to limit complete newsletters, newest first.
func (h *NewsletterHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	records, err := h.store.GetHistory(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if records == nil {
		records = []*newsletter.Record{}
	}
	writeJSON(w, http.StatusOK, &HistoryResponse{Newsletters: records, Count: len(records)})
}

// ByDate returns the newsletter for the {date} path value in any status.
func (h *NewsletterHandler) ByDate(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	if err := newsletter.ValidateDate(date); err != nil {
		writeServiceError(w, r, err)
		return
	}

	record, err := h.store.GetByDate(r.Context(), date)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// Delete removes the newsletter with the {id} path value.
func (h *NewsletterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	if id == "" {
		writeServiceError(w, r, &newsletter.ValidationError{Field: "id", Message: "required"})
		return
	}

	if err := h.store.DeleteByID(ctx, id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "newsletter deleted", "id", id)
	writeJSON(w, http.StatusOK, &DeleteResponse{Deleted: id})
}

// parseLimit reads the history limit. Empty means the default.
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return DefaultHistoryLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > MaxHistoryLimit {
		return 0, &newsletter.ValidationError{
			Field:   "limit",
			Value:   raw,
			Message: fmt.Sprintf("must be an integer between 1 and %d", MaxHistoryLimit),
		}
	}
	return limit, nil
}
