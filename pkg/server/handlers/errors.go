package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"mercator-hq/courier/pkg/generation"
	"mercator-hq/courier/pkg/newsletter"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information.
type ErrorDetail struct {
	// Message is a human-readable error message.
	Message string `json:"message"`

	// Type categorizes the error, one of the ErrorType constants.
	Type string `json:"type"`

	// Code is a machine-readable error code.
	Code string `json:"code,omitempty"`
}

// Error type constants.
const (
	ErrorTypeInvalidRequest     = "invalid_request_error"
	ErrorTypeAuthentication     = "authentication_error"
	ErrorTypeNotFound           = "not_found"
	ErrorTypeConflict           = "conflict"
	ErrorTypeServerError        = "server_error"
	ErrorTypeServiceUnavailable = "service_unavailable"
	ErrorTypeGatewayTimeout     = "gateway_timeout"
)

// Error code constants.
const (
	CodeInvalidJSON        = "invalid_json"
	CodeInvalidValue       = "invalid_value"
	CodeUnauthorized       = "unauthorized"
	CodeNotFound           = "newsletter_not_found"
	CodeAlreadyGenerating  = "already_generating"
	CodeStorageUnavailable = "storage_unavailable"
	CodeTimeout            = "request_timeout"
	CodeInternalError      = "internal_error"
)

// WriteError writes an error envelope with the given status.
// Its signature matches middleware.ErrorWriter.
func WriteError(w http.ResponseWriter, status int, errorType, message, code string) {
	writeJSON(w, status, &ErrorResponse{
		Error: ErrorDetail{Message: message, Type: errorType, Code: code},
	})
}

// Unauthorized is the deny function for admin routes. The message never says
// whether the secret was missing or wrong.
func Unauthorized(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusUnauthorized, ErrorTypeAuthentication, "unauthorized", CodeUnauthorized)
}

// writeServiceError maps a service error to a status and envelope.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *newsletter.ValidationError
		storageErr    *newsletter.StorageError
	)

	switch {
	case errors.As(err, &validationErr):
		WriteError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, validationErr.Error(), CodeInvalidValue)
	case errors.Is(err, newsletter.ErrNotFound):
		WriteError(w, http.StatusNotFound, ErrorTypeNotFound, "newsletter not found", CodeNotFound)
	case errors.Is(err, generation.ErrAlreadyRunning):
		WriteError(w, http.StatusConflict, ErrorTypeConflict, err.Error(), CodeAlreadyGenerating)
	case errors.Is(err, context.DeadlineExceeded):
		WriteError(w, http.StatusGatewayTimeout, ErrorTypeGatewayTimeout, "request timed out", CodeTimeout)
	case errors.As(err, &storageErr):
		slog.ErrorContext(r.Context(), "storage failure", "error", err, "path", r.URL.Path)
		WriteError(w, http.StatusServiceUnavailable, ErrorTypeServiceUnavailable,
			"storage is temporarily unavailable", CodeStorageUnavailable)
	default:
		slog.ErrorContext(r.Context(), "request failed", "error", err, "path", r.URL.Path)
		WriteError(w, http.StatusInternalServerError, ErrorTypeServerError,
			"An internal error occurred. Please try again later.", CodeInternalError)
	}
}

// writeJSON writes data as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}
