package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// ErrorWriter writes an error response in the API's envelope.
type ErrorWriter func(w http.ResponseWriter, status int, errorType, message, code string)

// RecoveryMiddleware recovers from panics in handlers, logs the stack and
// answers 500 through writeError without exposing details.
func RecoveryMiddleware(writeError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					slog.ErrorContext(r.Context(), "panic in handler",
						"error", err,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					writeError(w, http.StatusInternalServerError, "server_error",
						"An internal error occurred. Please try again later.", "internal_error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
