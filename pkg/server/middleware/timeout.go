package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// TimeoutMiddleware bounds the request context. Handlers observe the
// deadline through r.Context(). Paths with one of the skip prefixes, such as
// static file downloads, are left unbounded.
func TimeoutMiddleware(timeout time.Duration, skipPrefixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range skipPrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
