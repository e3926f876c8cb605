package middleware

import (
	"net/http"
	"strings"
	"time"

	"mercator-hq/courier/pkg/telemetry/metrics"
)

// MetricsMiddleware records request counts and latency labelled by the
// matched route pattern. It must wrap the ServeMux directly or through
// middleware that passes the same *http.Request down, since the mux records
// the pattern on the request it receives.
func MetricsMiddleware(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if collector == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			collector.RecordHTTPRequest(r.Method, routeLabel(r.Pattern), rw.statusCode, time.Since(start))
		})
	}
}

// routeLabel strips the method from a "GET /path" pattern.
func routeLabel(pattern string) string {
	if _, path, ok := strings.Cut(pattern, " "); ok {
		return path
	}
	return pattern
}
