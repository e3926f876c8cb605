package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mercator-hq/courier/pkg/telemetry/logging"
	"mercator-hq/courier/pkg/telemetry/metrics"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

func TestCORSMiddleware(t *testing.T) {
	t.Run("adds headers for allowed origin", func(t *testing.T) {
		config := &CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"https://example.com"},
			ExposedHeaders: []string{"X-Request-ID"},
		}
		req := httptest.NewRequest(http.MethodGet, "/newsletter/latest", nil)
		req.Header.Set("Origin", "https://example.com")
		w := httptest.NewRecorder()

		CORSMiddleware(config)(okHandler()).ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
			t.Errorf("Access-Control-Allow-Origin = %q", got)
		}
		if got := w.Header().Get("Access-Control-Expose-Headers"); got != "X-Request-ID" {
			t.Errorf("Access-Control-Expose-Headers = %q", got)
		}
	})

	t.Run("rejects unknown origin", func(t *testing.T) {
		config := &CORSConfig{Enabled: true, AllowedOrigins: []string{"https://example.com"}}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()

		CORSMiddleware(config)(okHandler()).ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Access-Control-Allow-Origin = %q, want empty", got)
		}
	})

	t.Run("handles preflight", func(t *testing.T) {
		config := DefaultCORSConfig()
		req := httptest.NewRequest(http.MethodOptions, "/newsletter/generate", nil)
		req.Header.Set("Origin", "https://example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		w := httptest.NewRecorder()

		CORSMiddleware(config)(okHandler()).ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Errorf("preflight status = %d, want 204", w.Code)
		}
		if got := w.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
			t.Errorf("Access-Control-Allow-Methods = %q", got)
		}
		if got := w.Header().Get("Access-Control-Max-Age"); got != "3600" {
			t.Errorf("Access-Control-Max-Age = %q", got)
		}
	})

	t.Run("disabled passes through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://example.com")
		w := httptest.NewRecorder()

		CORSMiddleware(&CORSConfig{Enabled: false})(okHandler()).ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Access-Control-Allow-Origin = %q, want empty", got)
		}
	})
}

func TestDefaultCORSConfig_AdminPreflight(t *testing.T) {
	handler := CORSMiddleware(DefaultCORSConfig())(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/newsletter/abc", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	req.Header.Set("Access-Control-Request-Headers", "X-Admin-Secret")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "X-Admin-Secret") {
		t.Errorf("allow headers = %q, want X-Admin-Secret", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodDelete) {
		t.Errorf("allow methods = %q, want DELETE", got)
	}
	if got := w.Header().Get("Access-Control-Expose-Headers"); got != "X-Request-ID" {
		t.Errorf("expose headers = %q, want X-Request-ID", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		reuse    bool
	}{
		{name: "generates when missing", incoming: "", reuse: false},
		{name: "reuses client id", incoming: "client-req-42", reuse: true},
		{name: "replaces oversized id", incoming: strings.Repeat("x", 200), reuse: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = logging.GetRequestID(r.Context())
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			RequestIDMiddleware(next).ServeHTTP(w, req)

			header := w.Header().Get(RequestIDHeader)
			if header == "" || header != seen {
				t.Fatalf("header %q and context %q must match and be non-empty", header, seen)
			}
			if tt.reuse && header != tt.incoming {
				t.Errorf("request ID = %q, want %q", header, tt.incoming)
			}
			if !tt.reuse && header == tt.incoming {
				t.Errorf("request ID %q should have been generated", header)
			}
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	var gotStatus int
	writeError := func(w http.ResponseWriter, status int, errorType, message, code string) {
		gotStatus = status
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"type": errorType, "code": code}})
	}
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	RecoveryMiddleware(writeError)(panicking).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError || gotStatus != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "boom") {
		t.Error("panic value leaked into the response")
	}
}

func TestTimeoutMiddleware(t *testing.T) {
	var deadline time.Time
	var hasDeadline bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, hasDeadline = r.Context().Deadline()
	})

	mw := TimeoutMiddleware(time.Second, "/audio/")

	mw(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/newsletter/latest", nil))
	if !hasDeadline || time.Until(deadline) > time.Second {
		t.Errorf("expected a deadline within 1s, got %v (set=%v)", deadline, hasDeadline)
	}

	mw(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/audio/newsletter-2025-06-01.wav", nil))
	if hasDeadline {
		t.Error("skipped prefix should not get a deadline")
	}
}

func TestLoggingMiddleware_CapturesStatus(t *testing.T) {
	var startTime time.Time
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime = GetStartTime(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	LoggingMiddleware(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", w.Code)
	}
	if startTime.IsZero() {
		t.Error("start time missing from context")
	}
	if !GetStartTime(context.Background()).IsZero() {
		t.Error("GetStartTime on empty context should be zero")
	}
}

func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	collector := metrics.NewCollector(prometheus.NewRegistry())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /newsletter/{date}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	handler := MetricsMiddleware(collector)(mux)

	for _, date := range []string{"2025-06-01", "2025-06-02"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/newsletter/"+date, nil))
	}

	count, err := testutil.GatherAndCount(collector.Registry(), "courier_http_requests_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if count != 1 {
		t.Errorf("got %d request series, want 1 for a single route", count)
	}
}

func TestRouteLabel(t *testing.T) {
	tests := map[string]string{
		"GET /newsletter/{date}": "/newsletter/{date}",
		"/audio/":                "/audio/",
		"":                       "",
	}
	for pattern, want := range tests {
		if got := routeLabel(pattern); got != want {
			t.Errorf("routeLabel(%q) = %q, want %q", pattern, got, want)
		}
	}
}
