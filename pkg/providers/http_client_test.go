package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(url string, retries int) *HTTPClient {
	return NewHTTPClient(Config{
		Name:         "test-provider",
		BaseURL:      url,
		Timeout:      5 * time.Second,
		MaxRetries:   retries,
		RetryBackoff: time.Millisecond,
	})
}

func TestHTTPClient_RetryOn5xx(t *testing.T) {
	attemptCount := int32(0)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attemptCount, 1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error": "internal server error"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message": "success"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 3)
	resp, err := client.DoRequest(context.Background(), http.MethodPost, server.URL+"/test", []byte(`{"test": true}`), nil)
	if err != nil {
		t.Fatalf("expected request to succeed after retries, got error: %v", err)
	}
	defer resp.Body.Close()

	if got := atomic.LoadInt32(&attemptCount); got != 3 {
		t.Errorf("expected 3 attempts (2 retries), got %d", got)
	}
	if !client.IsHealthy() {
		t.Error("expected client to be healthy after successful retry")
	}
	if h := client.GetHealth(); h.TotalRequests != 3 || h.FailedRequests != 2 {
		t.Errorf("health counters = %+v", h)
	}
}

func TestHTTPClient_NoRetryOn4xx(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		check      func(error) bool
	}{
		{
			name:       "400 bad request",
			statusCode: http.StatusBadRequest,
			check:      func(err error) bool { var e *ProviderError; return errors.As(err, &e) && e.StatusCode == 400 },
		},
		{
			name:       "401 unauthorized",
			statusCode: http.StatusUnauthorized,
			check:      func(err error) bool { var e *AuthError; return errors.As(err, &e) },
		},
		{
			name:       "403 forbidden",
			statusCode: http.StatusForbidden,
			check:      func(err error) bool { var e *AuthError; return errors.As(err, &e) },
		},
		{
			name:       "429 rate limit",
			statusCode: http.StatusTooManyRequests,
			check: func(err error) bool {
				var e *RateLimitError
				return errors.As(err, &e) && e.RetryAfter == 7*time.Second
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attemptCount int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&attemptCount, 1)
				w.Header().Set("Retry-After", "7")
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(`{"error": "client error"}`))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL, 3).DoRequest(context.Background(), http.MethodGet, server.URL, nil, nil)
			if !tt.check(err) {
				t.Errorf("unexpected error type: %T %v", err, err)
			}
			if got := atomic.LoadInt32(&attemptCount); got != 1 {
				t.Errorf("expected exactly 1 attempt, got %d", got)
			}
		})
	}
}

func TestHTTPClient_ExhaustedRetriesMarkUnhealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0)
	for i := 0; i < 3; i++ {
		_, err := client.DoRequest(context.Background(), http.MethodGet, server.URL, nil, nil)
		var pe *ProviderError
		if !errors.As(err, &pe) || pe.StatusCode != http.StatusBadGateway {
			t.Fatalf("attempt %d: error = %v, want 502 ProviderError", i, err)
		}
	}
	if client.IsHealthy() {
		t.Error("expected client to be unhealthy after 3 consecutive failures")
	}
}

func TestHTTPClient_ContextCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewHTTPClient(Config{Name: "slow", Timeout: time.Second, MaxRetries: 5, RetryBackoff: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.DoRequest(ctx, http.MethodGet, server.URL, nil, nil)
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want TimeoutError", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error does not wrap context.DeadlineExceeded: %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("backoff did not honour context cancellation")
	}
}

func TestHTTPClient_DoJSONRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("X-Test") != "yes" {
			t.Errorf("custom header not forwarded")
		}
		_, _ = w.Write([]byte(`{"value": 42}`))
	}))
	defer server.Close()

	var out struct {
		Value int `json:"value"`
	}
	err := newTestClient(server.URL, 0).DoJSONRequest(context.Background(), http.MethodPost, server.URL,
		map[string]string{"q": "x"}, &out, map[string]string{"X-Test": "yes"})
	if err != nil {
		t.Fatalf("DoJSONRequest() error = %v", err)
	}
	if out.Value != 42 {
		t.Errorf("Value = %d, want 42", out.Value)
	}
}

func TestHTTPClient_DoJSONRequestParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	var out map[string]any
	err := newTestClient(server.URL, 0).DoJSONRequest(context.Background(), http.MethodGet, server.URL, nil, &out, nil)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want ParseError", err)
	}
	if pe.RawResponse != "not json" {
		t.Errorf("RawResponse = %q", pe.RawResponse)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"auth", &AuthError{Provider: "p"}, false},
		{"parse", &ParseError{Provider: "p", Cause: errors.New("x")}, false},
		{"bad request", &ProviderError{Provider: "p", StatusCode: 400}, false},
		{"server error", &ProviderError{Provider: "p", StatusCode: 503}, true},
		{"network", &ProviderError{Provider: "p", Cause: errors.New("reset")}, true},
		{"rate limit", &RateLimitError{Provider: "p"}, true},
		{"timeout", &TimeoutError{Provider: "p"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter(""); got != 0 {
		t.Errorf("parseRetryAfter(\"\") = %v", got)
	}
	if got := parseRetryAfter("30"); got != 30*time.Second {
		t.Errorf("parseRetryAfter(\"30\") = %v", got)
	}
	future := time.Now().Add(time.Minute).UTC().Format(http.TimeFormat)
	if got := parseRetryAfter(future); got <= 0 || got > time.Minute {
		t.Errorf("parseRetryAfter(date) = %v", got)
	}
}

func TestErrorType(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&AuthError{Provider: "p"}, "auth"},
		{&RateLimitError{Provider: "p"}, "rate_limit"},
		{&TimeoutError{Provider: "p"}, "timeout"},
		{&ParseError{Provider: "p", Cause: errors.New("x")}, "parse"},
		{&ConfigError{Provider: "p", Field: "api_key"}, "config"},
		{&ProviderError{Provider: "p", StatusCode: 502}, "server_error"},
		{errors.New("unknown"), "server_error"},
	}
	for _, tt := range tests {
		if got := ErrorType(tt.err); got != tt.want {
			t.Errorf("ErrorType(%T) = %q, want %q", tt.err, got, tt.want)
		}
	}
	if IsRetryable(&ConfigError{Provider: "p"}) {
		t.Error("config errors must not be retryable")
	}
}
