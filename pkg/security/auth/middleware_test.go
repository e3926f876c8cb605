package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddleware_Handle(t *testing.T) {
	tests := []struct {
		name           string
		sources        []Source
		setupRequest   func(*http.Request)
		expectedStatus int
	}{
		{
			name: "valid default header",
			setupRequest: func(r *http.Request) {
				r.Header.Set(DefaultHeader, "admin-secret")
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing header",
			setupRequest:   func(r *http.Request) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "wrong secret",
			setupRequest: func(r *http.Request) {
				r.Header.Set(DefaultHeader, "guess")
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:    "custom header",
			sources: []Source{HeaderSource("X-Courier-Key")},
			setupRequest: func(r *http.Request) {
				r.Header.Set("X-Courier-Key", "admin-secret")
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:    "bearer token",
			sources: []Source{BearerSource()},
			setupRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer admin-secret")
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:    "bearer without scheme",
			sources: []Source{BearerSource()},
			setupRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "admin-secret")
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:    "fallback to second source",
			sources: []Source{BearerSource(), HeaderSource("")},
			setupRequest: func(r *http.Request) {
				r.Header.Set(DefaultHeader, "admin-secret")
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:    "query parameter",
			sources: []Source{{Type: "query", Name: "secret"}},
			setupRequest: func(r *http.Request) {
				r.URL.RawQuery = "secret=admin-secret"
			},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sawAdmin bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				sawAdmin = IsAdmin(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			mw := NewMiddleware(NewSecretValidator("admin-secret"), nil, tt.sources...)
			req := httptest.NewRequest(http.MethodPost, "/cleanup/run", nil)
			tt.setupRequest(req)
			rec := httptest.NewRecorder()

			mw.Handle(next).ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.expectedStatus)
			}
			if tt.expectedStatus == http.StatusOK && !sawAdmin {
				t.Error("expected admin flag in request context")
			}
		})
	}
}

func TestMiddleware_CustomDeny(t *testing.T) {
	deny := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"unauthorized"}}`))
	}
	mw := NewMiddleware(NewSecretValidator("s"), deny)

	rec := httptest.NewRecorder()
	mw.HandleFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run")
	}).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/newsletter/abc", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}
}

func TestIsAdmin_DefaultFalse(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if IsAdmin(req.Context()) {
		t.Error("IsAdmin should be false without the middleware")
	}
}
