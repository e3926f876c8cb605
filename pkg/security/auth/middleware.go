package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// DefaultHeader carries the admin secret.
const DefaultHeader = "X-Admin-Secret"

// errNoSecret is logged when no source yields a value.
var errNoSecret = errors.New("no secret presented")

// Source defines where to read the secret from.
type Source struct {
	Type   string // "header" or "query"
	Name   string // header name or query parameter
	Scheme string // optional scheme prefix, e.g. "Bearer"
}

// HeaderSource reads the secret from a plain header. An empty name uses
// DefaultHeader.
func HeaderSource(name string) Source {
	if name == "" {
		name = DefaultHeader
	}
	return Source{Type: "header", Name: name}
}

// BearerSource reads the secret from "Authorization: Bearer <secret>".
func BearerSource() Source {
	return Source{Type: "header", Name: "Authorization", Scheme: "Bearer"}
}

// DenyFunc writes the rejection response.
type DenyFunc func(w http.ResponseWriter, r *http.Request)

// Middleware rejects requests that do not present a valid secret.
type Middleware struct {
	validator *SecretValidator
	sources   []Source
	deny      DenyFunc
	logger    *slog.Logger
}

// NewMiddleware creates the guard. A nil deny writes a plain 401.
func NewMiddleware(validator *SecretValidator, deny DenyFunc, sources ...Source) *Middleware {
	if len(sources) == 0 {
		sources = []Source{HeaderSource("")}
	}
	if deny == nil {
		deny = func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}
	}
	return &Middleware{
		validator: validator,
		sources:   sources,
		deny:      deny,
		logger:    slog.Default().With("component", "security.auth"),
	}
}

// Handle wraps next with the secret check.
func (m *Middleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret, err := m.extract(r)
		if err != nil || !m.validator.Validate(secret) {
			reason := "invalid secret"
			if err != nil {
				reason = err.Error()
			}
			m.logger.WarnContext(r.Context(), "admin request rejected",
				"reason", reason,
				"remote_addr", r.RemoteAddr,
				"method", r.Method,
				"path", r.URL.Path,
			)
			m.deny(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), adminKey, true)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// HandleFunc wraps a handler function.
func (m *Middleware) HandleFunc(next http.HandlerFunc) http.Handler {
	return m.Handle(next)
}

func (m *Middleware) extract(r *http.Request) (string, error) {
	for _, source := range m.sources {
		var value string
		switch source.Type {
		case "header":
			value = r.Header.Get(source.Name)
		case "query":
			value = r.URL.Query().Get(source.Name)
		}
		if value == "" {
			continue
		}
		if source.Scheme != "" {
			prefix := source.Scheme + " "
			if !strings.HasPrefix(value, prefix) {
				continue
			}
			value = strings.TrimPrefix(value, prefix)
		}
		return value, nil
	}
	return "", errNoSecret
}

type contextKey string

// #nosec G101 - This is a context key constant, not a credential
const adminKey contextKey = "admin_authenticated"

// IsAdmin reports whether the request passed the secret check.
func IsAdmin(ctx context.Context) bool {
	ok, _ := ctx.Value(adminKey).(bool)
	return ok
}
