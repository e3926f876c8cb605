package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"mercator-hq/courier/pkg/config"
	"mercator-hq/courier/pkg/newsletter"
	"mercator-hq/courier/pkg/security/auth"
	"mercator-hq/courier/pkg/server/handlers"
	"mercator-hq/courier/pkg/server/middleware"
	"mercator-hq/courier/pkg/telemetry/health"
	"mercator-hq/courier/pkg/telemetry/metrics"
	"mercator-hq/courier/pkg/telemetry/tracing"
)

// readinessTimeout bounds each readiness check.
const readinessTimeout = 2 * time.Second

// Deps are the services the server exposes.
type Deps struct {
	Store     newsletter.Store
	Generator handlers.Generator
	Cleanup   handlers.CleanupEngine

	// Scheduler is nil when the daily cleanup job is disabled.
	Scheduler handlers.SchedulerStatusProvider

	// Secrets guards the mutating endpoints.
	Secrets *auth.SecretValidator

	// AudioDir is served under the public audio base path.
	AudioDir string

	// Metrics is nil when metrics are disabled.
	Metrics *metrics.Collector

	Version   string
	Commit    string
	BuildTime string
}

// Server is the newsletter HTTP API.
type Server struct {
	config     *config.Config
	deps       Deps
	health     *health.Checker
	httpServer *http.Server
	logger     *slog.Logger

	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates the API server.
func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Store == nil {
		return nil, errors.New("server: store is required")
	}
	if deps.Generator == nil || deps.Cleanup == nil {
		return nil, errors.New("server: generator and cleanup engine are required")
	}
	if deps.Secrets == nil || !deps.Secrets.Configured() {
		return nil, errors.New("server: an admin secret is required")
	}

	checker := health.New(readinessTimeout)
	checker.RegisterCheck("store", deps.Store.Ping)
	if deps.AudioDir != "" {
		dir := deps.AudioDir
		checker.RegisterCheck("artifacts", func(context.Context) error {
			info, err := os.Stat(dir)
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", dir)
			}
			return nil
		})
	}

	return &Server{
		config: cfg,
		deps:   deps,
		health: checker,
		logger: slog.Default().With("component", "server"),
	}, nil
}

// Start serves until ctx is cancelled or the listener fails, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Server.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Server.ListenAddress, err)
	}
	return s.Serve(ctx, listener)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		_ = listener.Close()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.httpServer = &http.Server{
		Handler:        s.Handler(),
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		IdleTimeout:    s.config.Server.IdleTimeout,
		MaxHeaderBytes: s.config.Server.MaxHeaderBytes,
		BaseContext:    func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting newsletter API", "address", listener.Addr().String())
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		if ok {
			return err
		}
		return nil
	}
}

// Shutdown stops accepting requests and waits for active ones up to the
// configured shutdown timeout. Background generation is not waited on here.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		httpServer := s.httpServer
		running := s.isRunning
		s.mu.RUnlock()
		if !running || httpServer == nil {
			return
		}

		timeout := s.config.Server.ShutdownTimeout
		s.logger.Info("initiating graceful shutdown", "timeout", timeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("newsletter API stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Health returns the readiness checker.
func (s *Server) Health() *health.Checker {
	return s.health
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return s.chain(s.routes())
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	header := s.config.Security.AdminHeader
	if header == "" {
		header = auth.DefaultHeader
	}
	admin := auth.NewMiddleware(s.deps.Secrets, handlers.Unauthorized, auth.HeaderSource(header))

	news := handlers.NewNewsletterHandler(s.deps.Store, s.deps.Generator)
	mux.Handle("POST /newsletter/generate", admin.HandleFunc(news.Generate))
	mux.HandleFunc("GET /newsletter/latest", news.Latest)
	mux.HandleFunc("GET /newsletter/history", news.History)
	mux.HandleFunc("GET /newsletter/{date}", news.ByDate)
	mux.Handle("DELETE /newsletter/{id}", admin.HandleFunc(news.Delete))

	cleanup := handlers.NewCleanupHandler(s.deps.Cleanup, s.deps.Scheduler)
	mux.Handle("POST /cleanup/run", admin.HandleFunc(cleanup.Run))
	mux.HandleFunc("GET /cleanup/stats", cleanup.Stats)
	mux.HandleFunc("GET /cleanup/scheduler", cleanup.Scheduler)

	mux.HandleFunc("GET /health", s.health.LivenessHandler())
	mux.HandleFunc("GET /ready", s.health.ReadinessHandler())
	mux.HandleFunc("GET /version", health.VersionHandler(s.deps.Version, s.deps.Commit, s.deps.BuildTime))

	if s.deps.Metrics != nil && s.config.Telemetry.Metrics.On() {
		mux.Handle("GET "+s.metricsPath(), s.deps.Metrics.Handler())
	}

	if s.deps.AudioDir != "" {
		base := s.audioBase()
		files := http.StripPrefix(base, http.FileServer(http.Dir(s.deps.AudioDir)))
		mux.Handle("GET "+base+"/", noDirectoryListing(files))
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, http.StatusNotFound, handlers.ErrorTypeNotFound,
			fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path), "route_not_found")
	})

	return mux
}

// chain applies the middleware stack, outermost first:
// Recovery, Tracing, RequestID, Logging, CORS, Timeout, Metrics.
func (s *Server) chain(mux http.Handler) http.Handler {
	handler := middleware.MetricsMiddleware(s.deps.Metrics)(mux)
	handler = middleware.TimeoutMiddleware(s.config.Server.RequestTimeout, s.audioBase()+"/")(handler)
	handler = middleware.CORSMiddleware(s.corsConfig())(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = tracing.HTTPMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handlers.WriteError)(handler)
	return handler
}

// audioBase is the path the artifact directory is mounted on. An absolute
// public base URL contributes only its path.
func (s *Server) audioBase() string {
	base := s.config.Artifacts.PublicBase
	if u, err := url.Parse(base); err == nil && u.IsAbs() {
		base = u.Path
	}
	base = strings.TrimSuffix(base, "/")
	if base == "" {
		base = config.DefaultArtifactPublicBase
	}
	return base
}

func (s *Server) metricsPath() string {
	if s.config.Telemetry.Metrics.Path == "" {
		return "/metrics"
	}
	return s.config.Telemetry.Metrics.Path
}

// corsConfig converts config.CORSConfig to middleware.CORSConfig.
func (s *Server) corsConfig() *middleware.CORSConfig {
	cors := s.config.Server.CORS
	return &middleware.CORSConfig{
		Enabled:          cors.Enabled,
		AllowedOrigins:   cors.AllowedOrigins,
		AllowedMethods:   cors.AllowedMethods,
		AllowedHeaders:   cors.AllowedHeaders,
		ExposedHeaders:   []string{middleware.RequestIDHeader, "X-Trace-ID"},
		MaxAge:           cors.MaxAge,
		AllowCredentials: cors.AllowCredentials,
	}
}

// noDirectoryListing answers 404 for directory paths.
func noDirectoryListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
