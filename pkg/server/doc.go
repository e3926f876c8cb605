// Package server provides the newsletter HTTP API.
//
// The server ties together the handlers, the middleware chain and the
// lifecycle of the underlying http.Server. Signal handling and the cleanup
// scheduler belong to the caller:
//
//	srv, err := server.NewServer(cfg, server.Deps{
//	    Store:     store,
//	    Generator: orchestrator,
//	    Cleanup:   engine,
//	    Scheduler: scheduler,
//	    Secrets:   auth.NewSecretValidator(cfg.Security.AdminSecret),
//	    AudioDir:  artifacts.Dir(),
//	})
//	if err != nil {
//	    return err
//	}
//	return srv.Start(ctx) // returns after ctx is cancelled and shutdown completes
//
// # Routes
//
//   - POST /newsletter/generate - Start a generation run (admin)
//   - GET /newsletter/latest - Most recent complete newsletter
//   - GET /newsletter/history?limit=N - Complete newsletters, newest first
//   - GET /newsletter/{date} - Newsletter for one date in any status
//   - DELETE /newsletter/{id} - Remove a newsletter (admin)
//   - POST /cleanup/run - Run retention now (admin)
//   - GET /cleanup/stats - Preview what retention would remove
//   - GET /cleanup/scheduler - Daily cleanup schedule
//   - GET /health, /ready, /version, /metrics
//   - GET /audio/{file} - Narration files
//
// Admin routes require the shared secret in the configured header
// (X-Admin-Secret by default).
//
// # Middleware Chain
//
// Requests pass through the following middleware (outermost first):
//  1. Recovery: Recovers from panics and returns a 500 error envelope
//  2. Tracing: Extracts W3C trace context and opens a server span
//  3. RequestID: Reuses or generates X-Request-ID
//  4. Logging: Logs method, path, status and latency
//  5. CORS: Adds Cross-Origin Resource Sharing headers
//  6. Timeout: Bounds the request context (audio downloads excluded)
//  7. Metrics: Counts requests by matched route pattern
package server
