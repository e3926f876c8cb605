// Package handlers implements the newsletter and cleanup HTTP endpoints.
//
// Handlers depend on small interfaces rather than concrete services so the
// server can be tested with fakes:
//
//	h := handlers.NewNewsletterHandler(store, orchestrator)
//	mux.HandleFunc("GET /newsletter/latest", h.Latest)
//
// Every error is written as a JSON envelope:
//
//	{"error": {"message": "newsletter not found", "type": "not_found", "code": "newsletter_not_found"}}
package handlers
