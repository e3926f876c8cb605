// Package health implements the liveness and readiness probes.
//
// Liveness (/health) answers 200 whenever the process can serve HTTP.
// Readiness (/ready) runs every registered check concurrently with a per-check
// timeout and answers 503 if any of them fails:
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("store", store.Ping)
//	mux.Handle("GET /ready", checker.ReadinessHandler())
package health
