// Package metrics exposes courier's Prometheus metrics on a private registry.
//
// All Collector methods are safe on a nil receiver, so components take an
// optional *Collector and record unconditionally.
//
// Metrics:
//   - courier_generation_runs_total{status}
//   - courier_generation_duration_seconds
//   - courier_generation_in_flight
//   - courier_mirror_errors_total{operation}
//   - courier_cleanup_runs_total
//   - courier_cleanup_deleted_total{kind}
//   - courier_cleanup_errors_total{kind}
//   - courier_cleanup_pending{kind}
//   - courier_provider_errors_total{provider,type}
//   - courier_provider_healthy{provider}
//   - courier_http_requests_total{method,route,status}
//   - courier_http_request_duration_seconds{route}
package metrics
