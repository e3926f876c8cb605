// Package telemetry groups courier's observability packages:
//
//   - logging: slog setup with context fields and secret redaction
//   - metrics: Prometheus collectors on a private registry
//   - tracing: OpenTelemetry spans and W3C propagation
//   - health: liveness and readiness probes
package telemetry
