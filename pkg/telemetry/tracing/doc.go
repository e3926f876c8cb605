// Package tracing provides OpenTelemetry distributed tracing for courier.
//
// # Overview
//
// New installs a global tracer provider that batches spans to an OTLP gRPC
// collector. When tracing is disabled a noop tracer is used and every call
// here costs next to nothing.
//
// # Spans
//
// Generation runs a "generation.run" span with one child per stage
// (generation.content, generation.narration, generation.artifact,
// generation.persist). Retention opens "retention.cleanup" and
// "retention.stats". Packages create spans through Start, which resolves the
// global provider on each call so tests can swap it.
//
// # Trace Context Propagation
//
// W3C Trace Context (https://www.w3.org/TR/trace-context/) is extracted from
// inbound requests by HTTPMiddleware and injected into outbound provider
// calls with Inject:
//
//	traceparent: 00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01
//
// # Sampling Strategies
//
//   - always: Sample all traces (development/debugging)
//   - never: Sample no traces
//   - ratio: Sample a fraction of root traces
//
// All samplers respect the parent span's decision.
package tracing
