package tracing

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"mercator-hq/courier/pkg/config"
)

// Sampler names accepted in tracing.sampler.
const (
	SamplerAlways = "always"
	SamplerNever  = "never"
	SamplerRatio  = "ratio"
)

// samplerFor maps the configured strategy onto an SDK sampler. Root spans
// follow the strategy; child spans inherit their parent's decision, so a
// request sampled upstream stays sampled through generation.
func samplerFor(cfg *config.TracingConfig) (sdktrace.Sampler, error) {
	var root sdktrace.Sampler
	switch cfg.Sampler {
	case "", SamplerAlways:
		root = sdktrace.AlwaysSample()
	case SamplerNever:
		root = sdktrace.NeverSample()
	case SamplerRatio:
		if r := cfg.SampleRatio; r < 0 || r > 1 {
			return nil, fmt.Errorf("tracing: sample_ratio %v outside [0, 1]", r)
		}
		root = sdktrace.TraceIDRatioBased(cfg.SampleRatio)
	default:
		return nil, fmt.Errorf("tracing: unknown sampler %q", cfg.Sampler)
	}
	return sdktrace.ParentBased(root), nil
}
