package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// BuildResourceForTest exposes buildResource for black-box tests.
func BuildResourceForTest(cfg Config) (*resource.Resource, error) {
	return buildResource(cfg)
}

// SampledUnder reports whether a root span started under the sampler
// selected for cfg is sampled.
func SampledUnder(cfg Config) bool {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(selectSampler(cfg)))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	_, span := tp.Tracer("test").Start(context.Background(), "root")
	defer span.End()

	return span.SpanContext().IsSampled()
}

// ShutdownTimeoutForTest exposes the effective flush deadline for cfg.
func ShutdownTimeoutForTest(cfg Config) time.Duration {
	return shutdownTimeout(cfg)
}

// FlushWithinForTest exposes flushWithin.
func FlushWithinForTest(timeout time.Duration, flushes ...func(context.Context) error) func(context.Context) error {
	return flushWithin(timeout, flushes...)
}
