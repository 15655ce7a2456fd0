package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

const (
	tracerName = "memtree"
	meterName  = "memtree"
)

// Providers holds the initialized observability providers.
type Providers struct {
	// Tracer is the named tracer for creating spans.
	Tracer trace.Tracer

	// Meter is the named meter for creating instruments.
	Meter metric.Meter

	// Logger is the context-aware structured logger.
	Logger *slog.Logger

	// Shutdown flushes pending telemetry within the configured timeout.
	// Safe to call more than once.
	Shutdown func(ctx context.Context) error
}

// Init is InitWithWriter logging to stderr.
func Init(cfg Config) (Providers, error) {
	return InitWithWriter(cfg, os.Stderr)
}

// InitWithWriter builds the tracer, meter and logger for one command run,
// with logs written to w. Without an OTLP endpoint the tracer and meter are
// no-ops and Shutdown has nothing to flush.
func InitWithWriter(cfg Config, w io.Writer) (Providers, error) {
	logger := buildLogger(cfg, w)

	if cfg.OTLPEndpoint == "" {
		return Providers{
			Tracer:   nooptrace.NewTracerProvider().Tracer(tracerName),
			Meter:    noopmetric.NewMeterProvider().Meter(meterName),
			Logger:   logger,
			Shutdown: func(context.Context) error { return nil },
		}, nil
	}

	res, err := buildResource(cfg)
	if err != nil {
		return Providers{}, err
	}

	ctx := context.Background()
	target := otlpTarget{endpoint: cfg.OTLPEndpoint, insecure: cfg.OTLPInsecure, headers: cfg.OTLPHeaders}

	traceExporter, err := otlptracegrpc.New(ctx, target.traceOptions()...)
	if err != nil {
		return Providers{}, fmt.Errorf("create trace exporter: %w", err)
	}

	metricExporter, err := otlpmetricgrpc.New(ctx, target.metricOptions()...)
	if err != nil {
		return Providers{}, errors.Join(
			fmt.Errorf("create metric exporter: %w", err),
			traceExporter.Shutdown(ctx),
		)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(selectSampler(cfg)),
	)
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)

	return Providers{
		Tracer:   tp.Tracer(tracerName),
		Meter:    mp.Meter(meterName),
		Logger:   logger,
		Shutdown: flushWithin(shutdownTimeout(cfg), tp.Shutdown, mp.Shutdown),
	}, nil
}

// otlpTarget is the collector both exporters talk to.
type otlpTarget struct {
	endpoint string
	insecure bool
	headers  map[string]string
}

func (t otlpTarget) traceOptions() []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(t.endpoint)}

	if t.insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	if len(t.headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(t.headers))
	}

	return opts
}

func (t otlpTarget) metricOptions() []otlpmetricgrpc.Option {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(t.endpoint)}

	if t.insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	if len(t.headers) > 0 {
		opts = append(opts, otlpmetricgrpc.WithHeaders(t.headers))
	}

	return opts
}

func buildResource(cfg Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(cfg.ServiceName)}

	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(cfg.ServiceVersion))
	}

	if cfg.Mode != "" {
		attrs = append(attrs, attribute.String("app.mode", string(cfg.Mode)))
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}

	return res, nil
}

// selectSampler keeps cfg.SampleRatio of root traces. Child spans follow
// their parent's decision.
func selectSampler(cfg Config) sdktrace.Sampler {
	switch {
	case cfg.SampleRatio >= fullSampling:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case cfg.SampleRatio <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))
	}
}

func shutdownTimeout(cfg Config) time.Duration {
	if cfg.ShutdownTimeout <= 0 {
		return defaultShutdownTimeout
	}

	return cfg.ShutdownTimeout
}

// flushWithin runs every flush under one deadline and joins their errors.
func flushWithin(timeout time.Duration, flushes ...func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		deadlineCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		errs := make([]error, 0, len(flushes))
		for _, flush := range flushes {
			errs = append(errs, flush(deadlineCtx))
		}

		return errors.Join(errs...)
	}
}

func buildLogger(cfg Config, w io.Writer) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var inner slog.Handler
	if cfg.LogJSON {
		inner = slog.NewJSONHandler(w, handlerOpts)
	} else {
		inner = slog.NewTextHandler(w, handlerOpts)
	}

	return slog.New(NewTracingHandler(inner, cfg.ServiceName, cfg.Mode))
}

// ParseOTLPHeaders parses the OTEL_EXPORTER_OTLP_HEADERS format,
// "key=value,key=value". Pairs without '=' are skipped; nil when none remain.
func ParseOTLPHeaders(raw string) map[string]string {
	var result map[string]string

	for pair := range strings.SplitSeq(raw, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}

		if result == nil {
			result = make(map[string]string)
		}

		result[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	return result
}
