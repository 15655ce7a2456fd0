// Package observability provides OpenTelemetry-based tracing, metrics, and
// structured logging for the memtree commands.
package observability

import (
	"log/slog"
	"time"
)

// AppMode identifies the application execution mode.
type AppMode string

const (
	// ModeCLI is the plain command execution mode.
	ModeCLI AppMode = "cli"
	// ModeScript runs a scenario file.
	ModeScript AppMode = "script"
	// ModeStress runs a randomized soak.
	ModeStress AppMode = "stress"
)

const (
	// defaultServiceName is the default OTel service name.
	defaultServiceName = "memtree"

	// defaultShutdownTimeout bounds the final telemetry flush.
	defaultShutdownTimeout = 5 * time.Second

	// fullSampling keeps every trace.
	fullSampling = 1.0
)

// Config holds all observability configuration.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the semantic version of the running binary.
	ServiceVersion string

	// Mode identifies how the binary was launched.
	Mode AppMode

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	// Empty disables export; providers become no-op.
	OTLPEndpoint string

	// OTLPHeaders are additional gRPC metadata headers for the OTLP exporter.
	OTLPHeaders map[string]string

	// OTLPInsecure disables TLS for the OTLP gRPC connection.
	OTLPInsecure bool

	// SampleRatio is the share of root traces kept, clamped to [0, 1].
	SampleRatio float64

	// LogLevel controls the minimum slog severity.
	LogLevel slog.Level

	// LogJSON enables JSON-formatted log output.
	LogJSON bool

	// ShutdownTimeout bounds the flush on shutdown. Non-positive values use
	// the default.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults for zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:     defaultServiceName,
		Mode:            ModeCLI,
		SampleRatio:     fullSampling,
		LogLevel:        slog.LevelInfo,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}
