// Package config provides YAML-based configuration for memtree.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Sumatoshi-tech/memtree/pkg/units"
)

// Config is the top-level configuration struct for memtree.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Memory    MemoryConfig    `mapstructure:"memory"`
	Tree      TreeConfig      `mapstructure:"tree"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Stress    StressConfig    `mapstructure:"stress"`
}

// MemoryConfig holds the settings handed to the allocator front end.
type MemoryConfig struct {
	PageSize int    `mapstructure:"page_size"`
	Size     string `mapstructure:"size"`
}

// TreeConfig holds interval tree behavior knobs.
type TreeConfig struct {
	AllocatedOnInsert bool `mapstructure:"allocated_on_insert"`
	VerifyEachStep    bool `mapstructure:"verify_each_step"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	OTLPEndpoint    string        `mapstructure:"otlp_endpoint"`
	OTLPInsecure    bool          `mapstructure:"otlp_insecure"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	SampleRatio     float64       `mapstructure:"sample_ratio"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StressConfig holds randomized workload settings.
type StressConfig struct {
	Ops          int `mapstructure:"ops"`
	MaxLength    int `mapstructure:"max_length"`
	AddressSpace int `mapstructure:"address_space"`
	VerifyEvery  int `mapstructure:"verify_every"`
	SampleEvery  int `mapstructure:"sample_every"`
}

// Sentinel validation errors.
var (
	// ErrInvalidPageSize indicates a negative page size.
	ErrInvalidPageSize = errors.New("memory.page_size must be non-negative")
	// ErrInvalidMemorySize indicates an unparsable memory size.
	ErrInvalidMemorySize = errors.New("memory.size must be a byte count such as 100 or 4KiB")
	// ErrInvalidLogLevel indicates an unknown logging level.
	ErrInvalidLogLevel = errors.New("logging.level must be one of debug, info, warn, error")
	// ErrInvalidLogFormat indicates an unknown logging format.
	ErrInvalidLogFormat = errors.New("logging.format must be text or json")
	// ErrInvalidSampleRatio indicates a trace sampling ratio outside [0, 1].
	ErrInvalidSampleRatio = errors.New("telemetry.sample_ratio must be between 0 and 1")
	// ErrInvalidShutdownTimeout indicates a non-positive flush timeout.
	ErrInvalidShutdownTimeout = errors.New("telemetry.shutdown_timeout must be positive")
	// ErrInvalidStressOps indicates a negative operation count.
	ErrInvalidStressOps = errors.New("stress.ops must be non-negative")
	// ErrInvalidStressLength indicates a non-positive maximum interval length.
	ErrInvalidStressLength = errors.New("stress.max_length must be positive")
	// ErrInvalidAddressSpace indicates an address space smaller than one interval.
	ErrInvalidAddressSpace = errors.New("stress.address_space must exceed stress.max_length")
	// ErrInvalidStressInterval indicates a negative verify or sample interval.
	ErrInvalidStressInterval = errors.New("stress.verify_every and stress.sample_every must be non-negative")
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{LogFormatText, LogFormatJSON}
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	memoryErr := c.validateMemory()
	if memoryErr != nil {
		return memoryErr
	}

	if !slices.Contains(logLevels, c.Logging.Level) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	if !slices.Contains(logFormats, c.Logging.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	telemetryErr := c.validateTelemetry()
	if telemetryErr != nil {
		return telemetryErr
	}

	return c.validateStress()
}

func (c *Config) validateTelemetry() error {
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %g", ErrInvalidSampleRatio, c.Telemetry.SampleRatio)
	}

	if c.Telemetry.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidShutdownTimeout, c.Telemetry.ShutdownTimeout)
	}

	return nil
}

func (c *Config) validateMemory() error {
	if c.Memory.PageSize < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, c.Memory.PageSize)
	}

	_, sizeErr := c.MemorySize()
	if sizeErr != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMemorySize, sizeErr)
	}

	return nil
}

func (c *Config) validateStress() error {
	if c.Stress.Ops < 0 {
		return ErrInvalidStressOps
	}

	if c.Stress.MaxLength <= 0 {
		return ErrInvalidStressLength
	}

	if c.Stress.AddressSpace <= c.Stress.MaxLength {
		return ErrInvalidAddressSpace
	}

	if c.Stress.VerifyEvery < 0 || c.Stress.SampleEvery < 0 {
		return ErrInvalidStressInterval
	}

	return nil
}

// MemorySize returns memory.size in bytes.
func (c *Config) MemorySize() (uint64, error) {
	size, err := units.ParseSize(c.Memory.Size)
	if err != nil {
		return 0, fmt.Errorf("memory size: %w", err)
	}

	return size, nil
}
