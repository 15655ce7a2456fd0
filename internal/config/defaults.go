package config

import (
	"time"

	"github.com/Sumatoshi-tech/memtree/pkg/units"
)

// Memory defaults.
const (
	DefaultPageSize   = 0
	DefaultMemorySize = "100"
)

// Tree defaults.
const (
	DefaultAllocatedOnInsert = false
	DefaultVerifyEachStep    = true
)

// Logging formats and defaults.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"

	DefaultLogLevel  = "info"
	DefaultLogFormat = LogFormatText
)

// Telemetry defaults. An empty endpoint or address disables the exporter.
const (
	DefaultOTLPEndpoint    = ""
	DefaultOTLPInsecure    = false
	DefaultMetricsAddr     = ""
	DefaultSampleRatio     = 1.0
	DefaultShutdownTimeout = 5 * time.Second
)

// Stress workload defaults.
const (
	DefaultStressOps          = 10000
	DefaultStressMaxLength    = 4 * units.KiB
	DefaultStressAddressSpace = units.MiB
	DefaultStressVerifyEvery  = 1
	DefaultStressSampleEvery  = 100
)
