package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/memtree/internal/config"
	"github.com/Sumatoshi-tech/memtree/pkg/units"
)

const (
	testPageSize    = 4096
	testStressOps   = 500
	testVerifyEvery = 10
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".memtree.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_EmptyFile_UsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, config.Default(), cfg)

	size, err := cfg.MemorySize()
	require.NoError(t, err)
	assert.Equal(t, uint64(100), size)
}

func TestLoadConfig_NoFile_UsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, config.DefaultPageSize, cfg.Memory.PageSize)
	assert.Equal(t, config.DefaultMemorySize, cfg.Memory.Size)
	assert.Equal(t, config.DefaultStressOps, cfg.Stress.Ops)
	assert.True(t, cfg.Tree.VerifyEachStep)
}

func TestLoadConfig_ValidFile_Unmarshals(t *testing.T) {
	t.Parallel()

	content := `memory:
  page_size: 4096
  size: "4MiB"
tree:
  allocated_on_insert: true
  verify_each_step: false
logging:
  level: debug
  format: json
telemetry:
  otlp_endpoint: "localhost:4317"
  otlp_insecure: true
  metrics_addr: ":2112"
  sample_ratio: 0.25
  shutdown_timeout: 2s
stress:
  ops: 500
  max_length: 128
  address_space: 65536
  verify_every: 10
  sample_every: 50
`

	cfg, err := config.LoadConfig(writeConfig(t, content))
	require.NoError(t, err)

	assert.Equal(t, testPageSize, cfg.Memory.PageSize)

	size, err := cfg.MemorySize()
	require.NoError(t, err)
	assert.Equal(t, uint64(4*units.MiB), size)

	assert.True(t, cfg.Tree.AllocatedOnInsert)
	assert.False(t, cfg.Tree.VerifyEachStep)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, config.LogFormatJSON, cfg.Logging.Format)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.OTLPEndpoint)
	assert.True(t, cfg.Telemetry.OTLPInsecure)
	assert.Equal(t, ":2112", cfg.Telemetry.MetricsAddr)
	assert.InDelta(t, 0.25, cfg.Telemetry.SampleRatio, 0)
	assert.Equal(t, 2*time.Second, cfg.Telemetry.ShutdownTimeout)
	assert.Equal(t, testStressOps, cfg.Stress.Ops)
	assert.Equal(t, 128, cfg.Stress.MaxLength)
	assert.Equal(t, 65536, cfg.Stress.AddressSpace)
	assert.Equal(t, testVerifyEvery, cfg.Stress.VerifyEvery)
	assert.Equal(t, 50, cfg.Stress.SampleEvery)
}

func TestLoadConfig_MalformedYAML_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, "memory:\n  page_size: [invalid yaml\n"))
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoadConfig_InvalidValue_ReturnsValidationError(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, "memory:\n  page_size: -1\n"))
	require.ErrorIs(t, err, config.ErrInvalidPageSize)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "validate config")
}

func TestLoadConfig_UnknownKeys_NoError(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, "unknown_section:\n  key: value\nmemory:\n  page_size: 64\n"))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Memory.PageSize)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("MEMTREE_MEMORY_PAGE_SIZE", "8192")
	t.Setenv("MEMTREE_MEMORY_SIZE", "1KiB")
	t.Setenv("MEMTREE_LOGGING_LEVEL", "warn")
	t.Setenv("MEMTREE_STRESS_OPS", "42")
	t.Setenv("MEMTREE_TELEMETRY_SAMPLE_RATIO", "0.5")
	t.Setenv("MEMTREE_TELEMETRY_SHUTDOWN_TIMEOUT", "750ms")

	cfg, err := config.LoadConfig(writeConfig(t, "memory:\n  page_size: 16\n"))
	require.NoError(t, err)

	assert.Equal(t, 8192, cfg.Memory.PageSize)
	assert.Equal(t, "1KiB", cfg.Memory.Size)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 42, cfg.Stress.Ops)
	assert.InDelta(t, 0.5, cfg.Telemetry.SampleRatio, 0)
	assert.Equal(t, 750*time.Millisecond, cfg.Telemetry.ShutdownTimeout)
}
