package config_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/memtree/internal/config"
	"github.com/Sumatoshi-tech/memtree/pkg/rbtree"
)

func TestValidate_Default_NoError(t *testing.T) {
	t.Parallel()

	require.NoError(t, config.Default().Validate())
}

func TestValidate_Invalid_ReturnsSentinel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(cfg *config.Config)
		want   error
	}{
		{"negative page size", func(cfg *config.Config) { cfg.Memory.PageSize = -4 }, config.ErrInvalidPageSize},
		{"bad memory size", func(cfg *config.Config) { cfg.Memory.Size = "plenty" }, config.ErrInvalidMemorySize},
		{"empty memory size", func(cfg *config.Config) { cfg.Memory.Size = "" }, config.ErrInvalidMemorySize},
		{"unknown level", func(cfg *config.Config) { cfg.Logging.Level = "trace" }, config.ErrInvalidLogLevel},
		{"unknown format", func(cfg *config.Config) { cfg.Logging.Format = "xml" }, config.ErrInvalidLogFormat},
		{"sample ratio above one", func(cfg *config.Config) { cfg.Telemetry.SampleRatio = 1.5 }, config.ErrInvalidSampleRatio},
		{"negative sample ratio", func(cfg *config.Config) { cfg.Telemetry.SampleRatio = -0.1 }, config.ErrInvalidSampleRatio},
		{"zero shutdown timeout", func(cfg *config.Config) { cfg.Telemetry.ShutdownTimeout = 0 }, config.ErrInvalidShutdownTimeout},
		{"negative ops", func(cfg *config.Config) { cfg.Stress.Ops = -1 }, config.ErrInvalidStressOps},
		{"zero max length", func(cfg *config.Config) { cfg.Stress.MaxLength = 0 }, config.ErrInvalidStressLength},
		{"small address space", func(cfg *config.Config) { cfg.Stress.AddressSpace = cfg.Stress.MaxLength }, config.ErrInvalidAddressSpace},
		{"negative sample", func(cfg *config.Config) { cfg.Stress.SampleEvery = -1 }, config.ErrInvalidStressInterval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.Default()
			tt.mutate(cfg)
			require.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}

func TestTreeOptions(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Tree.AllocatedOnInsert = true

	tree := rbtree.NewRBTree(cfg.TreeOptions(slog.Default())...)
	n, inserted := tree.Insert(64, 8)
	require.True(t, inserted)
	assert.True(t, n.Allocated())

	tree = rbtree.NewRBTree(config.Default().TreeOptions(nil)...)
	n, _ = tree.Insert(64, 8)
	assert.True(t, n.Free())
}

func TestSlogLevel(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	for level, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"other": slog.LevelInfo,
	} {
		cfg.Logging.Level = level
		assert.Equal(t, want, cfg.SlogLevel(), level)
	}
}
