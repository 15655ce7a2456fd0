package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/memtree/internal/observability"
)

func TestDefaultConfig_HasSensibleDefaults(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()

	assert.Equal(t, "memtree", cfg.ServiceName)
	assert.Equal(t, observability.ModeCLI, cfg.Mode)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.InDelta(t, 1.0, cfg.SampleRatio, 0)
	assert.Empty(t, cfg.OTLPEndpoint)
	assert.Empty(t, cfg.ServiceVersion)
}

func TestInit_NoopWhenNoEndpoint(t *testing.T) {
	t.Parallel()

	providers, err := observability.Init(observability.DefaultConfig())
	require.NoError(t, err)

	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Logger)
	assert.NotNil(t, providers.Shutdown)

	// Creating a span should work even in no-op mode.
	_, span := providers.Tracer.Start(context.Background(), "test-op")
	span.End()

	require.NoError(t, providers.Shutdown(context.Background()))
	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitWithWriter_LogsJSONWithServiceAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogJSON = true
	cfg.Mode = observability.ModeStress

	providers, err := observability.InitWithWriter(cfg, &buf)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	providers.Logger.InfoContext(context.Background(), "soak started")

	var record map[string]any

	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "soak started", record["msg"])
	assert.Equal(t, "memtree", record["service"])
	assert.Equal(t, "stress", record["mode"])
}

func TestInitWithWriter_RespectsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogLevel = slog.LevelWarn

	providers, err := observability.InitWithWriter(cfg, &buf)
	require.NoError(t, err)

	providers.Logger.Info("hidden")
	assert.Empty(t, buf.String())

	providers.Logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseOTLPHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  map[string]string
	}{
		{"empty", "", nil},
		{"single", "key=value", map[string]string{"key": "value"}},
		{"multiple", "k1=v1,k2=v2", map[string]string{"k1": "v1", "k2": "v2"}},
		{"spaces", " k1 = v1 , k2 = v2 ", map[string]string{"k1": "v1", "k2": "v2"}},
		{"no_equals", "invalid", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, observability.ParseOTLPHeaders(tt.input))
		})
	}
}

func TestBuildResource_IncludesAppMode(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	cfg.Mode = observability.ModeScript

	res, err := observability.BuildResourceForTest(cfg)
	require.NoError(t, err)

	found := false

	for _, attr := range res.Attributes() {
		if string(attr.Key) == "app.mode" {
			assert.Equal(t, "script", attr.Value.AsString())

			found = true
		}
	}

	assert.True(t, found, "app.mode attribute not found in resource")
}

func TestSampler_FollowsSampleRatio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		ratio float64
		want  bool
	}{
		{"full", 1.0, true},
		{"above_full", 2.5, true},
		{"zero", 0, false},
		{"negative", -1, false},
		{"tiny", 1e-12, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := observability.DefaultConfig()
			cfg.SampleRatio = tt.ratio

			assert.Equal(t, tt.want, observability.SampledUnder(cfg))
		})
	}
}

func TestShutdownTimeout(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	cfg.ShutdownTimeout = 250 * time.Millisecond
	assert.Equal(t, 250*time.Millisecond, observability.ShutdownTimeoutForTest(cfg))

	cfg.ShutdownTimeout = 0
	assert.Equal(t, 5*time.Second, observability.ShutdownTimeoutForTest(cfg))
}

func TestFlushWithin_AppliesDeadlineAndJoinsErrors(t *testing.T) {
	t.Parallel()

	flushErr := errors.New("collector down")

	var deadlines []time.Time

	record := func(ctx context.Context) error {
		deadline, ok := ctx.Deadline()
		require.True(t, ok)

		deadlines = append(deadlines, deadline)

		return nil
	}

	failing := func(context.Context) error { return flushErr }

	start := time.Now()
	err := observability.FlushWithinForTest(time.Minute, record, failing, record)(context.Background())

	require.ErrorIs(t, err, flushErr)
	require.Len(t, deadlines, 2)

	for _, d := range deadlines {
		assert.WithinDuration(t, start.Add(time.Minute), d, 5*time.Second)
	}
}
