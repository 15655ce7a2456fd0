package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const metricsReadHeaderTimeout = 5 * time.Second

// MetricsServer exposes /healthz and a Prometheus /metrics endpoint for the
// instruments created from its Meter.
type MetricsServer struct {
	server   *http.Server
	listener net.Listener
	provider *sdkmetric.MeterProvider
	logger   *slog.Logger
}

// NewMetricsServer starts serving at addr. A nil logger logs through
// slog.Default.
func NewMetricsServer(addr string, logger *slog.Logger) (*MetricsServer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	metricsHandler, provider, err := PrometheusHandler()
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsHandler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	var lc net.ListenConfig

	listener, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		_ = provider.Shutdown(context.Background())

		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: metricsReadHeaderTimeout}

	go func() {
		serveErr := srv.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", "error", serveErr)
		}
	}()

	logger.Info("metrics server listening", "addr", listener.Addr().String())

	return &MetricsServer{server: srv, listener: listener, provider: provider, logger: logger}, nil
}

// Addr returns the address the server is listening on.
func (m *MetricsServer) Addr() string {
	return m.listener.Addr().String()
}

// Meter returns a meter whose instruments are served on /metrics.
//
//nolint:ireturn // the OTel API hands out meters as interfaces.
func (m *MetricsServer) Meter() metric.Meter {
	return m.provider.Meter(meterName)
}

// Close stops the server and the backing meter provider.
func (m *MetricsServer) Close(ctx context.Context) error {
	shutdownErr := m.server.Shutdown(ctx)
	providerErr := m.provider.Shutdown(ctx)

	err := errors.Join(shutdownErr, providerErr)
	if err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}

	return nil
}
