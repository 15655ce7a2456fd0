// Package commands implements CLI command handlers for memtree.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/memtree/internal/config"
	"github.com/Sumatoshi-tech/memtree/internal/observability"
	"github.com/Sumatoshi-tech/memtree/pkg/version"
)

// observabilityInit builds telemetry providers writing logs to w.
type observabilityInit func(cfg observability.Config, w io.Writer) (observability.Providers, error)

// GlobalOptions holds the persistent flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
	LogJSON    bool
	NoColor    bool

	initObs observabilityInit
}

// NewRootCommand creates the memtree command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommandWithInit(observability.InitWithWriter)
}

func newRootCommandWithInit(initObs observabilityInit) *cobra.Command {
	opts := &GlobalOptions{initObs: initObs}

	rootCmd := &cobra.Command{
		Use:   "memtree",
		Short: "memtree - red-black interval tree for memory management",
		Long: `memtree tracks closed [address, address+length] intervals in a red-black tree
and exercises it through scripted scenarios and randomized soaks.

Commands:
  run       Print the memory parameters
  script    Run a scenario file
  stress    Run a randomized workload with invariant checks
  version   Show version information`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if opts.NoColor {
				color.NoColor = true //nolint:reassign // intentional override of library global
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Config file (default: .memtree.yaml in CWD or $HOME)")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Verbose output (debug logs)")
	rootCmd.PersistentFlags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Suppress logs below error")
	rootCmd.PersistentFlags().BoolVar(&opts.LogJSON, "log-json", false, "Emit logs as JSON")
	rootCmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(NewRunCommand(opts))
	rootCmd.AddCommand(NewScriptCommand(opts))
	rootCmd.AddCommand(NewStressCommand(opts))
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

// loadConfig reads the config file and applies the logging flags on top.
func (o *GlobalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(o.ConfigPath)
	if err != nil {
		return nil, err
	}

	switch {
	case o.Verbose:
		cfg.Logging.Level = "debug"
	case o.Quiet:
		cfg.Logging.Level = "error"
	}

	if o.LogJSON {
		cfg.Logging.Format = config.LogFormatJSON
	}

	return cfg, nil
}

// session bundles the config and telemetry used by one command invocation.
type session struct {
	cfg       *config.Config
	providers observability.Providers
}

func (s *session) logger() *slog.Logger {
	return s.providers.Logger
}

// close flushes telemetry, logging rather than returning a flush failure.
func (s *session) close() {
	shutdownErr := s.providers.Shutdown(context.Background())
	if shutdownErr != nil && s.providers.Logger != nil {
		s.providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
	}
}

// openSession loads config and initializes telemetry for mode.
func (o *GlobalOptions) openSession(cmd *cobra.Command, mode observability.AppMode) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = mode
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.SampleRatio = cfg.Telemetry.SampleRatio
	obsCfg.ShutdownTimeout = cfg.Telemetry.ShutdownTimeout
	obsCfg.LogLevel = cfg.SlogLevel()
	obsCfg.LogJSON = cfg.Logging.Format == config.LogFormatJSON

	providers, err := o.initObs(obsCfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	return &session{cfg: cfg, providers: providers}, nil
}
