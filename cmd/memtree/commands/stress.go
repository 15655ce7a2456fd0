package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/memtree/internal/config"
	"github.com/Sumatoshi-tech/memtree/internal/observability"
	"github.com/Sumatoshi-tech/memtree/internal/stress"
	"github.com/Sumatoshi-tech/memtree/pkg/safeconv"
	"github.com/Sumatoshi-tech/memtree/pkg/units"
)

// StressCommand runs a randomized soak against one tree.
type StressCommand struct {
	global *GlobalOptions

	ops          int
	seed         uint64
	duration     time.Duration
	verifyEvery  int
	sampleEvery  int
	maxLength    string
	addressSpace string
	plotPath     string
	metricsAddr  string
}

// NewStressCommand creates the stress command.
func NewStressCommand(global *GlobalOptions) *cobra.Command {
	sc := &StressCommand{global: global}

	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run a randomized workload with invariant checks",
		Long: `Run a seeded mix of inserts, deletes, state changes, lookups and range
deletes, verifying the red-black properties every --verify-every operations.

A failure reports the op number and seed; rerun with the same --seed to
reproduce it. Interrupting the run prints the summary so far.`,
		Args: cobra.NoArgs,
		RunE: sc.run,
	}

	cmd.Flags().IntVar(&sc.ops, "ops", config.DefaultStressOps, "Number of operations (0 = run until --duration)")
	cmd.Flags().Uint64Var(&sc.seed, "seed", 0, "Workload seed (default: derived from the clock)")
	cmd.Flags().DurationVar(&sc.duration, "duration", 0, "Wall-clock bound for the run (e.g., 30s; 0 = none)")
	cmd.Flags().IntVar(&sc.verifyEvery, "verify-every", config.DefaultStressVerifyEvery, "Verify the tree every N ops (0 = only at the end)")
	cmd.Flags().IntVar(&sc.sampleEvery, "sample-every", config.DefaultStressSampleEvery, "Sample the tree shape every N ops (0 = never)")
	cmd.Flags().StringVar(&sc.maxLength, "max-length", "", "Largest interval length (e.g., 4KiB)")
	cmd.Flags().StringVar(&sc.addressSpace, "address-space", "", "Address space size (e.g., 1MiB)")
	cmd.Flags().StringVar(&sc.plotPath, "plot", "", "Write an HTML shape chart to this file")
	cmd.Flags().StringVar(&sc.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics at this address (e.g., :2112)")

	return cmd
}

func (sc *StressCommand) applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("ops") {
		cfg.Stress.Ops = sc.ops
	}

	if flags.Changed("verify-every") {
		cfg.Stress.VerifyEvery = sc.verifyEvery
	}

	if flags.Changed("sample-every") {
		cfg.Stress.SampleEvery = sc.sampleEvery
	}

	if flags.Changed("metrics-addr") {
		cfg.Telemetry.MetricsAddr = sc.metricsAddr
	}

	if flags.Changed("max-length") {
		size, err := units.ParseSize(sc.maxLength)
		if err != nil {
			return fmt.Errorf("--max-length: %w", err)
		}

		n, convErr := safeconv.Uint64ToInt(size)
		if convErr != nil {
			return fmt.Errorf("--max-length: %w", convErr)
		}

		cfg.Stress.MaxLength = n
	}

	if flags.Changed("address-space") {
		size, err := units.ParseSize(sc.addressSpace)
		if err != nil {
			return fmt.Errorf("--address-space: %w", err)
		}

		n, convErr := safeconv.Uint64ToInt(size)
		if convErr != nil {
			return fmt.Errorf("--address-space: %w", convErr)
		}

		cfg.Stress.AddressSpace = n
	}

	// A pure duration bound replaces the configured op count.
	if flags.Changed("duration") && !flags.Changed("ops") {
		cfg.Stress.Ops = 0
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return fmt.Errorf("validate flags: %w", validateErr)
	}

	return nil
}

func (sc *StressCommand) workload(cmd *cobra.Command, cfg *config.Config) stress.Config {
	seed := sc.seed
	if !cmd.Flags().Changed("seed") {
		seed = uint64(time.Now().UnixNano()) //nolint:gosec // clock value is only a seed.
	}

	return stress.Config{
		Ops:               cfg.Stress.Ops,
		Seed:              seed,
		Duration:          sc.duration,
		MaxLength:         safeconv.MustIntToUint64(cfg.Stress.MaxLength),
		AddressSpace:      safeconv.MustIntToUint64(cfg.Stress.AddressSpace),
		VerifyEvery:       cfg.Stress.VerifyEvery,
		SampleEvery:       cfg.Stress.SampleEvery,
		AllocatedOnInsert: cfg.Tree.AllocatedOnInsert,
	}
}

func (sc *StressCommand) run(cmd *cobra.Command, _ []string) error {
	sess, err := sc.global.openSession(cmd, observability.ModeStress)
	if err != nil {
		return err
	}
	defer sess.close()

	flagsErr := sc.applyFlags(cmd, sess.cfg)
	if flagsErr != nil {
		return flagsErr
	}

	meter := sess.providers.Meter

	if addr := sess.cfg.Telemetry.MetricsAddr; addr != "" {
		srv, srvErr := observability.NewMetricsServer(addr, sess.logger())
		if srvErr != nil {
			return srvErr
		}

		defer func() {
			closeErr := srv.Close(context.Background())
			if closeErr != nil {
				sess.logger().Warn("metrics server close failed", "error", closeErr)
			}
		}()

		meter = srv.Meter()
	}

	tm, err := observability.NewTreeMetrics(meter)
	if err != nil {
		return fmt.Errorf("tree metrics: %w", err)
	}

	workload := sc.workload(cmd, sess.cfg)

	driver, err := stress.NewDriver(workload,
		stress.WithLogger(sess.logger()),
		stress.WithTracer(sess.providers.Tracer),
		stress.WithMetrics(tm),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, runErr := driver.Run(ctx)

	out := cmd.OutOrStdout()
	stress.WriteSummary(out, rep)

	if sc.plotPath != "" {
		plotErr := writePlot(sc.plotPath, rep)
		if plotErr != nil {
			return plotErr
		}

		fmt.Fprintf(out, "Shape chart written to %s\n", sc.plotPath)
	}

	if runErr != nil {
		if errors.Is(runErr, stress.ErrInvariant) {
			color.New(color.FgRed, color.Bold).Fprintf(out, "FAIL seed %d: rerun with --seed %d\n", rep.Seed, rep.Seed)
		}

		return runErr
	}

	color.New(color.FgGreen, color.Bold).Fprintf(out, "PASS seed %d: %s ops, %d verifications\n",
		rep.Seed, humanize.Comma(int64(rep.Ops)), rep.Verifications)

	return nil
}

func writePlot(path string, rep *stress.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create plot: %w", err)
	}

	chartErr := stress.WriteChart(f, rep)
	closeErr := f.Close()

	return errors.Join(chartErr, closeErr)
}
