// Package stress drives randomized workloads against the interval tree,
// verifying its invariants periodically and sampling its shape.
package stress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/memtree/internal/observability"
	"github.com/Sumatoshi-tech/memtree/pkg/rbtree"
	"github.com/Sumatoshi-tech/memtree/pkg/safeconv"
)

var (
	// ErrInvariant indicates that the tree failed verification during a run.
	ErrInvariant = errors.New("tree invariant violated")
	// ErrInvalidConfig indicates an unusable workload configuration.
	ErrInvalidConfig = errors.New("invalid stress config")
)

// Config describes one randomized workload.
type Config struct {
	// Ops is the number of operations to run. Zero means run until Duration.
	Ops int
	// Seed makes the workload reproducible.
	Seed uint64
	// Duration bounds the wall-clock time of the run. Zero means no bound.
	Duration time.Duration
	// MaxLength is the largest interval length generated.
	MaxLength uint64
	// AddressSpace bounds generated addresses to [1, AddressSpace].
	AddressSpace uint64
	// VerifyEvery runs a full verification every N operations. Zero disables it.
	VerifyEvery int
	// SampleEvery records the tree shape every N operations. Zero disables it.
	SampleEvery int
	// AllocatedOnInsert sets the state of freshly inserted intervals.
	AllocatedOnInsert bool
}

// Validate reports whether the workload can run.
func (c Config) Validate() error {
	switch {
	case c.Ops < 0:
		return fmt.Errorf("%w: ops must be non-negative", ErrInvalidConfig)
	case c.Ops == 0 && c.Duration <= 0:
		return fmt.Errorf("%w: either ops or duration must be set", ErrInvalidConfig)
	case c.MaxLength == 0:
		return fmt.Errorf("%w: max length must be positive", ErrInvalidConfig)
	case c.AddressSpace == 0:
		return fmt.Errorf("%w: address space must be positive", ErrInvalidConfig)
	case c.VerifyEvery < 0 || c.SampleEvery < 0:
		return fmt.Errorf("%w: intervals must be non-negative", ErrInvalidConfig)
	}

	return nil
}

// InvariantError pins a verification failure to the operation that exposed it.
type InvariantError struct {
	Op   int
	Seed uint64
	Err  error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%v after op %d (seed %d): %v", ErrInvariant, e.Op, e.Seed, e.Err)
}

func (e *InvariantError) Unwrap() []error {
	return []error{ErrInvariant, e.Err}
}

// Sample is a snapshot of the tree shape.
type Sample struct {
	Op          int
	Nodes       int
	Height      int
	BlackHeight int
}

// Report summarizes a run. It is returned even when the run fails.
type Report struct {
	Seed          uint64
	Ops           int
	OpCounts      map[string]int
	Misses        int
	Verifications int
	Samples       []Sample
	Stats         rbtree.Stats
	FinalNodes    int
	Elapsed       time.Duration
	LatencyP50    time.Duration
	LatencyP99    time.Duration
	LatencyMax    time.Duration
	Interrupted   bool
}

// Driver runs workloads.
type Driver struct {
	cfg     Config
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *observability.TreeMetrics
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the driver logger. The tree gets the same logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) { d.logger = logger }
}

// WithTracer sets the tracer used for the run span.
func WithTracer(tracer trace.Tracer) Option {
	return func(d *Driver) { d.tracer = tracer }
}

// WithMetrics records every operation into tm.
func WithMetrics(tm *observability.TreeMetrics) Option {
	return func(d *Driver) { d.metrics = tm }
}

// NewDriver validates cfg and creates a Driver.
func NewDriver(cfg Config, opts ...Option) (*Driver, error) {
	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, validateErr
	}

	d := &Driver{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer: nooptrace.NewTracerProvider().Tracer("stress"),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// run is the mutable state of one workload.
// spanAttributes labels the run span. The seed is kept as a decimal string so
// it can be pasted back into --seed.
func (c Config) spanAttributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("stress.seed", strconv.FormatUint(c.Seed, 10)),
		attribute.Int("stress.ops", c.Ops),
		attribute.Int64("stress.max_length", safeconv.ClampUint64ToInt64(c.MaxLength)),
		attribute.Int64("stress.address_space", safeconv.ClampUint64ToInt64(c.AddressSpace)),
	}
}

type run struct {
	*Driver

	rng     *rand.Rand
	tree    *rbtree.RBTree
	live    *liveSet
	latency *latencyReservoir
	report  *Report
}

// Run executes the workload until the op count or duration is reached or ctx
// is canceled. Cancellation is not an error: the report is marked
// Interrupted. A verification failure returns an *InvariantError.
func (d *Driver) Run(ctx context.Context) (*Report, error) {
	ctx, span := d.tracer.Start(ctx, "stress.run", trace.WithAttributes(d.cfg.spanAttributes()...))
	defer span.End()

	r := &run{
		Driver: d,
		rng:    rand.New(rand.NewPCG(d.cfg.Seed, d.cfg.Seed^0x9e3779b97f4a7c15)), //nolint:gosec // reproducible workload.
		tree: rbtree.NewRBTree(
			rbtree.WithLogger(d.logger),
			rbtree.WithAllocatedOnInsert(d.cfg.AllocatedOnInsert),
		),
		live:    newLiveSet(),
		latency: newLatencyReservoir(d.cfg.Seed),
		report:  &Report{Seed: d.cfg.Seed, OpCounts: make(map[string]int)},
	}

	d.logger.InfoContext(ctx, "stress started",
		"seed", d.cfg.Seed, "ops", d.cfg.Ops, "duration", d.cfg.Duration)

	err := r.loop(ctx)

	r.report.Stats = r.tree.Stats()
	r.report.FinalNodes = r.tree.Len()
	r.report.LatencyP50 = r.latency.percentile(percentileMedian)
	r.report.LatencyP99 = r.latency.percentile(percentileP99)
	r.report.LatencyMax = r.latency.max

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.logger.ErrorContext(ctx, "stress failed", "error", err)

		return r.report, err
	}

	d.logger.InfoContext(ctx, "stress finished",
		"ops", r.report.Ops, "nodes", r.report.FinalNodes, "elapsed", r.report.Elapsed,
		"interrupted", r.report.Interrupted)

	return r.report, nil
}

func (r *run) loop(ctx context.Context) error {
	start := time.Now()

	defer func() { r.report.Elapsed = time.Since(start) }()

	for op := 1; r.cfg.Ops == 0 || op <= r.cfg.Ops; op++ {
		if ctx.Err() != nil {
			r.report.Interrupted = true

			return nil
		}

		if r.cfg.Duration > 0 && time.Since(start) >= r.cfg.Duration {
			break
		}

		r.step(ctx)
		r.report.Ops = op

		if r.cfg.VerifyEvery > 0 && op%r.cfg.VerifyEvery == 0 {
			verifyErr := r.verify(ctx, op)
			if verifyErr != nil {
				return verifyErr
			}
		}

		if r.cfg.SampleEvery > 0 && op%r.cfg.SampleEvery == 0 {
			r.sample(op)
		}
	}

	return r.verify(ctx, r.report.Ops)
}

func (r *run) verify(ctx context.Context, op int) error {
	r.report.Verifications++

	err := r.tree.Verify()
	if err == nil && r.tree.Len() != r.live.len() {
		err = fmt.Errorf("tree holds %d intervals, workload tracked %d", r.tree.Len(), r.live.len())
	}

	if err == nil {
		return nil
	}

	var verr *rbtree.ValidationError
	if errors.As(err, &verr) {
		r.metrics.RecordViolation(ctx, verr.Rule)
	}

	return &InvariantError{Op: op, Seed: r.cfg.Seed, Err: err}
}

func (r *run) sample(op int) {
	r.report.Samples = append(r.report.Samples, Sample{
		Op:          op,
		Nodes:       r.tree.Len(),
		Height:      r.tree.Height(),
		BlackHeight: r.tree.BlackHeight(),
	})
}

func (r *run) address() uint64 {
	return 1 + r.rng.Uint64N(r.cfg.AddressSpace)
}

func (r *run) length() uint64 {
	return 1 + r.rng.Uint64N(r.cfg.MaxLength)
}

// target picks a live address most of the time and a random one otherwise,
// so misses are exercised too.
func (r *run) target() uint64 {
	const liveBias = 8

	if r.rng.IntN(liveBias+1) < liveBias {
		if address, ok := r.live.pick(r.rng); ok {
			return address
		}
	}

	return r.address()
}

func (r *run) step(ctx context.Context) {
	name := pickOp(r.rng)
	before := r.tree.Stats()
	start := time.Now()
	status := r.apply(name)
	elapsed := time.Since(start)

	r.latency.add(elapsed)
	r.report.OpCounts[name]++
	if status == observability.StatusMiss {
		r.report.Misses++
	}

	r.metrics.RecordStats(ctx, before, r.tree.Stats())
	r.metrics.RecordOp(ctx, name, status, elapsed)
}

func (r *run) apply(name string) string {
	switch name {
	case OpInsert:
		address := r.address()

		_, inserted := r.tree.Insert(address, r.length())
		if !inserted {
			return observability.StatusMiss
		}

		r.live.add(address)
	case OpDelete:
		address := r.target()

		if r.tree.Delete(address) != nil {
			return observability.StatusMiss
		}

		r.live.remove(address)
	case OpMark:
		n := r.tree.FindExact(r.target())
		if n == nil {
			return observability.StatusMiss
		}

		n.SetAllocated(!n.Allocated())
	case OpFindExact:
		return found(r.tree.FindExact(r.target()))
	case OpFindContaining:
		return found(r.tree.FindContaining(r.address(), r.rng.IntN(2) == 0))
	case OpFindFreeOverlap:
		return found(r.tree.FindFreeOverlap(r.address(), r.length()))
	case OpDeleteFreeInRange:
		if r.tree.DeleteFreeInRange(r.address(), r.length()) == 0 {
			return observability.StatusMiss
		}

		r.live.resync(r.tree)
	}

	return observability.StatusOK
}

func found(n *rbtree.Node) string {
	if n == nil {
		return observability.StatusMiss
	}

	return observability.StatusOK
}
