package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/memtree/internal/observability"
	"github.com/Sumatoshi-tech/memtree/pkg/rbtree"
)

// Runner executes scenarios against fresh trees.
type Runner struct {
	logger         *slog.Logger
	tracer         trace.Tracer
	metrics        *observability.TreeMetrics
	treeOpts       []rbtree.Option
	verifyEachStep bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner logger. The tree gets the same logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithTracer sets the tracer used for per-step spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Runner) { r.tracer = tracer }
}

// WithMetrics records every step into tm.
func WithMetrics(tm *observability.TreeMetrics) Option {
	return func(r *Runner) { r.metrics = tm }
}

// WithVerifyEachStep controls whether the tree is verified after every step.
func WithVerifyEachStep(verify bool) Option {
	return func(r *Runner) { r.verifyEachStep = verify }
}

// WithTreeOptions adds options applied to every tree the runner creates.
func WithTreeOptions(opts ...rbtree.Option) Option {
	return func(r *Runner) { r.treeOpts = append(r.treeOpts, opts...) }
}

// NewRunner creates a Runner that verifies after every step by default.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:         nooptrace.NewTracerProvider().Tracer("scenario"),
		verifyEachStep: true,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// StepResult describes one executed step.
type StepResult struct {
	Index    int
	Op       string
	Outcome  string
	Duration time.Duration
}

// Result is the outcome of a scenario run. Tree holds the final state,
// including when the run stopped early.
type Result struct {
	Name  string
	Steps []StepResult
	Tree  *rbtree.RBTree
}

// outcome is what a single operation produced.
type outcome struct {
	node    *rbtree.Node
	removed int
	dump    string
	err     error
}

// Run executes every step in order and stops at the first failure, which is
// returned as a *StepError.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Result, error) {
	treeOpts := append([]rbtree.Option{rbtree.WithLogger(r.logger)}, r.treeOpts...)
	if sc.AllocatedOnInsert != nil {
		treeOpts = append(treeOpts, rbtree.WithAllocatedOnInsert(*sc.AllocatedOnInsert))
	}

	res := &Result{Name: sc.Name, Tree: rbtree.NewRBTree(treeOpts...)}

	r.logger.InfoContext(ctx, "scenario started", "name", sc.Name, "steps", len(sc.Steps))

	for idx, step := range sc.Steps {
		stepRes, stepErr := r.runStep(ctx, res.Tree, idx, step)
		res.Steps = append(res.Steps, stepRes)

		if stepErr != nil {
			r.logger.ErrorContext(ctx, "scenario step failed", "step", idx, "op", step.Op, "error", stepErr)

			return res, &StepError{Index: idx, Op: step.Op, Err: stepErr}
		}
	}

	r.logger.InfoContext(ctx, "scenario passed", "name", sc.Name, "intervals", res.Tree.Len())

	return res, nil
}

func (r *Runner) runStep(ctx context.Context, tree *rbtree.RBTree, idx int, step Step) (StepResult, error) {
	ctx, span := r.tracer.Start(ctx, "scenario.step", trace.WithAttributes(
		attribute.Int("step.index", idx),
		attribute.String("step.op", step.Op),
	))
	defer span.End()

	before := tree.Stats()
	start := time.Now()
	out := apply(tree, step)
	elapsed := time.Since(start)

	r.metrics.RecordStats(ctx, before, tree.Stats())

	stepRes := StepResult{Index: idx, Op: step.Op, Outcome: describe(step, out), Duration: elapsed}

	err := check(step, out)
	if err == nil && r.verifyEachStep {
		err = tree.Verify()
	}

	status := observability.StatusOK

	switch {
	case err != nil:
		status = observability.StatusError

		var verr *rbtree.ValidationError
		if errors.As(err, &verr) {
			r.metrics.RecordViolation(ctx, verr.Rule)
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case out.err != nil:
		status = observability.StatusError
	case isLookup(step.Op) && out.node == nil:
		status = observability.StatusMiss
	}

	r.metrics.RecordOp(ctx, step.Op, status, elapsed)
	r.logger.DebugContext(ctx, "scenario step", "step", idx, "op", step.Op, "outcome", stepRes.Outcome)

	return stepRes, err
}

func isLookup(op string) bool {
	return op == OpFindExact || op == OpFindContaining || op == OpFindFreeOverlap
}

func apply(tree *rbtree.RBTree, step Step) outcome {
	switch step.Op {
	case OpInsert:
		n, inserted := tree.Insert(step.Address, step.Length)
		if !inserted {
			return outcome{}
		}

		if step.Allocated != nil {
			n.SetAllocated(*step.Allocated)
		}

		return outcome{node: n}
	case OpDelete:
		return outcome{err: tree.Delete(step.Address)}
	case OpMark:
		n := tree.FindExact(step.Address)
		if n == nil {
			return outcome{err: fmt.Errorf("%w: 0x%X", rbtree.ErrNotFound, step.Address)}
		}

		n.SetAllocated(step.Allocated != nil && *step.Allocated)

		return outcome{node: n}
	case OpFindExact:
		return outcome{node: tree.FindExact(step.Address)}
	case OpFindContaining:
		return outcome{node: tree.FindContaining(step.Point, step.Allocated != nil && *step.Allocated)}
	case OpFindFreeOverlap:
		return outcome{node: tree.FindFreeOverlap(step.Address, step.Length)}
	case OpDeleteFreeInRange:
		return outcome{removed: tree.DeleteFreeInRange(step.Address, step.Length)}
	case OpVerify:
		return outcome{err: tree.Verify()}
	case OpDump:
		var sb strings.Builder

		dumpErr := tree.Dump(&sb)

		return outcome{dump: sb.String(), err: dumpErr}
	default:
		return outcome{err: ErrUnknownOp}
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, rbtree.ErrNotFound):
		return ErrorKindNotFound
	case errors.Is(err, rbtree.ErrInvalidAddress):
		return ErrorKindInvalidAddress
	default:
		return ""
	}
}

func check(step Step, out outcome) error {
	exp := step.Expect

	if exp != nil && exp.Error != "" {
		if out.err == nil {
			return fmt.Errorf("%w: want error %s, got success", ErrExpectation, exp.Error)
		}

		if kind := errorKind(out.err); kind != exp.Error {
			return fmt.Errorf("%w: want error %s, got %w", ErrExpectation, exp.Error, out.err)
		}

		return nil
	}

	if out.err != nil {
		return out.err
	}

	if exp == nil {
		return nil
	}

	switch {
	case exp.Absent && out.node != nil:
		return fmt.Errorf("%w: want no interval, got 0x%X", ErrExpectation, out.node.Address())
	case exp.Address != nil && out.node == nil:
		return fmt.Errorf("%w: want interval 0x%X, got none", ErrExpectation, *exp.Address)
	case exp.Address != nil && out.node.Address() != *exp.Address:
		return fmt.Errorf("%w: want interval 0x%X, got 0x%X", ErrExpectation, *exp.Address, out.node.Address())
	case exp.Removed != nil && out.removed != *exp.Removed:
		return fmt.Errorf("%w: want %d removed, got %d", ErrExpectation, *exp.Removed, out.removed)
	case exp.Dump != nil && out.dump != *exp.Dump:
		return fmt.Errorf("%w: dump differs:\n%s", ErrExpectation, DumpDiff(*exp.Dump, out.dump))
	}

	return nil
}

func describe(step Step, out outcome) string {
	switch {
	case out.err != nil:
		return "error: " + out.err.Error()
	case step.Op == OpDeleteFreeInRange:
		return fmt.Sprintf("removed %d", out.removed)
	case step.Op == OpDump:
		return fmt.Sprintf("%d lines", strings.Count(out.dump, "\n"))
	case step.Op == OpVerify:
		return "well formed"
	case step.Op == OpInsert && out.node == nil:
		return "no-op"
	case out.node != nil:
		return fmt.Sprintf("0x%X+%d", out.node.Address(), out.node.Length())
	default:
		return "absent"
	}
}
