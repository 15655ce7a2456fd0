package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/memtree/pkg/rbtree"
)

const (
	metricOpsTotal        = "memtree.tree.ops.total"
	metricOpDuration      = "memtree.tree.op.duration.seconds"
	metricRotationsTotal  = "memtree.tree.rotations.total"
	metricFixupsTotal     = "memtree.tree.fixups.total"
	metricNodes           = "memtree.tree.nodes"
	metricViolationsTotal = "memtree.tree.violations.total"

	attrOp     = "op"
	attrStatus = "status"
	attrKind   = "kind"
	attrRule   = "rule"

	fixupRedRed      = "red_red"
	fixupDoubleBlack = "double_black"
)

// Operation outcomes recorded with the status attribute.
const (
	StatusOK    = "ok"
	StatusMiss  = "miss"
	StatusError = "error"
)

// opDurationBoundaries covers 100ns to 10ms: single tree operations on
// in-memory trees of up to a few million nodes.
var opDurationBoundaries = []float64{1e-7, 5e-7, 1e-6, 5e-6, 1e-5, 5e-5, 1e-4, 5e-4, 1e-3, 1e-2}

// TreeMetrics holds the OTel instruments describing interval tree activity.
// All methods are safe to call on a nil receiver.
type TreeMetrics struct {
	opsTotal        metric.Int64Counter
	opDuration      metric.Float64Histogram
	rotationsTotal  metric.Int64Counter
	fixupsTotal     metric.Int64Counter
	nodes           metric.Int64UpDownCounter
	violationsTotal metric.Int64Counter
}

// NewTreeMetrics creates tree instruments from the given meter.
func NewTreeMetrics(mt metric.Meter) (*TreeMetrics, error) {
	b := newMetricBuilder(mt)

	tm := &TreeMetrics{
		opsTotal:        b.counter(metricOpsTotal, "Total number of tree operations", "{operation}"),
		opDuration:      b.histogram(metricOpDuration, "Tree operation duration in seconds", "s", opDurationBoundaries...),
		rotationsTotal:  b.counter(metricRotationsTotal, "Total number of rotations", "{rotation}"),
		fixupsTotal:     b.counter(metricFixupsTotal, "Total number of rebalancing fixup steps", "{step}"),
		nodes:           b.upDownCounter(metricNodes, "Number of intervals in the tree", "{node}"),
		violationsTotal: b.counter(metricViolationsTotal, "Total number of failed verifications", "{violation}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return tm, nil
}

// RecordOp records a completed tree operation with its status and duration.
func (tm *TreeMetrics) RecordOp(ctx context.Context, op, status string, duration time.Duration) {
	if tm == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	tm.opsTotal.Add(ctx, 1, attrs)
	tm.opDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordStats adds the structural work done between two Stats snapshots
// and the resulting change in node count.
func (tm *TreeMetrics) RecordStats(ctx context.Context, before, after rbtree.Stats) {
	if tm == nil {
		return
	}

	if delta := after.Rotations - before.Rotations; delta > 0 {
		tm.rotationsTotal.Add(ctx, delta)
	}

	if delta := after.RedRedFixups - before.RedRedFixups; delta > 0 {
		tm.fixupsTotal.Add(ctx, delta, metric.WithAttributes(attribute.String(attrKind, fixupRedRed)))
	}

	if delta := after.DoubleBlackFixups - before.DoubleBlackFixups; delta > 0 {
		tm.fixupsTotal.Add(ctx, delta, metric.WithAttributes(attribute.String(attrKind, fixupDoubleBlack)))
	}

	nodes := (after.Inserts - before.Inserts) - (after.Deletes - before.Deletes)
	if nodes != 0 {
		tm.nodes.Add(ctx, nodes)
	}
}

// RecordViolation counts a failed verification of the given rule.
func (tm *TreeMetrics) RecordViolation(ctx context.Context, rule rbtree.Rule) {
	if tm == nil {
		return
	}

	tm.violationsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrRule, string(rule))))
}
