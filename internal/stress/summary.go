package stress

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// OpsPerSecond is the throughput of the run, zero when nothing ran.
func (rep *Report) OpsPerSecond() float64 {
	if rep.Elapsed <= 0 || rep.Ops == 0 {
		return 0
	}

	return float64(rep.Ops) / rep.Elapsed.Seconds()
}

// WriteSummary renders the run totals and the per-operation mix as tables.
func WriteSummary(w io.Writer, rep *Report) {
	totals := table.NewWriter()
	totals.SetOutputMirror(w)
	totals.SetStyle(table.StyleLight)
	totals.SetTitle("Stress run (seed %d)", rep.Seed)
	totals.AppendRows([]table.Row{
		{"Operations", humanize.Comma(int64(rep.Ops))},
		{"Elapsed", rep.Elapsed.Round(time.Millisecond)},
		{"Throughput", humanize.CommafWithDigits(rep.OpsPerSecond(), 0) + " ops/s"},
		{"Latency p50 / p99 / max", fmt.Sprintf("%s / %s / %s", rep.LatencyP50, rep.LatencyP99, rep.LatencyMax)},
		{"Verifications", humanize.Comma(int64(rep.Verifications))},
		{"Final intervals", humanize.Comma(int64(rep.FinalNodes))},
		{"Rotations", humanize.Comma(rep.Stats.Rotations)},
		{"Red-red fixups", humanize.Comma(rep.Stats.RedRedFixups)},
		{"Double-black fixups", humanize.Comma(rep.Stats.DoubleBlackFixups)},
		{"Payload swaps", humanize.Comma(rep.Stats.PayloadSwaps)},
		{"Range deletes", humanize.Comma(rep.Stats.RangeDeletes)},
	})

	if rep.Interrupted {
		totals.AppendRow(table.Row{"Interrupted", "yes"})
	}

	totals.Render()

	mix := table.NewWriter()
	mix.SetOutputMirror(w)
	mix.SetStyle(table.StyleLight)
	mix.AppendHeader(table.Row{"Op", "Count", "Share"})
	mix.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})

	ops := make([]string, 0, len(rep.OpCounts))
	for op := range rep.OpCounts {
		ops = append(ops, op)
	}

	slices.Sort(ops)

	for _, op := range ops {
		count := rep.OpCounts[op]
		mix.AppendRow(table.Row{op, humanize.Comma(int64(count)), share(count, rep.Ops)})
	}

	mix.AppendFooter(table.Row{"misses", humanize.Comma(int64(rep.Misses)), share(rep.Misses, rep.Ops)})
	mix.Render()
}

func share(part, total int) string {
	if total == 0 {
		return "-"
	}

	const percent = 100

	return fmt.Sprintf("%.1f%%", float64(part)*percent/float64(total))
}
