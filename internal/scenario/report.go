package scenario

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/memtree/pkg/rbtree"
)

func newTable(w io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	return tbl
}

// WriteTreeTable renders the intervals of tree in address order.
func WriteTreeTable(w io.Writer, tree *rbtree.RBTree) {
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Address", "Length", "End", "State", "Color"})

	tree.Walk(func(n *rbtree.Node) bool {
		state := "free"
		if n.Allocated() {
			state = "allocated"
		}

		color := "black"
		if n.IsRed() {
			color = "red"
		}

		tbl.AppendRow(table.Row{
			fmt.Sprintf("0x%X", n.Address()), n.Length(), fmt.Sprintf("0x%X", n.End()), state, color,
		})

		return true
	})

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d intervals", tree.Len()), "", "", "", ""})
	tbl.Render()
}

// WriteStepTable renders the executed steps of a run.
func WriteStepTable(w io.Writer, res *Result) {
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"#", "Op", "Outcome", "Duration"})

	for _, step := range res.Steps {
		tbl.AppendRow(table.Row{step.Index, step.Op, step.Outcome, step.Duration})
	}

	tbl.Render()
}
