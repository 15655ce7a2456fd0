package stress

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const fullZoomPct = 100

// WriteChart renders the shape samples of rep as an interactive HTML page:
// tree height against the red-black bound, and the node count.
func WriteChart(w io.Writer, rep *Report) error {
	page := components.NewPage()
	page.PageTitle = "memtree stress"
	page.AddCharts(shapeChart(rep), nodesChart(rep))

	renderErr := page.Render(w)
	if renderErr != nil {
		return fmt.Errorf("render chart: %w", renderErr)
	}

	return nil
}

func sampleLabels(samples []Sample) []string {
	labels := make([]string, len(samples))
	for i, s := range samples {
		labels[i] = strconv.Itoa(s.Op)
	}

	return labels
}

func newLineChart(title, subtitle, yAxis string, labels []string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "5px"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: fullZoomPct}, opts.DataZoom{Type: "inside"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Operation"}),
		charts.WithYAxisOpts(opts.YAxis{Name: yAxis}),
	)
	line.SetXAxis(labels)

	return line
}

func shapeChart(rep *Report) *charts.Line {
	line := newLineChart("Tree Shape", fmt.Sprintf("seed %d", rep.Seed), "Levels", sampleLabels(rep.Samples))

	height := make([]opts.LineData, len(rep.Samples))
	blackHeight := make([]opts.LineData, len(rep.Samples))
	bound := make([]opts.LineData, len(rep.Samples))

	for i, s := range rep.Samples {
		height[i] = opts.LineData{Value: s.Height}
		blackHeight[i] = opts.LineData{Value: s.BlackHeight}
		bound[i] = opts.LineData{Value: HeightBound(s.Nodes)}
	}

	line.AddSeries("Height", height)
	line.AddSeries("Black height", blackHeight)
	line.AddSeries("2*log2(n+1)", bound, charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}))

	return line
}

func nodesChart(rep *Report) *charts.Line {
	line := newLineChart("Intervals", "nodes held by the tree", "Nodes", sampleLabels(rep.Samples))

	nodes := make([]opts.LineData, len(rep.Samples))
	for i, s := range rep.Samples {
		nodes[i] = opts.LineData{Value: s.Nodes}
	}

	line.AddSeries("Nodes", nodes, charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(0.3)}))

	return line
}

// HeightBound is the maximum height of a red-black tree with n nodes.
func HeightBound(n int) float64 {
	return 2 * math.Log2(float64(n)+1)
}
