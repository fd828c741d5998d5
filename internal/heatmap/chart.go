package heatmap

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

var heatColors = []string{"#313695", "#4575b4", "#74add1", "#abd9e9", "#fee090", "#fdae61", "#f46d43", "#d73027", "#a50026"}

// Render writes a standalone HTML page plotting every counted position,
// coloured by how often it was touched.
func (t *Tracker) Render(w io.Writer) error {
	data := t.Data()

	points := make([]opts.ScatterData, 0, len(data.Positions))
	for _, p := range data.Positions {
		points = append(points, opts.ScatterData{Value: []interface{}{p.X, p.Y, p.Count}})
	}

	maxCount := data.MaxCount
	if maxCount == 0 {
		maxCount = 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Touch Heatmap", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Touch Heatmap", Subtitle: fmt.Sprintf("positions=%d max=%d", len(points), data.MaxCount)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "clientX (px)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "clientY (px)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxCount),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: heatColors},
		}),
	)
	scatter.AddSeries("touches", points, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 10}))
	return scatter.Render(w)
}
