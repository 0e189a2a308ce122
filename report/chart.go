package report

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Default chart size: 10x5 inches.
const (
	DefaultChartWidth  = 10 * vg.Inch
	DefaultChartHeight = 5 * vg.Inch
)

var (
	barColor     = color.RGBA{R: 135, G: 206, B: 235, A: 255} // skyblue
	averageColor = color.RGBA{R: 255, A: 255}
)

// Figure is a built chart together with its plotters.
type Figure struct {
	Plot    *plot.Plot
	Bars    *plotter.BarChart
	Average *plotter.Function
}

// Chart builds the image-wise IoU bar chart: one bar per record, labelled by
// image id, and a dashed red horizontal line at the average.
//
// Arguments:
//   - r: The report. It must hold at least one record.
//
// Returns:
//   - *Figure: The chart.
//   - error: Error if the report is empty.
func Chart(r *Report) (*Figure, error) {
	if len(r.Records) == 0 {
		return nil, errors.Errorf("report %q has no records", r.Variant)
	}

	values := plotter.Values(lo.Map(r.Records, func(rec Record, _ int) float64 { return rec.IoU }))
	bars, err := plotter.NewBarChart(values, vg.Points(8))
	if err != nil {
		return nil, errors.Wrap(err, "bar chart")
	}
	bars.Color = barColor
	bars.LineStyle.Width = 0

	avg := r.Average
	line := plotter.NewFunction(func(float64) float64 { return avg })
	line.XMin = -0.5
	line.XMax = float64(len(r.Records)) - 0.5
	line.Samples = 2
	line.Color = averageColor
	line.Width = vg.Points(1.5)
	line.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s Image-wise IoU", Title(r.Variant))
	p.X.Label.Text = "Image"
	p.Y.Label.Text = "IoU"
	p.Y.Min = 0
	p.Add(bars, line)
	p.NominalX(lo.Map(r.Records, func(rec Record, _ int) string { return rec.Image })...)
	p.X.Tick.Label.Rotation = math.Pi / 2
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Legend.Top = true
	p.Legend.Add(fmt.Sprintf("Average IoU: %.2f", r.Average), line)

	return &Figure{Plot: p, Bars: bars, Average: line}, nil
}

// RenderChart encodes the chart as PNG.
func RenderChart(r *Report, w, h vg.Length) ([]byte, error) {
	fig, err := Chart(r)
	if err != nil {
		return nil, err
	}
	wt, err := fig.Plot.WriterTo(w, h, "png")
	if err != nil {
		return nil, errors.Wrap(err, "render chart")
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "render chart")
	}
	return buf.Bytes(), nil
}
