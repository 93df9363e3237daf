package report

import (
	"github.com/grailbio/base/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// BarChart draws one bar per label and saves the chart to path. The image
// format follows the suffix of path (.png, .svg, .pdf, ...).
func BarChart(path, title, xLabel, yLabel string, labels []string, values []float64) error {
	if len(labels) != len(values) {
		return errors.E(errors.Invalid, "bar chart: labels and values differ in length")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	bars, err := plotter.NewBarChart(plotter.Values(values), vg.Points(10))
	if err != nil {
		return errors.E(err, "bar chart", path)
	}
	bars.Color = plotutil.Color(0)
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(labels...)

	if err := p.Save(16*vg.Inch, 9*vg.Inch, path); err != nil {
		return errors.E(err, "save chart", path)
	}
	return nil
}
