// Package chart draws the analysis bar charts as PNG files.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/access-log-analyzer/backend/internal/models"
	"github.com/access-log-analyzer/backend/internal/report"
)

// ErrNoData is returned when the table to plot is empty. No file is written.
var ErrNoData = errors.New("no data to chart")

var (
	errorBarColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xb3}
	ipBarColor    = color.RGBA{R: 0xff, G: 0x8c, B: 0x00, A: 0xb3}
)

// ErrorDistribution draws one vertical bar per error status code, in
// ascending code order, and saves it to path.
func ErrorDistribution(codes []models.CodeCount, path string) error {
	if len(codes) == 0 {
		return ErrNoData
	}

	sorted := report.SortedByCode(codes)
	values := make(plotter.Values, len(sorted))
	names := make([]string, len(sorted))
	for i, c := range sorted {
		values[i] = float64(c.Count)
		names[i] = strconv.Itoa(c.Code)
	}

	p := plot.New()
	p.Title.Text = "HTTP Error Code Distribution"
	p.X.Label.Text = "HTTP Error Code"
	p.Y.Label.Text = "Number of Errors"
	p.Y.Min = 0

	bars, err := plotter.NewBarChart(values, vg.Points(28))
	if err != nil {
		return fmt.Errorf("building error chart: %w", err)
	}
	bars.Color = errorBarColor
	bars.LineStyle.Width = 0

	grid := plotter.NewGrid()
	grid.Vertical.Width = 0

	labels, err := barLabels(values, false)
	if err != nil {
		return fmt.Errorf("building error chart labels: %w", err)
	}

	p.Add(grid, bars, labels)
	p.NominalX(names...)

	return save(p, 10*vg.Inch, 6*vg.Inch, path)
}

// TopIPs draws one horizontal bar per IP, highest count on top, and saves
// it to path.
func TopIPs(ips []models.KeyCount, path string) error {
	if len(ips) == 0 {
		return ErrNoData
	}

	// The Y axis grows upwards, so reverse to put the first row on top.
	n := len(ips)
	values := make(plotter.Values, n)
	names := make([]string, n)
	for i, ip := range ips {
		values[n-1-i] = float64(ip.Count)
		names[n-1-i] = ip.Key
	}

	p := plot.New()
	p.Title.Text = "Top IP Addresses with Errors"
	p.X.Label.Text = "Number of Errors"
	p.X.Min = 0

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return fmt.Errorf("building ip chart: %w", err)
	}
	bars.Horizontal = true
	bars.Color = ipBarColor
	bars.LineStyle.Width = 0

	labels, err := barLabels(values, true)
	if err != nil {
		return fmt.Errorf("building ip chart labels: %w", err)
	}

	p.Add(bars, labels)
	p.NominalY(names...)

	return save(p, 10*vg.Inch, 5*vg.Inch, path)
}

// barLabels places each count just past the end of its bar.
func barLabels(values plotter.Values, horizontal bool) (*plotter.Labels, error) {
	xys := make(plotter.XYs, len(values))
	text := make([]string, len(values))
	for i, v := range values {
		if horizontal {
			xys[i] = plotter.XY{X: v, Y: float64(i)}
		} else {
			xys[i] = plotter.XY{X: float64(i), Y: v}
		}
		text[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}

	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: text})
	if err != nil {
		return nil, err
	}
	if horizontal {
		labels.Offset = vg.Point{X: vg.Points(4), Y: vg.Points(-4)}
	} else {
		labels.Offset = vg.Point{X: vg.Points(-4), Y: vg.Points(4)}
	}
	return labels, nil
}

func save(p *plot.Plot, w, h vg.Length, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating chart directory: %w", err)
	}
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("saving chart %s: %w", filepath.Base(path), err)
	}
	return nil
}
