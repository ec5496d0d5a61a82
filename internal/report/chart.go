package report

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/jrgoulet/cellular-automata-sim/internal/render"
)

// ErrTooFewSamples is returned when a chart would have a single point
var ErrTooFewSamples = errors.New("report: chart needs at least two generations")

func seriesColor(s int) drawing.Color {
	if s == 0 {
		// Background is black, plot empty cells in grey
		return drawing.Color{R: 128, G: 128, B: 128, A: 255}
	}
	c := render.PaletteColor(s)
	return drawing.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}

// WriteChart renders a PNG line chart with one series per state
func WriteChart(w io.Writer, census *Census) error {
	if len(census.Generations) < 2 {
		return ErrTooFewSamples
	}
	xs := make([]float64, len(census.Generations))
	for k, g := range census.Generations {
		xs[k] = float64(g)
	}

	var series []chart.Series
	for s, glyph := range census.Glyphs {
		series = append(series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("%d:[%c]", s, glyph),
			XValues: xs,
			YValues: census.Series(s),
			Style:   chart.Style{StrokeColor: seriesColor(s), StrokeWidth: 2.0},
		})
	}
	graph := chart.Chart{
		Title:  census.Rule,
		Width:  800,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  "Generation",
			Style: chart.Style{FontSize: 10.0},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		YAxis: chart.YAxis{
			Name:  "Cells",
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.ContinuousRange{Min: 0, Max: float64(max(census.Cells, 1))},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("report: render chart: %w", err)
	}
	return nil
}

// SaveChart writes the chart to a PNG file
func SaveChart(path string, census *Census) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteChart(file, census); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
