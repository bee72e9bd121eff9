package report

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"BreakoutScanner/internal/model"
)

// ChartWriter renders one PNG per matching series: the close price with the
// lifetime high and pullback low drawn as dashed levels.
type ChartWriter struct {
	Dir    string
	Width  vg.Length
	Height vg.Length
}

// NewChartWriter creates the output directory and returns a writer using
// a 10x5 inch canvas.
func NewChartWriter(dir string) (*ChartWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create chart dir: %w", err)
	}
	return &ChartWriter{Dir: dir, Width: 10 * vg.Inch, Height: 5 * vg.Inch}, nil
}

// Path returns the file a ticker's chart is written to.
func (c *ChartWriter) Path(ticker string) string {
	safe := strings.NewReplacer("/", "_", `\`, "_", ":", "_").Replace(ticker)
	return filepath.Join(c.Dir, safe+".png")
}

// HandleMatch implements scanner.MatchSink.
func (c *ChartWriter) HandleMatch(ctx context.Context, rec model.MatchRecord, series *model.PriceSeries) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if series.Empty() {
		return fmt.Errorf("chart %s: empty series", rec.Ticker)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s Price History", rec.Ticker)
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Price"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	p.Legend.Top = true

	closes := make(plotter.XYs, len(series.Bars))
	for i, b := range series.Bars {
		closes[i].X = float64(b.Time.Unix())
		closes[i].Y = b.Close
	}
	closeLine, err := plotter.NewLine(closes)
	if err != nil {
		return fmt.Errorf("chart %s: close line: %w", rec.Ticker, err)
	}
	closeLine.Color = color.RGBA{B: 200, A: 255}

	first, last := closes[0].X, closes[len(closes)-1].X
	highLine, err := levelLine(first, last, rec.LifetimeHigh, color.RGBA{R: 220, A: 255})
	if err != nil {
		return fmt.Errorf("chart %s: high level: %w", rec.Ticker, err)
	}
	lowLine, err := levelLine(first, last, rec.PullbackLow, color.RGBA{G: 160, A: 255})
	if err != nil {
		return fmt.Errorf("chart %s: low level: %w", rec.Ticker, err)
	}

	p.Add(closeLine, highLine, lowLine)
	p.Legend.Add("Close Price", closeLine)
	p.Legend.Add("Lifetime High", highLine)
	p.Legend.Add("Pullback Low", lowLine)

	if err := p.Save(c.Width, c.Height, c.Path(rec.Ticker)); err != nil {
		return fmt.Errorf("chart %s: save: %w", rec.Ticker, err)
	}
	return nil
}

func levelLine(x0, x1, y float64, col color.Color) (*plotter.Line, error) {
	l, err := plotter.NewLine(plotter.XYs{{X: x0, Y: y}, {X: x1, Y: y}})
	if err != nil {
		return nil, err
	}
	l.Color = col
	l.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	return l, nil
}
