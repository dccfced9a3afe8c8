// Package plot renders diagnostic PNG charts of correlation functions,
// mean-squared displacements and moduli. Log-scaled quantities are plotted
// as log10 values on linear axes; non-positive samples are skipped.
package plot

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/cwbudde/algo-dls/rheology"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrTooFewPoints is returned when a series has fewer than two plottable
// samples.
var ErrTooFewPoints = errors.New("plot: fewer than two plottable points")

// Config controls the chart canvas.
type Config struct {
	Width  int
	Height int
	Title  string
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns an 800x500 canvas without title.
func DefaultConfig() Config {
	return Config{Width: 800, Height: 500}
}

// WithSize sets the canvas size in pixels.
func WithSize(width, height int) Option {
	return func(cfg *Config) {
		if width > 0 && height > 0 {
			cfg.Width, cfg.Height = width, height
		}
	}
}

// WithTitle sets the chart title.
func WithTitle(title string) Option {
	return func(cfg *Config) {
		cfg.Title = title
	}
}

// Band is a median curve with a lower and upper confidence bound, all
// sampled at X.
type Band struct {
	Name   string
	X      []float64
	Median []float64
	Lower  []float64
	Upper  []float64
}

// Correlation plots g2-1 against log10 lag.
func Correlation(w io.Writer, c rheology.Correlation, opts ...Option) error {
	s, err := series("g2-1", c.Lags(), c.Coefficients(), true, false, lineStyle(chart.ColorRed, false))
	if err != nil {
		return err
	}
	return render(w, apply(opts), "log10 lag (us)", "g2-1", s)
}

// MSD plots the smoothed MSD of a table on log-log axes.
func MSD(w io.Writer, t rheology.Table, opts ...Option) error {
	s, err := series("MSD", t.Lag, t.MSD, true, true, lineStyle(chart.ColorRed, false))
	if err != nil {
		return err
	}
	return render(w, apply(opts), "log10 lag (us)", "log10 MSD (nm^2)", s)
}

// Modulus plots G' (solid) and G'' (dashed) of a table on log-log axes.
func Modulus(w io.Writer, t rheology.Table, opts ...Option) error {
	storage, err := series("G'", t.Omega, t.Storage, true, true, lineStyle(chart.ColorRed, false))
	if err != nil {
		return err
	}

	loss, err := series("G''", t.Omega, t.Loss, true, true, lineStyle(chart.ColorRed, true))
	if err != nil {
		return err
	}

	return render(w, apply(opts), "log10 omega (rad/s)", "log10 G (Pa)", storage, loss)
}

// Bands plots each band's median with its bounds on log-log axes, cycling
// through the default palette.
func Bands(w io.Writer, xName, yName string, bands []Band, opts ...Option) error {
	palette := []drawing.Color{chart.ColorBlue, chart.ColorRed, chart.ColorGreen, chart.ColorAlternateGray}

	var all []chart.Series
	for i, b := range bands {
		col := palette[i%len(palette)]

		median, err := series(b.Name, b.X, b.Median, true, true, lineStyle(col, false))
		if err != nil {
			return fmt.Errorf("plot: band %q: %w", b.Name, err)
		}
		all = append(all, median)

		for _, bound := range [][]float64{b.Lower, b.Upper} {
			s, err := series("", b.X, bound, true, true, boundStyle(col))
			if err != nil {
				continue
			}
			all = append(all, s)
		}
	}

	if len(all) == 0 {
		return ErrTooFewPoints
	}

	return render(w, apply(opts), "log10 "+xName, "log10 "+yName, all...)
}

func apply(opts []Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func series(name string, x, y []float64, logX, logY bool, style chart.Style) (chart.ContinuousSeries, error) {
	n := min(len(x), len(y))
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := range n {
		xv, okX := axisValue(x[i], logX)
		yv, okY := axisValue(y[i], logY)
		if okX && okY {
			xs = append(xs, xv)
			ys = append(ys, yv)
		}
	}

	if len(xs) < 2 {
		return chart.ContinuousSeries{}, fmt.Errorf("%w: %q has %d", ErrTooFewPoints, name, len(xs))
	}

	return chart.ContinuousSeries{Name: name, XValues: xs, YValues: ys, Style: style}, nil
}

func axisValue(v float64, logScale bool) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if !logScale {
		return v, true
	}
	if v <= 0 {
		return 0, false
	}
	return math.Log10(v), true
}

func lineStyle(col drawing.Color, dashed bool) chart.Style {
	s := chart.Style{StrokeColor: col, StrokeWidth: 2}
	if dashed {
		s.StrokeDashArray = []float64{6, 4}
	}
	return s
}

func boundStyle(col drawing.Color) chart.Style {
	return chart.Style{StrokeColor: col, StrokeWidth: 1, StrokeDashArray: []float64{2, 3}}
}

func render(w io.Writer, cfg Config, xName, yName string, s ...chart.Series) error {
	ch := chart.Chart{
		Title:      cfg.Title,
		Width:      cfg.Width,
		Height:     cfg.Height,
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: xName},
		YAxis:      chart.YAxis{Name: yName},
		Series:     s,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("plot: render: %w", err)
	}
	return nil
}
