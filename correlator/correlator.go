package correlator

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-dls/rheology"
	"github.com/cwbudde/algo-dls/stats/trace"
	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"
)

// Errors returned by the correlator.
var (
	ErrShortTrace     = errors.New("correlator: trace needs at least two samples")
	ErrZeroIntensity  = errors.New("correlator: trace has zero mean intensity")
	ErrInvalidSetting = errors.New("correlator: invalid setting")
)

// Config controls the lag grid.
type Config struct {
	// SampleInterval is the duration of one count bin in microseconds.
	SampleInterval float64
	// Channels is the maximum number of lag channels.
	Channels int
	// MaxLagFraction limits the longest lag to this fraction of the trace.
	MaxLagFraction float64
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns 1 us bins, 200 channels and lags up to a tenth of
// the trace.
func DefaultConfig() Config {
	return Config{
		SampleInterval: 1,
		Channels:       200,
		MaxLagFraction: 0.1,
	}
}

// WithSampleInterval sets the bin duration in microseconds.
func WithSampleInterval(us float64) Option {
	return func(cfg *Config) {
		if us > 0 {
			cfg.SampleInterval = us
		}
	}
}

// WithChannels sets the maximum number of lag channels.
func WithChannels(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.Channels = n
		}
	}
}

// WithMaxLagFraction sets the longest lag relative to the trace length.
func WithMaxLagFraction(f float64) Option {
	return func(cfg *Config) {
		if f > 0 && f <= 1 {
			cfg.MaxLagFraction = f
		}
	}
}

// Correlator turns count traces into correlation functions.
type Correlator struct {
	cfg Config
}

// New creates a correlator from DefaultConfig and opts.
func New(opts ...Option) *Correlator {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Correlator{cfg: cfg}
}

// Correlate returns g2-1 of counts on the lag grid, lags in microseconds.
func (c *Correlator) Correlate(counts []float64) (rheology.Correlation, error) {
	full, err := Autocorrelate(counts)
	if err != nil {
		return rheology.Correlation{}, err
	}

	maxLag := int(math.Floor(c.cfg.MaxLagFraction * float64(len(counts)-1)))
	grid := LagGrid(max(maxLag, 1), c.cfg.Channels)

	lags := make([]float64, len(grid))
	coeffs := make([]float64, len(grid))
	for i, m := range grid {
		lags[i] = float64(m) * c.cfg.SampleInterval
		coeffs[i] = full[m]
	}

	return rheology.NewCorrelation(lags, coeffs)
}

// Measure correlates the trace recorded at the measurement position and
// derives the point intensity from its count rate in kcps. The ensemble
// scan is given as one trace per position; it may be empty for ergodic
// samples.
func (c *Correlator) Measure(counts []float64, scan [][]float64) (rheology.Measurement, trace.Stats, error) {
	st := trace.Calculate(counts)

	corr, err := c.Correlate(counts)
	if err != nil {
		return rheology.Measurement{}, st, err
	}

	in := rheology.Intensity{
		Point:    st.CountRate(c.cfg.SampleInterval),
		Ensemble: make([]float64, len(scan)),
	}
	for i, s := range scan {
		in.Ensemble[i] = trace.Calculate(s).CountRate(c.cfg.SampleInterval)
	}

	m, err := rheology.NewMeasurement(corr, in)
	return m, st, err
}

// Autocorrelate returns the unbiased normalized autocorrelation
//
//	g2(m)-1 = <n(k)*n(k+m)> / <n>^2 - 1
//
// for every lag m in [0, len(counts)), where <n(k)*n(k+m)> averages over the
// len(counts)-m available products.
func Autocorrelate(counts []float64) ([]float64, error) {
	n := len(counts)
	if n < 2 {
		return nil, ErrShortTrace
	}

	mean := floats.Sum(counts) / float64(n)
	if mean == 0 || math.IsNaN(mean) || math.IsInf(mean, 0) {
		return nil, fmt.Errorf("%w: mean %v", ErrZeroIntensity, mean)
	}

	sums, err := lagProducts(counts)
	if err != nil {
		return nil, err
	}

	out := make([]float64, n)
	norm := mean * mean
	for m := range out {
		out[m] = sums[m]/float64(n-m)/norm - 1
	}

	return out, nil
}

// lagProducts returns sum_k x[k]*x[k+m] for m in [0, len(x)) via the
// inverse FFT of the power spectrum of the zero-padded trace.
func lagProducts(x []float64) ([]float64, error) {
	n := len(x)
	size := nextPowerOf2(2 * n)

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("correlator: failed to create FFT plan: %w", err)
	}

	padded := make([]complex128, size)
	for i, v := range x {
		padded[i] = complex(v, 0)
	}

	spec := make([]complex128, size)
	if err := plan.Forward(spec, padded); err != nil {
		return nil, fmt.Errorf("correlator: forward FFT failed: %w", err)
	}

	re := make([]float64, size)
	im := make([]float64, size)
	for i, c := range spec {
		re[i] = real(c)
		im[i] = imag(c)
	}

	power := make([]float64, size)
	vecmath.Power(power, re, im)

	for i, p := range power {
		spec[i] = complex(p, 0)
	}

	acf := make([]complex128, size)
	if err := plan.Inverse(acf, spec); err != nil {
		return nil, fmt.Errorf("correlator: inverse FFT failed: %w", err)
	}

	out := make([]float64, n)
	for m := range out {
		out[m] = real(acf[m])
	}
	return out, nil
}

// LagGrid returns up to channels distinct integer lags in [1, maxLag],
// spaced evenly in log and always including 1 and maxLag.
func LagGrid(maxLag, channels int) []int {
	if maxLag < 1 || channels < 1 {
		return nil
	}

	if channels == 1 {
		return []int{1}
	}

	top := math.Log(float64(maxLag))
	out := make([]int, 0, channels)
	for i := range channels {
		m := int(math.Round(math.Exp(top * float64(i) / float64(channels-1))))
		if len(out) > 0 && m <= out[len(out)-1] {
			continue
		}
		out = append(out, m)
	}
	return out
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
