package rheology

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/cwbudde/algo-dls/fit"
	"go.uber.org/zap"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("rheology: invalid configuration")

// CorrectionMode selects how g1 is derived from g2-1.
type CorrectionMode int

const (
	// ModeErgodic assumes the time average equals the ensemble average.
	ModeErgodic CorrectionMode = iota
	// ModeNonErgodic applies the linear heterodyne-like correction based on
	// the ensemble to point intensity ratio.
	ModeNonErgodic
	// ModeNonErgodicLeakage adds a leakage offset eps to the non-ergodic
	// correction.
	ModeNonErgodicLeakage
)

// String implements fmt.Stringer.
func (m CorrectionMode) String() string {
	switch m {
	case ModeErgodic:
		return "ergodic"
	case ModeNonErgodic:
		return "non-ergodic"
	case ModeNonErgodicLeakage:
		return "non-ergodic-leakage"
	default:
		return fmt.Sprintf("CorrectionMode(%d)", int(m))
	}
}

// Correction is the ergodicity correction applied when computing g1.
// The zero value is Ergodic.
type Correction struct {
	mode    CorrectionMode
	leakage float64
}

// Ergodic returns the correction for ergodic samples.
func Ergodic() Correction { return Correction{mode: ModeErgodic} }

// NonErgodic returns the simplified non-ergodic correction.
func NonErgodic() Correction { return Correction{mode: ModeNonErgodic} }

// NonErgodicLeakage returns the non-ergodic correction with leakage eps,
// which must lie in [0, 1).
func NonErgodicLeakage(eps float64) Correction {
	return Correction{mode: ModeNonErgodicLeakage, leakage: eps}
}

// Mode reports the correction variant.
func (c Correction) Mode() CorrectionMode { return c.mode }

// Leakage returns eps for ModeNonErgodicLeakage.
func (c Correction) Leakage() (float64, bool) {
	return c.leakage, c.mode == ModeNonErgodicLeakage
}

// Ergodic reports whether no intensity correction is applied.
func (c Correction) Ergodic() bool { return c.mode == ModeErgodic }

func (c Correction) String() string {
	if c.mode == ModeNonErgodicLeakage {
		return fmt.Sprintf("%s(eps=%g)", c.mode, c.leakage)
	}
	return c.mode.String()
}

// Intercept states where the zero-lag intercept g0 comes from.
// The zero value is EstimatedIntercept.
type Intercept struct {
	known bool
	g0    float64
}

// EstimatedIntercept estimates g0 by cross-validated model fits.
func EstimatedIntercept() Intercept { return Intercept{} }

// KnownIntercept uses g0 as given and skips estimation and correlation
// repair.
func KnownIntercept(g0 float64) Intercept { return Intercept{known: true, g0: g0} }

// Known returns g0 when it was supplied.
func (i Intercept) Known() (float64, bool) { return i.g0, i.known }

// Guess derives initial fit parameters from the data being fitted.
type Guess func(lags, coeffs []float64) []float64

// StretchedExpGuess returns [coeffs[1], 1e-2, 1] for fit.StretchedExp.
func StretchedExpGuess(_, coeffs []float64) []float64 {
	return []float64{secondOrFirst(coeffs), 1e-2, 1}
}

// ExpExpGuess returns [coeffs[1], 1, 1e-2, 1] for fit.ExpExp.
func ExpExpGuess(_, coeffs []float64) []float64 {
	return []float64{secondOrFirst(coeffs), 1, 1e-2, 1}
}

func secondOrFirst(v []float64) float64 {
	if len(v) > 1 {
		return v[1]
	}
	if len(v) == 1 {
		return v[0]
	}
	return 1
}

// Config holds the physical parameters and numerical settings of one
// analysis. Build it with DefaultConfig and options; an Analyzer keeps its
// own copy.
type Config struct {
	Temperature float64 // K
	Radius      float64 // probe radius, nm
	Q           float64 // scattering vector, 1/nm

	Correction Correction
	Intercept  Intercept

	// Model and Guess drive intercept estimation.
	Model fit.Model
	Guess Guess

	// WindowStart is the shared left edge of the candidate fit windows and
	// WindowEnds their right edges, in lag units.
	WindowStart float64
	WindowEnds  []float64

	// FitMaxIterations bounds every single nonlinear fit.
	FitMaxIterations int

	// MSDBandwidth and LaplaceBandwidth are the kernel regression bandwidth
	// fractions of the MSD and Laplace-domain smoothing.
	MSDBandwidth     float64
	LaplaceBandwidth float64

	// Laplace enables the direct Laplace modulus and its merge.
	Laplace bool

	Logger *zap.Logger
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the settings used when no options are given:
// 298.15 K, 250 nm probes, DefaultOptics, ergodic, estimated intercept with
// a stretched exponential over windows [2, 40..120].
func DefaultConfig() Config {
	q, _ := DefaultOptics().Q()
	return Config{
		Temperature:      298.15,
		Radius:           250,
		Q:                q,
		Correction:       Ergodic(),
		Intercept:        EstimatedIntercept(),
		Model:            fit.StretchedExp,
		Guess:            StretchedExpGuess,
		WindowStart:      2.0,
		WindowEnds:       fit.Arange(40, 130, 10),
		FitMaxIterations: fit.DefaultSettings().MaxIterations,
		MSDBandwidth:     0.1,
		LaplaceBandwidth: 0.01,
		Logger:           zap.NewNop(),
	}
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithTemperature sets the sample temperature in K.
func WithTemperature(kelvin float64) Option {
	return func(cfg *Config) {
		cfg.Temperature = kelvin
	}
}

// WithRadius sets the probe radius in nm.
func WithRadius(nm float64) Option {
	return func(cfg *Config) {
		cfg.Radius = nm
	}
}

// WithQ sets the scattering vector in 1/nm.
func WithQ(q float64) Option {
	return func(cfg *Config) {
		cfg.Q = q
	}
}

// WithOptics sets the scattering vector from an instrument geometry.
// Invalid geometries leave a zero Q that Validate rejects.
func WithOptics(o Optics) Option {
	return func(cfg *Config) {
		q, err := o.Q()
		if err != nil {
			q = 0
		}
		cfg.Q = q
	}
}

// WithCorrection sets the ergodicity correction.
func WithCorrection(c Correction) Option {
	return func(cfg *Config) {
		cfg.Correction = c
	}
}

// WithIntercept sets the intercept source.
func WithIntercept(i Intercept) Option {
	return func(cfg *Config) {
		cfg.Intercept = i
	}
}

// WithModel sets the intercept model and its initial-guess rule.
func WithModel(m fit.Model, guess Guess) Option {
	return func(cfg *Config) {
		if m.Eval == nil || guess == nil {
			return
		}
		cfg.Model = m
		cfg.Guess = guess
	}
}

// WithWindows sets the candidate fit windows.
func WithWindows(start float64, ends []float64) Option {
	return func(cfg *Config) {
		cfg.WindowStart = start
		cfg.WindowEnds = slices.Clone(ends)
	}
}

// WithFitMaxIterations bounds each nonlinear fit.
func WithFitMaxIterations(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.FitMaxIterations = n
		}
	}
}

// WithMSDBandwidth sets the MSD smoothing bandwidth.
func WithMSDBandwidth(bw float64) Option {
	return func(cfg *Config) {
		cfg.MSDBandwidth = bw
	}
}

// WithLaplaceBandwidth sets the Laplace-domain smoothing bandwidth.
func WithLaplaceBandwidth(bw float64) Option {
	return func(cfg *Config) {
		cfg.LaplaceBandwidth = bw
	}
}

// WithLaplace toggles the direct Laplace modulus and merge.
func WithLaplace(enabled bool) Option {
	return func(cfg *Config) {
		cfg.Laplace = enabled
	}
}

// WithLogger sets the diagnostic logger. nil restores the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(cfg *Config) {
		if l == nil {
			l = zap.NewNop()
		}
		cfg.Logger = l
	}
}

// Validate reports the first non-physical or inconsistent setting.
func (cfg Config) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"temperature", cfg.Temperature},
		{"radius", cfg.Radius},
		{"q", cfg.Q},
		{"msd bandwidth", cfg.MSDBandwidth},
	}
	if cfg.Laplace {
		positive = append(positive, struct {
			name string
			v    float64
		}{"laplace bandwidth", cfg.LaplaceBandwidth})
	}
	for _, p := range positive {
		if !(p.v > 0) || math.IsInf(p.v, 0) {
			return fmt.Errorf("%w: %s must be positive and finite, got %v", ErrInvalidConfig, p.name, p.v)
		}
	}

	if eps, ok := cfg.Correction.Leakage(); ok && !(eps >= 0 && eps < 1) {
		return fmt.Errorf("%w: leakage must lie in [0, 1), got %v", ErrInvalidConfig, eps)
	}

	if g0, ok := cfg.Intercept.Known(); ok {
		if !(g0 > 0) || math.IsInf(g0, 0) {
			return fmt.Errorf("%w: intercept must be positive and finite, got %v", ErrInvalidConfig, g0)
		}
		return nil
	}

	if cfg.Model.Eval == nil || cfg.Guess == nil {
		return fmt.Errorf("%w: intercept estimation needs a model and a guess", ErrInvalidConfig)
	}

	if len(cfg.WindowEnds) == 0 {
		return fmt.Errorf("%w: no candidate fit windows", ErrInvalidConfig)
	}

	return nil
}

func (cfg Config) logger() *zap.Logger {
	if cfg.Logger == nil {
		return zap.NewNop()
	}
	return cfg.Logger
}

func (cfg Config) fitOptions() []fit.Option {
	return []fit.Option{fit.WithMaxIterations(cfg.FitMaxIterations)}
}
