// Package replicate aggregates analysed measurements of one condition into
// a replicate matrix and computes percentile bootstrap confidence bands of
// a per-lag estimator across replicates.
//
// # Usage
//
//	s, err := replicate.Summarize(rows, "condition 1", replicate.Loss,
//		replicate.WithLevel(68), replicate.WithSeed(1))
//	if err != nil {
//		return err
//	}
//	// s.X, s.Center, s.Lower, s.Upper
package replicate

import (
	"cmp"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/cwbudde/algo-dls/store"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrNoReplicates is returned when nothing matches the requested condition.
	ErrNoReplicates = errors.New("replicate: no replicates")
	// ErrInvalidLevel is returned for a confidence level outside (0, 100).
	ErrInvalidLevel = errors.New("replicate: confidence level must be in (0, 100)")
	// ErrInvalidResamples is returned for a non-positive resample count.
	ErrInvalidResamples = errors.New("replicate: resample count must be positive")
)

// Quantity selects a result column.
type Quantity int

// Aggregated columns.
const (
	MSD Quantity = iota
	Alpha
	Storage
	Loss
)

// String returns the column name.
func (q Quantity) String() string {
	switch q {
	case MSD:
		return "msd"
	case Alpha:
		return "alpha"
	case Storage:
		return "g_storage"
	case Loss:
		return "g_loss"
	default:
		return fmt.Sprintf("Quantity(%d)", int(q))
	}
}

func (q Quantity) value(r store.Row) float64 {
	switch q {
	case Alpha:
		return r.Alpha
	case Storage:
		return r.Storage
	case Loss:
		return r.Loss
	default:
		return r.MSD
	}
}

// abscissa is lag for time-domain quantities and omega for moduli.
func (q Quantity) abscissa(r store.Row) float64 {
	if q == Storage || q == Loss {
		return r.Omega
	}
	return r.Lag
}

// Estimator reduces one column of replicate values to a single number.
type Estimator func(values []float64) float64

// Mean is the arithmetic mean.
func Mean(values []float64) float64 {
	return stat.Mean(values, nil)
}

// Median is the empirical 50th percentile.
func Median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

// Config controls the bootstrap.
type Config struct {
	Resamples int
	Level     float64 // percent of the bootstrap distribution inside the band
	Seed      uint64
	Estimator Estimator
	TimePoint int // -1 selects every time point
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns 1000 resamples of the mean at a 68 percent level.
func DefaultConfig() Config {
	return Config{
		Resamples: 1000,
		Level:     68,
		Seed:      1,
		Estimator: Mean,
		TimePoint: -1,
	}
}

// WithResamples sets the bootstrap sample count.
func WithResamples(n int) Option {
	return func(cfg *Config) {
		cfg.Resamples = n
	}
}

// WithLevel sets the confidence level in percent.
func WithLevel(level float64) Option {
	return func(cfg *Config) {
		cfg.Level = level
	}
}

// WithSeed seeds the resampling generator.
func WithSeed(seed uint64) Option {
	return func(cfg *Config) {
		cfg.Seed = seed
	}
}

// WithEstimator sets the per-lag estimator. Nil is ignored.
func WithEstimator(e Estimator) Option {
	return func(cfg *Config) {
		if e != nil {
			cfg.Estimator = e
		}
	}
}

// WithTimePoint restricts aggregation to a single time point.
func WithTimePoint(tp int) Option {
	return func(cfg *Config) {
		cfg.TimePoint = tp
	}
}

func (cfg Config) validate() error {
	if cfg.Resamples <= 0 {
		return ErrInvalidResamples
	}
	if !(cfg.Level > 0 && cfg.Level < 100) {
		return fmt.Errorf("%w: %g", ErrInvalidLevel, cfg.Level)
	}
	return nil
}

// Matrix holds one row per replicate, all cut to the shortest replicate.
type Matrix struct {
	rows [][]float64
}

// NewMatrix copies series into a matrix truncated to the shortest length.
func NewMatrix(series [][]float64) (Matrix, error) {
	if len(series) == 0 {
		return Matrix{}, ErrNoReplicates
	}

	width := len(series[0])
	for _, s := range series[1:] {
		width = min(width, len(s))
	}
	if width == 0 {
		return Matrix{}, ErrNoReplicates
	}

	rows := make([][]float64, len(series))
	for i, s := range series {
		rows[i] = slices.Clone(s[:width])
	}
	return Matrix{rows: rows}, nil
}

// Replicates returns the number of rows.
func (m Matrix) Replicates() int { return len(m.rows) }

// Width returns the number of columns.
func (m Matrix) Width() int {
	if len(m.rows) == 0 {
		return 0
	}
	return len(m.rows[0])
}

// Reduce applies e to every column.
func (m Matrix) Reduce(e Estimator) []float64 {
	out := make([]float64, m.Width())
	col := make([]float64, m.Replicates())
	for j := range out {
		for i, row := range m.rows {
			col[i] = row[j]
		}
		out[j] = e(col)
	}
	return out
}

// Bootstrap draws n resamples of the replicates with replacement and
// returns the column-wise estimator of each as a row.
func (m Matrix) Bootstrap(n int, e Estimator, rng *rand.Rand) Matrix {
	k := m.Replicates()
	out := make([][]float64, n)
	sample := Matrix{rows: make([][]float64, k)}
	for b := range out {
		for i := range sample.rows {
			sample.rows[i] = m.rows[rng.IntN(k)]
		}
		out[b] = sample.Reduce(e)
	}
	return Matrix{rows: out}
}

// Percentile returns the p-th percentile (0..100) of every column using
// linear interpolation between order statistics.
func (m Matrix) Percentile(p float64) []float64 {
	return m.Reduce(func(values []float64) float64 {
		sorted := slices.Clone(values)
		slices.Sort(sorted)
		return stat.Quantile(p/100, stat.LinInterp, sorted, nil)
	})
}

// Interval returns the lower and upper percentile bootstrap bounds at the
// configured level, centred on the 50th percentile.
func (m Matrix) Interval(opts ...Option) (lower, upper []float64, err error) {
	cfg := apply(opts)
	if err := cfg.validate(); err != nil {
		return nil, nil, err
	}
	if m.Replicates() == 0 {
		return nil, nil, ErrNoReplicates
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	boot := m.Bootstrap(cfg.Resamples, cfg.Estimator, rng)
	return boot.Percentile(50 - cfg.Level/2), boot.Percentile(50 + cfg.Level/2), nil
}

// Summary is the aggregate of one quantity across replicates.
type Summary struct {
	Quantity   Quantity
	Replicates int
	X          []float64 // mean abscissa (lag or omega)
	Center     []float64
	Lower      []float64
	Upper      []float64
}

type seriesKey struct {
	replicate int64
	timePoint int64
	id        int64
}

// Collect groups rows of a condition into per-measurement series of q,
// ordered by replicate, time point and id, each sorted by row index. The
// second matrix holds the matching abscissa.
func Collect(rows []store.Row, condition string, q Quantity, opts ...Option) (values, x Matrix, err error) {
	cfg := apply(opts)

	grouped := map[seriesKey][]store.Row{}
	for _, r := range rows {
		if r.Condition != condition {
			continue
		}
		if cfg.TimePoint >= 0 && r.TimePoint != int64(cfg.TimePoint) {
			continue
		}
		k := seriesKey{r.Replicate, r.TimePoint, r.ID}
		grouped[k] = append(grouped[k], r)
	}
	if len(grouped) == 0 {
		return Matrix{}, Matrix{}, fmt.Errorf("%w: condition %q", ErrNoReplicates, condition)
	}

	keys := make([]seriesKey, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b seriesKey) int {
		return cmp.Or(cmp.Compare(a.replicate, b.replicate), cmp.Compare(a.timePoint, b.timePoint), cmp.Compare(a.id, b.id))
	})

	vs := make([][]float64, len(keys))
	xs := make([][]float64, len(keys))
	for i, k := range keys {
		g := grouped[k]
		slices.SortFunc(g, func(a, b store.Row) int { return cmp.Compare(a.Index, b.Index) })
		vs[i] = make([]float64, len(g))
		xs[i] = make([]float64, len(g))
		for j, r := range g {
			vs[i][j] = q.value(r)
			xs[i][j] = q.abscissa(r)
		}
	}

	if values, err = NewMatrix(vs); err != nil {
		return Matrix{}, Matrix{}, err
	}
	if x, err = NewMatrix(xs); err != nil {
		return Matrix{}, Matrix{}, err
	}
	return values, x, nil
}

// Summarize collects q for condition and computes the estimator with its
// bootstrap band.
func Summarize(rows []store.Row, condition string, q Quantity, opts ...Option) (Summary, error) {
	cfg := apply(opts)
	if err := cfg.validate(); err != nil {
		return Summary{}, err
	}

	values, x, err := Collect(rows, condition, q, opts...)
	if err != nil {
		return Summary{}, err
	}

	lower, upper, err := values.Interval(opts...)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		Quantity:   q,
		Replicates: values.Replicates(),
		X:          x.Reduce(Mean),
		Center:     values.Reduce(cfg.Estimator),
		Lower:      lower,
		Upper:      upper,
	}, nil
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
