package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cwbudde/algo-dls/internal/logging"
	"github.com/cwbudde/algo-dls/plot"
	"github.com/cwbudde/algo-dls/rheology"
	"github.com/cwbudde/algo-dls/store"
	"github.com/cwbudde/algo-dls/zetasizer"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Job is one measurement to analyse.
type Job struct {
	Key  store.Key
	Path string
	Row  int

	// IntensityRows lists the ensemble scan rows; nil means every row after
	// Row.
	IntensityRows []int
	Options       []rheology.Option
}

// Result is the analysis of one job.
type Result struct {
	Key         store.Key
	Correlation rheology.Correlation // truncated input
	Table       rheology.Table
	Rows        []store.Row
	Duration    time.Duration
}

// Failure records a job that could not be analysed.
type Failure struct {
	Key store.Key
	Err error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s replicate %d time point %d: %v", f.Key.Condition, f.Key.Replicate, f.Key.TimePoint, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Report collects results and failures in job order.
type Report struct {
	Results  []Result
	Failures []Failure
}

// Rows concatenates the stored rows of every result.
func (r Report) Rows() []store.Row {
	var n int
	for _, res := range r.Results {
		n += len(res.Rows)
	}
	rows := make([]store.Row, 0, n)
	for _, res := range r.Results {
		rows = append(rows, res.Rows...)
	}
	return rows
}

// Err joins all failures, or returns nil.
func (r Report) Err() error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

type runnerConfig struct {
	workers        int
	logger         *zap.Logger
	instrumentG1   bool
	columns        []string
	truncStart     int
	truncThreshold float64
	plotDir        string
}

// Option configures a Runner.
type Option func(*runnerConfig)

// WithWorkers bounds the number of jobs analysed concurrently.
func WithWorkers(n int) Option {
	return func(c *runnerConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithLogger sets the run logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *runnerConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithInstrumentG1 toggles the refinement of correlation coefficients from
// the instrument's exported g1 fit.
func WithInstrumentG1(enabled bool) Option {
	return func(c *runnerConfig) {
		c.instrumentG1 = enabled
	}
}

// WithColumns overrides the export column order.
func WithColumns(cols ...string) Option {
	return func(c *runnerConfig) {
		c.columns = cols
	}
}

// WithTruncation sets the first kept sample and the coefficient below
// which the tail is dropped.
func WithTruncation(start int, threshold float64) Option {
	return func(c *runnerConfig) {
		if start >= 0 {
			c.truncStart = start
		}
		c.truncThreshold = threshold
	}
}

// WithPlotDir enables diagnostic plots written to dir.
func WithPlotDir(dir string) Option {
	return func(c *runnerConfig) {
		c.plotDir = dir
	}
}

// Runner analyses jobs concurrently.
type Runner struct {
	cfg runnerConfig
}

// NewRunner returns a runner with one worker per job up to four, the
// instrument g1 refinement enabled and the default truncation.
func NewRunner(opts ...Option) *Runner {
	cfg := runnerConfig{
		workers:        4,
		logger:         logging.Nop(),
		instrumentG1:   true,
		truncStart:     rheology.DefaultTruncateStart,
		truncThreshold: rheology.DefaultTruncateThreshold,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Runner{cfg: cfg}
}

// Run analyses every job. A failing job is recorded in the report and does
// not stop the others; only cancellation of ctx aborts the run.
func (r *Runner) Run(ctx context.Context, jobs []Job) (Report, error) {
	exports := r.load(jobs)

	if r.cfg.plotDir != "" {
		if err := os.MkdirAll(r.cfg.plotDir, 0o755); err != nil {
			return Report{}, fmt.Errorf("batch: plot dir: %w", err)
		}
	}

	results := make([]*Result, len(jobs))
	errs := make([]error, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.workers)
	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			ld := exports[job.Path]
			if ld.err != nil {
				errs[i] = ld.err
				return nil
			}

			res, err := r.analyze(gctx, job, ld.export)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				errs[i] = err
				return nil
			}
			results[i] = &res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	var report Report
	for i, job := range jobs {
		if errs[i] != nil {
			report.Failures = append(report.Failures, Failure{Key: job.Key, Err: errs[i]})
			continue
		}
		report.Results = append(report.Results, *results[i])
	}
	return report, nil
}

type loaded struct {
	export *zetasizer.Export
	err    error
}

func (r *Runner) load(jobs []Job) map[string]loaded {
	var opts []zetasizer.Option
	if len(r.cfg.columns) > 0 {
		opts = append(opts, zetasizer.WithColumns(r.cfg.columns...))
	}

	out := map[string]loaded{}
	for _, job := range jobs {
		if _, ok := out[job.Path]; ok {
			continue
		}
		exp, err := zetasizer.ReadFile(job.Path, opts...)
		if err != nil {
			r.cfg.logger.Warn("export unreadable", zap.String("path", job.Path), zap.Error(err))
		}
		out[job.Path] = loaded{export: exp, err: err}
	}
	return out
}

func (r *Runner) analyze(ctx context.Context, job Job, exp *zetasizer.Export) (Result, error) {
	log := r.cfg.logger.With(
		zap.String("condition", job.Key.Condition),
		zap.Int("replicate", job.Key.Replicate),
		zap.Int("time_point", job.Key.TimePoint),
	)
	start := time.Now()

	m, err := exp.Measurement(job.Row, job.IntensityRows, r.cfg.instrumentG1)
	if err != nil {
		log.Error("measurement unreadable", zap.Error(err))
		return Result{}, err
	}

	corr, err := rheology.Truncate(m.Correlation, r.cfg.truncStart, r.cfg.truncThreshold)
	if err != nil {
		log.Error("truncation left no samples", zap.Error(err))
		return Result{}, err
	}
	m.Correlation = corr

	opts := append(job.Options[:len(job.Options):len(job.Options)], rheology.WithLogger(log))
	table, err := rheology.NewAnalyzer(opts...).Analyze(ctx, m)
	if err != nil {
		log.Error("analysis failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return Result{}, err
	}

	res := Result{
		Key:         job.Key,
		Correlation: corr,
		Table:       table,
		Rows:        store.Rows(job.Key, table, m.Intensity),
		Duration:    time.Since(start),
	}

	if r.cfg.plotDir != "" {
		r.plot(log, res)
	}

	log.Info("analysed", zap.Int("rows", table.Len()), zap.Float64("g0", table.G0), zap.Duration("duration", res.Duration))
	return res, nil
}

// plot failures are diagnostics only.
func (r *Runner) plot(log *zap.Logger, res Result) {
	title := fmt.Sprintf("%s replicate %d", res.Key.Condition, res.Key.Replicate)
	if res.Key.TimePoint > 0 {
		title = fmt.Sprintf("%s time point %d", res.Key.Condition, res.Key.TimePoint)
	}

	draw := map[string]func(f *os.File) error{
		"correlation": func(f *os.File) error { return plot.Correlation(f, res.Correlation, plot.WithTitle(title)) },
		"msd":         func(f *os.File) error { return plot.MSD(f, res.Table, plot.WithTitle(title)) },
		"modulus":     func(f *os.File) error { return plot.Modulus(f, res.Table, plot.WithTitle(title)) },
	}
	for kind, fn := range draw {
		path := filepath.Join(r.cfg.plotDir, PlotName(res.Key, kind))
		if err := writeFile(path, fn); err != nil {
			log.Warn("plot failed", zap.String("kind", kind), zap.Error(err))
		}
	}
}

// PlotName returns the file name of a diagnostic plot.
func PlotName(key store.Key, kind string) string {
	cond := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' {
			return '_'
		}
		return r
	}, key.Condition)
	return fmt.Sprintf("%s_r%d_t%d_%s.png", cond, key.Replicate, key.TimePoint, kind)
}

func writeFile(path string, fn func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteParquet stores the rows of report at path.
func WriteParquet(path, compression string, report Report) error {
	var opts []store.Option
	if compression != "" {
		opts = append(opts, store.WithCompression(compression))
	}
	if err := store.WriteFile(path, report.Rows(), opts...); err != nil {
		return fmt.Errorf("batch: write %s: %w", path, err)
	}
	return nil
}
