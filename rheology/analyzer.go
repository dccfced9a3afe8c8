package rheology

import (
	"context"
	"fmt"
	"time"

	"github.com/cwbudde/algo-dls/fit"
	"github.com/cwbudde/algo-dls/merge"
	"go.uber.org/zap"
)

// Table is the row-aligned result of one analysis. Column slices all have
// Len() elements and are owned by the Table.
type Table struct {
	Lag     []float64 // us
	MSD     []float64 // smoothed, nm^2
	Alpha   []float64
	Omega   []float64 // rad/s
	Storage []float64 // G', Pa
	Loss    []float64 // G'', Pa

	// G0 is the intercept used for g1.
	G0 float64
	// Window is the winning intercept fit window. It is zero when the
	// intercept was supplied.
	Window      fit.Window
	WindowScore float64

	RepairedCorrelation int
	RepairedMSD         int

	// StorageBand and LossBand are the merge bands of the Laplace modulus
	// when it was computed.
	Merged      bool
	StorageBand merge.Band
	LossBand    merge.Band
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Lag) }

// Analyzer runs the full correlation-to-modulus pipeline.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer creates an analyzer from DefaultConfig and opts.
func NewAnalyzer(opts ...Option) *Analyzer {
	return &Analyzer{cfg: ApplyOptions(opts...)}
}

// NewAnalyzerFromConfig creates an analyzer from an explicit config.
func NewAnalyzerFromConfig(cfg Config) *Analyzer {
	cfg.WindowEnds = append([]float64(nil), cfg.WindowEnds...)
	return &Analyzer{cfg: cfg}
}

// Config returns a copy of the analyzer configuration.
func (a *Analyzer) Config() Config {
	cfg := a.cfg
	cfg.WindowEnds = append([]float64(nil), a.cfg.WindowEnds...)
	return cfg
}

// Analyze converts one measurement into a result table. The context is
// checked between pipeline stages and between the fits of intercept
// estimation.
func (a *Analyzer) Analyze(ctx context.Context, m Measurement) (Table, error) {
	cfg := a.cfg
	if err := cfg.Validate(); err != nil {
		return Table{}, err
	}

	if m.Correlation.Len() == 0 {
		return Table{}, ErrEmptySeries
	}

	log := cfg.logger()
	started := time.Now()

	var (
		table Table
		corr  = m.Correlation
	)

	if g0, ok := cfg.Intercept.Known(); ok {
		table.G0 = g0
	} else {
		windows := fit.Windows(cfg.WindowStart, cfg.WindowEnds)
		p0 := cfg.Guess(corr.lags, corr.coeffs)

		est, err := EstimateIntercept(ctx, corr, cfg.Model, p0, windows, cfg.fitOptions()...)
		if err != nil {
			return Table{}, err
		}

		table.G0 = est.G0
		table.Window = est.Selection.Window
		table.WindowScore = est.Selection.Score

		log.Debug("intercept estimated",
			zap.Float64("g0", est.G0),
			zap.Float64("window_end", est.Selection.Window.End),
			zap.Float64("cv_score", est.Selection.Score),
			zap.Float64s("params", est.Selection.Params),
		)
		logPenalizedWindows(log, windows, est.Selection.Scores, len(corr.lags))

		corr, table.RepairedCorrelation = RepairCorrelation(corr, est)
		if table.RepairedCorrelation > 0 {
			log.Warn("correlation exceeds intercept, replaced with fit",
				zap.Int("samples", table.RepairedCorrelation),
				zap.Int("lo", est.Selection.Lo),
				zap.Int("hi", est.Selection.Hi),
			)
		}
	}

	if err := ctx.Err(); err != nil {
		return Table{}, err
	}

	g1, err := ScatteringFunction(corr.coeffs, table.G0, cfg.Correction, m.Intensity)
	if err != nil {
		return Table{}, err
	}

	pl, repaired, err := MSD(corr.lags, g1, cfg.Q, cfg.MSDBandwidth)
	if err != nil {
		return Table{}, err
	}

	table.RepairedMSD = repaired
	if repaired > 0 {
		log.Warn("non-positive MSD values replaced by interpolation", zap.Int("samples", repaired))
	}

	mod, err := ShearModulus(corr.lags, pl.MSD, pl.Alpha, cfg.Radius, cfg.Temperature)
	if err != nil {
		return Table{}, err
	}

	if cfg.Laplace {
		if err := ctx.Err(); err != nil {
			return Table{}, err
		}

		direct, err := ShearModulusLaplace(corr.lags, pl.MSD, cfg.Radius, cfg.Temperature, cfg.LaplaceBandwidth)
		if err != nil {
			return Table{}, err
		}

		var storage, loss []float64
		storage, table.StorageBand, err = merge.Merge(mod.Storage, direct.Storage)
		if err != nil {
			return Table{}, fmt.Errorf("rheology: merge storage modulus: %w", err)
		}

		loss, table.LossBand, err = merge.Merge(mod.Loss, direct.Loss)
		if err != nil {
			return Table{}, fmt.Errorf("rheology: merge loss modulus: %w", err)
		}

		mod.Storage, mod.Loss = storage, loss
		table.Merged = true

		log.Debug("laplace modulus merged",
			zap.Int("storage_lower", table.StorageBand.Lower),
			zap.Int("storage_upper", table.StorageBand.Upper),
			zap.Int("loss_lower", table.LossBand.Lower),
			zap.Int("loss_upper", table.LossBand.Upper),
		)
	}

	table.Lag = corr.Lags()
	table.MSD = pl.MSD
	table.Alpha = pl.Alpha
	table.Omega = mod.Omega
	table.Storage = mod.Storage
	table.Loss = mod.Loss

	log.Debug("analysis finished",
		zap.Int("rows", table.Len()),
		zap.String("correction", cfg.Correction.String()),
		zap.Duration("duration", time.Since(started)),
	)

	return table, nil
}

// logPenalizedWindows reports candidate windows whose cross-validation score
// carries a fit-failure penalty. A single failed fold adds at least
// FoldPenalty/n to the mean over a window of at most n samples.
func logPenalizedWindows(log *zap.Logger, windows []fit.Window, scores []float64, n int) {
	foldFloor := fit.FoldPenalty / float64(n)
	for k, score := range scores {
		switch {
		case score >= fit.WindowPenalty:
			log.Debug("candidate window fit diverged",
				zap.Float64("window_end", windows[k].End),
				zap.Float64("cv_score", score),
			)
		case score >= foldFloor:
			log.Debug("cross-validation fold fits failed",
				zap.Float64("window_end", windows[k].End),
				zap.Float64("cv_score", score),
			)
		}
	}
}
