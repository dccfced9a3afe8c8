package zetasizer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-dls/fit"
	"github.com/cwbudde/algo-dls/rheology"
)

// Column names understood by the reader.
const (
	ColRecord              = "Record"
	ColSampleName          = "Sample Name"
	ColPosition            = "Measurement Position"
	ColCorrelation         = "Correlation Data"
	ColDelayTimes          = "Correlation Delay Times"
	ColFitData             = "Distribution Fit Data"
	ColFitDelayTimes       = "Distribution Fit Delay Times"
	ColCumulantsData       = "Cumulants Fit Data"
	ColCumulantsDelayTimes = "Cumulants Fit Delay Times"
	ColCountRate           = "Derived Count Rate"
	ColIntercept           = "Measured Intercept"
	ColBaseline            = "Measured Baseline"
)

// DefaultColumns is the column order of the bundled export template.
var DefaultColumns = []string{
	ColRecord, ColSampleName, ColPosition,
	ColCorrelation, ColDelayTimes,
	ColFitData, ColFitDelayTimes,
	ColCumulantsData, ColCumulantsDelayTimes,
	ColCountRate, ColIntercept, ColBaseline,
}

// Errors returned by the reader.
var (
	ErrMissingColumn = errors.New("zetasizer: column not in export")
	ErrBadRow        = errors.New("zetasizer: row out of range")
	ErrParse         = errors.New("zetasizer: cannot parse value")
)

// Export is a parsed export file.
type Export struct {
	columns map[string]int
	rows    [][]string
}

// Option mutates the reader configuration.
type Option func(*config)

type config struct {
	columns []string
}

// WithColumns sets the column order of the export template.
func WithColumns(cols ...string) Option {
	return func(cfg *config) {
		if len(cols) > 0 {
			cfg.columns = slices.Clone(cols)
		}
	}
}

// Read parses an export from r.
func Read(r io.Reader, opts ...Option) (*Export, error) {
	cfg := config{columns: DefaultColumns}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("zetasizer: read csv: %w", err)
	}

	idx := make(map[string]int, len(cfg.columns))
	for i, c := range cfg.columns {
		idx[c] = i
	}

	return &Export{columns: idx, rows: rows}, nil
}

// ReadFile parses the export at path.
func ReadFile(path string, opts ...Option) (*Export, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(f, opts...)
}

// Len returns the number of records.
func (e *Export) Len() int { return len(e.rows) }

// String returns the raw cell of row and column.
func (e *Export) String(row int, col string) (string, error) {
	if row < 0 || row >= len(e.rows) {
		return "", fmt.Errorf("%w: %d of %d", ErrBadRow, row, len(e.rows))
	}

	i, ok := e.columns[col]
	if !ok || i >= len(e.rows[row]) {
		return "", fmt.Errorf("%w: %q in row %d", ErrMissingColumn, col, row)
	}

	return strings.TrimSpace(e.rows[row][i]), nil
}

// Float parses a scalar cell.
func (e *Export) Float(row int, col string) (float64, error) {
	s, err := e.String(row, col)
	if err != nil {
		return 0, err
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q row %d: %v", ErrParse, col, row, err)
	}
	return v, nil
}

// Floats parses an array cell of comma-separated numbers.
func (e *Export) Floats(row int, col string) ([]float64, error) {
	s, err := e.String(row, col)
	if err != nil {
		return nil, err
	}

	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q row %d: %v", ErrParse, col, row, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Measurement builds the measurement recorded in row. intensityRows lists
// the rows whose count rates and positions form the ensemble; nil means
// every row after row. With useInstrumentG1 the coefficients at the
// distribution-fit lags are replaced by baseline + g1fit^2, since the
// instrument exports its g1 fit at higher precision than the correlation.
func (e *Export) Measurement(row int, intensityRows []int, useInstrumentG1 bool) (rheology.Measurement, error) {
	lags, err := e.Floats(row, ColDelayTimes)
	if err != nil {
		return rheology.Measurement{}, err
	}

	coeffs, err := e.Floats(row, ColCorrelation)
	if err != nil {
		return rheology.Measurement{}, err
	}

	if useInstrumentG1 {
		if err := e.refine(row, lags, coeffs); err != nil {
			return rheology.Measurement{}, err
		}
	}

	corr, err := rheology.NewCorrelation(lags, coeffs)
	if err != nil {
		return rheology.Measurement{}, fmt.Errorf("zetasizer: row %d: %w", row, err)
	}

	in, err := e.intensity(row, intensityRows)
	if err != nil {
		return rheology.Measurement{}, err
	}

	return rheology.NewMeasurement(corr, in)
}

// RowRange returns the rows [from, to).
func RowRange(from, to int) []int {
	if to <= from {
		return nil
	}
	out := make([]int, 0, to-from)
	for r := from; r < to; r++ {
		out = append(out, r)
	}
	return out
}

func (e *Export) refine(row int, lags, coeffs []float64) error {
	fitLags, err := e.Floats(row, ColFitDelayTimes)
	if err != nil {
		return err
	}

	g1, err := e.Floats(row, ColFitData)
	if err != nil {
		return err
	}

	if len(fitLags) != len(g1) {
		return fmt.Errorf("%w: row %d has %d fit lags and %d fit values", ErrParse, row, len(fitLags), len(g1))
	}

	baseline, err := e.Float(row, ColBaseline)
	if err != nil {
		return err
	}

	for i, t := range fitLags {
		if k := fit.NearestIndex(lags, t); k >= 0 && k < len(coeffs) {
			coeffs[k] = baseline + g1[i]*g1[i]
		}
	}
	return nil
}

func (e *Export) intensity(row int, rows []int) (rheology.Intensity, error) {
	if rows == nil {
		rows = RowRange(row+1, e.Len())
	}

	point, err := e.Float(row, ColCountRate)
	if err != nil {
		return rheology.Intensity{}, err
	}

	pos, err := e.Float(row, ColPosition)
	if err != nil && !errors.Is(err, ErrMissingColumn) {
		return rheology.Intensity{}, err
	}

	in := rheology.Intensity{
		Point:             point,
		PointPosition:     pos,
		Ensemble:          make([]float64, 0, len(rows)),
		EnsemblePositions: make([]float64, 0, len(rows)),
	}

	for _, r := range rows {
		rate, err := e.Float(r, ColCountRate)
		if err != nil {
			return rheology.Intensity{}, err
		}

		p, err := e.Float(r, ColPosition)
		if err != nil && !errors.Is(err, ErrMissingColumn) {
			return rheology.Intensity{}, err
		}

		in.Ensemble = append(in.Ensemble, rate)
		in.EnsemblePositions = append(in.EnsemblePositions, p)
	}

	return in, nil
}
