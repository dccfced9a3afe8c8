// Package store persists analysis result tables as Parquet files, one row
// per lag of every analysed replicate.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cwbudde/algo-dls/rheology"
	parquet "github.com/parquet-go/parquet-go"
)

// ErrUnknownCompression is returned for an unsupported codec name.
var ErrUnknownCompression = errors.New("store: unknown compression")

// Row is one lag of one analysed measurement.
type Row struct {
	Condition string `parquet:"condition,dict"`
	Replicate int64  `parquet:"replicate"`
	TimePoint int64  `parquet:"time_point"`
	ID        int64  `parquet:"id"`
	Index     int64  `parquet:"index"`

	Lag     float64 `parquet:"lag_us"`
	MSD     float64 `parquet:"msd_nm2"`
	Alpha   float64 `parquet:"alpha"`
	Omega   float64 `parquet:"omega"`
	Storage float64 `parquet:"g_storage"`
	Loss    float64 `parquet:"g_loss"`

	// Scattering and Position carry the ensemble intensity scan, padded
	// with zeros beyond its length.
	Scattering float64 `parquet:"scattering"`
	Position   float64 `parquet:"position"`
}

// Key identifies a measurement within a batch.
type Key struct {
	Condition string
	Replicate int
	TimePoint int
	ID        int
}

// Rows flattens a result table. The ensemble intensities and positions of
// in are stored alongside the first rows; a scan longer than the table is
// cut to the table length.
func Rows(key Key, t rheology.Table, in rheology.Intensity) []Row {
	rows := make([]Row, t.Len())
	for i := range rows {
		rows[i] = Row{
			Condition: key.Condition,
			Replicate: int64(key.Replicate),
			TimePoint: int64(key.TimePoint),
			ID:        int64(key.ID),
			Index:     int64(i),
			Lag:       t.Lag[i],
			MSD:       t.MSD[i],
			Alpha:     t.Alpha[i],
			Omega:     t.Omega[i],
			Storage:   t.Storage[i],
			Loss:      t.Loss[i],
		}
		if i < len(in.Ensemble) {
			rows[i].Scattering = in.Ensemble[i]
		}
		if i < len(in.EnsemblePositions) {
			rows[i].Position = in.EnsemblePositions[i]
		}
	}
	return rows
}

// Option mutates writer settings.
type Option func(*config)

type config struct {
	compression parquet.WriterOption
}

// WithCompression selects the column codec: snappy (default), zstd, gzip,
// brotli, lz4 or none. Unknown names fall back to snappy.
func WithCompression(name string) Option {
	return func(cfg *config) {
		cfg.compression, _ = compression(name)
	}
}

// Compression validates a codec name.
func Compression(name string) error {
	_, err := compression(name)
	return err
}

func compression(name string) (parquet.WriterOption, error) {
	switch strings.ToLower(name) {
	case "", "snappy":
		return parquet.Compression(&parquet.Snappy), nil
	case "zstd":
		return parquet.Compression(&parquet.Zstd), nil
	case "gzip", "gz":
		return parquet.Compression(&parquet.Gzip), nil
	case "brotli":
		return parquet.Compression(&parquet.Brotli), nil
	case "lz4":
		return parquet.Compression(&parquet.Lz4Raw), nil
	case "none", "uncompressed":
		return parquet.Compression(&parquet.Uncompressed), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompression, name)
	}
}

// Write encodes rows to w as a single Parquet file.
func Write(w io.Writer, rows []Row, opts ...Option) error {
	cfg := config{compression: parquet.Compression(&parquet.Snappy)}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.compression == nil {
		cfg.compression = parquet.Compression(&parquet.Snappy)
	}

	pw := parquet.NewGenericWriter[Row](w, cfg.compression)
	if _, err := pw.Write(rows); err != nil {
		return fmt.Errorf("store: write rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("store: close writer: %w", err)
	}
	return nil
}

// WriteFile writes rows to path, replacing any existing file.
func WriteFile(path string, rows []Row, opts ...Option) error {
	var buf bytes.Buffer
	if err := Write(&buf, rows, opts...); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Read decodes every row of a Parquet file.
func Read(ra io.ReaderAt) ([]Row, error) {
	gr := parquet.NewGenericReader[Row](ra)
	defer gr.Close()

	out := make([]Row, 0, 1024)
	batch := make([]Row, 1024)
	for {
		n, err := gr.Read(batch)
		if n > 0 {
			out = append(out, batch[:n]...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("store: read rows: %w", err)
		}
	}
	return out, nil
}

// ReadFile reads every row of the Parquet file at path.
func ReadFile(path string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Read(bytes.NewReader(data))
}
