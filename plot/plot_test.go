package plot

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/cwbudde/algo-dls/rheology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func table() rheology.Table {
	return rheology.Table{
		Lag:     []float64{1, 10, 100, 1000},
		MSD:     []float64{5, 40, 300, 2000},
		Omega:   []float64{1e6, 1e5, 1e4, 1e3},
		Storage: []float64{2, 1, 0.5, -0.1},
		Loss:    []float64{4, 3, 2, 1},
	}
}

func requirePNG(t *testing.T, buf *bytes.Buffer, width, height int) {
	t.Helper()
	img, err := png.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, width, img.Bounds().Dx())
	assert.Equal(t, height, img.Bounds().Dy())
}

func TestCorrelation(t *testing.T) {
	c, err := rheology.NewCorrelation([]float64{1, 2, 4, 8}, []float64{0.9, 0.8, 0.6, 0.3})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Correlation(&buf, c, WithSize(400, 300), WithTitle("replicate 1")))
	requirePNG(t, &buf, 400, 300)
}

func TestMSDAndModulus(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, MSD(&buf, table()))
	requirePNG(t, &buf, 800, 500)

	buf.Reset()
	// The negative G' sample is skipped.
	require.NoError(t, Modulus(&buf, table()))
	requirePNG(t, &buf, 800, 500)
}

func TestBands(t *testing.T) {
	b := Band{
		Name:   "cond1",
		X:      []float64{1e3, 1e4, 1e5},
		Median: []float64{1, 2, 3},
		Lower:  []float64{0.5, 1.5, 2.5},
		Upper:  []float64{1.5, 2.5, 3.5},
	}

	var buf bytes.Buffer
	require.NoError(t, Bands(&buf, "omega", "G''", []Band{b}))
	requirePNG(t, &buf, 800, 500)
}

func TestTooFewPoints(t *testing.T) {
	tb := rheology.Table{Lag: []float64{1, 2}, MSD: []float64{-1, 3}}

	var buf bytes.Buffer
	require.ErrorIs(t, MSD(&buf, tb), ErrTooFewPoints)
	require.ErrorIs(t, Bands(&buf, "x", "y", nil), ErrTooFewPoints)
}
