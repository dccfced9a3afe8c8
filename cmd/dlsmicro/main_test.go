package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/cwbudde/algo-dls/internal/testutil"
	"github.com/cwbudde/algo-dls/stats/replicate"
	"github.com/cwbudde/algo-dls/store"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(viper.New())
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestParseQuantity(t *testing.T) {
	q, err := parseQuantity("g_storage")
	require.NoError(t, err)
	assert.Equal(t, replicate.Storage, q)

	_, err = parseQuantity("viscosity")
	require.Error(t, err)
}

func TestSummaryCommand(t *testing.T) {
	var rows []store.Row
	for rep := int64(1); rep <= 3; rep++ {
		for i := range 4 {
			rows = append(rows, store.Row{
				Condition: "gel", Replicate: rep, Index: int64(i),
				Lag: float64(i + 1), Omega: 1e6 / float64(i+1),
				Loss: float64(rep) * float64(i+1),
			})
		}
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "r.parquet")
	require.NoError(t, store.WriteFile(path, rows))

	png := filepath.Join(dir, "loss.png")
	out, err := execute(t, "summary", "--resamples", "100", "--plot", png, path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "CENTER")
	assert.Contains(t, lines[1], "gel")
	assert.Contains(t, lines[1], "1e+06")

	info, err := os.Stat(png)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestSummaryUnknownQuantity(t *testing.T) {
	_, err := execute(t, "summary", "--quantity", "eta", "missing.parquet")
	require.ErrorContains(t, err, "unknown quantity")
}

func TestAnalyzeCommand(t *testing.T) {
	dir := t.TempDir()
	lags := testutil.LinearLags(1, 1, 20)
	coeffs := testutil.StretchedExp(lags, 0.9, 0.01, 1)
	join := func(v []float64) string {
		parts := make([]string, len(v))
		for i, x := range v {
			parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
		}
		return strings.Join(parts, ", ")
	}

	export := filepath.Join(dir, "c1", "replicate1", "e.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(export), 0o755))
	require.NoError(t, os.WriteFile(export, []byte(fmt.Sprintf("%q,%q,250,1\n", join(lags), join(coeffs))), 0o644))

	cfg := `
export: e.csv
conditions: [{name: cond1, dir: c1, replicates: [1, 2]}]
use_instrument_g1: false
columns: ["Correlation Delay Times", "Correlation Data", "Derived Count Rate", "Measurement Position"]
`
	cfgPath := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	out, err := execute(t, "analyze", "--parquet", filepath.Join(dir, "out.parquet"), cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "cond1")
	assert.Contains(t, out, "FAILED cond1 replicate 2")

	rows, err := store.ReadFile(filepath.Join(dir, "out.parquet"))
	require.NoError(t, err)
	assert.Len(t, rows, 17)
}

func TestAnalyzeNothingSucceeds(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("export: e.csv\nconditions: [{name: a, dir: a, replicates: [1]}]\n"), 0o644))

	_, err := execute(t, "analyze", cfgPath)
	require.ErrorIs(t, err, errNoResults)
}
