package replicate

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/cwbudde/algo-dls/store"
)

func rowsFor(condition string, replicate int64, loss []float64) []store.Row {
	out := make([]store.Row, len(loss))
	for i, v := range loss {
		out[i] = store.Row{
			Condition: condition,
			Replicate: replicate,
			Index:     int64(i),
			Lag:       float64(i + 1),
			Omega:     1e6 / float64(i+1),
			Loss:      v,
			MSD:       float64(i+1) * float64(replicate),
		}
	}
	return out
}

func TestNewMatrixTruncates(t *testing.T) {
	m, err := NewMatrix([][]float64{{1, 2, 3}, {4, 5}, {6, 7, 8, 9}})
	if err != nil {
		t.Fatal(err)
	}
	if m.Replicates() != 3 || m.Width() != 2 {
		t.Fatalf("shape = %dx%d, want 3x2", m.Replicates(), m.Width())
	}

	got := m.Reduce(Mean)
	want := []float64{11.0 / 3, 14.0 / 3}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("mean[%d] = %g, want %g", i, got[i], want[i])
		}
	}
}

func TestNewMatrixErrors(t *testing.T) {
	for _, series := range [][][]float64{nil, {{}, {1}}} {
		if _, err := NewMatrix(series); !errors.Is(err, ErrNoReplicates) {
			t.Fatalf("NewMatrix(%v) err = %v, want ErrNoReplicates", series, err)
		}
	}
}

func TestMedian(t *testing.T) {
	values := []float64{5, 1, 3}
	if got := Median(values); got != 3 {
		t.Fatalf("Median = %g, want 3", got)
	}
	if values[0] != 5 {
		t.Fatal("Median reordered its input")
	}
}

func TestPercentile(t *testing.T) {
	m, _ := NewMatrix([][]float64{{5}, {1}, {4}, {2}, {3}})
	lo, mid, hi := m.Percentile(0)[0], m.Percentile(50)[0], m.Percentile(100)[0]
	if !(lo >= 1 && lo <= mid && mid <= hi && hi <= 5) {
		t.Fatalf("percentiles = %g, %g, %g, want ordered within [1, 5]", lo, mid, hi)
	}
	if mid < 2 || mid > 4 {
		t.Fatalf("P50 = %g, want within [2, 4]", mid)
	}
}

func TestIdenticalReplicatesCollapse(t *testing.T) {
	m, _ := NewMatrix([][]float64{{1, 2}, {1, 2}, {1, 2}})
	lo, hi, err := m.Interval(WithResamples(50))
	if err != nil {
		t.Fatal(err)
	}
	for j := range lo {
		if lo[j] != hi[j] || lo[j] != float64(j+1) {
			t.Fatalf("column %d: [%g, %g], want collapsed at %d", j, lo[j], hi[j], j+1)
		}
	}
}

func TestIntervalDeterministic(t *testing.T) {
	m, _ := NewMatrix([][]float64{{1}, {2}, {3}, {10}})
	lo1, hi1, _ := m.Interval(WithSeed(7))
	lo2, hi2, _ := m.Interval(WithSeed(7))
	if lo1[0] != lo2[0] || hi1[0] != hi2[0] {
		t.Fatal("same seed gave different bands")
	}
	if !(lo1[0] < hi1[0]) {
		t.Fatalf("band [%g, %g] is empty", lo1[0], hi1[0])
	}
}

func TestBootstrapShape(t *testing.T) {
	m, _ := NewMatrix([][]float64{{1, 2, 3}, {4, 5, 6}})
	boot := m.Bootstrap(25, Mean, rand.New(rand.NewPCG(1, 2)))
	if boot.Replicates() != 25 || boot.Width() != 3 {
		t.Fatalf("shape = %dx%d, want 25x3", boot.Replicates(), boot.Width())
	}
	for _, row := range boot.rows {
		for j, v := range row {
			if v < float64(j+1) || v > float64(j+4) {
				t.Fatalf("bootstrap mean %g outside replicate range", v)
			}
		}
	}
}

func TestIntervalValidation(t *testing.T) {
	m, _ := NewMatrix([][]float64{{1}})
	tests := []struct {
		name string
		opt  Option
		want error
	}{
		{"level zero", WithLevel(0), ErrInvalidLevel},
		{"level hundred", WithLevel(100), ErrInvalidLevel},
		{"no resamples", WithResamples(0), ErrInvalidResamples},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := m.Interval(tt.opt); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	var rows []store.Row
	rows = append(rows, rowsFor("a", 2, []float64{3, 4, 5})...)
	rows = append(rows, rowsFor("a", 1, []float64{1, 2, 3, 4})...)
	rows = append(rows, rowsFor("b", 1, []float64{100, 100})...)

	s, err := Summarize(rows, "a", Loss, WithResamples(200))
	if err != nil {
		t.Fatal(err)
	}
	if s.Replicates != 2 || len(s.Center) != 3 {
		t.Fatalf("replicates=%d width=%d, want 2 and 3", s.Replicates, len(s.Center))
	}
	for j, want := range []float64{2, 3, 4} {
		if s.Center[j] != want {
			t.Fatalf("center[%d] = %g, want %g", j, s.Center[j], want)
		}
		if s.Lower[j] > want || s.Upper[j] < want {
			t.Fatalf("band [%g, %g] misses %g", s.Lower[j], s.Upper[j], want)
		}
		if s.X[j] != 1e6/float64(j+1) {
			t.Fatalf("x[%d] = %g, want omega", j, s.X[j])
		}
	}
}

func TestSummarizeTimePoint(t *testing.T) {
	rows := rowsFor("a", 1, []float64{1, 2})
	for i := range rows {
		rows[i].TimePoint = 3
	}

	if _, err := Summarize(rows, "a", MSD, WithTimePoint(2)); !errors.Is(err, ErrNoReplicates) {
		t.Fatalf("err = %v, want ErrNoReplicates", err)
	}

	s, err := Summarize(rows, "a", MSD, WithTimePoint(3), WithEstimator(Median))
	if err != nil {
		t.Fatal(err)
	}
	if s.X[1] != 2 || s.Center[1] != 2 {
		t.Fatalf("x=%v center=%v", s.X, s.Center)
	}
}

func TestQuantityString(t *testing.T) {
	if Storage.String() != "g_storage" || Quantity(9).String() != "Quantity(9)" {
		t.Fatal("unexpected quantity names")
	}
}
