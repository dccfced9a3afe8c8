package rheology

import (
	"context"
	"testing"

	"github.com/cwbudde/algo-dls/internal/testutil"
)

func BenchmarkAnalyze(b *testing.B) {
	lags := testutil.LogSpacedLags(0.5, 1e5, 150)
	c, err := NewCorrelation(lags, testutil.StretchedExp(lags, 0.9, 1e-3, 0.9))
	if err != nil {
		b.Fatal(err)
	}
	m, err := NewMeasurement(c, Intensity{})
	if err != nil {
		b.Fatal(err)
	}

	for _, laplace := range []bool{false, true} {
		name := "PowerLaw"
		if laplace {
			name = "Laplace"
		}
		b.Run(name, func(b *testing.B) {
			a := NewAnalyzer(WithLaplace(laplace))
			b.ReportAllocs()
			for range b.N {
				if _, err := a.Analyze(context.Background(), m); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
