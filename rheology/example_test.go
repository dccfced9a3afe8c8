package rheology_test

import (
	"context"
	"fmt"
	"math"

	"github.com/cwbudde/algo-dls/rheology"
)

func ExampleAnalyzer_Analyze() {
	lags := make([]float64, 10)
	coeffs := make([]float64, 10)
	for i := range lags {
		lags[i] = float64(i + 1)
		coeffs[i] = 0.9 * math.Exp(-0.01*lags[i])
	}

	corr, err := rheology.NewCorrelation(lags, coeffs)
	if err != nil {
		fmt.Println(err)
		return
	}

	m, err := rheology.NewMeasurement(corr, rheology.Intensity{})
	if err != nil {
		fmt.Println(err)
		return
	}

	a := rheology.NewAnalyzer(rheology.WithTemperature(310.15), rheology.WithRadius(250))
	table, err := a.Analyze(context.Background(), m)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Printf("g0=%.3f rows=%d alpha=%.2f\n", table.G0, table.Len(), table.Alpha[5])
	// Output: g0=0.900 rows=10 alpha=1.00
}

func ExampleScatteringVector() {
	q, _ := rheology.DefaultOptics().Q()
	fmt.Printf("q=%.5f 1/nm\n", q)
	// Output: q=0.02641 1/nm
}
