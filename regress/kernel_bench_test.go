package regress

import (
	"math"
	"strconv"
	"testing"
)

func BenchmarkKernel(b *testing.B) {
	for _, n := range []int{64, 256, 1024} {
		x := linspace(0, 12, n)
		y := make([]float64, n)
		for i, xi := range x {
			y[i] = math.Log1p(xi)
		}
		b.Run(strconv.Itoa(n), func(b *testing.B) {
			b.ReportAllocs()
			for range b.N {
				if _, err := Kernel(x, y, 1, 0.1); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
