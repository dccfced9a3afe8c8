package trace

import "testing"

func BenchmarkCalculate(b *testing.B) {
	for _, n := range []int{1 << 12, 1 << 16} {
		counts := make([]float64, n)
		for i := range counts {
			counts[i] = float64(i % 17)
		}

		b.Run(itoa(n), func(b *testing.B) {
			b.ReportAllocs()
			for range b.N {
				_ = Calculate(counts)
			}
		})
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
