package quad

import (
	"math"
	"testing"
)

func powerLaw(t float64) float64 { return math.Pow(t, -0.5) }

func BenchmarkKronrodLog(b *testing.B) {
	k := NewKronrod(50, 1.49e-8, 1.49e-8)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = IntegrateLog(k, powerLaw, 1e-4, 1e4)
	}
}

func BenchmarkLegendreLog(b *testing.B) {
	l := NewLegendre(64, 1.49e-8, 1.49e-8)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = IntegrateLog(l, powerLaw, 1e-4, 1e4)
	}
}
