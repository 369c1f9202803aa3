package histogram

import (
	"fmt"
	"testing"

	"github.com/valyala/fastrand"
)

func BenchmarkHistogramAdd(b *testing.B) {
	for _, bins := range []int{10, 1000} {
		b.Run(fmt.Sprintf("bins_%d", bins), func(b *testing.B) {
			var rng fastrand.RNG
			samples := make([]float64, 1000)
			for i := range samples {
				samples[i] = float64(rng.Uint32n(1e6)) / 1e4
			}
			b.ReportAllocs()
			b.SetBytes(int64(len(samples)))
			b.RunParallel(func(pb *testing.PB) {
				h, err := NewUniform(0.0, 100, bins)
				if err != nil {
					panic(err)
				}
				for pb.Next() {
					for _, x := range samples {
						if err := h.Add(x); err != nil {
							panic(err)
						}
					}
				}
			})
		})
	}
}
