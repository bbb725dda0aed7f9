package lowhighcut

import (
	"fmt"
	"testing"

	"github.com/cwbudde/algo-tuner/internal/testutil"
)

func BenchmarkProcess(b *testing.B) {
	for _, n := range []int{64, 256, 1024} {
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			c := mustNew(b, 48000)
			buf := testutil.Noise32(1, 1, n)
			b.SetBytes(int64(n * 4))
			b.ReportAllocs()
			b.ResetTimer()
			for range b.N {
				c.Process(buf, buf)
			}
		})
	}
}

func BenchmarkSolve(b *testing.B) {
	b.ReportAllocs()
	for range b.N {
		_ = Solve(48000)
	}
}
