package broadphase_test

import (
	"testing"

	"github.com/san-kum/verletsim/internal/broadphase"
	"github.com/san-kum/verletsim/internal/workerpool"
)

func benchmarkKind(b *testing.B, kind broadphase.Kind) {
	pool := workerpool.New(6)
	defer pool.Close()

	ps := scatter(42, 1500)
	d := newDetector(kind, pool, 2, 2)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Find(ps)
	}
}

func BenchmarkNaive(b *testing.B)        { benchmarkKind(b, broadphase.Naive) }
func BenchmarkSweep(b *testing.B)        { benchmarkKind(b, broadphase.Sweep) }
func BenchmarkGrid(b *testing.B)         { benchmarkKind(b, broadphase.Grid) }
func BenchmarkParallelGrid(b *testing.B) { benchmarkKind(b, broadphase.ParallelGrid) }
