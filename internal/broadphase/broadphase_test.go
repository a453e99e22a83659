package broadphase_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/verletsim/internal/broadphase"
	"github.com/san-kum/verletsim/internal/grid"
	"github.com/san-kum/verletsim/internal/particle"
	"github.com/san-kum/verletsim/internal/workerpool"
)

const (
	containerRadius = 200.0
	maxRadius       = 8.0
)

func scatter(seed int64, n int) []particle.Particle {
	rng := rand.New(rand.NewSource(seed))
	ps := make([]particle.Particle, 0, n)
	for len(ps) < n {
		r := 4 + rng.Float64()*(maxRadius-4)
		a := rng.Float64() * 2 * math.Pi
		d := math.Sqrt(rng.Float64()) * (containerRadius - r)
		ps = append(ps, particle.New(r2.Vec{X: d * math.Cos(a), Y: d * math.Sin(a)}, r))
	}
	return ps
}

func jiggle(ps []particle.Particle, seed int64, amount float64) {
	rng := rand.New(rand.NewSource(seed))
	for i := range ps {
		p := ps[i].Position()
		ps[i].SetPosition(r2.Vec{
			X: p.X + (rng.Float64()*2-1)*amount,
			Y: p.Y + (rng.Float64()*2-1)*amount,
		})
	}
}

func pairSet(pairs []broadphase.Pair) map[broadphase.Pair]struct{} {
	set := make(map[broadphase.Pair]struct{}, len(pairs))
	for _, p := range pairs {
		set[p] = struct{}{}
	}
	return set
}

func newDetector(kind broadphase.Kind, pool *workerpool.Pool, xr, yr int) *broadphase.Detector {
	g := grid.New(containerRadius, grid.DefaultCellFactor*2*maxRadius)
	return broadphase.NewDetector(kind, g, pool, xr, yr)
}

var _ = Describe("Detector", func() {
	var pool *workerpool.Pool

	BeforeEach(func() {
		pool = workerpool.New(6)
	})

	AfterEach(func() {
		pool.Close()
	})

	DescribeTable("matches the naive pair set",
		func(kind broadphase.Kind, xr, yr int, seed int64, n int) {
			ps := scatter(seed, n)
			want := broadphase.FindNaive(ps)
			Expect(want).NotTo(BeEmpty())

			got := newDetector(kind, pool, xr, yr).Find(ps)

			Expect(got).To(HaveLen(len(pairSet(got))), "duplicate pairs")
			Expect(pairSet(got)).To(Equal(pairSet(want)))
			for _, p := range got {
				Expect(p.I).To(BeNumerically("<", p.J))
			}
		},
		Entry("sweep", broadphase.Sweep, 0, 0, int64(1), 400),
		Entry("grid", broadphase.Grid, 0, 0, int64(2), 400),
		Entry("parallel 2x2", broadphase.ParallelGrid, 2, 2, int64(3), 400),
		Entry("parallel 3x5 with remainders", broadphase.ParallelGrid, 3, 5, int64(4), 500),
		Entry("parallel more tiles than cells", broadphase.ParallelGrid, 12, 12, int64(5), 300),
		Entry("naive", broadphase.Naive, 0, 0, int64(6), 100),
	)

	It("keeps the sweep order valid as particles move and spawn", func() {
		ps := scatter(10, 200)
		d := newDetector(broadphase.Sweep, nil, 0, 0)

		for step := 0; step < 5; step++ {
			jiggle(ps, int64(step), 3)
			if step == 2 {
				ps = append(ps, scatter(99, 50)...)
			}
			got := d.Find(ps)
			Expect(pairSet(got)).To(Equal(pairSet(broadphase.FindNaive(ps))))

			events := d.Sweep().Events()
			Expect(events).To(HaveLen(2 * len(ps)))
			for i := 1; i < len(events); i++ {
				Expect(events[i-1].X).To(BeNumerically("<=", events[i].X))
			}
		}
	})

	It("rebuilds the grid every call", func() {
		ps := scatter(20, 300)
		d := newDetector(broadphase.ParallelGrid, pool, 3, 3)
		d.Find(ps)

		jiggle(ps, 7, 20)
		got := d.Find(ps)
		Expect(pairSet(got)).To(Equal(pairSet(broadphase.FindNaive(ps))))
	})

	It("falls back to inline scanning once the pool is closed", func() {
		ps := scatter(30, 200)
		d := newDetector(broadphase.ParallelGrid, pool, 2, 2)
		pool.Close()

		got := d.Find(ps)
		Expect(pairSet(got)).To(Equal(pairSet(broadphase.FindNaive(ps))))
	})

	It("reports nothing for separated particles", func() {
		ps := []particle.Particle{
			particle.New(r2.Vec{X: -20}, 5),
			particle.New(r2.Vec{X: 20}, 5),
			particle.New(r2.Vec{X: 0, Y: 10}, 5),
		}
		for _, kind := range broadphase.Kinds() {
			Expect(newDetector(kind, pool, 2, 2).Find(ps)).To(BeEmpty(), kind.String())
		}
	})
})

var _ = Describe("Regions", func() {
	It("tiles every cell exactly once", func() {
		for _, split := range [][2]int{{1, 1}, {2, 3}, {4, 4}, {7, 3}, {13, 13}} {
			seen := make(map[[2]int]int)
			for _, r := range broadphase.Regions(10, split[0], split[1]) {
				for y := r.Y0; y < r.Y1; y++ {
					for x := r.X0; x < r.X1; x++ {
						seen[[2]int{x, y}]++
					}
				}
			}
			Expect(seen).To(HaveLen(100))
			for _, n := range seen {
				Expect(n).To(Equal(1))
			}
		}
	})
})

var _ = Describe("Kind", func() {
	It("round-trips through its name", func() {
		for _, k := range broadphase.Kinds() {
			parsed, err := broadphase.ParseKind(k.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(k))
		}
		k, err := broadphase.ParseKind("Parallel-Grid")
		Expect(err).NotTo(HaveOccurred())
		Expect(k).To(Equal(broadphase.ParallelGrid))

		_, err = broadphase.ParseKind("octree")
		Expect(err).To(HaveOccurred())
	})
})
