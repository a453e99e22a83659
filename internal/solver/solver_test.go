package solver_test

import (
	"bytes"
	"errors"
	"image/color"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/verletsim/internal/broadphase"
	"github.com/san-kum/verletsim/internal/particle"
	"github.com/san-kum/verletsim/internal/solver"
)

const frame = 1.0 / 60

func scatter(seed int64, n int, radius float64) []particle.Particle {
	rng := rand.New(rand.NewSource(seed))
	ps := make([]particle.Particle, 0, n)
	for len(ps) < n {
		r := 4 + rng.Float64()*4
		a := rng.Float64() * 2 * math.Pi
		d := math.Sqrt(rng.Float64()) * (radius - r)
		ps = append(ps, particle.New(r2.Vec{X: d * math.Cos(a), Y: d * math.Sin(a)}, r))
	}
	return ps
}

func options(kind broadphase.Kind) solver.Options {
	opts := solver.DefaultOptions()
	opts.ContainerRadius = 200
	opts.BroadPhase = kind
	return opts
}

func mustNew(opts solver.Options, ps ...particle.Particle) *solver.Solver {
	s, err := solver.New(opts, ps...)
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(s.Close)
	return s
}

var _ = Describe("Solver", func() {
	It("moves a free particle at constant velocity", func() {
		opts := options(broadphase.Naive)
		opts.Gravity = r2.Vec{}
		opts.Subdivision = 4
		subDt := frame / float64(opts.Subdivision)

		vel := r2.Vec{X: 30, Y: -20}
		s := mustNew(opts, particle.NewWithVelocity(r2.Vec{}, vel, 5, subDt))
		for i := 0; i < 10; i++ {
			s.Update(frame)
		}

		p := s.Particle(0)
		pos := p.Position()
		want := r2.Scale(10*frame, vel)
		Expect(pos.X).To(BeNumerically("~", want.X, 1e-9))
		Expect(pos.Y).To(BeNumerically("~", want.Y, 1e-9))
		Expect(s.Step()).To(Equal(40))
		Expect(s.Time()).To(BeNumerically("~", 10*frame, 1e-12))
	})

	DescribeTable("swaps velocities in an equal-mass head-on collision",
		func(kind broadphase.Kind) {
			opts := options(kind)
			opts.Gravity = r2.Vec{}
			opts.Subdivision = 1
			opts.ParticleRestitution = 1

			s := mustNew(opts,
				particle.NewWithVelocity(r2.Vec{X: -6}, r2.Vec{X: 50}, 5, frame),
				particle.NewWithVelocity(r2.Vec{X: 6}, r2.Vec{X: -50}, 5, frame),
			)
			collided := false
			for i := 0; i < 6 && !collided; i++ {
				s.Update(frame)
				collided = s.Contacts() > 0
			}
			Expect(collided).To(BeTrue())

			a, b := s.Particle(0), s.Particle(1)
			Expect(a.Velocity().X).To(BeNumerically("~", -50, 1e-6))
			Expect(a.Velocity().Y).To(BeNumerically("~", 0, 1e-9))
			Expect(b.Velocity().X).To(BeNumerically("~", 50, 1e-6))
			Expect(b.Velocity().Y).To(BeNumerically("~", 0, 1e-9))
		},
		Entry("naive", broadphase.Naive),
		Entry("sweep", broadphase.Sweep),
		Entry("grid", broadphase.Grid),
		Entry("parallel grid", broadphase.ParallelGrid),
	)

	DescribeTable("keeps every particle inside the container",
		func(kind broadphase.Kind, smooth bool) {
			opts := options(kind)
			opts.SmoothWall = smooth
			s := mustNew(opts, scatter(3, 150, opts.ContainerRadius)...)

			for f := 0; f < 120; f++ {
				s.Update(frame)
				for _, p := range s.Particles() {
					limit := opts.ContainerRadius - p.Radius()
					Expect(r2.Norm(p.Position())).To(BeNumerically("<=", limit+2))
				}
			}
		},
		Entry("naive", broadphase.Naive, false),
		Entry("sweep", broadphase.Sweep, false),
		Entry("parallel grid", broadphase.ParallelGrid, false),
		Entry("parallel grid with smooth wall", broadphase.ParallelGrid, true),
	)

	It("settles a single particle on the wall and puts it to sleep", func() {
		opts := options(broadphase.Naive)
		opts.WallRestitution = 0.5
		opts.SleepVelocity = 5
		opts.SleepTime = 0.5

		s := mustNew(opts, particle.New(r2.Vec{}, 10))
		for f := 0; f < 360; f++ {
			s.Update(frame)
		}

		p := s.Particle(0)
		Expect(p.Sleeping()).To(BeTrue())
		Expect(r2.Norm(p.Position())).To(BeNumerically("~", 190, 1e-9))
		Expect(p.Position().X).To(BeNumerically("~", 0, 1e-9))
		Expect(p.Position().Y).To(BeNumerically("<", 0))
		Expect(s.SleepingCount()).To(Equal(1))
	})

	It("wakes a sleeping particle when something hits it", func() {
		opts := options(broadphase.Naive)
		opts.WallRestitution = 0.5
		opts.SleepVelocity = 5
		opts.SleepTime = 0.5

		s := mustNew(opts, particle.New(r2.Vec{}, 10))
		for f := 0; f < 360; f++ {
			s.Update(frame)
		}
		sleeper := s.Particle(0)
		Expect(sleeper.Sleeping()).To(BeTrue())

		s.Add(particle.NewWithVelocity(r2.Vec{Y: -165}, r2.Vec{Y: -300}, 10, frame/8))
		woke := false
		for f := 0; f < 30 && !woke; f++ {
			s.Update(frame)
			p := s.Particle(0)
			woke = !p.Sleeping()
		}
		Expect(woke).To(BeTrue())
	})

	DescribeTable("replays identically after save and load",
		func(kind broadphase.Kind) {
			opts := options(kind)
			s := mustNew(opts, scatter(11, 120, opts.ContainerRadius)...)
			for f := 0; f < 30; f++ {
				s.Update(frame)
			}

			var buf bytes.Buffer
			Expect(s.Save(&buf)).To(Succeed())
			loaded, err := solver.Load(&buf)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(loaded.Close)

			Expect(loaded.Positions()).To(Equal(s.Positions()))
			Expect(loaded.Step()).To(Equal(s.Step()))

			for f := 0; f < 30; f++ {
				s.Update(frame)
				loaded.Update(frame)
			}
			Expect(loaded.Positions()).To(Equal(s.Positions()))
			for i := 0; i < s.Len(); i++ {
				a, b := s.Particle(i), loaded.Particle(i)
				Expect(b.Velocity()).To(Equal(a.Velocity()))
			}
		},
		Entry("naive", broadphase.Naive),
		Entry("sweep", broadphase.Sweep),
		Entry("grid", broadphase.Grid),
		Entry("parallel grid", broadphase.ParallelGrid),
	)

	Describe("Restore", func() {
		var (
			s   *solver.Solver
			dir string
		)

		BeforeEach(func() {
			s = mustNew(options(broadphase.ParallelGrid), scatter(5, 40, 200)...)
			s.Update(frame)
			dir = GinkgoT().TempDir()
		})

		It("leaves the solver untouched when the file is garbage", func() {
			path := filepath.Join(dir, "bad.bin")
			Expect(os.WriteFile(path, []byte("not a snapshot"), 0o644)).To(Succeed())
			before := s.Positions()

			err := s.Restore(path)
			Expect(errors.Is(err, solver.ErrSnapshot)).To(BeTrue())
			Expect(s.Positions()).To(Equal(before))

			s.Update(frame)
			Expect(s.Len()).To(Equal(40))
		})

		It("reports a missing file as a snapshot error", func() {
			err := s.Restore(filepath.Join(dir, "missing.bin"))
			Expect(errors.Is(err, solver.ErrSnapshot)).To(BeTrue())
		})

		It("swaps in the saved state", func() {
			path := filepath.Join(dir, "snap.bin")
			Expect(s.SaveFile(path)).To(Succeed())
			saved := s.Positions()

			for f := 0; f < 10; f++ {
				s.Update(frame)
			}
			s.Add(particle.New(r2.Vec{}, 5))

			Expect(s.Restore(path)).To(Succeed())
			Expect(s.Len()).To(Equal(40))
			Expect(s.Positions()).To(Equal(saved))
			s.Update(frame)
		})
	})

	Describe("colours", func() {
		It("stamps colour frames on existing and future particles", func() {
			red := color.RGBA{R: 255, A: 255}
			green := color.RGBA{G: 255, A: 255}
			blue := color.RGBA{B: 255, A: 255}

			s := mustNew(options(broadphase.Grid), particle.New(r2.Vec{X: -50}, 5), particle.New(r2.Vec{X: 50}, 5))
			s.SetColorFrames([]color.RGBA{red, green, blue})
			Expect(s.Colors()).To(Equal([]color.RGBA{red, green}))
			Expect(s.PendingColorFrames()).To(Equal(1))

			s.Add(particle.New(r2.Vec{}, 5))
			s.Add(particle.New(r2.Vec{Y: 50}, 5))
			Expect(s.Colors()).To(Equal([]color.RGBA{red, green, blue, particle.DefaultColor}))
		})

		It("rejects a colour list of the wrong length", func() {
			s := mustNew(options(broadphase.Grid), particle.New(r2.Vec{}, 5))
			err := s.SetColors([]color.RGBA{{}, {}})
			Expect(errors.Is(err, solver.ErrColorCount)).To(BeTrue())
			Expect(s.Colors()).To(Equal([]color.RGBA{particle.DefaultColor}))
		})

		It("round-trips the colour blob without touching physics", func() {
			dir := GinkgoT().TempDir()
			path := filepath.Join(dir, "colors.bin")
			ps := scatter(9, 10, 200)

			src := mustNew(options(broadphase.Grid), ps...)
			colors := make([]color.RGBA, src.Len())
			for i := range colors {
				colors[i] = color.RGBA{R: uint8(i * 20), G: 10, B: 200, A: 255}
			}
			Expect(src.SetColors(colors)).To(Succeed())
			Expect(src.SaveColors(path)).To(Succeed())

			dst := mustNew(options(broadphase.Grid), ps...)
			before := dst.Positions()
			Expect(dst.LoadColors(path)).To(Succeed())
			Expect(dst.Colors()).To(Equal(colors))
			Expect(dst.Positions()).To(Equal(before))
		})
	})
})
