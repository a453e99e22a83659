package spawn

import (
	"fmt"
	"math"

	"github.com/aquilax/go-perlin"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/verletsim/internal/particle"
	"github.com/san-kum/verletsim/internal/solver"
)

// Mode selects where new particles appear.
type Mode string

const (
	// Ring launches particles inward from just inside the wall, rotating
	// the launch angle after every particle.
	Ring Mode = "ring"
	// Fountain drops particles from a fixed point near the top.
	Fountain Mode = "fountain"
)

type Config struct {
	Mode      Mode    `yaml:"mode"`
	Interval  int     `yaml:"interval"`
	Batch     int     `yaml:"batch"`
	Radius    float64 `yaml:"radius"`
	Speed     float64 `yaml:"speed"`
	AngleStep float64 `yaml:"angle_step"`
	Placement float64 `yaml:"placement"`
	Max       int     `yaml:"max"`

	// Jitter scales perlin noise applied to the launch angle (degrees) and
	// to the radius (fraction of Radius).
	AngleJitter  float64 `yaml:"angle_jitter"`
	RadiusJitter float64 `yaml:"radius_jitter"`
	Seed         int64   `yaml:"seed"`
}

func DefaultConfig() Config {
	return Config{
		Mode:      Ring,
		Interval:  1,
		Batch:     10,
		Radius:    solver.DefaultParticleRadius,
		Speed:     100,
		AngleStep: 3,
		Placement: 0.98,
		Seed:      1,
	}
}

func (c Config) Validate() error {
	switch {
	case c.Mode != Ring && c.Mode != Fountain:
		return fmt.Errorf("spawn: unknown mode %q", c.Mode)
	case c.Interval <= 0:
		return fmt.Errorf("spawn: interval must be positive, got %d", c.Interval)
	case c.Batch <= 0:
		return fmt.Errorf("spawn: batch must be positive, got %d", c.Batch)
	case !(c.Radius > 0):
		return fmt.Errorf("spawn: radius must be positive, got %f", c.Radius)
	case c.RadiusJitter < 0 || c.RadiusJitter >= 1:
		return fmt.Errorf("spawn: radius jitter must be in [0, 1), got %f", c.RadiusJitter)
	case c.Placement <= 0 || c.Placement > 1:
		return fmt.Errorf("spawn: placement must be in (0, 1], got %f", c.Placement)
	case c.Max < 0:
		return fmt.Errorf("spawn: max must not be negative, got %d", c.Max)
	}
	return nil
}

// Emitter adds particles to a solver every Interval updates until the
// container is full or Max is reached.
type Emitter struct {
	cfg     Config
	noise   *perlin.Perlin
	ticks   int
	angle   float64
	emitted int
}

func NewEmitter(cfg Config) (*Emitter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Emitter{
		cfg:   cfg,
		noise: perlin.NewPerlin(2, 2, 3, cfg.Seed),
	}, nil
}

func (e *Emitter) Config() Config { return e.cfg }
func (e *Emitter) Emitted() int   { return e.emitted }

// Tick is called once after every solver update of length dt. It returns
// how many particles were added.
func (e *Emitter) Tick(s *solver.Solver, dt float64) int {
	e.ticks++
	if e.ticks < e.cfg.Interval {
		return 0
	}
	e.ticks = 0
	if s.IsContainerFull() {
		return 0
	}

	opts := s.Options()
	subDt := dt / float64(opts.Subdivision)
	added := 0
	for i := 0; i < e.cfg.Batch; i++ {
		if e.cfg.Max > 0 && s.Len() >= e.cfg.Max {
			break
		}
		s.Add(e.next(opts.ContainerRadius, subDt))
		added++
	}
	return added
}

func (e *Emitter) next(container, dt float64) particle.Particle {
	t := float64(e.emitted) * 0.1
	e.emitted++

	radius := e.cfg.Radius * (1 + e.cfg.RadiusJitter*e.sample(t+100))
	var pos, vel r2.Vec
	switch e.cfg.Mode {
	case Fountain:
		pos = r2.Vec{Y: math.Max(container*e.cfg.Placement-radius, 0)}
		theta := (-90 + e.cfg.AngleJitter*e.sample(t)) * math.Pi / 180
		vel = r2.Scale(e.cfg.Speed, r2.Vec{X: math.Cos(theta), Y: math.Sin(theta)})
	default:
		theta := (e.angle + e.cfg.AngleJitter*e.sample(t)) * math.Pi / 180
		dir := r2.Vec{X: math.Cos(theta), Y: math.Sin(theta)}
		dist := math.Min(container*e.cfg.Placement, container-radius)
		pos = r2.Scale(math.Max(dist, 0), dir)
		vel = r2.Scale(-e.cfg.Speed, dir)
		e.angle = math.Mod(e.angle+e.cfg.AngleStep, 360)
	}
	return particle.NewWithVelocity(pos, vel, radius, dt)
}

func (e *Emitter) sample(t float64) float64 {
	return math.Max(-1, math.Min(1, e.noise.Noise1D(t)))
}
