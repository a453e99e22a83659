package config

import (
	"errors"
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/verletsim/internal/broadphase"
	"github.com/san-kum/verletsim/internal/solver"
	"github.com/san-kum/verletsim/internal/spawn"
)

const (
	DefaultDuration       = 10.0
	DefaultSampleEvery    = 6
	DefaultAddr           = "localhost:8080"
	DefaultBroadcastEvery = 2
)

var ErrUnknownPreset = errors.New("config: unknown preset")

type Config struct {
	Solver SolverConfig `yaml:"solver"`
	Spawn  spawn.Config `yaml:"spawn"`
	Run    RunConfig    `yaml:"run"`
	Stream StreamConfig `yaml:"stream"`
}

type SolverConfig struct {
	GravityX            float64 `yaml:"gravity_x"`
	GravityY            float64 `yaml:"gravity_y"`
	ContainerRadius     float64 `yaml:"container_radius"`
	Subdivision         int     `yaml:"subdivision"`
	CellSize            float64 `yaml:"cell_size"`
	XRegions            int     `yaml:"x_regions"`
	YRegions            int     `yaml:"y_regions"`
	BroadPhase          string  `yaml:"broadphase"`
	WallRestitution     float64 `yaml:"wall_restitution"`
	ParticleRestitution float64 `yaml:"particle_restitution"`
	SeparationFactor    float64 `yaml:"separation_factor"`
	SmoothWall          bool    `yaml:"smooth_wall"`
	SleepVelocity       float64 `yaml:"sleep_velocity"`
	SleepTime           float64 `yaml:"sleep_time"`
	FullThreshold       float64 `yaml:"full_threshold"`
}

type RunConfig struct {
	Dt          float64 `yaml:"dt"`
	Duration    float64 `yaml:"duration"`
	SampleEvery int     `yaml:"sample_every"`
	MaxUpdates  int     `yaml:"max_updates"`
	Initial     int     `yaml:"initial"`
	Seed        int64   `yaml:"seed"`
}

type StreamConfig struct {
	Addr           string `yaml:"addr"`
	BroadcastEvery int    `yaml:"broadcast_every"`
}

func DefaultConfig() *Config {
	opts := solver.DefaultOptions()
	return &Config{
		Solver: SolverConfig{
			GravityX:            opts.Gravity.X,
			GravityY:            opts.Gravity.Y,
			ContainerRadius:     opts.ContainerRadius,
			Subdivision:         opts.Subdivision,
			CellSize:            opts.CellSize,
			XRegions:            opts.XRegions,
			YRegions:            opts.YRegions,
			BroadPhase:          opts.BroadPhase.String(),
			WallRestitution:     opts.WallRestitution,
			ParticleRestitution: opts.ParticleRestitution,
			SeparationFactor:    opts.SeparationFactor,
			FullThreshold:       opts.FullThreshold,
		},
		Spawn: spawn.DefaultConfig(),
		Run: RunConfig{
			Dt:          1.0 / 60,
			Duration:    DefaultDuration,
			SampleEvery: DefaultSampleEvery,
			MaxUpdates:  5,
			Seed:        1,
		},
		Stream: StreamConfig{
			Addr:           DefaultAddr,
			BroadcastEvery: DefaultBroadcastEvery,
		},
	}
}

// Load reads a YAML file on top of DefaultConfig, so omitted keys keep
// their defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := Merge(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge overlays the keys present in a YAML file onto cfg.
func Merge(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) SolverOptions() (solver.Options, error) {
	kind, err := broadphase.ParseKind(c.Solver.BroadPhase)
	if err != nil {
		return solver.Options{}, err
	}
	return solver.Options{
		Gravity:             r2.Vec{X: c.Solver.GravityX, Y: c.Solver.GravityY},
		ContainerRadius:     c.Solver.ContainerRadius,
		Subdivision:         c.Solver.Subdivision,
		CellSize:            c.Solver.CellSize,
		XRegions:            c.Solver.XRegions,
		YRegions:            c.Solver.YRegions,
		BroadPhase:          kind,
		WallRestitution:     c.Solver.WallRestitution,
		ParticleRestitution: c.Solver.ParticleRestitution,
		SeparationFactor:    c.Solver.SeparationFactor,
		SmoothWall:          c.Solver.SmoothWall,
		SleepVelocity:       c.Solver.SleepVelocity,
		SleepTime:           c.Solver.SleepTime,
		FullThreshold:       c.Solver.FullThreshold,
	}, nil
}

func (c *Config) EmitterConfig() spawn.Config { return c.Spawn }

func (c *Config) Validate() error {
	opts, err := c.SolverOptions()
	if err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	if err := c.Spawn.Validate(); err != nil {
		return err
	}
	if maxRadius := c.Spawn.Radius * (1 + c.Spawn.RadiusJitter); !opts.FitsCell(maxRadius) {
		return fmt.Errorf("config: cell_size %f is smaller than the largest spawn diameter %f", c.Solver.CellSize, 2*maxRadius)
	}
	switch {
	case !(c.Run.Dt > 0):
		return fmt.Errorf("config: dt must be positive, got %f", c.Run.Dt)
	case c.Run.Duration < 0:
		return fmt.Errorf("config: duration must not be negative, got %f", c.Run.Duration)
	case c.Run.SampleEvery <= 0:
		return fmt.Errorf("config: sample_every must be positive, got %d", c.Run.SampleEvery)
	case c.Run.Initial < 0:
		return fmt.Errorf("config: initial must not be negative, got %d", c.Run.Initial)
	case c.Stream.BroadcastEvery <= 0:
		return fmt.Errorf("config: broadcast_every must be positive, got %d", c.Stream.BroadcastEvery)
	}
	return nil
}
