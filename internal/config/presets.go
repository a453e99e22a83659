package config

import (
	"fmt"
	"sort"

	"github.com/san-kum/verletsim/internal/spawn"
)

var Presets = map[string]func(*Config){
	"small": func(c *Config) {
		c.Solver.ContainerRadius = 150
		c.Solver.BroadPhase = "grid"
		c.Spawn.Batch = 2
		c.Spawn.Max = 200
		c.Run.Duration = 5
	},
	"dense": func(c *Config) {
		c.Solver.ContainerRadius = 350
		c.Solver.CellSize = 2.5 * 2 * 3
		c.Solver.XRegions, c.Solver.YRegions = 3, 4
		c.Spawn.Radius = 3
		c.Spawn.Batch = 10
		c.Run.Duration = 20
	},
	"sweep": func(c *Config) {
		c.Solver.BroadPhase = "sweep"
		c.Spawn.Batch = 4
	},
	"parallel": func(c *Config) {
		c.Solver.BroadPhase = "parallel"
		c.Solver.XRegions, c.Solver.YRegions = 4, 4
	},
	"bouncy": func(c *Config) {
		c.Solver.ParticleRestitution = 1
		c.Solver.WallRestitution = 1
		c.Spawn.Mode = spawn.Fountain
		c.Spawn.Speed = 300
		c.Spawn.Interval = 10
		c.Spawn.Batch = 1
		c.Spawn.AngleJitter = 30
	},
	"settle": func(c *Config) {
		c.Solver.WallRestitution = 0.5
		c.Solver.SleepVelocity = 5
		c.Solver.SleepTime = 0.5
		c.Spawn.Max = 150
	},
}

// GetPreset returns DefaultConfig with the named preset applied.
func GetPreset(name string) (*Config, error) {
	apply, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg, nil
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
