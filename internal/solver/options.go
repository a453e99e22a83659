package solver

import (
	"fmt"

	"github.com/san-kum/verletsim/internal/broadphase"
	"github.com/san-kum/verletsim/internal/grid"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	DefaultGravityY            = -500.0
	DefaultContainerRadius     = 300.0
	DefaultSubdivision         = 8
	DefaultParticleRadius      = 8.0
	DefaultWallRestitution     = 1.0
	DefaultParticleRestitution = 0.93
	DefaultSeparationFactor    = 1.1
	DefaultFullThreshold       = 0.9
	DefaultRegions             = 2
)

type Options struct {
	Gravity         r2.Vec
	ContainerRadius float64
	Subdivision     int

	// CellSize is the grid cell edge; it must be at least the largest
	// particle diameter for the grid strategies to find every pair.
	CellSize   float64
	XRegions   int
	YRegions   int
	BroadPhase broadphase.Kind

	WallRestitution     float64
	ParticleRestitution float64
	SeparationFactor    float64

	// SmoothWall drops the normal velocity at the wall instead of reflecting it.
	SmoothWall bool

	// Sleeping is enabled when SleepVelocity > 0.
	SleepVelocity float64
	SleepTime     float64

	FullThreshold float64
}

func DefaultOptions() Options {
	return Options{
		Gravity:             r2.Vec{Y: DefaultGravityY},
		ContainerRadius:     DefaultContainerRadius,
		Subdivision:         DefaultSubdivision,
		CellSize:            grid.DefaultCellFactor * 2 * DefaultParticleRadius,
		XRegions:            DefaultRegions,
		YRegions:            DefaultRegions,
		BroadPhase:          broadphase.ParallelGrid,
		WallRestitution:     DefaultWallRestitution,
		ParticleRestitution: DefaultParticleRestitution,
		SeparationFactor:    DefaultSeparationFactor,
		FullThreshold:       DefaultFullThreshold,
	}
}

func (o Options) Validate() error {
	switch {
	case !(o.ContainerRadius > 0):
		return fmt.Errorf("%w: container radius must be positive, got %f", ErrInvalidOptions, o.ContainerRadius)
	case o.Subdivision <= 0:
		return fmt.Errorf("%w: subdivision must be positive, got %d", ErrInvalidOptions, o.Subdivision)
	case !(o.CellSize > 0):
		return fmt.Errorf("%w: cell size must be positive, got %f", ErrInvalidOptions, o.CellSize)
	case o.BroadPhase < broadphase.Naive || o.BroadPhase > broadphase.ParallelGrid:
		return fmt.Errorf("%w: unknown broad phase %d", ErrInvalidOptions, int(o.BroadPhase))
	case o.BroadPhase == broadphase.ParallelGrid && (o.XRegions <= 0 || o.YRegions <= 0):
		return fmt.Errorf("%w: region split must be positive, got %dx%d", ErrInvalidOptions, o.XRegions, o.YRegions)
	case o.WallRestitution < 0 || o.ParticleRestitution < 0:
		return fmt.Errorf("%w: restitution must not be negative", ErrInvalidOptions)
	case !(o.SeparationFactor > 0):
		return fmt.Errorf("%w: separation factor must be positive, got %f", ErrInvalidOptions, o.SeparationFactor)
	case o.SleepVelocity < 0 || o.SleepTime < 0:
		return fmt.Errorf("%w: sleep thresholds must not be negative", ErrInvalidOptions)
	case !(o.FullThreshold > 0):
		return fmt.Errorf("%w: full threshold must be positive, got %f", ErrInvalidOptions, o.FullThreshold)
	}
	return nil
}

func (o Options) sleepEnabled() bool { return o.SleepVelocity > 0 }

// FitsCell reports whether a particle of the given radius can be found by
// the configured broad phase. The grid strategies only look one cell away,
// so their cells must be at least one diameter wide.
func (o Options) FitsCell(radius float64) bool {
	if o.BroadPhase != broadphase.Grid && o.BroadPhase != broadphase.ParallelGrid {
		return true
	}
	return 2*radius <= o.CellSize
}
