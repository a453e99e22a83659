package runner

import (
	"context"
	"time"
)

type BenchConfig struct {
	// Budget is the frame time that counts as too slow.
	Budget time.Duration
	// Window is how many recent frames are averaged against Budget.
	Window       int
	MaxParticles int
	MaxFrames    int
}

func DefaultBenchConfig() BenchConfig {
	return BenchConfig{
		Budget:       time.Second / 60,
		Window:       30,
		MaxParticles: 20000,
		MaxFrames:    20000,
	}
}

type BenchResult struct {
	Particles int
	Frames    int
	// FrameTimes holds every frame's wall time in milliseconds.
	FrameTimes []float64
	Exceeded   bool
	Elapsed    time.Duration
}

// Bench steps until the average frame time over the last Window frames
// exceeds Budget, returning how many particles the solver held at that
// point. It also stops at MaxParticles, MaxFrames or when ctx is done.
// The runner needs an emitter for the count to grow.
func (r *Runner) Bench(ctx context.Context, cfg BenchConfig) BenchResult {
	if cfg.Window < 1 {
		cfg.Window = 1
	}
	res := BenchResult{}
	start := time.Now()
	var window time.Duration
	recent := make([]time.Duration, 0, cfg.Window)
	for cfg.MaxFrames <= 0 || res.Frames < cfg.MaxFrames {
		if ctx.Err() != nil {
			break
		}
		t0 := time.Now()
		r.Step()
		took := time.Since(t0)

		res.Frames++
		res.FrameTimes = append(res.FrameTimes, float64(took)/float64(time.Millisecond))
		window += took
		if len(recent) == cfg.Window {
			window -= recent[0]
			recent = recent[1:]
		}
		recent = append(recent, took)

		res.Particles = r.solver.Len()
		if len(recent) == cfg.Window && window/time.Duration(cfg.Window) > cfg.Budget {
			res.Exceeded = true
			break
		}
		if cfg.MaxParticles > 0 && res.Particles >= cfg.MaxParticles {
			break
		}
	}
	res.Elapsed = time.Since(start)
	r.logger.Debug("bench finished", "kind", r.solver.Kind(), "particles", res.Particles, "frames", res.Frames, "exceeded", res.Exceeded)
	return res
}
