package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/san-kum/verletsim/internal/metrics"
	"github.com/san-kum/verletsim/internal/solver"
	"github.com/san-kum/verletsim/internal/spawn"
)

const (
	DefaultDt         = 1.0 / 60
	DefaultMaxUpdates = 5
)

// Observer is notified after every fixed update.
type Observer interface {
	OnFrame(s *solver.Solver, frame int)
}

type ObserverFunc func(s *solver.Solver, frame int)

func (f ObserverFunc) OnFrame(s *solver.Solver, frame int) { f(s, frame) }

// Sample is one row of a run's recorded history.
type Sample struct {
	Frame     int     `json:"frame"`
	Time      float64 `json:"time"`
	Count     int     `json:"count"`
	Kinetic   float64 `json:"kinetic"`
	Potential float64 `json:"potential"`
	Sleeping  int     `json:"sleeping"`
	Contacts  int     `json:"contacts"`
}

type Result struct {
	Frames  int
	Samples []Sample
	Metrics map[string]float64
	Elapsed time.Duration
}

// Runner drives a solver at a fixed timestep, feeding it from an optional
// emitter and recording samples.
type Runner struct {
	solver  *solver.Solver
	emitter *spawn.Emitter
	logger  *log.Logger

	dt          float64
	maxUpdates  int
	sampleEvery int
	accumulator float64
	frame       int

	metrics   []metrics.Metric
	observers []Observer
	samples   []Sample
}

type Option func(*Runner)

func WithEmitter(e *spawn.Emitter) Option     { return func(r *Runner) { r.emitter = e } }
func WithLogger(l *log.Logger) Option         { return func(r *Runner) { r.logger = l } }
func WithDt(dt float64) Option                { return func(r *Runner) { r.dt = dt } }
func WithMaxUpdates(n int) Option             { return func(r *Runner) { r.maxUpdates = n } }
func WithSampleEvery(n int) Option            { return func(r *Runner) { r.sampleEvery = n } }
func WithMetrics(ms ...metrics.Metric) Option { return func(r *Runner) { r.metrics = append(r.metrics, ms...) } }

func New(s *solver.Solver, opts ...Option) *Runner {
	r := &Runner{
		solver:      s,
		logger:      log.Default(),
		dt:          DefaultDt,
		maxUpdates:  DefaultMaxUpdates,
		sampleEvery: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

func (r *Runner) Solver() *solver.Solver { return r.solver }
func (r *Runner) Dt() float64            { return r.dt }
func (r *Runner) Frame() int             { return r.frame }
func (r *Runner) Samples() []Sample      { return r.samples }

// SetSolver swaps the driven solver, e.g. after a reset or reload. The
// accumulator and recorded history are kept.
func (r *Runner) SetSolver(s *solver.Solver) { r.solver = s }

// Step performs exactly one fixed update.
func (r *Runner) Step() {
	r.solver.Update(r.dt)
	r.frame++
	if r.emitter != nil {
		if n := r.emitter.Tick(r.solver, r.dt); n > 0 {
			r.logger.Debug("spawned", "count", n, "total", r.solver.Len())
		}
	}
	for _, m := range r.metrics {
		m.Observe(r.solver)
	}
	if r.sampleEvery > 0 && r.frame%r.sampleEvery == 0 {
		r.samples = append(r.samples, r.sample())
	}
	for _, o := range r.observers {
		o.OnFrame(r.solver, r.frame)
	}
}

// Advance adds frameTime seconds of wall time to the accumulator and runs
// as many fixed updates as fit, at most maxUpdates. Time beyond that is
// dropped so a slow frame cannot snowball. alpha is the leftover fraction
// of a step, for interpolated drawing.
func (r *Runner) Advance(frameTime float64) (updates int, alpha float64) {
	if frameTime > 0 {
		r.accumulator += frameTime
	}
	for r.accumulator >= r.dt {
		if r.maxUpdates > 0 && updates >= r.maxUpdates {
			r.logger.Debug("dropping simulation time", "seconds", r.accumulator)
			r.accumulator = 0
			break
		}
		r.Step()
		r.accumulator -= r.dt
		updates++
	}
	return updates, r.accumulator / r.dt
}

// Run steps for duration seconds of simulated time without pacing.
func (r *Runner) Run(ctx context.Context, duration float64) (*Result, error) {
	if !(r.dt > 0) {
		return nil, fmt.Errorf("runner: dt must be positive, got %f", r.dt)
	}
	if duration < 0 {
		return nil, fmt.Errorf("runner: duration must not be negative, got %f", duration)
	}

	for _, m := range r.metrics {
		m.Reset()
	}
	frames := int(duration/r.dt + 0.5)
	start := time.Now()
	r.logger.Info("run started", "frames", frames, "particles", r.solver.Len(), "broadphase", r.solver.Kind())

	result := &Result{}
	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			r.finish(result, start)
			return result, ctx.Err()
		default:
		}
		r.Step()
		result.Frames++
	}
	r.finish(result, start)
	r.logger.Info("run finished", "frames", result.Frames, "particles", r.solver.Len(), "elapsed", result.Elapsed)
	return result, nil
}

// RunRealtime paces updates against the wall clock until ctx is done.
func (r *Runner) RunRealtime(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(r.dt * float64(time.Second)))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			r.Advance(now.Sub(last).Seconds())
			last = now
		}
	}
}

func (r *Runner) finish(result *Result, start time.Time) {
	result.Samples = r.samples
	result.Metrics = metrics.Collect(r.metrics)
	result.Elapsed = time.Since(start)
}

func (r *Runner) sample() Sample {
	ps := r.solver.Particles()
	opts := r.solver.Options()
	return Sample{
		Frame:     r.frame,
		Time:      r.solver.Time(),
		Count:     len(ps),
		Kinetic:   metrics.KineticEnergy(ps),
		Potential: metrics.PotentialEnergy(ps, opts.Gravity, opts.ContainerRadius),
		Sleeping:  r.solver.SleepingCount(),
		Contacts:  r.solver.Contacts(),
	}
}
