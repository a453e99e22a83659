package metrics

import "github.com/san-kum/verletsim/internal/solver"

// Metric accumulates one scalar over the frames of a run.
type Metric interface {
	Name() string
	Observe(s *solver.Solver)
	Value() float64
	Reset()
}

// Defaults returns the metrics recorded for every run.
func Defaults() []Metric {
	return []Metric{NewKinetic(), NewPotential(), NewSleeping(), NewContacts(), NewOverlap()}
}

// Collect returns the current value of every metric keyed by name.
func Collect(ms []Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}
