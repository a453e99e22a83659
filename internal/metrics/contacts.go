package metrics

import "github.com/san-kum/verletsim/internal/solver"

type Sleeping struct {
	name  string
	ratio float64
}

func NewSleeping() *Sleeping { return &Sleeping{name: "sleeping_ratio"} }

func (s *Sleeping) Name() string { return s.name }

func (s *Sleeping) Observe(sol *solver.Solver) {
	if sol.Len() == 0 {
		s.ratio = 0
		return
	}
	s.ratio = float64(sol.SleepingCount()) / float64(sol.Len())
}

func (s *Sleeping) Value() float64 { return s.ratio }
func (s *Sleeping) Reset()         { s.ratio = 0 }

// Contacts averages the number of resolved collisions in the last substep
// of every observed update.
type Contacts struct {
	name    string
	total   int
	samples int
}

func NewContacts() *Contacts { return &Contacts{name: "contacts"} }

func (c *Contacts) Name() string { return c.name }

func (c *Contacts) Observe(s *solver.Solver) {
	c.total += s.Contacts()
	c.samples++
}

func (c *Contacts) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return float64(c.total) / float64(c.samples)
}

func (c *Contacts) Reset() {
	c.total = 0
	c.samples = 0
}

// Overlap tracks the worst penetration seen. It is quadratic in the number
// of particles and meant for small runs and tests.
type Overlap struct {
	name  string
	worst float64
	limit int
}

func NewOverlap() *Overlap { return &Overlap{name: "max_overlap", limit: 2000} }

func (o *Overlap) Name() string { return o.name }

func (o *Overlap) Observe(s *solver.Solver) {
	if s.Len() > o.limit {
		return
	}
	if w := MaxOverlap(s.Particles()); w > o.worst {
		o.worst = w
	}
}

func (o *Overlap) Value() float64 { return o.worst }
func (o *Overlap) Reset()         { o.worst = 0 }
