package broadphase

import "github.com/san-kum/verletsim/internal/particle"

// Event is one edge of a particle's bounding box along x.
type Event struct {
	X   float64
	End bool
	ID  int
}

func (e Event) before(o Event) bool {
	if e.X != o.X {
		return e.X < o.X
	}
	return !e.End && o.End
}

// SweepState keeps the event list sorted across substeps. Particles move
// little between substeps, so an insertion sort over the previous order is
// close to linear.
type SweepState struct {
	events  []Event
	tracked int
	active  []int
	slot    []int
}

func (s *SweepState) Reset() {
	s.events = s.events[:0]
	s.tracked = 0
}

// Events returns the current event order.
func (s *SweepState) Events() []Event { return s.events }

// SetEvents restores a saved event order for n tracked particles.
func (s *SweepState) SetEvents(events []Event, n int) {
	s.events = append(s.events[:0], events...)
	s.tracked = n
}

func (s *SweepState) refresh(ps []particle.Particle) {
	if s.tracked > len(ps) || len(s.events) != 2*s.tracked {
		s.Reset()
	}
	for i := range s.events {
		e := &s.events[i]
		p := &ps[e.ID]
		if e.End {
			e.X = p.Position().X + p.Radius()
		} else {
			e.X = p.Position().X - p.Radius()
		}
	}
	for id := s.tracked; id < len(ps); id++ {
		p := &ps[id]
		x, r := p.Position().X, p.Radius()
		s.events = append(s.events, Event{X: x - r, ID: id}, Event{X: x + r, End: true, ID: id})
	}
	s.tracked = len(ps)

	for i := 1; i < len(s.events); i++ {
		for j := i; j > 0 && s.events[j].before(s.events[j-1]); j-- {
			s.events[j], s.events[j-1] = s.events[j-1], s.events[j]
		}
	}
}

// Find sweeps the sorted events keeping the set of open intervals. Every
// opening event is tested against all currently open particles.
func (s *SweepState) Find(ps []particle.Particle) []Pair {
	s.refresh(ps)

	if cap(s.slot) < len(ps) {
		s.slot = make([]int, len(ps))
	}
	s.slot = s.slot[:len(ps)]
	for i := range s.slot {
		s.slot[i] = -1
	}
	s.active = s.active[:0]

	var out []Pair
	for _, e := range s.events {
		if !e.End {
			for _, other := range s.active {
				out = emit(out, ps, other, e.ID)
			}
			s.slot[e.ID] = len(s.active)
			s.active = append(s.active, e.ID)
			continue
		}
		pos := s.slot[e.ID]
		if pos < 0 {
			continue
		}
		last := len(s.active) - 1
		s.active[pos] = s.active[last]
		s.slot[s.active[pos]] = pos
		s.active = s.active[:last]
		s.slot[e.ID] = -1
	}
	return out
}
