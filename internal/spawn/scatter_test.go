package spawn

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestScatterNoOverlapInsideContainer(t *testing.T) {
	const radius, container = 5.0, 100.0
	ps := Scatter(80, radius, container, 7)
	if len(ps) != 80 {
		t.Fatalf("expected 80 particles, got %d", len(ps))
	}
	for i := range ps {
		if d := r2.Norm(ps[i].Position()); d > container-radius+1e-9 {
			t.Errorf("particle %d outside the container: %f", i, d)
		}
		for j := i + 1; j < len(ps); j++ {
			if d := r2.Norm(r2.Sub(ps[i].Position(), ps[j].Position())); d < 2*radius {
				t.Errorf("particles %d and %d overlap: %f", i, j, d)
			}
		}
	}
}

func TestScatterDeterministic(t *testing.T) {
	a := Scatter(20, 4, 80, 3)
	b := Scatter(20, 4, 80, 3)
	for i := range a {
		if a[i].Position() != b[i].Position() {
			t.Fatalf("particle %d differs: %v vs %v", i, a[i].Position(), b[i].Position())
		}
	}
}

func TestScatterGivesUpWhenCrowded(t *testing.T) {
	ps := Scatter(500, 10, 50, 1)
	if len(ps) == 0 || len(ps) >= 500 {
		t.Errorf("expected a partial fill, got %d", len(ps))
	}
	if got := Scatter(3, 10, 5, 1); got != nil {
		t.Errorf("expected nothing when a particle cannot fit, got %d", len(got))
	}
}
