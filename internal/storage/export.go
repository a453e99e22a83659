package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/san-kum/verletsim/internal/particle"
	"github.com/san-kum/verletsim/internal/runner"
)

type ParticleData struct {
	ID       int     `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	VX       float64 `json:"vx"`
	VY       float64 `json:"vy"`
	Radius   float64 `json:"radius"`
	Mass     float64 `json:"mass"`
	Color    string  `json:"color"`
	Sleeping bool    `json:"sleeping,omitempty"`
}

type ExportData struct {
	Run       RunMetadata     `json:"run"`
	Particles []ParticleData  `json:"particles"`
	Samples   []runner.Sample `json:"samples"`
}

// Particles converts particles into their JSON form.
func Particles(ps []particle.Particle) []ParticleData {
	out := make([]ParticleData, len(ps))
	for i := range ps {
		p := &ps[i]
		pos, vel, c := p.Position(), p.Velocity(), p.Color()
		out[i] = ParticleData{
			ID:       p.ID(),
			X:        pos.X,
			Y:        pos.Y,
			VX:       vel.X,
			VY:       vel.Y,
			Radius:   p.Radius(),
			Mass:     p.Mass(),
			Color:    fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B),
			Sleeping: p.Sleeping(),
		}
	}
	return out
}

// ExportJSON writes a run's metadata, final particle state and sampled
// history as one JSON document.
func (s *Store) ExportJSON(runID string, w io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	sol, err := s.LoadSolver(runID)
	if err != nil {
		return err
	}
	defer sol.Close()

	samples, err := s.LoadStates(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		Run:       *meta,
		Particles: Particles(sol.Particles()),
		Samples:   samples,
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func (s *Store) ExportJSONFile(runID, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.ExportJSON(runID, file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
