package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/verletsim/internal/broadphase"
	"github.com/san-kum/verletsim/internal/metrics"
	"github.com/san-kum/verletsim/internal/particle"
	"github.com/san-kum/verletsim/internal/runner"
	"github.com/san-kum/verletsim/internal/solver"
)

func simulate(t *testing.T) (*solver.Solver, *runner.Result) {
	t.Helper()
	opts := solver.DefaultOptions()
	opts.BroadPhase = broadphase.Sweep
	s, err := solver.New(opts,
		particle.New(r2.Vec{X: -40}, 8),
		particle.New(r2.Vec{X: 40}, 8),
		particle.New(r2.Vec{Y: 60}, 6),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	if err := s.SetColors([]color.RGBA{{R: 255, A: 255}, {G: 255, A: 255}, {B: 255, A: 255}}); err != nil {
		t.Fatal(err)
	}

	r := runner.New(s, runner.WithLogger(log.New(io.Discard)), runner.WithSampleEvery(5), runner.WithMetrics(metrics.NewKinetic()))
	result, err := r.Run(context.Background(), 0.5)
	if err != nil {
		t.Fatal(err)
	}
	return s, result
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	s, result := simulate(t)

	runID, err := st.Save(RunInfo{Name: "test", Seed: 42, Dt: 1.0 / 60, Duration: 0.5}, s, result)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Name != "test" {
		t.Errorf("expected name 'test', got '%s'", meta.Name)
	}
	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.Particles != 3 || meta.Frames != 30 {
		t.Errorf("expected 3 particles over 30 frames, got %d over %d", meta.Particles, meta.Frames)
	}
	if meta.BroadPhase != "sweep" {
		t.Errorf("expected broadphase sweep, got %s", meta.BroadPhase)
	}
	if _, ok := meta.Metrics["kinetic_energy"]; !ok {
		t.Error("expected kinetic energy metric")
	}

	samples, err := st.LoadStates(runID)
	if err != nil {
		t.Fatalf("load states failed: %v", err)
	}
	if len(samples) != 6 {
		t.Errorf("expected 6 samples, got %d", len(samples))
	}
	if samples[len(samples)-1].Frame != 30 || samples[0].Count != 3 {
		t.Errorf("unexpected samples %+v", samples)
	}
}

func TestStoreLoadSolverReplays(t *testing.T) {
	st := New(t.TempDir())
	s, result := simulate(t)
	runID, err := st.Save(RunInfo{Name: "replay"}, s, result)
	if err != nil {
		t.Fatal(err)
	}

	loaded, err := st.LoadSolver(runID)
	if err != nil {
		t.Fatal(err)
	}
	defer loaded.Close()

	if got, want := loaded.Colors(), s.Colors(); len(got) != len(want) || got[2] != want[2] {
		t.Errorf("colours not restored: %v vs %v", got, want)
	}
	for i := 0; i < 20; i++ {
		s.Update(1.0 / 60)
		loaded.Update(1.0 / 60)
	}
	a, b := s.Positions(), loaded.Positions()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("particle %d diverged: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	s, result := simulate(t)
	first, err := st.Save(RunInfo{Name: "test"}, s, result)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	second, err := st.Save(RunInfo{Name: "test"}, s, nil)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if first == second {
		t.Errorf("run ids collided: %s", first)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}

	latest, err := st.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID != second {
		t.Errorf("expected latest %s, got %s", second, latest.ID)
	}
}

func TestStoreMissingRun(t *testing.T) {
	st := New(t.TempDir())

	if _, err := st.Load("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := st.LoadSolver("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := st.Latest(); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	s, result := simulate(t)

	runID, err := st.Save(RunInfo{Name: "test"}, s, result)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{"metadata.json", "snapshot.bin", "colors.bin", "states.csv"} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	s, result := simulate(t)
	runID, err := st.Save(RunInfo{Name: "export"}, s, result)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := st.ExportJSON(runID, &buf); err != nil {
		t.Fatal(err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if data.Run.ID != runID {
		t.Errorf("expected run %s, got %s", runID, data.Run.ID)
	}
	if len(data.Particles) != 3 {
		t.Fatalf("expected 3 particles, got %d", len(data.Particles))
	}
	if data.Particles[0].Color != "#ff0000" {
		t.Errorf("expected red first particle, got %s", data.Particles[0].Color)
	}
	if len(data.Samples) != 6 {
		t.Errorf("expected 6 samples, got %d", len(data.Samples))
	}

	path := filepath.Join(t.TempDir(), "out.json")
	if err := st.ExportJSONFile(runID, path); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("export file missing: %v", err)
	}
}
