package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/verletsim/internal/runner"
	"github.com/san-kum/verletsim/internal/solver"
)

var ErrRunNotFound = errors.New("storage: run not found")

const (
	metadataFile = "metadata.json"
	snapshotFile = "snapshot.bin"
	colorsFile   = "colors.bin"
	statesFile   = "states.csv"
)

var stateHeader = []string{"frame", "time", "count", "kinetic", "potential", "sleeping", "contacts"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

// RunInfo describes how a run was configured.
type RunInfo struct {
	Name     string
	Seed     int64
	Dt       float64
	Duration float64
}

type RunMetadata struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Timestamp       time.Time          `json:"timestamp"`
	Seed            int64              `json:"seed"`
	Dt              float64            `json:"dt"`
	Duration        float64            `json:"duration"`
	Frames          int                `json:"frames"`
	Particles       int                `json:"particles"`
	BroadPhase      string             `json:"broadphase"`
	ContainerRadius float64            `json:"container_radius"`
	Subdivision     int                `json:"subdivision"`
	ElapsedSeconds  float64            `json:"elapsed_seconds"`
	Metrics         map[string]float64 `json:"metrics"`
}

// Save writes a run directory holding the metadata, the solver snapshot,
// its colours and the sampled history.
func (s *Store) Save(info RunInfo, sol *solver.Solver, result *runner.Result) (string, error) {
	if info.Name == "" {
		info.Name = "run"
	}
	runID, runDir, err := s.newRunDir(info.Name)
	if err != nil {
		return "", err
	}

	opts := sol.Options()
	meta := RunMetadata{
		ID:              runID,
		Name:            info.Name,
		Timestamp:       time.Now(),
		Seed:            info.Seed,
		Dt:              info.Dt,
		Duration:        info.Duration,
		Particles:       sol.Len(),
		BroadPhase:      opts.BroadPhase.String(),
		ContainerRadius: opts.ContainerRadius,
		Subdivision:     opts.Subdivision,
		Metrics:         map[string]float64{},
	}
	var samples []runner.Sample
	if result != nil {
		meta.Frames = result.Frames
		meta.ElapsedSeconds = result.Elapsed.Seconds()
		if result.Metrics != nil {
			meta.Metrics = result.Metrics
		}
		samples = result.Samples
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := sol.SaveFile(filepath.Join(runDir, snapshotFile)); err != nil {
		return "", err
	}
	if err := sol.SaveColors(filepath.Join(runDir, colorsFile)); err != nil {
		return "", err
	}
	if err := writeStates(filepath.Join(runDir, statesFile), samples); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) newRunDir(name string) (string, string, error) {
	if err := s.Init(); err != nil {
		return "", "", err
	}
	base := fmt.Sprintf("%s_%d", name, time.Now().Unix())
	runID := base
	for i := 2; ; i++ {
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if !os.IsExist(err) {
			return "", "", err
		}
		runID = fmt.Sprintf("%s_%d", base, i)
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeStates(path string, samples []runner.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(stateHeader); err != nil {
		return err
	}
	for _, smp := range samples {
		row := []string{
			strconv.Itoa(smp.Frame),
			strconv.FormatFloat(smp.Time, 'f', 6, 64),
			strconv.Itoa(smp.Count),
			strconv.FormatFloat(smp.Kinetic, 'f', 6, 64),
			strconv.FormatFloat(smp.Potential, 'f', 6, 64),
			strconv.Itoa(smp.Sleeping),
			strconv.Itoa(smp.Contacts),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(s.path(runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata for %s: %w", runID, err)
	}
	return &meta, nil
}

// Latest returns the most recent run.
func (s *Store) Latest() (*RunMetadata, error) {
	runs, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("%w: no runs in %s", ErrRunNotFound, s.baseDir)
	}
	return &runs[len(runs)-1], nil
}

// LoadSolver rebuilds the solver saved with a run, colours included.
func (s *Store) LoadSolver(runID string) (*solver.Solver, error) {
	if _, err := s.Load(runID); err != nil {
		return nil, err
	}
	return solver.LoadFile(s.path(runID, snapshotFile))
}

func (s *Store) SnapshotPath(runID string) string { return s.path(runID, snapshotFile) }
func (s *Store) ColorsPath(runID string) string   { return s.path(runID, colorsFile) }

// SaveSnapshot overwrites the snapshot and colours of an existing run.
func (s *Store) SaveSnapshot(runID string, sol *solver.Solver) error {
	if _, err := s.Load(runID); err != nil {
		return err
	}
	if err := sol.SaveFile(s.SnapshotPath(runID)); err != nil {
		return err
	}
	return sol.SaveColors(s.ColorsPath(runID))
}

func (s *Store) LoadStates(runID string) ([]runner.Sample, error) {
	file, err := os.Open(s.path(runID, statesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []runner.Sample{}, nil
	}

	samples := make([]runner.Sample, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < len(stateHeader) {
			continue
		}
		smp, err := parseSample(record)
		if err != nil {
			continue
		}
		samples = append(samples, smp)
	}
	return samples, nil
}

func parseSample(record []string) (runner.Sample, error) {
	var smp runner.Sample
	var err error
	ints := []*int{&smp.Frame, &smp.Count, &smp.Sleeping, &smp.Contacts}
	intCols := []int{0, 2, 5, 6}
	for i, col := range intCols {
		if *ints[i], err = strconv.Atoi(record[col]); err != nil {
			return smp, err
		}
	}
	floats := []*float64{&smp.Time, &smp.Kinetic, &smp.Potential}
	floatCols := []int{1, 3, 4}
	for i, col := range floatCols {
		if *floats[i], err = strconv.ParseFloat(record[col], 64); err != nil {
			return smp, err
		}
	}
	return smp, nil
}

func (s *Store) path(runID, name string) string {
	return filepath.Join(s.baseDir, runID, name)
}
