package viz

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/verletsim/internal/colorize"
	"github.com/san-kum/verletsim/internal/metrics"
	"github.com/san-kum/verletsim/internal/runner"
	"github.com/san-kum/verletsim/internal/solver"
	"github.com/san-kum/verletsim/internal/storage"
)

const (
	width           = 60
	height          = 30
	statsWidth      = 45
	historyCapacity = 600
	frameRate       = 60
)

type TickMsg time.Time

// Model holds the driven runner, the drawing buffers and the UI state.
type Model struct {
	runner *runner.Runner
	store  *storage.Store
	logger *log.Logger

	initial  []byte
	canvas   *Canvas
	running  bool
	lastTick time.Time
	alpha    float64
	energy   []float64
	runID    string
	status   string
}

// NewModel builds a view over r. The solver's current state is kept in
// memory as the reset point. store may be nil, in which case save and load
// are disabled.
func NewModel(r *runner.Runner, store *storage.Store, logger *log.Logger) (Model, error) {
	var buf bytes.Buffer
	if err := r.Solver().Save(&buf); err != nil {
		return Model{}, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return Model{
		runner:  r,
		store:   store,
		logger:  logger,
		initial: buf.Bytes(),
		canvas:  NewCanvas(width, height),
		running: true,
		energy:  make([]float64, 0, historyCapacity),
	}, nil
}

func (m Model) Init() tea.Cmd { return tick() }

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles input events and advances the simulation on ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
			m.lastTick = time.Time{}
		case "r":
			m.reset()
		case "s":
			m.save()
		case "l":
			m.load()
		case "c":
			if err := colorize.ApplyRainbow(m.runner.Solver()); err != nil {
				m.fail("rainbow", err)
			}
		}
	case tea.WindowSizeMsg:
		w, h := msg.Width-statsWidth-8, msg.Height-4
		if w > 0 && h > 0 {
			m.canvas = NewCanvas(w, h)
		}
	case TickMsg:
		m.advance(time.Time(msg))
		return m, tick()
	}
	return m, nil
}

func (m *Model) advance(now time.Time) {
	if !m.running {
		return
	}
	frameTime := m.runner.Dt()
	if !m.lastTick.IsZero() {
		frameTime = now.Sub(m.lastTick).Seconds()
	}
	m.lastTick = now

	var updates int
	updates, m.alpha = m.runner.Advance(frameTime)
	if updates > 0 {
		m.energy = append(m.energy, metrics.KineticEnergy(m.runner.Solver().Particles()))
		if len(m.energy) > historyCapacity {
			m.energy = m.energy[1:]
		}
	}
}

func (m *Model) reset() {
	fresh, err := solver.Load(bytes.NewReader(m.initial))
	if err != nil {
		m.fail("reset", err)
		return
	}
	m.runner.Solver().Close()
	m.runner.SetSolver(fresh)
	m.energy = m.energy[:0]
	m.alpha = 0
	m.status = "reset"
}

func (m *Model) save() {
	if m.store == nil {
		m.status = "no run store"
		return
	}
	s := m.runner.Solver()
	if m.runID != "" {
		if err := m.store.SaveSnapshot(m.runID, s); err == nil {
			m.status = "saved " + m.runID
			return
		}
	}
	id, err := m.store.Save(storage.RunInfo{Name: "live", Dt: m.runner.Dt(), Duration: s.Time()}, s, nil)
	if err != nil {
		m.fail("save", err)
		return
	}
	m.runID = id
	m.status = "saved " + id
	m.logger.Info("scene saved", "id", id, "particles", s.Len())
}

func (m *Model) load() {
	if m.store == nil {
		m.status = "no run store"
		return
	}
	id := m.runID
	if id == "" {
		latest, err := m.store.Latest()
		if err != nil {
			m.fail("load", err)
			return
		}
		id = latest.ID
	}
	if err := m.runner.Solver().Restore(m.store.SnapshotPath(id)); err != nil {
		m.fail("load", err)
		return
	}
	m.runID = id
	m.alpha = 0
	m.status = "loaded " + id
	m.logger.Info("scene loaded", "id", id, "particles", m.runner.Solver().Len())
}

func (m *Model) fail(action string, err error) {
	m.status = action + " failed"
	m.logger.Error(action+" failed", "err", err)
}

// Running reports whether ticks advance the simulation.
func (m Model) Running() bool  { return m.running }
func (m Model) Status() string { return m.status }
func (m Model) RunID() string  { return m.runID }

func (m *Model) draw() {
	s := m.runner.Solver()
	opts := s.Options()
	m.canvas.Clear()
	vp := NewViewport(m.canvas, opts.ContainerRadius)

	cx, cy := vp.Project(r2.Vec{})
	m.canvas.DrawCircle(cx, cy, vp.Scale(opts.ContainerRadius))

	ps := s.Particles()
	pos := s.InterpolatedPositions(m.alpha)
	for i := range ps {
		x, y := vp.Project(pos[i])
		m.canvas.FillDisk(x, y, vp.Scale(ps[i].Radius()), ps[i].Color())
	}
}

// View renders the canvas and the stats panel.
func (m Model) View() string {
	m.draw()
	s := m.runner.Solver()
	opts := s.Options()

	var b strings.Builder
	b.WriteString(headerStyle.Render("VERLET PARTICLES") + "\n")
	if m.running {
		b.WriteString(statusRunning.Render("RUNNING"))
	} else {
		b.WriteString(statusPaused.Render("PAUSED"))
	}
	if m.status != "" {
		b.WriteString("  " + valueStyle.Render(m.status))
	}
	b.WriteString("\n\n")

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		b.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	b.WriteString(row("Particles", fmt.Sprintf("%d", s.Len())))
	b.WriteString(row("Sleeping", fmt.Sprintf("%d", s.SleepingCount())))
	b.WriteString(row("Contacts", fmt.Sprintf("%d", s.Contacts())))
	b.WriteString(row("Time", fmt.Sprintf("%.2fs", s.Time())))
	b.WriteString(row("Frame", fmt.Sprintf("%d", m.runner.Frame())))
	b.WriteString(row("Broadphase", s.Kind().String()))
	b.WriteString(row("Substeps", fmt.Sprintf("%d", opts.Subdivision)))
	b.WriteString(row("Fill", FillBar(s.FillRatio(), opts.FullThreshold, 20)))

	b.WriteString(helpStyle.Render("─────────────────────\nSP:Pause R:Reset Q:Quit\nS:Save   L:Load  C:Rainbow"))

	canvasView := canvasStyle.Render(m.canvas.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(b.String()))
}
