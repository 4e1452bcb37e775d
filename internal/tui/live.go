package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vortexntnu/stonefish/internal/algebra"
	"github.com/vortexntnu/stonefish/internal/sim"
	"github.com/vortexntnu/stonefish/internal/viz"
)

const (
	canvasWidth  = 60
	canvasHeight = 20
	historyLen   = 120
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ffff"))

	canvasStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899")).
			Width(10)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	statusRunning = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	statusPaused = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffaa00"))

	keyHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666688")).
			Italic(true)

	graphStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ff88"))
)

type tickMsg time.Time

// Model is the live view: it owns a world, advances it on every tick
// and draws the linkage on a Braille canvas. The build function lets
// the reset key rebuild a fresh world from scratch.
type Model struct {
	build func() (*sim.World, error)
	world *sim.World
	cfg   sim.Config

	canvas  *viz.Canvas
	view    *viz.Viewport
	running bool
	err     error

	energyHist   []float64
	stepsPerTick int
}

func NewModel(build func() (*sim.World, error), cfg sim.Config) (*Model, error) {
	world, err := build()
	if err != nil {
		return nil, err
	}

	// tick at ~30 fps regardless of dt
	steps := int(1.0 / 30.0 / cfg.Dt)
	if steps < 1 {
		steps = 1
	}

	canvas := viz.NewCanvas(canvasWidth, canvasHeight)
	m := &Model{
		build:        build,
		world:        world,
		cfg:          cfg,
		canvas:       canvas,
		running:      true,
		stepsPerTick: steps,
	}
	m.fitViewport()
	return m, nil
}

func (m *Model) fitViewport() {
	minP := algebra.Vec3{X: -1, Y: -1}
	maxP := algebra.Vec3{X: 1, Y: 1}
	for _, tree := range m.world.Trees() {
		lo, hi := tree.AABB()
		minP = minP.Min(lo)
		maxP = maxP.Max(hi)
	}
	pad := maxP.Sub(minP).Norm() * 0.3
	m.view = viz.NewViewport(m.canvas, minP.X-pad, maxP.X+pad, minP.Y-pad, maxP.Y+pad)
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Init() tea.Cmd {
	return tick()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			world, err := m.build()
			if err != nil {
				m.err = err
				return m, tea.Quit
			}
			m.world = world
			m.energyHist = nil
			m.err = nil
			m.running = true
			m.fitViewport()
		}
		return m, nil

	case tickMsg:
		if m.running && m.err == nil {
			for i := 0; i < m.stepsPerTick; i++ {
				if err := m.world.Step(m.cfg); err != nil {
					m.err = err
					m.running = false
					break
				}
			}
			m.recordEnergy()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) recordEnergy() {
	total := 0.0
	for _, tree := range m.world.Trees() {
		mb := tree.Backend()
		total += mb.KineticEnergy() + mb.PotentialEnergy(m.cfg.Gravity)
	}
	m.energyHist = append(m.energyHist, total)
	if len(m.energyHist) > historyLen {
		m.energyHist = m.energyHist[1:]
	}
}

func (m *Model) draw() {
	m.canvas.Clear()
	for _, tree := range m.world.Trees() {
		points := make([]algebra.Vec3, 0, tree.LinkCount())
		for i := 0; i < tree.LinkCount(); i++ {
			tf, err := tree.LinkTransform(i)
			if err != nil {
				continue
			}
			points = append(points, tf.P)
		}
		m.view.DrawChain(points)
	}
}

func (m *Model) View() string {
	m.draw()

	var s strings.Builder
	names := make([]string, 0, len(m.world.Trees()))
	for _, tree := range m.world.Trees() {
		names = append(names, tree.Name())
	}
	s.WriteString(headerStyle.Render(strings.ToUpper(strings.Join(names, " + "))) + "\n")

	if m.err != nil {
		s.WriteString(fmt.Sprintf("solver error: %v\n", m.err))
	} else if m.running {
		s.WriteString(statusRunning.Render("RUNNING") + "\n")
	} else {
		s.WriteString(statusPaused.Render("PAUSED") + "\n")
	}

	s.WriteString(canvasStyle.Render(m.canvas.String()) + "\n")

	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs", m.world.Time())) + "\n")
	if len(m.energyHist) > 0 {
		e := m.energyHist[len(m.energyHist)-1]
		s.WriteString(labelStyle.Render("Energy") + valueStyle.Render(fmt.Sprintf("%.3f", e)) + "\n")
	}
	if len(m.energyHist) > 1 {
		s.WriteString(graphStyle.Render(viz.Sparkline(m.energyHist, "energy")) + "\n")
	}

	s.WriteString(keyHintStyle.Render("space pause  r reset  q quit") + "\n")
	return s.String()
}

// Run starts the program in the alternate screen.
func Run(build func() (*sim.World, error), cfg sim.Config) error {
	m, err := NewModel(build, cfg)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	if err == nil && m.err != nil {
		return m.err
	}
	return err
}
