// Package tui is the terminal driver: a bubbletea program owning a pad
// and a simulator, steered with the mouse or arrow keys.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog/log"

	"github.com/san-kum/geostick/internal/joystick"
	"github.com/san-kum/geostick/internal/motion"
	"github.com/san-kum/geostick/internal/sim"
	"github.com/san-kum/geostick/internal/viz"
)

const (
	padCols = 24
	padRows = 12
	mapCols = 40

	// The pad panel's first content cell, behind the two header lines
	// and the panel border.
	padOriginX = 1
	padOriginY = 3

	frameInterval = 16 * time.Millisecond
	trackLen      = 600
	historyLen    = 80
	minMapSpan    = 2e-4
)

// tickMsg and frameMsg carry the generation they were scheduled for;
// anything older than the model's current generation is dropped. That
// is how a stopped session or a cancelled animation revokes its timer.
type tickMsg struct{ gen int }

type frameMsg struct {
	gen int
	at  time.Time
}

type Model struct {
	ctx  context.Context
	sim  *sim.Simulator
	pad  *joystick.Pad
	seed motion.LatLon

	gen       int
	running   bool
	animGen   int
	animating bool
	lastFrame time.Time

	track    []motion.LatLon
	speeds   []float64
	delay    time.Duration
	last     motion.GeoSample
	err      error
	quitting bool

	width, height int
}

// New starts a session at seed. The pad keeps its knob size and toggles
// from cfg but is resized to the terminal pane.
func New(ctx context.Context, s *sim.Simulator, cfg joystick.PadConfig, seed motion.LatLon) (Model, error) {
	def := joystick.DefaultPadConfig()
	cfg.Width, cfg.Height = padCols*2, padRows*4
	if cfg.KnobWidth <= 0 || cfg.KnobHeight <= 0 {
		cfg.KnobWidth, cfg.KnobHeight = def.KnobWidth, def.KnobHeight
	}
	m := Model{
		ctx:  ctx,
		sim:  s,
		pad:  joystick.NewPad(cfg),
		seed: seed,
	}
	if err := m.start(seed); err != nil {
		return m, err
	}
	return m, nil
}

func (m Model) Init() tea.Cmd {
	gen := m.gen
	return func() tea.Msg { return tickMsg{gen: gen} }
}

func (m *Model) start(pos motion.LatLon) error {
	if err := m.sim.Start(pos); err != nil {
		return err
	}
	m.sim.SetVector(m.pad.Last().Vector)
	m.gen++
	m.running = true
	m.err = nil
	m.track = append(m.track[:0], pos)
	m.speeds = m.speeds[:0]
	m.delay = 0
	return nil
}

// stop ends the session and persists its final position.
func (m *Model) stop() {
	if !m.running {
		return
	}
	m.running = false
	m.gen++
	if err := m.sim.Stop(m.ctx); err != nil {
		log.Warn().Err(err).Msg("stop session")
		m.err = err
	}
}

func scheduleTick(gen int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return tickMsg{gen: gen} })
}

func scheduleFrame(gen int) tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return frameMsg{gen: gen, at: t} })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tickMsg:
		return m.handleTick(msg)
	case frameMsg:
		return m.handleFrame(msg)
	}
	return m, nil
}

func (m Model) handleTick(msg tickMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.gen || !m.running {
		return m, nil
	}
	out, err := m.sim.Step(m.ctx)
	if err != nil {
		m.err = err
		m.running = false
		return m, nil
	}

	pos := m.sim.State().Position
	prev := m.track[len(m.track)-1]
	speed := 0.0
	if m.delay > 0 {
		speed = motion.Distance(prev, pos) / m.delay.Seconds()
	}
	m.track = appendCapped(m.track, pos, trackLen)
	m.speeds = appendCapped(m.speeds, speed, historyLen)
	m.last = out.GPS()
	m.delay = out.Delay
	return m, scheduleTick(m.gen, out.Delay)
}

func (m Model) handleFrame(msg frameMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.animGen || !m.animating {
		return m, nil
	}
	m.apply(m.pad.Advance(msg.at.Sub(m.lastFrame)))
	m.lastFrame = msg.at
	if m.pad.State() != joystick.Returning {
		m.animating = false
		return m, nil
	}
	return m, scheduleFrame(m.animGen)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.stop()
		m.quitting = true
		return m, tea.Quit
	case "up", "k", "w":
		return m.push(0, -1)
	case "down", "j", "s":
		return m.push(0, 1)
	case "left", "h", "a":
		return m.push(-1, 0)
	case "right", "l", "d":
		return m.push(1, 0)
	case " ", "space":
		knob := m.pad.Knob()
		return m.animate(m.pad.Release(knob.X, knob.Y))
	case "b":
		return m.animate(m.pad.SetSnapBack(!m.pad.SnapBack()))
	case "t":
		m.pad.SetMoveToTouch(!m.pad.MoveToTouch())
	case "p":
		if m.running {
			m.stop()
			return m, nil
		}
		if err := m.start(m.sim.State().Position); err != nil {
			m.err = err
			return m, nil
		}
		return m, m.Init()
	case "r":
		m.stop()
		if err := m.start(m.seed); err != nil {
			m.err = err
			return m, nil
		}
		return m, m.Init()
	}
	return m, nil
}

// push drives the knob to the edge of its travel in direction (dx, dy).
// Grabbing the knob where it is keeps the press tracking with
// move-to-touch off.
func (m Model) push(dx, dy float64) (tea.Model, tea.Cmd) {
	c, r := m.pad.Center(), m.pad.Radius()
	if m.pad.State() != joystick.Dragging {
		knob := m.pad.Knob()
		m.apply(m.pad.Press(knob.X, knob.Y))
	}
	return m.animate(m.pad.Move(c.X+dx*r, c.Y+dy*r))
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Button != tea.MouseButtonLeft && msg.Action != tea.MouseActionRelease {
		return m, nil
	}
	x := float64((msg.X-padOriginX)*2 + 1)
	y := float64((msg.Y-padOriginY)*4 + 2)
	switch msg.Action {
	case tea.MouseActionPress:
		return m.animate(m.pad.Press(x, y))
	case tea.MouseActionMotion:
		return m.animate(m.pad.Move(x, y))
	case tea.MouseActionRelease:
		return m.animate(m.pad.Release(x, y))
	}
	return m, nil
}

// animate applies r and starts the return animation when the pad has
// just entered it. Any animation in flight is superseded.
func (m Model) animate(r joystick.Result) (tea.Model, tea.Cmd) {
	m.apply(r)
	if m.pad.State() != joystick.Returning {
		m.animating = false
		return m, nil
	}
	if m.animating {
		return m, nil
	}
	m.animGen++
	m.animating = true
	m.lastFrame = time.Now()
	return m, scheduleFrame(m.animGen)
}

func (m *Model) apply(r joystick.Result) {
	if r.Moved {
		m.sim.SetVector(r.Update.Vector)
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder

	status := viz.StatusRunning.Render("● tracking")
	if !m.running {
		status = viz.StatusStopped.Render("○ stopped")
	}
	if m.err != nil {
		status = viz.StatusError.Render("✗ " + m.err.Error())
	}
	pos := m.sim.State().Position
	b.WriteString(fmt.Sprintf("%s  %s  %s\n",
		viz.GradientText("geostick", "#00ffff", "#ff00ff"), status,
		viz.MetricValue.Render(fmt.Sprintf("%.6f, %.6f", pos.Lat, pos.Lon))))

	v := m.pad.Last().Vector
	b.WriteString(fmt.Sprintf("%s %s  %s %s  %s %s  %s %s\n",
		viz.MetricLabel.Render("knob"), m.pad.State(),
		viz.MetricLabel.Render("vector"), fmt.Sprintf("(%+.2f, %+.2f)", v.X, v.Y),
		viz.MetricLabel.Render("snap-back"), onOff(m.pad.SnapBack()),
		viz.MetricLabel.Render("move-to-touch"), onOff(m.pad.MoveToTouch())))

	padCanvas := viz.NewCanvas(padCols, padRows)
	viz.DrawPad(padCanvas, m.pad)
	mapCanvas := viz.NewCanvas(mapCols, padRows)
	viz.DrawTrack(mapCanvas, m.track, minMapSpan)

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		viz.Panel.Render(strings.Join(padCanvas.Rows(), "\n")),
		viz.Panel.Render(strings.Join(mapCanvas.Rows(), "\n")),
	))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("%s %s  %s %s  %s %s  %s %d\n",
		viz.MetricLabel.Render("accuracy"), viz.MetricValue.Render(fmt.Sprintf("%.0fm", m.last.Accuracy)),
		viz.MetricLabel.Render("bearing"), viz.MetricValue.Render(fmt.Sprintf("%.0f°", m.last.Bearing)),
		viz.MetricLabel.Render("speed"), viz.MetricValue.Render(fmt.Sprintf("%.1fm/s", lastOr(m.speeds, 0))),
		viz.MetricLabel.Render("ticks"), m.sim.Ticks()))

	if len(m.speeds) > 1 {
		b.WriteString(asciigraph.Plot(m.speeds,
			asciigraph.Height(4),
			asciigraph.Width(padCols+mapCols),
			asciigraph.Precision(1),
			asciigraph.Caption("speed m/s")))
		b.WriteString("\n")
	}

	b.WriteString(viz.KeyHint.Render("drag or arrows move  space release  b snap-back  t move-to-touch  p pause  r reset  q quit"))
	b.WriteString("\n")
	return b.String()
}

func onOff(on bool) string {
	if on {
		return viz.StatusRunning.Render("on")
	}
	return viz.Subtle.Render("off")
}

func lastOr(xs []float64, def float64) float64 {
	if len(xs) == 0 {
		return def
	}
	return xs[len(xs)-1]
}

func appendCapped[T any](xs []T, x T, limit int) []T {
	xs = append(xs, x)
	if len(xs) > limit {
		xs = xs[len(xs)-limit:]
	}
	return xs
}

// Run starts the program and blocks until the user quits. The session is
// stopped, and its position persisted, on the way out.
func Run(ctx context.Context, s *sim.Simulator, cfg joystick.PadConfig, seed motion.LatLon) error {
	m, err := New(ctx, s, cfg, seed)
	if err != nil {
		return err
	}
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	if fm, ok := final.(Model); ok {
		fm.stop()
	}
	return err
}
