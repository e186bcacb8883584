package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/marel-k/fuselab/internal/dynamo"
	"github.com/marel-k/fuselab/internal/fusion"
	"github.com/marel-k/fuselab/internal/telemetry"
)

const (
	canvasWidth     = 46
	canvasHeight    = 16
	historyCapacity = 240
)

type TickMsg time.Time

// Model renders the fusion loop live: the true pendulum and the estimated
// one on the same canvas, with the angle histories charted beside them.
// Each UI tick drives exactly one loop tick, so pausing the view pauses
// the whole rig.
type Model struct {
	loop   *fusion.Loop
	period time.Duration

	running   bool
	last      telemetry.Record
	truthHist []float64
	estHist   []float64
	canvas    *Canvas
}

func NewModel(loop *fusion.Loop, period time.Duration) Model {
	return Model{
		loop:      loop,
		period:    period,
		running:   true,
		truthHist: make([]float64, 0, historyCapacity),
		estHist:   make([]float64, 0, historyCapacity),
		canvas:    NewCanvas(canvasWidth, canvasHeight),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(m.period, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		}
	case TickMsg:
		if m.running {
			m.last = m.loop.Step()
			m.truthHist = appendCapped(m.truthHist, m.last.TruthTheta)
			m.estHist = appendCapped(m.estHist, m.last.EstTheta)
		}
		return m, tea.Tick(m.period, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m Model) View() string {
	m.draw()

	var s strings.Builder
	s.WriteString(headerStyle.Render("PENDULUM FUSION") + "\n")
	if m.running {
		s.WriteString("RUNNING\n\n")
	} else {
		s.WriteString("PAUSED\n\n")
	}

	if len(m.truthHist) > 1 {
		chart := asciigraph.PlotMany(
			[][]float64{m.truthHist, m.estHist},
			asciigraph.Height(5),
			asciigraph.Width(34),
			asciigraph.Caption("theta: truth / estimate"),
		)
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	s.WriteString(labelStyle.Render("Tick") + valueStyle.Render(fmt.Sprintf("%d", m.loop.Ticks())) + "\n")
	s.WriteString(labelStyle.Render("Truth θ") + valueStyle.Render(fmt.Sprintf("%.3f rad", m.last.TruthTheta)) + "\n")
	s.WriteString(labelStyle.Render("Estimate θ") + valueStyle.Render(fmt.Sprintf("%.3f rad", m.last.EstTheta)) + "\n")
	s.WriteString(labelStyle.Render("Error") + valueStyle.Render(fmt.Sprintf("%.3f", m.errorNorm())) + "\n")
	s.WriteString(labelStyle.Render("Compute") + valueStyle.Render(fmt.Sprintf("%.3f ms", m.last.ComputeMs)) + "\n")
	if n := m.loop.Resets(); n > 0 {
		s.WriteString(labelStyle.Render("Resets") + resetStyle.Render(fmt.Sprintf("%d", n)) + "\n")
	} else {
		s.WriteString(labelStyle.Render("Resets") + valueStyle.Render("0") + "\n")
	}

	s.WriteString(helpStyle.Render("SP:Pause  Q:Quit\nsolid bob: truth   hollow bob: estimate"))

	statsView := statsStyle.Render(s.String())
	canvasView := canvasStyle.Render(m.canvas.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
}

// draw renders both pendulums from the pivot at the canvas top center.
func (m Model) draw() {
	m.canvas.Clear()

	cw := canvasWidth * 2
	px, py := cw/2, 6
	rod := 44.0

	tx := px + int(rod*math.Sin(m.last.TruthTheta))
	ty := py + int(rod*math.Cos(m.last.TruthTheta))
	m.canvas.Line(px, py, tx, ty)
	m.canvas.Dot(tx, ty)

	ex := px + int(rod*math.Sin(m.last.EstTheta))
	ey := py + int(rod*math.Cos(m.last.EstTheta))
	m.canvas.Line(px, py, ex, ey)
	m.canvas.Set(ex, ey)

	m.canvas.Dot(px, py)
}

// errorNorm is the Euclidean distance between the true state and the
// estimate over both components.
func (m Model) errorNorm() float64 {
	xTrue := m.loop.Truth()
	est := m.loop.Estimate()
	diff := make(dynamo.State, len(xTrue))
	for i := range diff {
		diff[i] = xTrue[i] - est.AtVec(i)
	}
	return diff.Norm()
}

func appendCapped(hist []float64, v float64) []float64 {
	hist = append(hist, v)
	if len(hist) > historyCapacity {
		hist = hist[1:]
	}
	return hist
}

// RunLive starts the bubbletea program around an assembled loop.
func RunLive(loop *fusion.Loop, period time.Duration) error {
	p := tea.NewProgram(NewModel(loop, period))
	_, err := p.Run()
	return err
}
