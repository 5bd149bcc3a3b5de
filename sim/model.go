package sim

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"liftctl/core"
)

// Frame is the refresh period of the TUI
const Frame = 50 * time.Millisecond

// TravelPerSecond is how much of the full travel the lift covers in one
// second at full command
const TravelPerSecond = 0.25

const barWidth = 40

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	idleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

type frameMsg time.Time

func nextFrame() tea.Cmd {
	return tea.Tick(Frame, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// Model is the bubbletea model of the simulator. It turns key presses
// into operator input and integrates motor commands into lift height.
type Model struct {
	sim *Sim

	// Height is the lift position in [0, 1]
	Height float64
	last   time.Time

	quitting bool
}

// NewModel creates the TUI for s
func NewModel(s *Sim) Model {
	return Model{sim: s}
}

// Init implements tea.Model interface.
func (m Model) Init() tea.Cmd {
	return nextFrame()
}

// Update implements tea.Model interface.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case frameMsg:
		t := time.Time(msg)
		if !m.last.IsZero() {
			m.Height += m.sim.Motor.Command() * TravelPerSecond * t.Sub(m.last).Seconds()
			m.Height = min(max(m.Height, 0), 1)
		}
		m.last = t
		if m.quitting {
			return m, nil
		}
		return m, nextFrame()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.sim
	switch msg.String() {
	case "ctrl+c", "q":
		s.Lift.Stop()
		m.quitting = true
		return m, tea.Quit
	case "w":
		s.up(s.Primary)
	case "s":
		s.down(s.Primary)
	case "i":
		if s.Secondary != nil {
			s.up(s.Secondary)
		}
	case "k":
		if s.Secondary != nil {
			s.down(s.Secondary)
		}
	case "h":
		if s.Order != nil {
			s.Order.Release()
		}
	case "l":
		s.Limit.Toggle()
	case " ":
		s.Primary.Center()
		if s.Secondary != nil {
			s.Secondary.Center()
		}
	}
	return m, nil
}

// View implements tea.Model interface.
func (m Model) View() string {
	s := m.sim
	cfg := s.Lift.Config()
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Lift %s  %s/%s", s.Lift.ID(), cfg.AuthorityMode, cfg.InputMode)))
	b.WriteString("\n\n")

	filled := int(m.Height*barWidth + 0.5)
	b.WriteString(fmt.Sprintf("height  [%s%s] %3.0f%%\n",
		strings.Repeat("#", filled), strings.Repeat(".", barWidth-filled), m.Height*100))

	cmd := s.Motor.Command()
	cmdStyle := idleStyle
	if cmd != 0 {
		cmdStyle = activeStyle
	}
	b.WriteString("command " + cmdStyle.Render(fmt.Sprintf("%+.2f", cmd)) + "\n")

	limit := idleStyle.Render("open")
	if s.Limit.Read() {
		limit = activeStyle.Render("closed")
	} else {
		limit += warnStyle.Render(fmt.Sprintf("  (limited to %.1f)", core.LimitedSpeed))
	}
	b.WriteString("limit   " + limit + "\n")

	if s.Order != nil {
		b.WriteString(fmt.Sprintf("holder  %s\n", s.Order.State()))
	}

	if cfg.InputMode == core.InputAxis {
		b.WriteString(axisLine("primary", s.Primary))
		if s.Secondary != nil {
			b.WriteString(axisLine("second", s.Secondary))
		}
	}

	if !s.Lift.IsRunning() {
		b.WriteString(warnStyle.Render("stopped") + "\n")
	}

	b.WriteString("\n")
	help := "w/s up/down  l limit  space center  q quit"
	if s.Secondary != nil {
		help = "w/s primary  i/k secondary  h hand off  l limit  space center  q quit"
	}
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

// axisLine shows both axes of an operator and which way the up stick is
// pushed
func axisLine(name string, k *Keyboard) string {
	up, down := k.RawAxis(UpAxis), k.RawAxis(DownAxis)
	dir := "-"
	switch {
	case core.AxisPressed(up, true):
		dir = "fwd"
	case core.AxisPressed(up, false):
		dir = "back"
	}
	return fmt.Sprintf("%-7s up %+.2f down %+.2f stick %s\n", name, up, down, dir)
}
