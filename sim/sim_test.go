package sim

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liftctl/core"
)

type fastPacer struct{}

func (fastPacer) Delay(time.Duration) {
	time.Sleep(100 * time.Microsecond)
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func press(m tea.Model, keys ...rune) tea.Model {
	for _, r := range keys {
		m, _ = m.Update(key(r))
	}
	return m
}

func runLift(t *testing.T, s *Sim) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Lift.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func commandIs(s *Sim, want float64) func() bool {
	return func() bool { return s.Motor.Command() == want }
}

func TestKeyboardHold(t *testing.T) {
	now := time.Unix(100, 0)
	k := NewKeyboard()
	k.now = func() time.Time { return now }

	assert.False(t, k.RawButton(1))
	k.Press(1)
	assert.True(t, k.RawButton(1))

	now = now.Add(DefaultHoldFor)
	assert.True(t, k.RawButton(1))
	now = now.Add(time.Millisecond)
	assert.False(t, k.RawButton(1))
}

func TestKeyboardAxes(t *testing.T) {
	k := NewKeyboard()
	for i := 0; i < 6; i++ {
		k.Nudge(0, AxisStep)
	}
	assert.Equal(t, 1.0, k.RawAxis(0))
	assert.Equal(t, -0.25, k.Nudge(1, -AxisStep))

	k.Press(3)
	k.Center()
	assert.Equal(t, 0.0, k.RawAxis(0))
	assert.Equal(t, 0.0, k.RawAxis(1))
	assert.False(t, k.RawButton(3))
}

func TestSwitchToggle(t *testing.T) {
	var s Switch
	assert.False(t, s.Read())
	assert.True(t, s.Toggle())
	assert.True(t, s.Read())
	assert.False(t, s.Toggle())
}

func TestButtonSim(t *testing.T) {
	s := New(Options{Input: core.InputButton, Authority: core.AuthoritySingle, DefaultSpeed: 0.8, Pacer: fastPacer{}})
	runLift(t, s)
	var m tea.Model = NewModel(s)

	m = press(m, 'w')
	require.Eventually(t, commandIs(s, core.LimitedSpeed), time.Second, time.Millisecond)

	m = press(m, 'l')
	require.Eventually(t, commandIs(s, 0.8), time.Second, time.Millisecond)

	s.Primary.Center()
	m = press(m, 's')
	require.Eventually(t, commandIs(s, -0.8), time.Second, time.Millisecond)

	assert.Contains(t, m.View(), "closed")
}

func TestAxisSim(t *testing.T) {
	s := New(Options{Input: core.InputAxis, Authority: core.AuthoritySingle, Pacer: fastPacer{}})
	s.Limit.Set(true)
	runLift(t, s)
	var m tea.Model = NewModel(s)

	// One step stays outside the deadzone
	m = press(m, 'w')
	require.Eventually(t, commandIs(s, AxisStep), time.Second, time.Millisecond)
	assert.Contains(t, m.View(), "stick fwd")

	m = press(m, 's', 's')
	require.Eventually(t, commandIs(s, AxisStep-2*AxisStep), time.Second, time.Millisecond)

	m = press(m, ' ')
	require.Eventually(t, commandIs(s, 0), time.Second, time.Millisecond)
}

func TestDualSimHandOff(t *testing.T) {
	s := New(Options{Input: core.InputButton, Authority: core.AuthorityDual, DefaultSpeed: 1, Pacer: fastPacer{}})
	require.NotNil(t, s.Secondary)
	runLift(t, s)
	var m tea.Model = NewModel(s)

	// Secondary is ignored until the primary hands off
	m = press(m, 'i')
	assert.Never(t, func() bool { return s.Motor.Command() != 0 }, 50*time.Millisecond, time.Millisecond)

	m = press(m, 'h')
	assert.Equal(t, core.HeldBySecondary, s.Order.State())
	require.Eventually(t, commandIs(s, core.LimitedSpeed), time.Second, time.Millisecond)
	assert.Contains(t, m.View(), "holder  secondary")

	// A primary press traps authority back
	s.Secondary.Center()
	m = press(m, 's')
	require.Eventually(t, commandIs(s, -core.LimitedSpeed), time.Second, time.Millisecond)
	assert.Equal(t, core.HeldByPrimary, s.Order.State())
}

func TestQuitStopsLift(t *testing.T) {
	s := New(Options{Input: core.InputButton, Authority: core.AuthoritySingle, Pacer: fastPacer{}})
	runLift(t, s)
	var m tea.Model = NewModel(s)

	m = press(m, 'w')
	require.Eventually(t, commandIs(s, core.LimitedSpeed), time.Second, time.Millisecond)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.False(t, s.Lift.IsRunning())
	assert.Equal(t, 0.0, s.Motor.Command())
	assert.Contains(t, m.View(), "stopped")
}

func TestFramesIntegrateHeight(t *testing.T) {
	s := New(Options{Input: core.InputButton, Authority: core.AuthoritySingle})
	var m tea.Model = NewModel(s)

	start := time.Unix(0, 0)
	m, cmd := m.Update(frameMsg(start))
	assert.NotNil(t, cmd)
	assert.Equal(t, 0.0, m.(Model).Height)

	s.Motor.SetCommand(1)
	m, _ = m.Update(frameMsg(start.Add(2 * time.Second)))
	assert.InDelta(t, 2*TravelPerSecond, m.(Model).Height, 1e-9)

	s.Motor.SetCommand(-1)
	m, _ = m.Update(frameMsg(start.Add(10 * time.Second)))
	assert.Equal(t, 0.0, m.(Model).Height, "height stops at the bottom")
}
