// Package sim runs the lift controller against keyboard operators and an
// in-memory motor and limit switch.
package sim

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultHoldFor bridges the gap before terminal key repeat starts
const DefaultHoldFor = 500 * time.Millisecond

// AxisStep is how far one key press moves a simulated axis
const AxisStep = 0.25

// Keyboard is a core.OperatorInput driven by key presses. Terminals do not
// report key releases, so a pressed button stays held for HoldFor after the
// last press. Axes keep their value until centered.
type Keyboard struct {
	HoldFor time.Duration

	mu   sync.Mutex
	held map[int]time.Time
	axes map[int]float64
	now  func() time.Time
}

func NewKeyboard() *Keyboard {
	return &Keyboard{
		HoldFor: DefaultHoldFor,
		held:    make(map[int]time.Time),
		axes:    make(map[int]float64),
		now:     time.Now,
	}
}

// Press holds button id
func (k *Keyboard) Press(id int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.held[id] = k.now().Add(k.HoldFor)
}

// Nudge moves axis id by delta, clamped to [-1, 1], and returns the result
func (k *Keyboard) Nudge(id int, delta float64) float64 {
	k.mu.Lock()
	defer k.mu.Unlock()

	v := k.axes[id] + delta
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	k.axes[id] = v
	return v
}

// Center releases every axis and button
func (k *Keyboard) Center() {
	k.mu.Lock()
	defer k.mu.Unlock()
	clear(k.axes)
	clear(k.held)
}

func (k *Keyboard) RawButton(id int) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	until, ok := k.held[id]
	return ok && !k.now().After(until)
}

func (k *Keyboard) RawAxis(id int) float64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.axes[id]
}

// Motor is an in-memory core.MotorOutput
type Motor struct {
	mu      sync.Mutex
	command float64
	writes  int
}

func (m *Motor) SetCommand(value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.command = value
	m.writes++
}

// Command returns the last command written
func (m *Motor) Command() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.command
}

// Writes returns how many commands have been written
func (m *Motor) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Switch is a limit switch toggled from the keyboard
type Switch struct {
	active atomic.Bool
}

func (s *Switch) Read() bool {
	return s.active.Load()
}

func (s *Switch) Set(active bool) {
	s.active.Store(active)
}

// Toggle flips the switch and returns the new level
func (s *Switch) Toggle() bool {
	for {
		v := s.active.Load()
		if s.active.CompareAndSwap(v, !v) {
			return !v
		}
	}
}
