package core

import (
	"sync"
	"time"
)

// fakeOperator is an OperatorInput whose state tests can change while a loop
// is reading it
type fakeOperator struct {
	mu      sync.Mutex
	buttons map[int]bool
	axes    map[int]float64
	reads   int
}

func newFakeOperator() *fakeOperator {
	return &fakeOperator{
		buttons: make(map[int]bool),
		axes:    make(map[int]float64),
	}
}

func (f *fakeOperator) RawButton(id int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	return f.buttons[id]
}

func (f *fakeOperator) RawAxis(id int) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	return f.axes[id]
}

func (f *fakeOperator) press(id int, down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buttons[id] = down
}

func (f *fakeOperator) setAxis(id int, v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.axes[id] = v
}

func (f *fakeOperator) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// recordingMotor keeps every command written to it
type recordingMotor struct {
	mu       sync.Mutex
	commands []float64
}

func (m *recordingMotor) SetCommand(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = append(m.commands, v)
}

func (m *recordingMotor) snapshot() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]float64, len(m.commands))
	copy(out, m.commands)
	return out
}

func (m *recordingMotor) last() (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.commands) == 0 {
		return 0, false
	}
	return m.commands[len(m.commands)-1], true
}

// fakeSwitch is a LimitSwitch tests can flip
type fakeSwitch struct {
	mu     sync.Mutex
	active bool
}

func (s *fakeSwitch) Read() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *fakeSwitch) set(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

// yieldPacer keeps the loop spinning fast in tests
type yieldPacer struct{}

func (yieldPacer) Delay(time.Duration) {
	time.Sleep(100 * time.Microsecond)
}
