// Package pendant reads operator pendants over a serial link. Each pendant
// streams pendant_state frames; the latest one answers the control loop's
// button and axis reads.
package pendant

import (
	"fmt"
	"sync"
	"time"

	"liftctl/core"
	"liftctl/host/serial"
	"liftctl/protocol"
)

// DefaultStaleAfter is how long a sample stays valid without a new frame
const DefaultStaleAfter = 250 * time.Millisecond

// Pendant is a core.OperatorInput fed by a serial pendant
type Pendant struct {
	Name string

	link *protocol.Link

	mu         sync.Mutex
	state      protocol.PendantState
	received   time.Time
	staleAfter time.Duration
	now        func() time.Time

	// Hand-off button, 0 when unused
	handOffID   int
	onHandOff   func()
	handOffHeld bool
}

// New creates a pendant that is not yet connected
func New(name string) *Pendant {
	return &Pendant{
		Name:       name,
		staleAfter: DefaultStaleAfter,
		now:        time.Now,
	}
}

// Open connects the pendant to a serial device
func (p *Pendant) Open(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("pendant %s: %w", p.Name, err)
	}
	p.Attach(port)
	return nil
}

// Attach connects the pendant to an already open port, discarding any
// stale input first
func (p *Pendant) Attach(port serial.Port) {
	if err := port.Flush(); err != nil {
		core.DebugPrintln("[PENDANT " + p.Name + "] flush: " + err.Error())
	}
	p.link = protocol.NewLink(port, p.handleMessage)
}

// Close closes the pendant link
func (p *Pendant) Close() error {
	if p.link == nil {
		return nil
	}
	return p.link.Close()
}

// SetStaleAfter changes how long a sample is trusted. Zero disables the
// check and the last sample is used forever.
func (p *Pendant) SetStaleAfter(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.staleAfter = d
}

// OnHandOff registers fn to be called on every press of button id. The
// secondary pendant uses this to hand lift authority to its operator.
func (p *Pendant) OnHandOff(id int, fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handOffID = id
	p.onHandOff = fn
}

// RawButton implements core.OperatorInput
func (p *Pendant) RawButton(id int) bool {
	s, ok := p.sample()
	return ok && s.Button(id)
}

// RawAxis implements core.OperatorInput
func (p *Pendant) RawAxis(id int) float64 {
	s, ok := p.sample()
	if !ok {
		return 0
	}
	return s.Axis(id)
}

// State returns the latest sample and whether it is still fresh
func (p *Pendant) State() (protocol.PendantState, bool) {
	return p.sample()
}

// sample returns the latest state, or false when there is none or it is
// stale. A silent pendant reads as released sticks and buttons.
func (p *Pendant) sample() (protocol.PendantState, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.received.IsZero() {
		return protocol.PendantState{}, false
	}
	if p.staleAfter > 0 && p.now().Sub(p.received) > p.staleAfter {
		return protocol.PendantState{}, false
	}
	return p.state, true
}

// Update stores a new sample as if it came over the link
func (p *Pendant) Update(s protocol.PendantState) {
	p.mu.Lock()
	p.state = s
	p.received = p.now()

	var fire func()
	if p.handOffID != 0 {
		held := s.Button(p.handOffID)
		if held && !p.handOffHeld {
			fire = p.onHandOff
		}
		p.handOffHeld = held
	}
	p.mu.Unlock()

	if fire != nil {
		core.DebugAsync("[PENDANT " + p.Name + "] hand-off")
		fire()
	}
}

// handleMessage handles frames from the pendant (reader goroutine)
func (p *Pendant) handleMessage(msgID uint16, data *[]byte) error {
	if msgID != protocol.MsgPendantState {
		return fmt.Errorf("%w: %d from pendant %s", protocol.ErrUnknownMessage, msgID, p.Name)
	}
	s, err := protocol.DecodePendantState(data)
	if err != nil {
		return err
	}
	p.Update(s)
	return nil
}
