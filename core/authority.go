package core

import "sync/atomic"

// AuthorityState identifies which operator currently holds command authority
type AuthorityState uint32

const (
	HeldByPrimary AuthorityState = iota
	HeldBySecondary
)

func (s AuthorityState) String() string {
	switch s {
	case HeldByPrimary:
		return "primary"
	case HeldBySecondary:
		return "secondary"
	default:
		return "unknown"
	}
}

// Snapshot is the button input sampled for one authority decision
type Snapshot struct {
	PrimaryPressed   bool
	SecondaryPressed bool
}

// Step is the authority transition function for button-style handoff.
// A primary press always counts and returns authority to the primary
// operator. A secondary press only counts while the secondary holds
// authority. Step never hands authority to the secondary.
func Step(s AuthorityState, snap Snapshot) (AuthorityState, bool) {
	if snap.PrimaryPressed {
		return HeldByPrimary, true
	}
	if snap.SecondaryPressed && s == HeldBySecondary {
		return s, true
	}
	return s, false
}

// Authority arbitrates between two operators sharing one lift.
//
// The control loop only ever moves authority back to the primary (Trap).
// Handing authority to the secondary is done by an outside collaborator
// through Release, e.g. a hand-off button on the secondary pendant.
type Authority struct {
	Primary   OperatorInput
	Secondary OperatorInput

	state atomic.Uint32
}

// NewAuthority creates an Authority held by the primary operator
func NewAuthority(primary, secondary OperatorInput) *Authority {
	return &Authority{
		Primary:   primary,
		Secondary: secondary,
	}
}

// State returns the current authority state
func (a *Authority) State() AuthorityState {
	return AuthorityState(a.state.Load())
}

// ReleaseState reports whether the secondary operator holds authority
func (a *Authority) ReleaseState() bool {
	return a.State() == HeldBySecondary
}

// Trap returns authority to the primary operator. Idempotent.
func (a *Authority) Trap() {
	if AuthorityState(a.state.Swap(uint32(HeldByPrimary))) == HeldBySecondary {
		RecordTiming(EvtTrap, 0, 0)
	}
}

// Release hands authority to the secondary operator
func (a *Authority) Release() {
	if AuthorityState(a.state.Swap(uint32(HeldBySecondary))) == HeldByPrimary {
		RecordTiming(EvtRelease, 0, 0)
	}
}

// ButtonPressed reports whether button id counts as pressed under the
// current authority. A primary press traps authority back to the primary
// in the same call.
func (a *Authority) ButtonPressed(id int) bool {
	snap := Snapshot{PrimaryPressed: a.Primary.RawButton(id)}
	if !snap.PrimaryPressed {
		snap.SecondaryPressed = a.Secondary.RawButton(id)
	}

	next, pressed := Step(a.State(), snap)
	if next == HeldByPrimary && snap.PrimaryPressed {
		a.Trap()
	}
	return pressed
}

// Active returns the operator whose axes drive the lift this tick.
// There is no per-axis override here: whoever holds authority drives.
func (a *Authority) Active() OperatorInput {
	if a.ReleaseState() {
		return a.Secondary
	}
	return a.Primary
}
