package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidConfiguration is returned by Run when the authority and input
	// mode do not name one of the four supported tick procedures
	ErrInvalidConfiguration = errors.New("invalid lift configuration")

	// ErrStopped is returned by Run on a controller that was already stopped
	ErrStopped = errors.New("lift controller stopped")

	// ErrRunning is returned by Run while another Run is active
	ErrRunning = errors.New("lift controller already running")
)

// InputMode selects how operators command the lift
type InputMode int

const (
	InputButton InputMode = iota + 1
	InputAxis
)

func (m InputMode) String() string {
	switch m {
	case InputButton:
		return "button"
	case InputAxis:
		return "axis"
	default:
		return "invalid"
	}
}

// AuthorityMode selects single- or dual-operator control
type AuthorityMode int

const (
	AuthoritySingle AuthorityMode = iota + 1
	AuthorityDual
)

func (m AuthorityMode) String() string {
	switch m {
	case AuthoritySingle:
		return "single"
	case AuthorityDual:
		return "dual"
	default:
		return "invalid"
	}
}

const (
	// PollPeriod is the nominal delay between control ticks
	PollPeriod = 5 * time.Millisecond

	// LimitedSpeed is the fixed button-mode magnitude, and the axis-mode
	// scale factor, used while the limit switch reads inactive
	LimitedSpeed = 0.4
)

// LiftParams is the construction-time configuration of a lift controller
type LiftParams struct {
	InputMode     InputMode
	AuthorityMode AuthorityMode

	UpID   int // Up button or axis id
	DownID int // Down button or axis id

	// DefaultSpeed is the button-mode magnitude with the limit switch
	// active, in [0, 1]. Unused in axis mode.
	DefaultSpeed float64

	// Axis polarities. Recorded for the axis constructors; the axis tick
	// forces the up axis positive and the down axis negative regardless.
	UpAxisPositive   bool
	DownAxisPositive bool

	// PollPeriod overrides the default tick delay when non-zero
	PollPeriod time.Duration
}

// Controller run states
const (
	stateIdle int32 = iota
	stateRunning
	stateStopped
)

// LiftController runs the control loop for one lift mechanism
type LiftController struct {
	id     uuid.UUID
	params LiftParams

	driver OperatorInput // single-operator source
	order  *Authority    // dual-operator arbitration

	motor MotorOutput
	limit LimitSwitch
	pacer Pacer

	state atomic.Int32

	// writeMu serializes motor writes between the loop and Stop
	writeMu     sync.Mutex
	lastCommand float64
	tick        uint32
}

// NewLiftController creates a controller from explicit parameters. Exactly
// one of driver (single) or order (dual) is expected; Run reports a
// mismatch as ErrInvalidConfiguration.
func NewLiftController(p LiftParams, driver OperatorInput, order *Authority, motor MotorOutput, limit LimitSwitch) *LiftController {
	p.DefaultSpeed = clampSpeed(p.DefaultSpeed)
	if p.PollPeriod <= 0 {
		p.PollPeriod = PollPeriod
	}
	return &LiftController{
		id:     uuid.New(),
		params: p,
		driver: driver,
		order:  order,
		motor:  motor,
		limit:  limit,
		pacer:  SleepPacer{},
	}
}

// NewButtonLift creates a single-operator lift driven by two buttons
func NewButtonLift(driver OperatorInput, upButton, downButton int, defaultSpeed float64, motor MotorOutput, limit LimitSwitch) *LiftController {
	return NewLiftController(LiftParams{
		InputMode:     InputButton,
		AuthorityMode: AuthoritySingle,
		UpID:          upButton,
		DownID:        downButton,
		DefaultSpeed:  defaultSpeed,
	}, driver, nil, motor, limit)
}

// NewAxisLift creates a single-operator lift driven by two axes
func NewAxisLift(driver OperatorInput, upAxis, downAxis int, upPositive, downPositive bool, motor MotorOutput, limit LimitSwitch) *LiftController {
	return NewLiftController(LiftParams{
		InputMode:        InputAxis,
		AuthorityMode:    AuthoritySingle,
		UpID:             upAxis,
		DownID:           downAxis,
		UpAxisPositive:   upPositive,
		DownAxisPositive: downPositive,
	}, driver, nil, motor, limit)
}

// NewDualButtonLift creates a two-operator lift driven by buttons
func NewDualButtonLift(order *Authority, upButton, downButton int, defaultSpeed float64, motor MotorOutput, limit LimitSwitch) *LiftController {
	return NewLiftController(LiftParams{
		InputMode:     InputButton,
		AuthorityMode: AuthorityDual,
		UpID:          upButton,
		DownID:        downButton,
		DefaultSpeed:  defaultSpeed,
	}, nil, order, motor, limit)
}

// NewDualAxisLift creates a two-operator lift driven by axes
func NewDualAxisLift(order *Authority, upAxis, downAxis int, upPositive, downPositive bool, motor MotorOutput, limit LimitSwitch) *LiftController {
	return NewLiftController(LiftParams{
		InputMode:        InputAxis,
		AuthorityMode:    AuthorityDual,
		UpID:             upAxis,
		DownID:           downAxis,
		UpAxisPositive:   upPositive,
		DownAxisPositive: downPositive,
	}, nil, order, motor, limit)
}

// clampSpeed limits s to [-1, 1] and drops the sign
func clampSpeed(s float64) float64 {
	if s < -1 {
		s = -1
	} else if s > 1 {
		s = 1
	}
	return math.Abs(s)
}

// SetPacer replaces the tick pacer. Must be called before Run.
func (l *LiftController) SetPacer(p Pacer) {
	l.pacer = p
}

// ID returns the instance id used to tag debug output
func (l *LiftController) ID() uuid.UUID {
	return l.id
}

// Config returns the effective construction parameters
func (l *LiftController) Config() LiftParams {
	return l.params
}

// Authority returns the dual-operator arbitration, or nil in single mode
func (l *LiftController) Authority() *Authority {
	return l.order
}

// IsRunning returns whether the loop is active
func (l *LiftController) IsRunning() bool {
	return l.state.Load() == stateRunning
}

// LastCommand returns the most recent command written to the motor
func (l *LiftController) LastCommand() float64 {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	return l.lastCommand
}

// Run selects the tick procedure and runs the control loop until Stop is
// called or ctx is cancelled. Cancellation stops the controller exactly as
// Stop does and is reported as ctx.Err().
func (l *LiftController) Run(ctx context.Context) error {
	tick, err := l.tickProcedure()
	if err != nil {
		return err
	}

	if !l.state.CompareAndSwap(stateIdle, stateRunning) {
		if l.state.Load() == stateStopped {
			return ErrStopped
		}
		return ErrRunning
	}

	RecordTiming(EvtRunStart, 0, 0)
	RecordTiming(EvtMode, 0, int32(l.params.AuthorityMode)<<4|int32(l.params.InputMode))
	DebugAsync(fmt.Sprintf("[LIFT %s] run %s/%s", l.id, l.params.AuthorityMode, l.params.InputMode))

	for l.IsRunning() {
		if ctx.Err() != nil {
			l.Stop()
			return ctx.Err()
		}
		l.apply(tick())
		l.pacer.Delay(l.params.PollPeriod)
	}
	return nil
}

// Stop ends the loop and commands zero output immediately. Once Stop
// returns, the loop writes nothing further to the motor.
func (l *LiftController) Stop() {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.state.Store(stateStopped)
	l.motor.SetCommand(0)
	l.lastCommand = 0
	RecordTiming(EvtStop, l.tick, 0)
	DebugAsync(fmt.Sprintf("[LIFT %s] stop", l.id))
}

// apply writes one tick's command unless Stop won the race
func (l *LiftController) apply(cmd float64) {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	if l.state.Load() != stateRunning {
		return
	}
	l.tick++
	l.motor.SetCommand(cmd)
	if cmd != l.lastCommand {
		RecordTiming(EvtCommand, l.tick, int32(math.Round(cmd*1000)))
	}
	l.lastCommand = cmd
}

// tickProcedure picks one of the four control procedures
func (l *LiftController) tickProcedure() (func() float64, error) {
	p := l.params
	switch {
	case p.AuthorityMode == AuthorityDual && l.order != nil && p.InputMode == InputButton:
		return func() float64 { return l.buttonTick(l.order.ButtonPressed) }, nil
	case p.AuthorityMode == AuthorityDual && l.order != nil && p.InputMode == InputAxis:
		return func() float64 { return l.axisTick(l.order.Active()) }, nil
	case p.AuthorityMode == AuthoritySingle && l.driver != nil && p.InputMode == InputButton:
		return func() float64 { return l.buttonTick(l.driver.RawButton) }, nil
	case p.AuthorityMode == AuthoritySingle && l.driver != nil && p.InputMode == InputAxis:
		return func() float64 { return l.axisTick(l.driver) }, nil
	}
	return nil, fmt.Errorf("%w: authority=%s input=%s", ErrInvalidConfiguration, p.AuthorityMode, p.InputMode)
}

// buttonTick computes the command for button input. The limit switch reading
// active allows DefaultSpeed; inactive forces LimitedSpeed.
func (l *LiftController) buttonTick(pressed func(id int) bool) float64 {
	up := pressed(l.params.UpID)
	down := pressed(l.params.DownID)

	switch {
	case up && !down:
		if !l.limit.Read() {
			return LimitedSpeed
		}
		return l.params.DefaultSpeed
	case down && !up:
		if !l.limit.Read() {
			return -LimitedSpeed
		}
		return -l.params.DefaultSpeed
	}
	return 0
}

// axisTick computes the command for axis input. The limit switch reading
// active passes the composite through; inactive scales it by LimitedSpeed.
func (l *LiftController) axisTick(driver OperatorInput) float64 {
	value := FilterUnipolar(driver.RawAxis(l.params.UpID), DeadzoneHigh, DeadzoneLow, true) +
		FilterUnipolar(driver.RawAxis(l.params.DownID), DeadzoneHigh, DeadzoneLow, false)

	if !l.limit.Read() {
		return value * LimitedSpeed
	}
	return value
}
