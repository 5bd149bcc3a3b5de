package core

import "time"

// OperatorInput is a human input device (joystick, pendant) as seen by the
// control loop. Implementations return their best-effort last value; read
// failures are never reported to the loop.
type OperatorInput interface {
	// RawButton reports whether the button with the given id is held
	RawButton(id int) bool

	// RawAxis returns the axis deflection in [-1, 1]
	RawAxis(id int) float64
}

// MotorOutput is the speed controller driving the lift motor.
type MotorOutput interface {
	// SetCommand applies a signed command in [-1, 1].
	// Fire-and-forget, called once per tick.
	SetCommand(value float64)
}

// LimitSwitch is the binary safety sensor gating command magnitude.
type LimitSwitch interface {
	Read() bool
}

// Pacer provides the delay between control ticks.
type Pacer interface {
	Delay(d time.Duration)
}

// LimitSwitchFunc adapts a plain function to LimitSwitch
type LimitSwitchFunc func() bool

func (f LimitSwitchFunc) Read() bool {
	return f()
}

// MotorOutputFunc adapts a plain function to MotorOutput
type MotorOutputFunc func(value float64)

func (f MotorOutputFunc) SetCommand(value float64) {
	f(value)
}

// SleepPacer sleeps for the full delay after every tick. This is the
// cooperative pacing the loop uses by default.
type SleepPacer struct{}

func (SleepPacer) Delay(d time.Duration) {
	time.Sleep(d)
}

// TickerPacer aligns ticks to a periodic timer instead of sleeping a fixed
// delay. The ticker is created on the first Delay call and its period never
// changes afterwards. Not safe for use by more than one loop.
type TickerPacer struct {
	ticker *time.Ticker
}

func (p *TickerPacer) Delay(d time.Duration) {
	if p.ticker == nil {
		p.ticker = time.NewTicker(d)
	}
	<-p.ticker.C
}

// Stop releases the underlying ticker
func (p *TickerPacer) Stop() {
	if p.ticker != nil {
		p.ticker.Stop()
	}
}
