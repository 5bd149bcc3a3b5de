// Package motor drives the lift's speed controller directly from the host
// through a PCA9685 PWM expander, for robots without a motor board.
package motor

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/pca9685"

	"liftctl/core"
)

const (
	// DefaultAddress is the PCA9685 address with all address pins low
	DefaultAddress = 0x40

	pwmSteps     = 4096
	channelCount = 16
)

// Speed controller pulse timing (RC servo convention)
const (
	PWMFrequency   = 50   // Hz
	PulseNeutralUS = 1500 // Stopped
	PulseRangeUS   = 500  // Full scale either side of neutral
)

var ErrNotConfigured = errors.New("pca9685 not configured")

// PCA9685Motor is a core.MotorOutput driving one PCA9685 channel
type PCA9685Motor struct {
	bus     drivers.I2C
	dev     pca9685.Dev
	Address uint8
	Channel uint8

	// Invert flips the command sign for motors wired in reverse
	Invert bool

	mu         sync.Mutex
	configured bool
	lastErr    error
	errors     int
}

// NewPCA9685Motor creates a motor on channel of the PCA9685 at address
func NewPCA9685Motor(bus drivers.I2C, address, channel uint8) *PCA9685Motor {
	return &PCA9685Motor{
		bus:     bus,
		dev:     pca9685.New(bus, address),
		Address: address,
		Channel: channel,
	}
}

// Configure sets the PWM period and leaves the output at neutral
func (m *PCA9685Motor) Configure() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Channel >= channelCount {
		return fmt.Errorf("pca9685: channel %d out of range", m.Channel)
	}

	period := uint64(time.Second / PWMFrequency)
	if err := m.dev.Configure(pca9685.PWMConfig{Period: period}); err != nil {
		return fmt.Errorf("pca9685 at 0x%02x: %w", m.Address, err)
	}

	m.configured = true
	return m.writeLocked(0)
}

// SetCommand implements core.MotorOutput. Bus errors are remembered and
// logged; the next tick writes again.
func (m *PCA9685Motor) SetCommand(value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.writeLocked(value); err != nil {
		m.lastErr = err
		m.errors++
		core.RecordTiming(core.EvtLinkError, 0, int32(m.errors))
		core.DebugAsync("[PCA9685] " + err.Error())
	}
}

// Err returns the last write error
func (m *PCA9685Motor) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *PCA9685Motor) writeLocked(value float64) error {
	if !m.configured {
		return ErrNotConfigured
	}
	if m.Invert {
		value = -value
	}
	off := PulseCounts(value)
	onL, _, _, _ := pca9685.LED(m.Channel)
	// ON at count 0, OFF after the pulse width
	w := []byte{onL, 0, 0, uint8(off & 0xFF), uint8(off >> 8)}
	return m.bus.Tx(uint16(m.Address), w, nil)
}

// PulseCounts converts a command in [-1, 1] into the PWM OFF count
func PulseCounts(value float64) uint16 {
	if value > 1 {
		value = 1
	} else if value < -1 {
		value = -1
	}
	us := PulseNeutralUS + value*PulseRangeUS
	periodUS := 1e6 / float64(PWMFrequency)
	return uint16(math.Round(us / periodUS * pwmSteps))
}
