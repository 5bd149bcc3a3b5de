package motor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tinygo.org/x/drivers/pca9685"
)

// fakeBus records I2C writes
type fakeBus struct {
	writes [][]byte
	fail   error
}

// Tx records w; register reads return zeros
func (b *fakeBus) Tx(addr uint16, w, r []byte) error {
	if b.fail != nil {
		return b.fail
	}
	b.writes = append(b.writes, append([]byte(nil), w...))
	clear(r)
	return nil
}

func (b *fakeBus) last() []byte {
	return b.writes[len(b.writes)-1]
}

func TestPulseCounts(t *testing.T) {
	assert.Equal(t, uint16(307), PulseCounts(0))
	assert.Equal(t, uint16(410), PulseCounts(1))
	assert.Equal(t, uint16(205), PulseCounts(-1))
	assert.Equal(t, PulseCounts(1), PulseCounts(3))
}

func TestConfigure(t *testing.T) {
	bus := &fakeBus{}
	m := NewPCA9685Motor(bus, DefaultAddress, 2)
	require.NoError(t, m.Configure())

	// 20 ms period, with the driver's oscillator correction
	assert.Contains(t, bus.writes, []byte{pca9685.PRESCALE, 126})
	// Neutral pulse on channel 2
	assert.Equal(t, []byte{pca9685.LEDSTART + 8, 0, 0, 307 & 0xFF, 307 >> 8}, bus.last())
}

func TestConfigureBadChannel(t *testing.T) {
	m := NewPCA9685Motor(&fakeBus{}, DefaultAddress, 16)
	assert.Error(t, m.Configure())
}

func TestSetCommand(t *testing.T) {
	bus := &fakeBus{}
	m := NewPCA9685Motor(bus, DefaultAddress, 0)
	require.NoError(t, m.Configure())

	m.SetCommand(1)
	assert.Equal(t, []byte{pca9685.LEDSTART, 0, 0, 410 & 0xFF, 410 >> 8}, bus.last())

	m.Invert = true
	m.SetCommand(1)
	assert.Equal(t, []byte{pca9685.LEDSTART, 0, 0, 205, 0}, bus.last())
	assert.NoError(t, m.Err())
}

func TestSetCommandErrors(t *testing.T) {
	m := NewPCA9685Motor(&fakeBus{}, DefaultAddress, 0)
	m.SetCommand(0.5)
	assert.ErrorIs(t, m.Err(), ErrNotConfigured)

	bus := &fakeBus{}
	m = NewPCA9685Motor(bus, DefaultAddress, 0)
	require.NoError(t, m.Configure())
	bus.fail = errors.New("nack")
	m.SetCommand(0.5)
	assert.EqualError(t, m.Err(), "nack")
}
