package rig

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liftctl/config"
	"liftctl/core"
	"liftctl/host/serial"
	"liftctl/protocol"
)

// fakeHardware hands out pipe-backed serial ports and a recording I2C bus
type fakeHardware struct {
	t *testing.T

	mu       sync.Mutex
	devices  map[string]*protocol.Link
	closed   map[string]bool
	fail     map[string]error
	commands chan float64

	bus *fakeBus
}

func newFakeHardware(t *testing.T) *fakeHardware {
	return &fakeHardware{
		t:        t,
		devices:  make(map[string]*protocol.Link),
		closed:   make(map[string]bool),
		fail:     make(map[string]error),
		commands: make(chan float64, 256),
		bus:      &fakeBus{},
	}
}

type trackedPort struct {
	net.Conn
	name string
	hw   *fakeHardware
}

func (trackedPort) Flush() error { return nil }

func (p trackedPort) Close() error {
	p.hw.mu.Lock()
	p.hw.closed[p.name] = true
	p.hw.mu.Unlock()
	return p.Conn.Close()
}

func (h *fakeHardware) openSerial(cfg *serial.Config) (serial.Port, error) {
	if err := h.fail[cfg.Device]; err != nil {
		return nil, err
	}
	hostEnd, deviceEnd := net.Pipe()

	// The device end decodes motor_set frames; pendant devices never get any
	device := protocol.NewLink(deviceEnd, func(msgID uint16, data *[]byte) error {
		v, err := protocol.DecodeMotorSet(data)
		select {
		case h.commands <- v:
		default:
		}
		return err
	})
	h.t.Cleanup(func() { device.Close() })

	h.mu.Lock()
	h.devices[cfg.Device] = device
	h.mu.Unlock()
	return trackedPort{Conn: hostEnd, name: cfg.Device, hw: h}, nil
}

func (h *fakeHardware) device(name string) *protocol.Link {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.devices[name]
}

func (h *fakeHardware) isClosed(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed[name]
}

func (h *fakeHardware) openers() Openers {
	return Openers{
		Serial: h.openSerial,
		I2C: func(number int) (Bus, error) {
			h.bus.number = number
			return h.bus, nil
		},
	}
}

type fakeBus struct {
	mu     sync.Mutex
	number int
	writes [][]byte
	closed bool
}

func (b *fakeBus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes = append(b.writes, append([]byte(nil), w...))
	clear(r)
	return nil
}

func (b *fakeBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *fakeBus) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.writes)
}

func sendPendant(t *testing.T, device *protocol.Link, s protocol.PendantState) {
	t.Helper()
	require.NoError(t, device.Send(func(output protocol.OutputBuffer) {
		require.NoError(t, protocol.EncodePendantState(output, s))
	}))
}

func waitCommand(t *testing.T, commands <-chan float64, want float64) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case v := <-commands:
			if v == want {
				return
			}
		case <-deadline:
			t.Fatalf("motor never commanded %v", want)
		}
	}
}

func TestBuildBoardLift(t *testing.T) {
	hw := newFakeHardware(t)
	cfg := config.DefaultLiftConfig()

	r, err := BuildWith(cfg, hw.openers())
	require.NoError(t, err)

	require.NotNil(t, r.Board)
	assert.Nil(t, r.Motor)
	assert.Nil(t, r.Secondary)
	assert.Equal(t, core.InputButton, r.Lift.Config().InputMode)

	done := make(chan error, 1)
	go func() { done <- r.Lift.Run(context.Background()) }()

	// Up button with the limit switch released runs at the limited speed
	sendPendant(t, hw.device("/dev/ttyUSB0"), protocol.PendantState{Buttons: 1 << (cfg.UpID - 1)})
	waitCommand(t, hw.commands, core.LimitedSpeed)

	// Switch reported active: full default speed
	require.NoError(t, hw.device("/dev/ttyUSB1").Send(func(output protocol.OutputBuffer) {
		protocol.EncodeLimitState(output, true)
	}))
	waitCommand(t, hw.commands, 1.0)

	require.NoError(t, r.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}
	assert.True(t, hw.isClosed("/dev/ttyUSB0"))
	assert.True(t, hw.isClosed("/dev/ttyUSB1"))
}

func TestBuildDualPCA9685Lift(t *testing.T) {
	hw := newFakeHardware(t)
	cfg := &config.LiftConfig{
		Authority:     config.AuthorityDual,
		Input:         config.InputAxis,
		UpID:          0,
		DownID:        1,
		Pacer:         config.PacerTicker,
		Primary:       config.OperatorConfig{Serial: serial.DefaultConfig("/dev/ttyACM0")},
		Secondary:     &config.OperatorConfig{Serial: serial.DefaultConfig("/dev/ttyACM1")},
		HandOffButton: 6,
		Motor:         config.MotorConfig{Kind: config.MotorPCA9685, Channel: 3},
		Limit:         config.LimitConfig{Active: true},
	}
	data, err := yamlRoundTrip(cfg)
	require.NoError(t, err)

	r, err := BuildWith(data, hw.openers())
	require.NoError(t, err)

	require.NotNil(t, r.Motor)
	assert.Nil(t, r.Board)
	require.NotNil(t, r.Secondary)
	assert.Equal(t, 1, hw.bus.number)
	configured := hw.bus.count()
	assert.NotZero(t, configured)
	assert.Equal(t, core.AuthorityDual, r.Lift.Config().AuthorityMode)

	order := r.Lift.Authority()
	require.NotNil(t, order)
	sendPendant(t, hw.device("/dev/ttyACM1"), protocol.PendantState{Buttons: 1 << 5})
	require.Eventually(t, order.ReleaseState, time.Second, time.Millisecond)

	require.NoError(t, r.Close())
	assert.True(t, hw.bus.closed)
	assert.Equal(t, configured+1, hw.bus.count(), "stop writes neutral")
}

func TestBuildClosesOpenedDevicesOnError(t *testing.T) {
	hw := newFakeHardware(t)
	boom := errors.New("no such device")
	hw.fail["/dev/ttyUSB1"] = boom

	_, err := BuildWith(config.DefaultLiftConfig(), hw.openers())
	require.ErrorIs(t, err, boom)
	assert.True(t, hw.isClosed("/dev/ttyUSB0"))
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultLiftConfig()
	cfg.Input = "pedal"

	_, err := BuildWith(cfg, newFakeHardware(t).openers())
	assert.ErrorIs(t, err, core.ErrInvalidConfiguration)
}

func TestBuildOversampledLimit(t *testing.T) {
	hw := newFakeHardware(t)
	cfg := config.DefaultLiftConfig()
	cfg.Limit.SampleCount = 3

	r, err := BuildWith(cfg, hw.openers())
	require.NoError(t, err)
	defer r.Close()

	done := make(chan error, 1)
	go func() { done <- r.Lift.Run(context.Background()) }()
	defer func() { r.Lift.Stop(); <-done }()

	require.NoError(t, hw.device("/dev/ttyUSB1").Send(func(output protocol.OutputBuffer) {
		protocol.EncodeLimitState(output, true)
	}))
	sendPendant(t, hw.device("/dev/ttyUSB0"), protocol.PendantState{Buttons: 1 << (cfg.UpID - 1)})
	waitCommand(t, hw.commands, 1.0)
}

func TestStatic(t *testing.T) {
	assert.True(t, Static(true).Read())
	assert.False(t, Static(false).Read())
}
