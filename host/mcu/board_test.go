package mcu

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liftctl/protocol"
)

type pipePort struct {
	net.Conn
}

func (pipePort) Flush() error { return nil }

// fakeBoard is the device end of the link
func fakeBoard(t *testing.T) (*Board, *protocol.Link, <-chan float64) {
	t.Helper()
	hostEnd, deviceEnd := net.Pipe()

	commands := make(chan float64, 16)
	device := protocol.NewLink(deviceEnd, func(msgID uint16, data *[]byte) error {
		v, err := protocol.DecodeMotorSet(data)
		commands <- v
		return err
	})

	b := NewBoard()
	b.ConnectPort(pipePort{hostEnd})
	t.Cleanup(func() {
		b.Close()
		device.Close()
	})
	return b, device, commands
}

func TestBoardSendsMotorCommands(t *testing.T) {
	b, _, commands := fakeBoard(t)
	require.True(t, b.IsConnected())

	b.SetCommand(-0.4)
	select {
	case v := <-commands:
		assert.Equal(t, -0.4, v)
	case <-time.After(time.Second):
		t.Fatal("motor_set never arrived")
	}
	assert.Equal(t, -0.4, b.LastCommand())
	assert.Zero(t, b.SendErrors())
}

func TestBoardReportsLimitSwitch(t *testing.T) {
	b, device, _ := fakeBoard(t)
	assert.False(t, b.Read())
	assert.False(t, b.LimitReported())

	require.NoError(t, device.Send(func(output protocol.OutputBuffer) {
		protocol.EncodeLimitState(output, true)
	}))
	require.Eventually(t, b.Read, time.Second, time.Millisecond)
	assert.True(t, b.LimitReported())

	b.Invert = true
	assert.False(t, b.Read())
}

func TestBoardAfterClose(t *testing.T) {
	b, _, _ := fakeBoard(t)
	require.NoError(t, b.Close())
	assert.False(t, b.IsConnected())

	// Commands after close are remembered but not sent
	b.SetCommand(0.5)
	assert.Equal(t, 0.5, b.LastCommand())
	assert.Zero(t, b.SendErrors())
	assert.NoError(t, b.Close())
}

func TestBoardRejectsUnknownMessages(t *testing.T) {
	b := NewBoard()
	data := []byte{0x01}
	assert.ErrorIs(t, b.handleMessage(protocol.MsgPendantState, &data), protocol.ErrUnknownMessage)
}
