// Package mcu connects to the lift's motor controller board. The board
// takes motor_set frames and reports the limit switch with limit_state
// frames, so one connection serves as both the motor output and the limit
// switch input of the control loop.
package mcu

import (
	"fmt"
	"sync"
	"sync/atomic"

	"liftctl/core"
	"liftctl/host/serial"
	"liftctl/protocol"
)

// Board represents a connection to the motor controller board
type Board struct {
	link *protocol.Link

	// Invert flips the reported limit switch level, for switches wired
	// normally-closed
	Invert bool

	limitActive atomic.Bool
	limitSeen   atomic.Bool

	mu          sync.Mutex
	lastCommand float64
	sendErrors  int

	connected atomic.Bool
}

// NewBoard creates a new Board instance (not yet connected)
func NewBoard() *Board {
	return &Board{}
}

// Connect connects to the board via serial port
func (b *Board) Connect(device string) error {
	return b.ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig connects to the board with a custom serial config
func (b *Board) ConnectWithConfig(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open motor board: %w", err)
	}
	b.ConnectPort(port)
	return nil
}

// ConnectPort attaches the board to an already open port. Bytes left in
// the port from before the connection are discarded.
func (b *Board) ConnectPort(port serial.Port) {
	if err := port.Flush(); err != nil {
		core.DebugPrintln("[BOARD] flush: " + err.Error())
	}
	b.link = protocol.NewLink(port, b.handleMessage)
	b.connected.Store(true)
}

// Close closes the connection to the board
func (b *Board) Close() error {
	if !b.connected.Swap(false) {
		return nil
	}
	return b.link.Close()
}

// IsConnected returns whether the board is connected
func (b *Board) IsConnected() bool {
	return b.connected.Load()
}

// SetCommand sends a motor_set frame. Write failures are counted and
// logged, never returned; the next tick sends the command again.
func (b *Board) SetCommand(value float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastCommand = value
	if !b.connected.Load() {
		return
	}
	err := b.link.Send(func(output protocol.OutputBuffer) {
		protocol.EncodeMotorSet(output, value)
	})
	if err != nil {
		b.sendErrors++
		core.RecordTiming(core.EvtLinkError, 0, int32(b.sendErrors))
		core.DebugAsync("[MCU] motor_set failed: " + err.Error())
	}
}

// LastCommand returns the last command handed to SetCommand
func (b *Board) LastCommand() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastCommand
}

// SendErrors returns how many motor_set writes failed
func (b *Board) SendErrors() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sendErrors
}

// Read returns the limit switch state from the latest limit_state frame,
// after Invert. Until the board reports, the raw level is taken as low.
func (b *Board) Read() bool {
	return b.limitActive.Load() != b.Invert
}

// LimitReported returns whether any limit_state frame has arrived
func (b *Board) LimitReported() bool {
	return b.limitSeen.Load()
}

// Err returns the most recent link error
func (b *Board) Err() error {
	if b.link == nil {
		return nil
	}
	return b.link.Err()
}

// handleMessage handles frames from the board (reader goroutine)
func (b *Board) handleMessage(msgID uint16, data *[]byte) error {
	switch msgID {
	case protocol.MsgLimitState:
		active, err := protocol.DecodeLimitState(data)
		if err != nil {
			return err
		}
		b.limitActive.Store(active)
		b.limitSeen.Store(true)
		return nil
	default:
		return fmt.Errorf("%w: %d from motor board", protocol.ErrUnknownMessage, msgID)
	}
}
