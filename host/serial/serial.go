// Package serial opens the serial ports the lift host talks through:
// operator pendants and the motor controller board.
package serial

import (
	"fmt"
	"io"
)

// Port represents a serial port. Tests substitute in-memory pipes.
type Port interface {
	io.ReadWriteCloser

	// Flush discards buffered data in both directions
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string `json:"device" yaml:"device"`

	// Baud rate
	Baud int `json:"baud" yaml:"baud"`

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int `json:"read_timeout_ms" yaml:"read_timeout_ms"`
}

// Pendants and the motor board default to 115200 baud
const DefaultBaud = 115200

// DefaultConfig returns a default configuration for device
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 50, // Lets the link reader notice Close promptly
	}
}

// Validate checks the fields Open needs
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if c.Device == "" {
		return fmt.Errorf("serial device not set")
	}
	if c.Baud <= 0 {
		return fmt.Errorf("invalid baud rate %d for %s", c.Baud, c.Device)
	}
	return nil
}
