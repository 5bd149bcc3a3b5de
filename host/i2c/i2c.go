// Package i2c exposes a Linux i2c-dev adapter as a drivers.I2C bus
package i2c

import (
	"errors"
	"fmt"
	"sync"
)

var ErrClosed = errors.New("i2c bus closed")

// deviceFile is the subset of an open i2c-dev node the bus uses
type deviceFile interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	setAddress(addr uint16) error
}

// Bus is one i2c-dev adapter. Transactions are serialized.
type Bus struct {
	mu      sync.Mutex
	dev     deviceFile
	current uint16
	haveCur bool
}

// Path returns the device node for adapter number
func Path(number int) string {
	return fmt.Sprintf("/dev/i2c-%d", number)
}

func newBus(dev deviceFile) *Bus {
	return &Bus{dev: dev}
}

// Tx writes w to the device at addr, then reads len(r) bytes into r
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dev == nil {
		return ErrClosed
	}

	if !b.haveCur || b.current != addr {
		if err := b.dev.setAddress(addr); err != nil {
			return fmt.Errorf("i2c: select 0x%02x: %w", addr, err)
		}
		b.current = addr
		b.haveCur = true
	}

	if len(w) > 0 {
		n, err := b.dev.Write(w)
		if err != nil {
			return fmt.Errorf("i2c: write 0x%02x: %w", addr, err)
		}
		if n != len(w) {
			return fmt.Errorf("i2c: short write 0x%02x: %d/%d bytes", addr, n, len(w))
		}
	}

	if len(r) > 0 {
		n, err := b.dev.Read(r)
		if err != nil {
			return fmt.Errorf("i2c: read 0x%02x: %w", addr, err)
		}
		if n != len(r) {
			return fmt.Errorf("i2c: short read 0x%02x: %d/%d bytes", addr, n, len(r))
		}
	}

	return nil
}

// Close releases the adapter
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dev == nil {
		return nil
	}
	err := b.dev.Close()
	b.dev = nil
	return err
}
