//go:build linux

package i2c

import (
	"os"

	"golang.org/x/sys/unix"
)

// I2C_SLAVE ioctl from linux/i2c-dev.h
const ioctlSlave = 0x0703

type linuxDevice struct {
	*os.File
}

func (d linuxDevice) setAddress(addr uint16) error {
	return unix.IoctlSetInt(int(d.Fd()), ioctlSlave, int(addr))
}

// Open opens i2c-dev adapter number
func Open(number int) (*Bus, error) {
	f, err := os.OpenFile(Path(number), os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return newBus(linuxDevice{f}), nil
}
