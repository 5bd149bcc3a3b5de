//go:build !linux

package i2c

import "errors"

// Open is only supported on Linux
func Open(number int) (*Bus, error) {
	return nil, errors.New("i2c: i2c-dev is only available on linux")
}
