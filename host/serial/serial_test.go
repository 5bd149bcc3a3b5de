package serial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyUSB0")
	assert.Equal(t, "/dev/ttyUSB0", cfg.Device)
	assert.Equal(t, DefaultBaud, cfg.Baud)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	var nilCfg *Config
	assert.Error(t, nilCfg.Validate())
	assert.Error(t, (&Config{Baud: 9600}).Validate())
	assert.Error(t, (&Config{Device: "/dev/ttyS0"}).Validate())
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	_, err := Open(&Config{})
	assert.Error(t, err)
}
