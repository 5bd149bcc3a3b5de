package config

import "liftctl/host/serial"

// Authority modes
const (
	AuthoritySingle = "single"
	AuthorityDual   = "dual"
)

// Input modes
const (
	InputButton = "button"
	InputAxis   = "axis"
)

// Pacer kinds
const (
	PacerSleep  = "sleep"
	PacerTicker = "ticker"
)

// Motor kinds
const (
	MotorBoard   = "board"
	MotorPCA9685 = "pca9685"
)

// Limit switch sources
const (
	LimitBoard  = "board"
	LimitStatic = "static"
)

// OperatorConfig describes one operator pendant
type OperatorConfig struct {
	Serial       *serial.Config `json:"serial" yaml:"serial"`
	StaleAfterMS int            `json:"stale_after_ms" yaml:"stale_after_ms"`
}

// MotorConfig describes the motor output
type MotorConfig struct {
	Kind string `json:"kind" yaml:"kind"` // "board" or "pca9685"

	// Motor board link (kind "board")
	Serial *serial.Config `json:"serial" yaml:"serial"`

	// PCA9685 output (kind "pca9685")
	I2CBus     int   `json:"i2c_bus" yaml:"i2c_bus"`
	I2CAddress uint8 `json:"i2c_address" yaml:"i2c_address"`
	Channel    uint8 `json:"channel" yaml:"channel"`

	Invert bool `json:"invert" yaml:"invert"`
}

// LimitConfig describes where the limit switch is read from
type LimitConfig struct {
	Source string `json:"source" yaml:"source"` // "board" or "static"
	Invert bool   `json:"invert" yaml:"invert"`

	// Level reported by a static switch
	Active bool `json:"active" yaml:"active"`

	// Consecutive agreeing reads before a level change is accepted.
	// 0 or 1 reads the switch directly.
	SampleCount uint8 `json:"sample_count" yaml:"sample_count"`
}

// LiftConfig is the complete configuration of one lift mechanism
type LiftConfig struct {
	Name string `json:"name" yaml:"name"`

	Authority string `json:"authority" yaml:"authority"` // "single" or "dual"
	Input     string `json:"input" yaml:"input"`         // "button" or "axis"

	UpID   int `json:"up_id" yaml:"up_id"`
	DownID int `json:"down_id" yaml:"down_id"`

	DefaultSpeed     float64 `json:"default_speed" yaml:"default_speed"`
	UpAxisPositive   bool    `json:"up_axis_positive" yaml:"up_axis_positive"`
	DownAxisPositive bool    `json:"down_axis_positive" yaml:"down_axis_positive"`

	PollPeriodMS int    `json:"poll_period_ms" yaml:"poll_period_ms"`
	Pacer        string `json:"pacer" yaml:"pacer"` // "sleep" or "ticker"

	Primary   OperatorConfig  `json:"primary" yaml:"primary"`
	Secondary *OperatorConfig `json:"secondary,omitempty" yaml:"secondary,omitempty"`

	// Secondary pendant button that hands authority to the secondary
	// operator. 0 disables hand-off.
	HandOffButton int `json:"hand_off_button" yaml:"hand_off_button"`

	Motor MotorConfig `json:"motor" yaml:"motor"`
	Limit LimitConfig `json:"limit" yaml:"limit"`

	Debug bool `json:"debug" yaml:"debug"`
}
