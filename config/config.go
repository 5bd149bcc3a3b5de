// Package config loads and validates lift configuration files
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"liftctl/core"
	"liftctl/host/motor"
	"liftctl/host/serial"
)

// LoadConfig parses a JSON configuration and applies defaults
func LoadConfig(jsonData []byte) (*LiftConfig, error) {
	var config LiftConfig

	if err := json.Unmarshal(jsonData, &config); err != nil {
		return nil, err
	}

	applyDefaults(&config)
	return &config, nil
}

// LoadYAML parses a YAML configuration and applies defaults
func LoadYAML(yamlData []byte) (*LiftConfig, error) {
	var config LiftConfig

	if err := yaml.Unmarshal(yamlData, &config); err != nil {
		return nil, err
	}

	applyDefaults(&config)
	return &config, nil
}

// LoadFile reads a configuration file. Files ending in .yaml or .yml are
// parsed as YAML, anything else as JSON.
func LoadFile(path string) (*LiftConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg *LiftConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = LoadYAML(data)
	default:
		cfg, err = LoadConfig(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// applyDefaults fills in missing configuration values
func applyDefaults(config *LiftConfig) {
	if config.Name == "" {
		config.Name = "lift"
	}
	if config.Authority == "" {
		config.Authority = AuthoritySingle
	}
	if config.Input == "" {
		config.Input = InputButton
	}
	if config.Input == InputButton && config.DefaultSpeed == 0 {
		config.DefaultSpeed = 1.0
	}
	if config.PollPeriodMS == 0 {
		config.PollPeriodMS = int(core.PollPeriod / time.Millisecond)
	}
	if config.Pacer == "" {
		config.Pacer = PacerSleep
	}

	applyOperatorDefaults(&config.Primary)
	if config.Secondary != nil {
		applyOperatorDefaults(config.Secondary)
	}

	if config.Motor.Kind == "" {
		config.Motor.Kind = MotorBoard
	}
	applySerialDefaults(config.Motor.Serial)
	if config.Motor.Kind == MotorPCA9685 {
		if config.Motor.I2CBus == 0 {
			config.Motor.I2CBus = 1
		}
		if config.Motor.I2CAddress == 0 {
			config.Motor.I2CAddress = motor.DefaultAddress
		}
	}

	if config.Limit.Source == "" {
		if config.Motor.Kind == MotorBoard {
			config.Limit.Source = LimitBoard
		} else {
			config.Limit.Source = LimitStatic
		}
	}
}

func applyOperatorDefaults(op *OperatorConfig) {
	applySerialDefaults(op.Serial)
	if op.StaleAfterMS == 0 {
		op.StaleAfterMS = 250
	}
}

func applySerialDefaults(c *serial.Config) {
	if c == nil {
		return
	}
	def := serial.DefaultConfig(c.Device)
	if c.Baud == 0 {
		c.Baud = def.Baud
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = def.ReadTimeout
	}
}

// Validate checks that the configuration names a runnable lift. Mode
// errors wrap core.ErrInvalidConfiguration.
func (c *LiftConfig) Validate() error {
	if _, err := c.Params(); err != nil {
		return err
	}

	if c.Primary.Serial == nil {
		return fmt.Errorf("%s: primary pendant has no serial port", c.Name)
	}
	if c.Authority == AuthorityDual && (c.Secondary == nil || c.Secondary.Serial == nil) {
		return fmt.Errorf("%w: %s: dual authority needs a secondary pendant", core.ErrInvalidConfiguration, c.Name)
	}
	if c.HandOffButton < 0 || c.HandOffButton > 32 {
		return fmt.Errorf("%s: hand-off button %d out of range", c.Name, c.HandOffButton)
	}
	if c.Input == InputButton && c.HandOffButton > 0 &&
		(c.HandOffButton == c.UpID || c.HandOffButton == c.DownID) {
		return fmt.Errorf("%s: hand-off button %d is also a travel button", c.Name, c.HandOffButton)
	}

	switch c.Pacer {
	case PacerSleep, PacerTicker:
	default:
		return fmt.Errorf("%s: unknown pacer %q", c.Name, c.Pacer)
	}

	switch c.Motor.Kind {
	case MotorBoard:
		if c.Motor.Serial == nil {
			return fmt.Errorf("%s: motor board has no serial port", c.Name)
		}
	case MotorPCA9685:
		if c.Motor.Channel >= 16 {
			return fmt.Errorf("%s: pca9685 channel %d out of range", c.Name, c.Motor.Channel)
		}
	default:
		return fmt.Errorf("%s: unknown motor kind %q", c.Name, c.Motor.Kind)
	}

	switch c.Limit.Source {
	case LimitBoard:
		if c.Motor.Kind != MotorBoard {
			return fmt.Errorf("%s: limit source %q needs a motor board", c.Name, c.Limit.Source)
		}
	case LimitStatic:
	default:
		return fmt.Errorf("%s: unknown limit source %q", c.Name, c.Limit.Source)
	}

	return nil
}

// Params converts the configuration into controller parameters
func (c *LiftConfig) Params() (core.LiftParams, error) {
	p := core.LiftParams{
		UpID:             c.UpID,
		DownID:           c.DownID,
		DefaultSpeed:     c.DefaultSpeed,
		UpAxisPositive:   c.UpAxisPositive,
		DownAxisPositive: c.DownAxisPositive,
		PollPeriod:       time.Duration(c.PollPeriodMS) * time.Millisecond,
	}

	switch c.Authority {
	case AuthoritySingle:
		p.AuthorityMode = core.AuthoritySingle
	case AuthorityDual:
		p.AuthorityMode = core.AuthorityDual
	default:
		return p, fmt.Errorf("%w: unknown authority mode %q", core.ErrInvalidConfiguration, c.Authority)
	}

	switch c.Input {
	case InputButton:
		p.InputMode = core.InputButton
	case InputAxis:
		p.InputMode = core.InputAxis
	default:
		return p, fmt.Errorf("%w: unknown input mode %q", core.ErrInvalidConfiguration, c.Input)
	}

	return p, nil
}

// StaleAfter returns the pendant staleness limit
func (op OperatorConfig) StaleAfter() time.Duration {
	return time.Duration(op.StaleAfterMS) * time.Millisecond
}

// DefaultLiftConfig returns a single-operator button lift on a motor board
func DefaultLiftConfig() *LiftConfig {
	return &LiftConfig{
		Name:         "lift",
		Authority:    AuthoritySingle,
		Input:        InputButton,
		UpID:         3,
		DownID:       2,
		DefaultSpeed: 1.0,
		PollPeriodMS: 5,
		Pacer:        PacerSleep,
		Primary: OperatorConfig{
			Serial:       serial.DefaultConfig("/dev/ttyUSB0"),
			StaleAfterMS: 250,
		},
		Motor: MotorConfig{
			Kind:   MotorBoard,
			Serial: serial.DefaultConfig("/dev/ttyUSB1"),
		},
		Limit: LimitConfig{
			Source: LimitBoard,
		},
	}
}
