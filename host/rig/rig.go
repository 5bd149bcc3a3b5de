// Package rig assembles a lift controller and its hardware from a
// configuration file.
package rig

import (
	"errors"
	"fmt"
	"io"

	"tinygo.org/x/drivers"

	"liftctl/config"
	"liftctl/core"
	"liftctl/host/i2c"
	"liftctl/host/mcu"
	"liftctl/host/motor"
	"liftctl/host/pendant"
	"liftctl/host/serial"
)

// Bus is an I2C adapter the rig owns
type Bus interface {
	drivers.I2C
	Close() error
}

// Openers open the hardware a rig needs. Tests replace them with fakes.
type Openers struct {
	Serial func(cfg *serial.Config) (serial.Port, error)
	I2C    func(number int) (Bus, error)
}

// DefaultOpeners opens real serial ports and i2c-dev adapters
func DefaultOpeners() Openers {
	return Openers{
		Serial: serial.Open,
		I2C: func(number int) (Bus, error) {
			return i2c.Open(number)
		},
	}
}

// Rig is a lift controller with the devices it was built on
type Rig struct {
	Config *config.LiftConfig
	Lift   *core.LiftController

	Primary   *pendant.Pendant
	Secondary *pendant.Pendant

	// Exactly one of Board or Motor is set
	Board *mcu.Board
	Motor *motor.PCA9685Motor

	pacer   *core.TickerPacer
	closers []io.Closer
}

// Build opens the configured hardware and creates the controller
func Build(cfg *config.LiftConfig) (*Rig, error) {
	return BuildWith(cfg, DefaultOpeners())
}

// BuildWith is Build with explicit device openers. On error every device
// opened so far is closed again.
func BuildWith(cfg *config.LiftConfig, open Openers) (*Rig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	params, err := cfg.Params()
	if err != nil {
		return nil, err
	}

	r := &Rig{Config: cfg}
	if err := r.build(params, open); err != nil {
		r.Close()
		return nil, err
	}

	core.DebugPrintln(fmt.Sprintf("[RIG] %s: lift %s %s/%s up=%d down=%d",
		cfg.Name, r.Lift.ID(), params.AuthorityMode, params.InputMode, params.UpID, params.DownID))
	return r, nil
}

func (r *Rig) build(params core.LiftParams, open Openers) error {
	cfg := r.Config

	var err error
	if r.Primary, err = r.openPendant("primary", cfg.Primary, open); err != nil {
		return err
	}
	if cfg.Authority == config.AuthorityDual {
		if r.Secondary, err = r.openPendant("secondary", *cfg.Secondary, open); err != nil {
			return err
		}
	}

	var out core.MotorOutput
	switch cfg.Motor.Kind {
	case config.MotorBoard:
		port, err := open.Serial(cfg.Motor.Serial)
		if err != nil {
			return fmt.Errorf("motor board: %w", err)
		}
		r.Board = mcu.NewBoard()
		r.Board.Invert = cfg.Limit.Invert
		r.Board.ConnectPort(port)
		r.closers = append(r.closers, r.Board)
		out = r.Board

	case config.MotorPCA9685:
		bus, err := open.I2C(cfg.Motor.I2CBus)
		if err != nil {
			return fmt.Errorf("pca9685 bus %d: %w", cfg.Motor.I2CBus, err)
		}
		r.closers = append(r.closers, bus)
		r.Motor = motor.NewPCA9685Motor(bus, cfg.Motor.I2CAddress, cfg.Motor.Channel)
		r.Motor.Invert = cfg.Motor.Invert
		if err := r.Motor.Configure(); err != nil {
			return err
		}
		out = r.Motor
	}

	var limit core.LimitSwitch
	switch cfg.Limit.Source {
	case config.LimitBoard:
		limit = r.Board
	case config.LimitStatic:
		limit = Static(cfg.Limit.Active != cfg.Limit.Invert)
	}
	if cfg.Limit.SampleCount > 1 {
		limit = core.NewEndstop(limit, cfg.Limit.SampleCount)
	}

	var order *core.Authority
	if r.Secondary != nil {
		order = core.NewAuthority(r.Primary, r.Secondary)
		if cfg.HandOffButton > 0 {
			r.Secondary.OnHandOff(cfg.HandOffButton, order.Release)
		}
		r.Lift = core.NewLiftController(params, nil, order, out, limit)
	} else {
		r.Lift = core.NewLiftController(params, r.Primary, nil, out, limit)
	}

	if cfg.Pacer == config.PacerTicker {
		r.pacer = &core.TickerPacer{}
		r.Lift.SetPacer(r.pacer)
	}
	return nil
}

func (r *Rig) openPendant(name string, cfg config.OperatorConfig, open Openers) (*pendant.Pendant, error) {
	port, err := open.Serial(cfg.Serial)
	if err != nil {
		return nil, fmt.Errorf("%s pendant: %w", name, err)
	}
	p := pendant.New(name)
	p.SetStaleAfter(cfg.StaleAfter())
	p.Attach(port)
	r.closers = append(r.closers, p)
	return p, nil
}

// Close stops the controller and releases every device
func (r *Rig) Close() error {
	if r.Lift != nil {
		r.Lift.Stop()
	}
	if r.pacer != nil {
		r.pacer.Stop()
	}

	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// Static is a limit switch fixed at one level, for lifts without a switch
type Static bool

func (s Static) Read() bool {
	return bool(s)
}
