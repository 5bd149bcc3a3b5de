package sim

import (
	"liftctl/core"
)

// Input ids used by the simulated operators
const (
	UpButton   = 1
	DownButton = 2
	UpAxis     = 0
	DownAxis   = 1
)

// Options selects the controller variant to simulate
type Options struct {
	Input        core.InputMode
	Authority    core.AuthorityMode
	DefaultSpeed float64

	// Pacer overrides the controller's default sleep pacing
	Pacer core.Pacer
}

// Sim is a lift controller wired to simulated devices
type Sim struct {
	Lift *core.LiftController

	Primary   *Keyboard
	Secondary *Keyboard // nil for single authority
	Order     *core.Authority

	Motor *Motor
	Limit *Switch
}

// New builds a simulated lift. The controller is not started.
func New(opts Options) *Sim {
	s := &Sim{
		Primary: NewKeyboard(),
		Motor:   &Motor{},
		Limit:   &Switch{},
	}

	params := core.LiftParams{
		InputMode:     opts.Input,
		AuthorityMode: opts.Authority,
		DefaultSpeed:  opts.DefaultSpeed,
	}
	if opts.Input == core.InputAxis {
		params.UpID, params.DownID = UpAxis, DownAxis
		params.UpAxisPositive = true
	} else {
		params.UpID, params.DownID = UpButton, DownButton
	}

	if opts.Authority == core.AuthorityDual {
		s.Secondary = NewKeyboard()
		s.Order = core.NewAuthority(s.Primary, s.Secondary)
		s.Lift = core.NewLiftController(params, nil, s.Order, s.Motor, s.Limit)
	} else {
		s.Lift = core.NewLiftController(params, s.Primary, nil, s.Motor, s.Limit)
	}

	if opts.Pacer != nil {
		s.Lift.SetPacer(opts.Pacer)
	}
	return s
}

// up and down act on one operator in the controller's input mode
func (s *Sim) up(k *Keyboard) {
	if s.Lift.Config().InputMode == core.InputAxis {
		// Pushing the stick forward reads negative
		k.Nudge(UpAxis, -AxisStep)
		return
	}
	k.Press(UpButton)
}

func (s *Sim) down(k *Keyboard) {
	if s.Lift.Config().InputMode == core.InputAxis {
		k.Nudge(DownAxis, AxisStep)
		return
	}
	k.Press(DownButton)
}
