package protocol

import "fmt"

// MaxPendantAxes bounds the axis list of a pendant_state message so one
// message always fits a frame
const MaxPendantAxes = 8

// PendantState is a full sample of an operator pendant. Buttons are
// numbered from 1; button n is bit n-1. Axes are numbered from 0.
type PendantState struct {
	Buttons uint32
	Axes    []float64
}

// Button reports whether button id is held
func (s PendantState) Button(id int) bool {
	if id < 1 || id > 32 {
		return false
	}
	return s.Buttons&(1<<uint(id-1)) != 0
}

// Axis returns axis id, or 0 for an axis the pendant does not have
func (s PendantState) Axis(id int) float64 {
	if id < 0 || id >= len(s.Axes) {
		return 0
	}
	return s.Axes[id]
}

// EncodeMotorSet writes a motor_set message
func EncodeMotorSet(output OutputBuffer, value float64) {
	EncodeVLQUint(output, uint32(MsgMotorSet))
	EncodeAnalog(output, value)
}

// DecodeMotorSet reads the arguments of a motor_set message
func DecodeMotorSet(data *[]byte) (float64, error) {
	return DecodeAnalog(data)
}

// EncodePendantState writes a pendant_state message
func EncodePendantState(output OutputBuffer, s PendantState) error {
	if len(s.Axes) > MaxPendantAxes {
		return fmt.Errorf("%w: %d axes (max %d)", ErrMessageTooLong, len(s.Axes), MaxPendantAxes)
	}
	EncodeVLQUint(output, uint32(MsgPendantState))
	EncodeVLQUint(output, s.Buttons)
	EncodeVLQUint(output, uint32(len(s.Axes)))
	for _, v := range s.Axes {
		EncodeAnalog(output, v)
	}
	return nil
}

// DecodePendantState reads the arguments of a pendant_state message
func DecodePendantState(data *[]byte) (PendantState, error) {
	var s PendantState

	buttons, err := DecodeVLQUint(data)
	if err != nil {
		return s, err
	}
	count, err := DecodeVLQUint(data)
	if err != nil {
		return s, err
	}
	if count > MaxPendantAxes {
		return s, fmt.Errorf("pendant_state: %d axes: %w", count, ErrInvalidVLQ)
	}

	s.Buttons = buttons
	s.Axes = make([]float64, count)
	for i := range s.Axes {
		if s.Axes[i], err = DecodeAnalog(data); err != nil {
			return PendantState{}, err
		}
	}
	return s, nil
}

// EncodeLimitState writes a limit_state message
func EncodeLimitState(output OutputBuffer, active bool) {
	EncodeVLQUint(output, uint32(MsgLimitState))
	v := uint32(0)
	if active {
		v = 1
	}
	EncodeVLQUint(output, v)
}

// DecodeLimitState reads the arguments of a limit_state message
func DecodeLimitState(data *[]byte) (bool, error) {
	v, err := DecodeVLQUint(data)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}
