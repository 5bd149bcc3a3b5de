package core

import "math"

// Deadzone margins applied to every axis read by the control loop
const (
	DeadzoneHigh = 0.18
	DeadzoneLow  = -0.18
)

// inDeadzone reports whether v lies within [low, high]. Both margins are
// inclusive, and they do not have to straddle zero.
func inDeadzone(v, high, low float64) bool {
	return v >= low && v <= high
}

// Filter buffers a raw axis reading. Values inside the deadzone become 0,
// everything else passes through, negated when invert is set.
func Filter(v float64, invert bool, high, low float64) float64 {
	if inDeadzone(v, high, low) {
		return 0
	}
	if invert {
		return -v
	}
	return v
}

// FilterScaled is Filter followed by a multiplication with |scale|,
// capped at 1. The sign of scale is ignored.
func FilterScaled(v float64, invert bool, high, low, scale float64) float64 {
	scale = math.Abs(scale)
	if scale >= 1 {
		scale = 1
	}
	return Filter(v, invert, high, low) * scale
}

// FilterUnipolar applies the deadzone and then discards the raw sign:
// the result is |v| when forcePositive is set and -|v| otherwise.
// Summing an "up" axis filtered with forcePositive and a "down" axis
// filtered without it yields one bipolar command.
func FilterUnipolar(v, high, low float64, forcePositive bool) float64 {
	if inDeadzone(v, high, low) {
		return 0
	}
	if forcePositive {
		return math.Abs(v)
	}
	return -math.Abs(v)
}

// AxisPressed reports whether an axis reading is deflected toward the
// requested end. The reading is inverted before the test, matching the
// stick convention where pushing forward reads negative.
func AxisPressed(v float64, positive bool) bool {
	out := Filter(v, true, DeadzoneHigh, DeadzoneLow)
	if positive {
		return out > 0
	}
	return out < 0
}
