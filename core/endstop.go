// Limit switch oversampling
package core

import "sync"

// Endstop confirms limit switch changes by oversampling. The reported
// level only follows the raw switch after SampleCount consecutive reads
// agree on the new level; a single disagreeing read restarts the count.
type Endstop struct {
	Switch      LimitSwitch // Raw switch
	SampleCount uint8       // Consecutive samples required (0 or 1 passes through)

	mu           sync.Mutex
	level        bool  // Confirmed level
	primed       bool  // First sample taken
	triggerCount uint8 // Remaining samples before the level flips
}

// NewEndstop wraps sw with sampleCount oversampling
func NewEndstop(sw LimitSwitch, sampleCount uint8) *Endstop {
	return &Endstop{
		Switch:      sw,
		SampleCount: sampleCount,
	}
}

// Read samples the raw switch once and returns the confirmed level
func (es *Endstop) Read() bool {
	raw := es.Switch.Read()

	es.mu.Lock()
	defer es.mu.Unlock()

	// The first sample is taken as is
	if !es.primed || es.SampleCount <= 1 {
		es.primed = true
		es.level = raw
		es.triggerCount = es.SampleCount
		return raw
	}

	if raw == es.level {
		// No longer matching - restart the count
		es.triggerCount = es.SampleCount
		return es.level
	}

	count := es.triggerCount - 1
	if count == 0 {
		// All samples confirmed
		es.level = raw
		es.triggerCount = es.SampleCount
		RecordTiming(EvtLimit, 0, boolValue(raw))
		return raw
	}

	es.triggerCount = count
	return es.level
}

func boolValue(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
