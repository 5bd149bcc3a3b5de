package core

import (
	"strconv"
	"sync"
)

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TimingEvent captures a lift event for post-mortem analysis
type TimingEvent struct {
	EventType uint8  // Event type code
	Tick      uint32 // Loop iteration the event happened in
	Value     int32  // Context-dependent value (command in thousandths, mode code)
}

// Event type codes
const (
	EvtRunStart  = 1 // Run entered the loop
	EvtMode      = 2 // Tick procedure selected
	EvtCommand   = 3 // Motor command changed
	EvtTrap      = 4 // Authority trapped back to primary
	EvtRelease   = 5 // Authority released to secondary
	EvtStop      = 6 // Stop requested
	EvtLinkError = 7 // Host link read/write failed
	EvtLimit     = 8 // Oversampled limit switch changed level
)

const (
	TimingRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by host code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Timing capture ring buffer, written from the loop and from pendant
	// readers, hence the lock
	timingMu       sync.Mutex
	timingRing     [TimingRingSize]TimingEvent
	timingRingHead uint8
	timingEnabled  bool = true

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the debug output function
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug starts the async debug output goroutine.
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16)
	go debugOutputWorker()
}

// debugOutputWorker runs in background, drains debug channel
func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the configured writer
// Blocks if debug is enabled (use DebugAsync from the control loop)
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output.
// Returns immediately even if channel is full (drops message)
func DebugAsync(msg string) {
	if !debugEnabled || debugChan == nil {
		return
	}
	select {
	case debugChan <- msg:
	default:
	}
}

// RecordTiming captures an event in the ring buffer
func RecordTiming(eventType uint8, tick uint32, value int32) {
	timingMu.Lock()
	defer timingMu.Unlock()

	if !timingEnabled {
		return
	}
	idx := timingRingHead
	timingRing[idx] = TimingEvent{
		EventType: eventType,
		Tick:      tick,
		Value:     value,
	}
	timingRingHead = (idx + 1) % TimingRingSize
}

// TimingEvents returns the recorded events, oldest first
func TimingEvents() []TimingEvent {
	timingMu.Lock()
	defer timingMu.Unlock()

	events := make([]TimingEvent, 0, TimingRingSize)
	start := timingRingHead
	for i := uint8(0); i < TimingRingSize; i++ {
		evt := timingRing[(start+i)%TimingRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		events = append(events, evt)
	}
	return events
}

// DumpTimingRing outputs the timing ring buffer (call after Stop)
func DumpTimingRing(label string) {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TIMING] === Timing Ring Dump " + label + " ===")
	for _, evt := range TimingEvents() {
		debugPrintln("[TIMING] " + eventName(evt.EventType) +
			" tick=" + strconv.FormatUint(uint64(evt.Tick), 10) +
			" v=" + strconv.FormatInt(int64(evt.Value), 10))
	}
	debugPrintln("[TIMING] === End Dump ===")
}

// ClearTimingRing clears the timing buffer
func ClearTimingRing() {
	timingMu.Lock()
	defer timingMu.Unlock()

	for i := range timingRing {
		timingRing[i] = TimingEvent{}
	}
	timingRingHead = 0
}

func eventName(t uint8) string {
	switch t {
	case EvtRunStart:
		return "RUN_START"
	case EvtMode:
		return "MODE"
	case EvtCommand:
		return "COMMAND"
	case EvtTrap:
		return "TRAP"
	case EvtRelease:
		return "RELEASE"
	case EvtStop:
		return "STOP"
	case EvtLinkError:
		return "LINK_ERR!"
	case EvtLimit:
		return "LIMIT"
	default:
		return "UNKNOWN"
	}
}
