package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// MotionEvent captures a motion state change for post-mortem analysis
type MotionEvent struct {
	EventType uint8  // Event type code
	Axis      byte   // Axis name, 0 for registry wide events
	Clock     uint32 // Clock at event
	Value1    int32  // Context-dependent value
	Value2    int32  // Context-dependent value
}

// Event type codes
const (
	EvtStart           = 1 // stopped axis got a new target
	EvtBrake           = 2 // deceleration began (v1=speed)
	EvtBrakeCorrection = 3 // early brake cancelled (v1=speed, v2=speed at brake)
	EvtStop            = 4 // settled on target (v1=position)
	EvtOvershoot       = 5 // first pulse past target (v1=position)
	EvtSaveFailed      = 6 // config store rejected a save
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Event capture ring buffer (non-blocking, for post-mortem)
	eventRing     [EventRingSize]MotionEvent
	eventRingHead uint8
	eventsEnabled bool = true

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
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

// SetEventsEnabled turns event capture on or off.
func SetEventsEnabled(enabled bool) {
	eventsEnabled = enabled
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	if debugChan != nil {
		return
	}
	debugChan = make(chan string, 16) // Buffer 16 messages
	go debugOutputWorker(debugChan)
}

// debugOutputWorker runs in background, drains debug channel
func debugOutputWorker(ch <-chan string) {
	for msg := range ch {
		DebugPrintln(msg)
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output (non-blocking)
// Returns immediately even if channel is full (drops message). Without a
// running worker the message is written directly.
func DebugAsync(msg string) {
	if debugChan == nil {
		DebugPrintln(msg)
		return
	}
	select {
	case debugChan <- msg:
	default:
	}
}

// RecordEvent captures a motion event in the ring buffer.
// It never blocks and is safe from the pulse context.
func RecordEvent(eventType uint8, axis byte, clock uint32, value1, value2 int32) {
	if !eventsEnabled {
		return
	}
	state := disableInterrupts()
	idx := eventRingHead
	eventRing[idx] = MotionEvent{
		EventType: eventType,
		Axis:      axis,
		Clock:     clock,
		Value1:    value1,
		Value2:    value2,
	}
	eventRingHead = (idx + 1) % EventRingSize
	restoreInterrupts(state)
}

// Events returns the captured events from oldest to newest.
func Events() []MotionEvent {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	var out []MotionEvent
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.EventType == 0 {
			continue
		}
		out = append(out, evt)
	}
	return out
}

// EventName returns the dump label of an event type.
func EventName(eventType uint8) string {
	switch eventType {
	case EvtStart:
		return "START"
	case EvtBrake:
		return "BRAKE"
	case EvtBrakeCorrection:
		return "BRAKE_CORR"
	case EvtStop:
		return "STOP"
	case EvtOvershoot:
		return "OVERSHOOT!"
	case EvtSaveFailed:
		return "SAVE_FAIL!"
	}
	return "UNKNOWN"
}

// DumpEventRing outputs the event ring buffer (call on shutdown/error)
func DumpEventRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[EVENTS] === Event Ring Dump ===")
	for _, evt := range Events() {
		axis := "-"
		if evt.Axis != 0 {
			axis = string(evt.Axis)
		}
		debugPrintln("[EVENTS] " + EventName(evt.EventType) +
			" axis=" + axis +
			" clock=" + utoa(evt.Clock) +
			" v1=" + itoa(int(evt.Value1)) +
			" v2=" + itoa(int(evt.Value2)))
	}
	debugPrintln("[EVENTS] === End Dump ===")
}

// ClearEventRing clears the event buffer
func ClearEventRing() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	for i := range eventRing {
		eventRing[i] = MotionEvent{}
	}
	eventRingHead = 0
}
