package core

// Direction selects the sense of travel presented on the direction output.
type Direction uint8

const (
	DirectionForward Direction = iota
	DirectionBackward
)

// StepperBackend is the pulse hardware behind one axis. The registry calls
// it from the control tick and the pulse context, so implementations must
// not block.
type StepperBackend interface {
	// SetPeriod programs the pulse period as an input clock divider and a
	// counter reload value. A running backend applies it at the next period
	// boundary.
	SetPeriod(prescaler, periodTicks uint32)

	// Enable starts pulse generation. The first period completes one full
	// period after the call.
	Enable()

	// Disable stops pulse generation.
	Disable()

	// SetDirection drives the direction output.
	SetDirection(dir Direction)

	// GetName returns backend implementation name
	GetName() string
}

// PulseNotifier is implemented by backends that report completed pulse
// periods. The registry installs the handler when the backend is bound.
type PulseNotifier interface {
	SetPulseHandler(handler func())
}
