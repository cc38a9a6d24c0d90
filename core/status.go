package core

// Phase is the mutually exclusive part of an axis status.
type Phase uint8

// Phase values share their bit layout with the wire status byte.
const (
	PhaseUndefined       Phase = 0x00
	PhaseRunningBackward Phase = 0x01
	PhaseRunningForward  Phase = 0x02
	PhaseStarting        Phase = 0x04
	PhaseStopped         Phase = 0x80
)

// Status is an axis phase combined with the braking sub-flags.
type Status uint8

// Braking sub-flags. They are only meaningful while running.
const (
	StatusBraking         Status = 0x10
	StatusBrakeCorrection Status = 0x20

	brakeFlags = StatusBraking | StatusBrakeCorrection
)

// Phase returns the status with the braking flags removed.
func (s Status) Phase() Phase {
	return Phase(s &^ brakeFlags)
}

// Braking reports whether the axis is decelerating towards its target.
func (s Status) Braking() bool {
	return s&StatusBraking != 0
}

// BrakeCorrection reports whether an early brake was cancelled and the
// axis is cruising at its current speed.
func (s Status) BrakeCorrection() bool {
	return s&StatusBrakeCorrection != 0
}

// Stopped reports whether the axis is idle.
func (s Status) Stopped() bool {
	return s.Phase() == PhaseStopped
}

// Running reports whether the axis is emitting counted pulses.
func (s Status) Running() bool {
	p := s.Phase()
	return p == PhaseRunningForward || p == PhaseRunningBackward
}

var statusNames = [...]struct {
	bit  Status
	name string
}{
	{Status(PhaseStopped), "STOPPED"},
	{StatusBraking, "BREAKING"},
	{StatusBrakeCorrection, "BREAKCORRECTION"},
	{Status(PhaseStarting), "STARTING"},
	{Status(PhaseRunningBackward), "RUNNING_BACKWARD"},
	{Status(PhaseRunningForward), "RUNNING_FORWARD"},
}

// String lists the set flags joined by " | ", or UNDEFINED when none are set.
func (s Status) String() string {
	if s == 0 {
		return "UNDEFINED"
	}
	out := ""
	for _, n := range statusNames {
		if s&n.bit == 0 {
			continue
		}
		if out != "" {
			out += " | "
		}
		out += n.name
	}
	return out
}
