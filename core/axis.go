package core

import "sync/atomic"

// Axis is one independently controlled stepper channel.
//
// Speed limits and the acceleration profile are only written while the axis
// is stopped and the control tick is masked. Positions, speed and status are
// shared between the byte, tick and pulse contexts and are accessed
// atomically.
type Axis struct {
	name    byte
	backend StepperBackend

	minSPS          int32
	maxSPS          int32
	accelerationSPS int32
	tickPrescaler   int32

	// Owned by the control tick.
	tickCounter        int32
	breakInitiationSPS int32

	status          atomic.Uint32
	currentSPS      atomic.Int32
	targetPosition  atomic.Int32
	currentPosition atomic.Int32
}

// Name returns the axis label.
func (a *Axis) Name() byte { return a.name }

// Backend returns the bound pulse hardware, or nil.
func (a *Axis) Backend() StepperBackend { return a.backend }

func (a *Axis) Status() Status { return Status(a.status.Load()) }

func (a *Axis) TargetPosition() int32  { return a.targetPosition.Load() }
func (a *Axis) CurrentPosition() int32 { return a.currentPosition.Load() }
func (a *Axis) CurrentSPS() int32      { return a.currentSPS.Load() }
func (a *Axis) MinSPS() int32          { return a.minSPS }
func (a *Axis) MaxSPS() int32          { return a.maxSPS }
func (a *Axis) AccelerationSPS() int32 { return a.accelerationSPS }
func (a *Axis) TickPrescaler() int32   { return a.tickPrescaler }

// Settings returns the persisted subset of the axis.
func (a *Axis) Settings() AxisSettings {
	return AxisSettings{
		Name:            a.name,
		MinSPS:          a.minSPS,
		MaxSPS:          a.maxSPS,
		AccelerationSPS: a.accelerationSPS,
		TickPrescaler:   a.tickPrescaler,
	}
}

func (a *Axis) setStatus(s Status) {
	a.status.Store(uint32(s))
}

// swapStatus replaces old with next unless another context changed the
// status in between.
func (a *Axis) swapStatus(old, next Status) bool {
	return a.status.CompareAndSwap(uint32(old), uint32(next))
}

// unit is the position increment of one pulse in the current direction.
func (a *Axis) unit() int32 {
	if a.Status().Phase() == PhaseRunningBackward {
		return -1
	}
	return 1
}

// stepsToTarget is the signed distance to the target along the travel
// direction. It goes negative after an overshoot.
func (a *Axis) stepsToTarget() int64 {
	d := int64(a.targetPosition.Load()) - int64(a.currentPosition.Load())
	return d * int64(a.unit())
}
