package core

// Minimum remaining acceleration steps for a brake to be cancelled.
const brakeCorrectionMinSteps = 10

// ExecuteAll runs one control tick for every axis with bound hardware.
// It is called every ControlPeriodUS.
func (r *Registry) ExecuteAll() {
	for i := r.count - 1; i >= 0; i-- {
		a := &r.axes[i]
		if a.backend == nil {
			continue
		}
		r.executeController(a)
	}
}

// executeController runs one tick for a. Status moves by compare-and-swap
// and speed changes are dropped once the axis is stopped, so a pulse that
// settles the axis mid-tick leaves currentSPS at the minimum. Both targets
// dispatch pulses and ticks from one context; a preemptive port still needs
// the tick masked around the whole call.
func (r *Registry) executeController(a *Axis) {
	st := a.Status()
	switch st.Phase() {
	case PhaseStopped:
		if a.targetPosition.Load() != a.currentPosition.Load() {
			a.tickCounter = a.tickPrescaler
			if !a.swapStatus(st, Status(PhaseStarting)) {
				return
			}
			RecordEvent(EvtStart, a.name, r.now(), a.currentPosition.Load(), a.targetPosition.Load())
			a.backend.Enable()
		}
		return
	case PhaseRunningForward, PhaseRunningBackward:
	default:
		return
	}

	a.tickCounter--
	cur := a.currentSPS.Load()

	if !st.Braking() && r.estimatedTimeToTarget(a, cur) <= r.timeToStop(a, cur) {
		a.breakInitiationSPS = cur
		if !a.swapStatus(st, st&^StatusBrakeCorrection|StatusBraking) {
			return
		}
		RecordEvent(EvtBrake, a.name, r.now(), cur, a.currentPosition.Load())
		r.decrementSPS(a)
		if a.tickCounter <= 0 {
			a.tickCounter = a.tickPrescaler
		}
		return
	}

	if a.tickCounter > 0 {
		return
	}
	a.tickCounter = a.tickPrescaler

	switch {
	case st.Braking():
		atInit := (a.breakInitiationSPS - a.minSPS) / a.accelerationSPS
		left := (cur - a.minSPS) / a.accelerationSPS
		if atInit/2 > left && left > brakeCorrectionMinSteps {
			if a.swapStatus(st, st&^StatusBraking|StatusBrakeCorrection) {
				RecordEvent(EvtBrakeCorrection, a.name, r.now(), cur, a.breakInitiationSPS)
			}
			return
		}
		r.decrementSPS(a)
	case !st.BrakeCorrection():
		r.incrementSPS(a)
	}
}

// estimatedTimeToTarget is the time in seconds to cover the remaining
// steps while decelerating linearly from cur to the minimum speed.
func (r *Registry) estimatedTimeToTarget(a *Axis, cur int32) float32 {
	return 2 * float32(a.stepsToTarget()) / float32(cur+a.minSPS)
}

// timeToStop is the time in seconds the controller needs to bring the
// speed from cur down to the minimum.
func (r *Registry) timeToStop(a *Axis, cur int32) float32 {
	ticks := int64(a.tickPrescaler)*int64((cur-a.minSPS)/a.accelerationSPS) + int64(a.tickCounter)
	return float32(r.cfg.ControlPeriodUS) / 1e6 * float32(ticks)
}

func (r *Registry) incrementSPS(a *Axis) {
	cur := a.currentSPS.Load()
	if cur >= a.maxSPS || a.Status().Stopped() {
		return
	}
	cur += a.accelerationSPS
	if cur > a.maxSPS {
		cur = a.maxSPS
	}
	a.currentSPS.Store(cur)
	r.programTimer(a)
}

func (r *Registry) decrementSPS(a *Axis) {
	cur := a.currentSPS.Load()
	if cur <= a.minSPS || a.Status().Stopped() {
		return
	}
	cur -= a.accelerationSPS
	if cur < a.minSPS {
		cur = a.minSPS
	}
	a.currentSPS.Store(cur)
	r.programTimer(a)
}
