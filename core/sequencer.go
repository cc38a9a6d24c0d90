package core

// PulseUpdate accounts for one completed pulse period of the named axis.
// Backends that do not implement PulseNotifier call it from their period
// interrupt.
func (r *Registry) PulseUpdate(name byte) {
	if a := r.Axis(name); a != nil {
		r.pulseUpdate(a)
	}
}

func (r *Registry) pulseUpdate(a *Axis) {
	st := a.Status()
	switch st.Phase() {
	case PhaseStarting:
		cur := a.currentPosition.Load()
		target := a.targetPosition.Load()
		switch {
		case cur > target:
			a.backend.SetDirection(DirectionBackward)
			a.setStatus(Status(PhaseRunningBackward))
		case cur < target:
			a.backend.SetDirection(DirectionForward)
			a.setStatus(Status(PhaseRunningForward))
		default:
			a.setStatus(Status(PhaseStopped))
			a.backend.Disable()
		}

	case PhaseRunningForward, PhaseRunningBackward:
		pos := a.currentPosition.Add(a.unit())
		steps := a.stepsToTarget()
		if steps <= 0 && a.currentSPS.Load() == a.minSPS {
			a.setStatus(Status(PhaseStopped))
			a.backend.Disable()
			RecordEvent(EvtStop, a.name, r.now(), pos, a.targetPosition.Load())
			r.notifyArrival(a.name, pos)
			return
		}
		if steps == -1 {
			RecordEvent(EvtOvershoot, a.name, r.now(), pos, a.targetPosition.Load())
		}
	}
}

func (r *Registry) notifyArrival(name byte, pos int32) {
	if r.arrival != nil {
		r.arrival(name, pos)
		return
	}
	DebugPrintln(ArrivalMessage(name, pos))
}

// ArrivalMessage formats the notification sent when an axis settles.
func ArrivalMessage(name byte, pos int32) string {
	return string(name) + ".stop:" + itoa(int(pos)) + "\r\n"
}
