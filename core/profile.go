package core

import "math"

// Fraction band treated as a whole number when searching for a prescaler.
const (
	profileFracLow  = 0.1
	profileFracHigh = 0.9
	profileMaxSteps = 1 << 16
)

// AccelerationProfile derives the per-effective-tick speed change and the
// control tick prescaler for an axis with the given minimum speed.
//
// The desired change per control tick is ratio*period*minSPS. Above ten it
// is used directly. Below, the prescaler is the smallest value that lifts
// the accumulated change to at least 0.9 steps/s and lands within 0.1 of a
// whole number.
func AccelerationProfile(minSPS int32, controlPeriodUS uint32, ratio float32) (accelerationSPS, prescaler int32) {
	desired := float64(ratio) * float64(controlPeriodUS) * float64(minSPS) / 1e6
	if desired > 10 {
		return int32(math.Round(desired)), 1
	}
	if desired <= 0 {
		return 1, 1
	}

	p := math.Ceil(profileFracHigh / desired)
	if p < 1 {
		p = 1
	}
	for i := 0; i < profileMaxSteps; i++ {
		v := p * desired
		frac := v - math.Floor(v)
		if frac <= profileFracLow || frac >= profileFracHigh {
			acc := int32(math.Round(v))
			if acc < 1 {
				acc = 1
			}
			return acc, int32(p)
		}
		p++
	}
	return 1, int32(p)
}

func (r *Registry) applyProfile(a *Axis) {
	a.accelerationSPS, a.tickPrescaler = AccelerationProfile(a.minSPS, r.cfg.ControlPeriodUS, r.cfg.AccelerationRatio)
	a.tickCounter = a.tickPrescaler
}
