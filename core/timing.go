package core

// Largest reload value of a 16-bit pulse timer counter.
const timerCounterMax = 0xFFFF

// TimerSettings returns the input clock divider and counter period that
// make a timer fed by clockHz complete sps periods per second. The period
// is rounded up so the produced rate never exceeds sps.
func TimerSettings(clockHz uint32, sps int32) (prescaler, period uint32) {
	if sps < 1 {
		sps = 1
	}
	ticks := (uint64(clockHz) + uint64(sps) - 1) / uint64(sps)
	if ticks == 0 {
		ticks = 1
	}
	div := uint64(1)
	if ticks > timerCounterMax {
		div = (ticks + timerCounterMax - 1) / timerCounterMax
		ticks = (ticks + div - 1) / div
	}
	return uint32(div), uint32(ticks)
}

// PeriodTicks is the full period in input clock ticks.
func PeriodTicks(prescaler, period uint32) uint32 {
	return prescaler * period
}
