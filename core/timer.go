package core

// Timer frequencies for common MCUs
const (
	TimerFreq = 12000000 // 12MHz default timer frequency
)

// defaultScheduler drives the firmware main loop.
var defaultScheduler = NewScheduler()

// DefaultScheduler returns the scheduler behind the package level timer
// functions.
func DefaultScheduler() *Scheduler {
	return defaultScheduler
}

// GetTime returns the current system time in timer ticks
func GetTime() uint32 {
	return defaultScheduler.Now()
}

// SetTime sets the current system time (for testing/hardware integration)
func SetTime(ticks uint32) {
	defaultScheduler.SetTime(ticks)
}

// ProcessTimers runs the timers that are due on the default scheduler
func ProcessTimers() {
	defaultScheduler.Dispatch()
}

// TimerFromUS converts microseconds to ticks of a clock running at hz.
func TimerFromUS(hz, us uint32) uint32 {
	return uint32(uint64(us) * uint64(hz) / 1000000)
}
