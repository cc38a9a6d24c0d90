//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"

	"stepperhub/core"
)

// ClockHz is the rate of the RP2040 hardware timer, which drives the
// scheduler, the pulse timers and the control tick.
const ClockHz = 1000000

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWL = timerBase + 0x0C // Raw timer low word
)

var timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))

// GetHardwareTime reads the RP2040 hardware timer
// Returns the low 32 bits of the microsecond counter
func GetHardwareTime() uint32 {
	return timerRAWL.Get()
}

// UpdateSystemTime updates the core timer with hardware time
// Called from main loop before timers are dispatched
func UpdateSystemTime() {
	core.SetTime(GetHardwareTime())
}
