//go:build rp2040

package main

import (
	"machine"
)

// Consecutive failed writes after which the host is considered gone.
const maxWriteFailures = 10

// usbPort is the USB CDC link to the host. On RP2040 machine.Serial is USB
// CDC, not a UART; the descriptors are set by TinyGo's runtime.
type usbPort struct {
	failures     uint32
	disconnected bool
}

// InitUSB configures USB CDC
func InitUSB() *usbPort {
	machine.Serial.Configure(machine.UARTConfig{})
	return &usbPort{}
}

// Buffered returns the number of bytes available to read
func (u *usbPort) Buffered() int {
	return machine.Serial.Buffered()
}

// ReadByte reads a single received byte
func (u *usbPort) ReadByte() (byte, error) {
	return machine.Serial.ReadByte()
}

// Write implements io.Writer. Failures are counted so a vanished host can
// be detected.
func (u *usbPort) Write(data []byte) (int, error) {
	n, err := machine.Serial.Write(data)
	if err != nil || n == 0 {
		u.failures++
		if u.failures > maxWriteFailures {
			u.disconnected = true
			u.failures = 0
		}
		return n, err
	}
	u.failures = 0
	return n, nil
}

// reconnected reports, once, that data arrived after a disconnect.
func (u *usbPort) reconnected() bool {
	if !u.disconnected {
		return false
	}
	u.disconnected = false
	return true
}
