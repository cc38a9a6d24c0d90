package serial

import (
	"errors"
	"io"
	"time"
)

// Port is a connection to a controller. The client reads it from one
// goroutine and writes requests from another.
type Port interface {
	io.ReadWriteCloser

	// Flush discards input that arrived but was not read yet
	Flush() error
}

// Config selects the controller's port.
type Config struct {
	// Device is the port path, e.g. "/dev/ttyACM0" or "COM3".
	Device string

	// Baud applies to UART bridges. The RP2040 USB CDC port ignores it.
	Baud int

	// PollInterval bounds how long a blocked Read takes to notice Close.
	// Reads never return a timeout to the caller.
	PollInterval time.Duration
}

// Defaults for the controller firmware.
const (
	DefaultBaud         = 115200
	DefaultPollInterval = 100 * time.Millisecond
)

// Config errors.
var (
	ErrNoDevice = errors.New("no serial device given")
	ErrBaud     = errors.New("baud rate must be positive")
)

// DefaultConfig returns the configuration the controller firmware expects
func DefaultConfig(device string) *Config {
	return &Config{
		Device:       device,
		Baud:         DefaultBaud,
		PollInterval: DefaultPollInterval,
	}
}

func (c *Config) validate() error {
	if c == nil || c.Device == "" {
		return ErrNoDevice
	}
	if c.Baud <= 0 {
		return ErrBaud
	}
	return nil
}
