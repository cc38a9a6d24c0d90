package config

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"stepperhub/core"
)

// MachineConfig describes the axes of a controller and the timing constants
// they share.
type MachineConfig struct {
	ClockHz           uint32       `json:"clock_hz"`
	ControlPeriodUS   uint32       `json:"control_period_us"`
	AccelerationRatio float32      `json:"acceleration_ratio"`
	MaxAxes           int          `json:"max_axes"`
	IdleFlushMS       uint32       `json:"idle_flush_ms"`
	StorePath         string       `json:"store_path"`
	Axes              []AxisConfig `json:"axes"`
}

// AxisConfig binds an axis name to its step and direction outputs.
type AxisConfig struct {
	Name       string `json:"name"`
	StepPin    uint8  `json:"step_pin"`
	DirPin     uint8  `json:"dir_pin"`
	InvertStep bool   `json:"invert_step"`
	InvertDir  bool   `json:"invert_dir"`
	Backend    string `json:"backend"`
}

// Pulse backends selectable per axis.
const (
	BackendGPIO = "gpio"
	BackendPIO  = "pio"
)

// Label returns the single byte axis name.
func (a AxisConfig) Label() byte {
	return core.NormalizeName(a.Name[0])
}

// LoadConfig parses a JSON configuration and returns a MachineConfig
func LoadConfig(jsonData []byte) (*MachineConfig, error) {
	var config MachineConfig

	if err := json.Unmarshal(jsonData, &config); err != nil {
		return nil, fmt.Errorf("parse machine config: %w", err)
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// applyDefaults fills in missing configuration values with sensible defaults
func applyDefaults(config *MachineConfig) {
	if config.ClockHz == 0 {
		config.ClockHz = core.DefaultClockHz
	}
	if config.ControlPeriodUS == 0 {
		config.ControlPeriodUS = core.DefaultControlPeriodUS
	}
	if config.AccelerationRatio == 0 {
		config.AccelerationRatio = core.DefaultAccelerationRatio
	}
	if config.MaxAxes == 0 {
		config.MaxAxes = core.DefaultMaxAxes
	}
	for i := range config.Axes {
		if config.Axes[i].Backend == "" {
			config.Axes[i].Backend = BackendGPIO
		}
	}
}

// Validation errors.
var (
	ErrAxisName      = errors.New("axis name must be a single character that is not a digit, sign or delimiter")
	ErrDuplicateAxis = errors.New("duplicate axis name")
	ErrTooManyAxes   = errors.New("more axes than max_axes")
	ErrBackend       = errors.New("unknown pulse backend")
	ErrTiming        = errors.New("control period must be shorter than one second and at least one clock tick")
)

// Validate rejects configurations the registry cannot represent. Every
// problem found is reported.
func (c *MachineConfig) Validate() error {
	var err error
	if len(c.Axes) > c.MaxAxes {
		err = multierr.Append(err, fmt.Errorf("%w: %d > %d", ErrTooManyAxes, len(c.Axes), c.MaxAxes))
	}
	if c.ControlPeriodUS >= 1000000 || core.TimerFromUS(c.ClockHz, c.ControlPeriodUS) == 0 {
		err = multierr.Append(err, ErrTiming)
	}
	seen := make(map[byte]bool)
	for _, a := range c.Axes {
		if len(a.Name) != 1 || !validAxisName(a.Name[0]) {
			err = multierr.Append(err, fmt.Errorf("%w: %q", ErrAxisName, a.Name))
			continue
		}
		l := a.Label()
		if seen[l] {
			err = multierr.Append(err, fmt.Errorf("%w: %c", ErrDuplicateAxis, l))
		}
		seen[l] = true
		if a.Backend != BackendGPIO && a.Backend != BackendPIO {
			err = multierr.Append(err, fmt.Errorf("axis %c: %w: %q", l, ErrBackend, a.Backend))
		}
	}
	return err
}

// validAxisName reports whether b can follow a command without being read
// as a parameter, value or the start of a number.
func validAxisName(b byte) bool {
	switch {
	case b <= ' ' || b > '~':
		return false
	case b >= '0' && b <= '9':
		return false
	case b == '.' || b == ':' || b == '+' || b == '-':
		return false
	}
	return true
}

// Motion returns the registry timing constants.
func (c *MachineConfig) Motion() core.MotionConfig {
	return core.MotionConfig{
		ClockHz:           c.ClockHz,
		ControlPeriodUS:   c.ControlPeriodUS,
		AccelerationRatio: c.AccelerationRatio,
		MaxAxes:           c.MaxAxes,
	}
}

// IdleFlushTicks converts the idle flush timeout to clock ticks.
func (c *MachineConfig) IdleFlushTicks() uint32 {
	return uint32(uint64(c.IdleFlushMS) * uint64(c.ClockHz) / 1000)
}

// DefaultConfig returns a three axis machine on the first GPIO pins
func DefaultConfig() *MachineConfig {
	config := &MachineConfig{
		Axes: []AxisConfig{
			{Name: "X", StepPin: 0, DirPin: 1},
			{Name: "Y", StepPin: 2, DirPin: 3},
			{Name: "Z", StepPin: 4, DirPin: 5},
		},
	}
	applyDefaults(config)
	return config
}
