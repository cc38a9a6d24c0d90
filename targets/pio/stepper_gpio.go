//go:build rp2040

package pio

import (
	"device/arm"
	"device/rp"
	"machine"

	"stepperhub/core"
)

// GPIOStepOutput drives step and direction pins through SIO.
// Performance: ~200kHz max step rate, ~100ns pulse width
type GPIOStepOutput struct {
	stepPin machine.Pin
	dirPin  machine.Pin

	// Cached register values for fast access
	stepMask      uint32
	dirSetMask    uint32
	dirClearMask  uint32
	stepInverted  bool
	backwardIsSet bool
}

// NewGPIOStepOutput creates an unconfigured GPIO step output
func NewGPIOStepOutput() *GPIOStepOutput {
	return &GPIOStepOutput{}
}

// Init configures both pins as outputs, step idle at its inactive level
func (o *GPIOStepOutput) Init(stepPin, dirPin uint8, invertStep, invertDir bool) error {
	o.stepPin = machine.Pin(stepPin)
	o.dirPin = machine.Pin(dirPin)
	o.stepInverted = invertStep
	o.backwardIsSet = !invertDir

	o.stepPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	o.stepPin.Set(invertStep)
	o.dirPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	o.dirPin.Set(invertDir)

	o.stepMask = 1 << stepPin
	o.dirSetMask = 1 << dirPin
	o.dirClearMask = 1 << dirPin
	return nil
}

// Step generates a single step pulse
// Pulse width: ~104ns @ 125MHz
func (o *GPIOStepOutput) Step() {
	if o.stepInverted {
		rp.SIO.GPIO_OUT_CLR.Set(o.stepMask)
		arm.Asm("nop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop")
		rp.SIO.GPIO_OUT_SET.Set(o.stepMask)
		return
	}

	rp.SIO.GPIO_OUT_SET.Set(o.stepMask)

	// 13 NOPs = ~104ns, the minimum for Trinamic drivers
	arm.Asm("nop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop")

	rp.SIO.GPIO_OUT_CLR.Set(o.stepMask)
}

// SetDirection sets the direction output
func (o *GPIOStepOutput) SetDirection(dir core.Direction) {
	if (dir == core.DirectionBackward) == o.backwardIsSet {
		rp.SIO.GPIO_OUT_SET.Set(o.dirSetMask)
	} else {
		rp.SIO.GPIO_OUT_CLR.Set(o.dirClearMask)
	}

	// Dir-to-step setup time: 20ns minimum for TMC2209
	arm.Asm("nop\nnop\nnop")
}

// GetName returns the output name
func (o *GPIOStepOutput) GetName() string {
	return "GPIO"
}
