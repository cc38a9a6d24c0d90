//go:build rp2040

package pio

// PIO step output using tinygo-org/pio.
// The CPU still decides when each step happens; the state machine shapes
// the pulse and sequences direction before it, so pulse width and
// dir-to-step setup do not depend on CPU timing.

import (
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"

	"stepperhub/core"
)

// buildStepProgram creates the step PIO program using AssemblerV0.
// Each FIFO word is one step; bit 0 is the direction level. An inverted
// step output idles high and pulses low.
func buildStepProgram(invertStep bool) []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	active, idle := uint8(1), uint8(0)
	if invertStep {
		active, idle = 0, 1
	}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),                        // 0: pull block
		asm.Out(rp2pio.OutDestPins, 1).Delay(3).Encode(),      // 1: out pins, 1 [3] (direction, setup time)
		asm.Set(rp2pio.SetDestPins, active).Delay(7).Encode(), // 2: set pins, active [7]
		asm.Set(rp2pio.SetDestPins, idle).Encode(),            // 3: set pins, idle
		// .wrap
	}
}

// PIOStepOutput emits step pulses from a PIO state machine
type PIOStepOutput struct {
	pio     *rp2pio.PIO
	sm      rp2pio.StateMachine
	stepPin machine.Pin
	dirPin  machine.Pin
	dirWord uint32
	fwdWord uint32
	offset  uint8
	pioNum  uint8
	smNum   uint8
}

// NewPIOStepOutput creates a step output on a state machine
// pioNum: 0 for PIO0, 1 for PIO1
// smNum: 0-3 for state machine number
func NewPIOStepOutput(pioNum, smNum uint8) *PIOStepOutput {
	var pioHW *rp2pio.PIO
	if pioNum == 0 {
		pioHW = rp2pio.PIO0
	} else {
		pioHW = rp2pio.PIO1
	}

	return &PIOStepOutput{
		pio:    pioHW,
		sm:     pioHW.StateMachine(smNum),
		pioNum: pioNum,
		smNum:  smNum,
	}
}

// Init loads the program and starts the state machine
func (o *PIOStepOutput) Init(stepPin, dirPin uint8, invertStep, invertDir bool) error {
	o.stepPin = machine.Pin(stepPin)
	o.dirPin = machine.Pin(dirPin)
	if invertDir {
		o.fwdWord = 1
	}
	o.dirWord = o.fwdWord

	// Claim the state machine before touching it
	o.sm.TryClaim()

	program := buildStepProgram(invertStep)
	offset, err := o.pio.AddProgram(program, -1)
	if err != nil {
		return err
	}
	o.offset = offset

	o.stepPin.Configure(machine.PinConfig{Mode: o.pio.PinMode()})
	o.dirPin.Configure(machine.PinConfig{Mode: o.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(o.stepPin, 1)
	cfg.SetOutPins(o.dirPin, 1)

	// Shift right, no autopull, 32-bit threshold
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)

	// 125MHz / 10 = 80ns per cycle: ~640ns pulse, ~320ns dir setup
	cfg.SetClkDivIntFrac(10, 0)

	o.sm.Init(offset, cfg)

	// Pin directions must be set after Init
	o.sm.SetPindirsConsecutive(o.stepPin, 1, true)
	o.sm.SetPindirsConsecutive(o.dirPin, 1, true)
	o.sm.SetPinsConsecutive(o.stepPin, 1, invertStep)
	o.sm.SetPinsConsecutive(o.dirPin, 1, invertDir)

	o.sm.SetEnabled(true)
	return nil
}

// Step queues a single step pulse
func (o *PIOStepOutput) Step() {
	for o.sm.IsTxFIFOFull() {
		// Busy wait - the FIFO drains in under a microsecond
	}
	o.sm.TxPut(o.dirWord)
}

// SetDirection sets the direction for the following steps
func (o *PIOStepOutput) SetDirection(dir core.Direction) {
	o.dirWord = o.fwdWord
	if dir == core.DirectionBackward {
		o.dirWord ^= 1
	}
}

// GetName returns the output name
func (o *PIOStepOutput) GetName() string {
	return "PIO"
}
