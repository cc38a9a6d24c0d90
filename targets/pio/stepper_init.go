//go:build rp2040

package pio

import (
	"errors"

	"stepperhub/config"
	"stepperhub/core"
)

// StepOutput is the pin level half of an axis backend. Timing comes from
// the core.TimerPulser it is wrapped in.
type StepOutput interface {
	Init(stepPin, dirPin uint8, invertStep, invertDir bool) error
	Step()
	SetDirection(dir core.Direction)
	GetName() string
}

var (
	// PIO allocation tracking
	// RP2040 has 2 PIO blocks (PIO0, PIO1) with 4 state machines each
	pioAllocations = [2][4]bool{} // [pioNum][smNum]
	nextPIONum     = uint8(0)
	nextSMNum      = uint8(0)
)

// ErrNoStateMachine means all eight PIO state machines are in use.
var ErrNoStateMachine = errors.New("no free PIO state machine")

// NewBackend creates the pulse backend for one configured axis, paced by
// sched.
func NewBackend(sched *core.Scheduler, ac config.AxisConfig) (*core.TimerPulser, error) {
	out, err := newStepOutput(ac.Backend)
	if err != nil {
		return nil, err
	}
	if err := out.Init(ac.StepPin, ac.DirPin, ac.InvertStep, ac.InvertDir); err != nil {
		return nil, err
	}

	name := string(ac.Label()) + "/" + out.GetName()
	p := core.NewTimerPulser(sched, name, out.Step, out.SetDirection)
	return p, nil
}

func newStepOutput(kind string) (StepOutput, error) {
	switch kind {
	case config.BackendPIO:
		pioNum, smNum, ok := allocatePIO()
		if !ok {
			return nil, ErrNoStateMachine
		}
		return NewPIOStepOutput(pioNum, smNum), nil
	case config.BackendGPIO, "":
		return NewGPIOStepOutput(), nil
	}
	return nil, config.ErrBackend
}

// allocatePIO allocates a PIO state machine
// Returns (pioNum, smNum, ok)
func allocatePIO() (uint8, uint8, bool) {
	// Round-robin allocation across PIO blocks and state machines
	for i := 0; i < 8; i++ { // 2 PIO × 4 SM = 8 total
		pioNum := nextPIONum
		smNum := nextSMNum

		// Advance to next slot
		nextSMNum++
		if nextSMNum >= 4 {
			nextSMNum = 0
			nextPIONum = (nextPIONum + 1) % 2
		}

		if !pioAllocations[pioNum][smNum] {
			pioAllocations[pioNum][smNum] = true
			return pioNum, smNum, true
		}
	}

	return 0, 0, false
}
