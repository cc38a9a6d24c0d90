// Package sim runs the motion core against simulated pulse hardware.
//
// A Machine owns one scheduler ticking at the configured clock. Pulse
// timers and the control tick are ordinary scheduler timers, so simulated
// time only moves when Advance is called and every run is reproducible.
package sim

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"stepperhub/config"
	"stepperhub/core"
	"stepperhub/protocol"
)

const txCapacity = 4096

// TickInterval is how much wall time Run simulates per step.
const TickInterval = time.Millisecond

// Machine is a simulated controller.
type Machine struct {
	cfg       *config.MachineConfig
	sched     *core.Scheduler
	reg       *core.Registry
	transport *protocol.Transport
	tx        *protocol.TxBuffer
	pulsers   map[byte]*core.TimerPulser
	loop      *core.ControlLoop
}

// New builds a machine for cfg. Settings are loaded from store when it is
// not nil. A nil cfg selects config.DefaultConfig.
func New(cfg *config.MachineConfig, store core.ConfigStore) (*Machine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Machine{
		cfg:     cfg,
		sched:   core.NewScheduler(),
		reg:     core.NewRegistry(cfg.Motion()),
		tx:      protocol.NewTxBuffer(txCapacity),
		pulsers: make(map[byte]*core.TimerPulser),
	}
	m.reg.SetClock(m.sched.Now)
	m.reg.SetArrivalHandler(func(name byte, pos int32) {
		m.tx.Write([]byte(core.ArrivalMessage(name, pos)))
	})

	for _, ac := range cfg.Axes {
		name := ac.Label()
		p := core.NewTimerPulser(m.sched, string(name), nil, nil)
		if err := m.reg.SetupPeripherals(name, p); err != nil {
			return nil, fmt.Errorf("axis %c: %w", name, err)
		}
		m.pulsers[name] = p
	}

	if store != nil {
		m.reg.SetConfigStore(store)
		if err := m.reg.LoadConfig(); err != nil {
			return nil, fmt.Errorf("load settings: %w", err)
		}
	}

	decoder, err := protocol.NewDecoder(m.reg, protocol.NewExecutor(m.reg, m.tx))
	if err != nil {
		return nil, err
	}
	m.transport = protocol.NewTransport(decoder)
	m.transport.SetIdleFlush(cfg.IdleFlushTicks())
	m.transport.SetFaultCallback(func(v interface{}) {
		core.DebugPrintln(fmt.Sprintf("[SIM] decoder fault: %v", v))
		m.tx.Write(protocol.AppendError(nil, protocol.ResultDecoderFault))
	})

	m.loop = core.NewControlLoop(m.sched, m.reg)
	m.loop.Start()
	return m, nil
}

// Registry returns the motion registry.
func (m *Machine) Registry() *core.Registry { return m.reg }

// Pulser returns the simulated pulse output of an axis, or nil.
func (m *Machine) Pulser(name byte) *core.TimerPulser {
	return m.pulsers[core.NormalizeName(name)]
}

// Now returns the simulated clock.
func (m *Machine) Now() uint32 { return m.sched.Now() }

// Feed decodes received bytes at the current simulated time.
func (m *Machine) Feed(data []byte) {
	now := m.sched.Now()
	for _, b := range data {
		m.transport.ReceiveByte(b, now)
	}
}

// Flush completes a request left pending by the end of input.
func (m *Machine) Flush() {
	m.transport.Flush()
}

// Advance moves the simulated clock forward, running every pulse and
// control tick that falls due.
func (m *Machine) Advance(ticks uint32) {
	m.sched.RunUntil(m.sched.Now() + ticks)
	m.transport.Poll(m.sched.Now())
}

// AdvanceUS is Advance in microseconds.
func (m *Machine) AdvanceUS(us uint32) {
	m.Advance(core.TimerFromUS(m.cfg.ClockHz, us))
}

// Idle reports whether every axis is stopped.
func (m *Machine) Idle() bool {
	for _, a := range m.reg.Axes() {
		if !a.Status().Stopped() {
			return false
		}
	}
	return true
}

// WriteOutput drains queued responses and notifications into w.
func (m *Machine) WriteOutput(w io.Writer) error {
	_, err := m.tx.WriteTo(w)
	return err
}

// Output drains and returns queued responses and notifications.
func (m *Machine) Output() string {
	var buf bytes.Buffer
	m.tx.WriteTo(&buf)
	return buf.String()
}

// Run serves the request protocol on in and out in real time until ctx is
// done or reading fails. End of input completes any pending request and
// keeps the motion running.
//
// The machine is driven from the calling goroutine only. A separate
// goroutine reads in; it may stay blocked in Read after Run returns.
func (m *Machine) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	rx := make(chan []byte, 16)
	rxErr := make(chan error, 1)
	go func() {
		buf := make([]byte, 256)
		for {
			n, err := in.Read(buf)
			if n > 0 {
				select {
				case rx <- append([]byte(nil), buf[:n]...):
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				rxErr <- err
				return
			}
		}
	}()

	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()
	step := core.TimerFromUS(m.cfg.ClockHz, uint32(TickInterval/time.Microsecond))

	for {
		select {
		case <-ctx.Done():
			m.WriteOutput(out)
			return ctx.Err()

		case data := <-rx:
			m.Feed(data)

		case err := <-rxErr:
			rxErr = nil
			for len(rx) > 0 {
				m.Feed(<-rx)
			}
			if !errors.Is(err, io.EOF) {
				return fmt.Errorf("read input: %w", err)
			}
			m.Flush()

		case <-ticker.C:
			m.Advance(step)
		}

		if err := m.WriteOutput(out); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
}
