package core

// StepFunc emits one step pulse on the hardware output.
type StepFunc func()

// TimerPulser is a StepperBackend that paces pulses with a scheduler timer.
// Each wake closes one pulse period: the pulse handler runs first, then, if
// still enabled, the next pulse is emitted and the timer rearmed with the
// latest period. The scheduler must tick at the registry's ClockHz.
type TimerPulser struct {
	timer     Timer
	sched     *Scheduler
	name      string
	step      StepFunc
	direction func(Direction)
	onPulse   func()

	interval  uint32
	enabled   bool
	scheduled bool
	pulses    uint32
	dir       Direction
}

// NewTimerPulser creates a pulser on sched. step and direction drive the
// outputs and may be nil when there is no hardware behind the axis.
func NewTimerPulser(sched *Scheduler, name string, step StepFunc, direction func(Direction)) *TimerPulser {
	p := &TimerPulser{
		sched:     sched,
		name:      name,
		step:      step,
		direction: direction,
		interval:  1,
	}
	p.timer.Handler = p.handle
	return p
}

func (p *TimerPulser) handle(t *Timer) uint8 {
	if p.onPulse != nil {
		p.onPulse()
	}
	if !p.enabled {
		p.scheduled = false
		return SF_DONE
	}
	if p.step != nil {
		p.step()
	}
	p.pulses++
	t.WakeTime += p.interval
	return SF_RESCHEDULE
}

// SetPulseHandler implements PulseNotifier.
func (p *TimerPulser) SetPulseHandler(handler func()) {
	p.onPulse = handler
}

// SetPeriod implements StepperBackend.
func (p *TimerPulser) SetPeriod(prescaler, periodTicks uint32) {
	p.interval = PeriodTicks(prescaler, periodTicks)
	if p.interval == 0 {
		p.interval = 1
	}
}

// Enable implements StepperBackend.
func (p *TimerPulser) Enable() {
	p.enabled = true
	if p.scheduled {
		return
	}
	p.scheduled = true
	p.timer.WakeTime = p.sched.Now() + p.interval
	p.sched.Schedule(&p.timer)
}

// Disable implements StepperBackend. A pending wake still runs once and
// retires the timer.
func (p *TimerPulser) Disable() {
	p.enabled = false
}

// SetDirection implements StepperBackend.
func (p *TimerPulser) SetDirection(dir Direction) {
	p.dir = dir
	if p.direction != nil {
		p.direction(dir)
	}
}

// GetName implements StepperBackend.
func (p *TimerPulser) GetName() string { return p.name }

// Enabled reports whether pulses are being generated.
func (p *TimerPulser) Enabled() bool { return p.enabled }

// Interval returns the programmed period in scheduler ticks.
func (p *TimerPulser) Interval() uint32 { return p.interval }

// Pulses returns the number of step pulses emitted so far.
func (p *TimerPulser) Pulses() uint32 { return p.pulses }

// Direction returns the last direction driven.
func (p *TimerPulser) Direction() Direction { return p.dir }

// ControlLoop drives the registry's control tick from a scheduler running
// at the registry's ClockHz.
type ControlLoop struct {
	timer    Timer
	sched    *Scheduler
	reg      *Registry
	interval uint32
	running  bool
}

// NewControlLoop creates a stopped control loop.
func NewControlLoop(sched *Scheduler, reg *Registry) *ControlLoop {
	cfg := reg.Config()
	l := &ControlLoop{
		sched:    sched,
		reg:      reg,
		interval: TimerFromUS(cfg.ClockHz, cfg.ControlPeriodUS),
	}
	if l.interval == 0 {
		l.interval = 1
	}
	l.timer.Handler = l.handle
	return l
}

func (l *ControlLoop) handle(t *Timer) uint8 {
	if !l.running {
		return SF_DONE
	}
	l.reg.ExecuteAll()
	t.WakeTime += l.interval
	return SF_RESCHEDULE
}

// Start schedules the first tick one period from now.
func (l *ControlLoop) Start() {
	if l.running {
		return
	}
	l.running = true
	l.timer.WakeTime = l.sched.Now() + l.interval
	l.sched.Schedule(&l.timer)
}

// Stop cancels further ticks.
func (l *ControlLoop) Stop() {
	l.running = false
	l.sched.Cancel(&l.timer)
}

// Interval returns the tick period in scheduler ticks.
func (l *ControlLoop) Interval() uint32 { return l.interval }
