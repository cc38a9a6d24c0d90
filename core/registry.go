package core

// Registry limits and factory defaults.
const (
	DefaultMaxAxes           = 10
	DefaultMinSPS            = 1
	DefaultMaxSPS            = 400000
	DefaultClockHz           = TimerFreq
	DefaultControlPeriodUS   = 100
	DefaultAccelerationRatio = 0.8
)

// MotionConfig holds the timing constants shared by every axis.
type MotionConfig struct {
	// ClockHz is the pulse timer input clock. Backends built on the
	// scheduler need it to match the scheduler tick rate.
	ClockHz uint32

	// ControlPeriodUS is the interval between control ticks.
	ControlPeriodUS uint32

	// AccelerationRatio scales the per-tick speed change derived from the
	// minimum speed.
	AccelerationRatio float32

	// MaxAxes is the fixed axis capacity.
	MaxAxes int
}

// DefaultMotionConfig returns the factory timing constants.
func DefaultMotionConfig() MotionConfig {
	return MotionConfig{
		ClockHz:           DefaultClockHz,
		ControlPeriodUS:   DefaultControlPeriodUS,
		AccelerationRatio: DefaultAccelerationRatio,
		MaxAxes:           DefaultMaxAxes,
	}
}

func (c *MotionConfig) applyDefaults() {
	if c.ClockHz == 0 {
		c.ClockHz = DefaultClockHz
	}
	if c.ControlPeriodUS == 0 {
		c.ControlPeriodUS = DefaultControlPeriodUS
	}
	if c.AccelerationRatio <= 0 {
		c.AccelerationRatio = DefaultAccelerationRatio
	}
	if c.MaxAxes <= 0 {
		c.MaxAxes = DefaultMaxAxes
	}
}

// ArrivalFunc is called from the pulse context when an axis settles on its
// target.
type ArrivalFunc func(name byte, position int32)

// Registry owns every axis and the configuration they share. Capacity is
// fixed at construction so axis pointers stay valid for the registry's
// lifetime.
type Registry struct {
	cfg     MotionConfig
	axes    []Axis
	count   int
	store   ConfigStore
	arrival ArrivalFunc
	clock   func() uint32
}

// NewRegistry creates an empty registry. Zero fields of cfg take defaults.
func NewRegistry(cfg MotionConfig) *Registry {
	cfg.applyDefaults()
	return &Registry{
		cfg:   cfg,
		axes:  make([]Axis, cfg.MaxAxes),
		clock: GetTime,
	}
}

// Config returns the timing constants in effect.
func (r *Registry) Config() MotionConfig { return r.cfg }

// SetConfigStore sets where LoadConfig and SaveConfig read and write.
func (r *Registry) SetConfigStore(store ConfigStore) { r.store = store }

// SetArrivalHandler installs the arrival notification.
func (r *Registry) SetArrivalHandler(f ArrivalFunc) { r.arrival = f }

// SetClock sets the time source stamped on recorded events.
func (r *Registry) SetClock(clock func() uint32) { r.clock = clock }

// NormalizeName maps an axis label to the form the registry stores.
func NormalizeName(name byte) byte {
	if name >= 'a' && name <= 'z' {
		return name - 'a' + 'A'
	}
	return name
}

// Axis returns the named axis, or nil.
func (r *Registry) Axis(name byte) *Axis {
	name = NormalizeName(name)
	for i := r.count - 1; i >= 0; i-- {
		if r.axes[i].name == name {
			return &r.axes[i]
		}
	}
	return nil
}

// HasAxis reports whether an axis with the given name exists.
func (r *Registry) HasAxis(name byte) bool {
	return r.Axis(name) != nil
}

// Count returns the number of configured axes.
func (r *Registry) Count() int { return r.count }

// Capacity returns the fixed number of axis slots.
func (r *Registry) Capacity() int { return len(r.axes) }

// Axes returns the configured axes in creation order.
func (r *Registry) Axes() []*Axis {
	out := make([]*Axis, r.count)
	for i := range out {
		out[i] = &r.axes[i]
	}
	return out
}

// allocate returns the named axis, creating it in factory state if needed.
func (r *Registry) allocate(name byte) (*Axis, error) {
	if a := r.Axis(name); a != nil {
		return a, nil
	}
	if r.count >= len(r.axes) {
		return nil, ErrNoMoreAxisSlots
	}
	a := &r.axes[r.count]
	a.name = NormalizeName(name)
	a.setStatus(Status(PhaseStopped))
	r.resetAxis(a)
	r.count++
	return a, nil
}

// SetupPeripherals binds pulse hardware to the named axis, creating the
// axis if it does not exist yet.
func (r *Registry) SetupPeripherals(name byte, backend StepperBackend) error {
	if backend == nil {
		return ErrNoBackend
	}
	a, err := r.allocate(name)
	if err != nil {
		return err
	}
	return r.whileStopped(a, func() {
		a.backend = backend
		if n, ok := backend.(PulseNotifier); ok {
			n.SetPulseHandler(func() { r.pulseUpdate(a) })
		}
		r.programTimer(a)
	})
}

// InitDefaultState puts the named axis into factory state, creating it if
// it does not exist yet.
func (r *Registry) InitDefaultState(name byte) error {
	a, err := r.allocate(name)
	if err != nil {
		return err
	}
	return r.whileStopped(a, func() {
		r.resetAxis(a)
		r.programTimer(a)
	})
}

func (r *Registry) resetAxis(a *Axis) {
	a.minSPS = DefaultMinSPS
	a.maxSPS = DefaultMaxSPS
	a.currentSPS.Store(a.minSPS)
	a.targetPosition.Store(0)
	a.currentPosition.Store(0)
	a.breakInitiationSPS = a.maxSPS
	r.applyProfile(a)
}

// whileStopped runs fn with the control tick masked, provided the axis is
// stopped.
func (r *Registry) whileStopped(a *Axis, fn func()) error {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if !a.Status().Stopped() {
		return ErrMustBeStopped
	}
	fn()
	return nil
}

func (r *Registry) lookup(name byte) (*Axis, error) {
	a := r.Axis(name)
	if a == nil {
		return nil, ErrAxisNotFound
	}
	return a, nil
}

func (r *Registry) now() uint32 {
	if r.clock == nil {
		return 0
	}
	return r.clock()
}

// programTimer loads the pulse period matching the current speed.
func (r *Registry) programTimer(a *Axis) {
	if a.backend == nil {
		return
	}
	prescaler, period := TimerSettings(r.cfg.ClockHz, a.currentSPS.Load())
	a.backend.SetPeriod(prescaler, period)
}

// clampSPS bounds a speed to the supported range and reports whether it
// had to.
func clampSPS(v int32) (int32, bool) {
	switch {
	case v < DefaultMinSPS:
		return DefaultMinSPS, true
	case v > DefaultMaxSPS:
		return DefaultMaxSPS, true
	}
	return v, false
}

// SetTargetPosition sets where the named axis should go. It is accepted in
// any state.
func (r *Registry) SetTargetPosition(name byte, position int32) error {
	a, err := r.lookup(name)
	if err != nil {
		return err
	}
	a.targetPosition.Store(position)
	return nil
}

// SetCurrentPosition redefines the position of a stopped axis. The target
// follows so the axis stays put.
func (r *Registry) SetCurrentPosition(name byte, position int32) error {
	a, err := r.lookup(name)
	if err != nil {
		return err
	}
	return r.whileStopped(a, func() {
		a.targetPosition.Store(position)
		a.currentPosition.Store(position)
	})
}

// SetMinSPS sets the start and stop speed. The maximum is raised to match
// if needed, and the acceleration profile is recomputed. Out of range
// values are clamped and reported with ErrValueLimit.
func (r *Registry) SetMinSPS(name byte, sps int32) error {
	a, err := r.lookup(name)
	if err != nil {
		return err
	}
	sps, limited := clampSPS(sps)
	err = r.whileStopped(a, func() {
		a.minSPS = sps
		if a.maxSPS < sps {
			a.maxSPS = sps
		}
		a.currentSPS.Store(sps)
		r.applyProfile(a)
		r.programTimer(a)
	})
	return r.finishSetting(err, limited)
}

// SetMaxSPS sets the cruise speed ceiling, lowering the minimum to match if
// needed.
func (r *Registry) SetMaxSPS(name byte, sps int32) error {
	a, err := r.lookup(name)
	if err != nil {
		return err
	}
	sps, limited := clampSPS(sps)
	err = r.whileStopped(a, func() {
		a.maxSPS = sps
		if a.minSPS > sps {
			a.minSPS = sps
			a.currentSPS.Store(sps)
			r.applyProfile(a)
			r.programTimer(a)
		}
	})
	return r.finishSetting(err, limited)
}

// SetAccelerationSPS sets the speed change applied per effective control
// tick.
func (r *Registry) SetAccelerationSPS(name byte, sps int32) error {
	a, err := r.lookup(name)
	if err != nil {
		return err
	}
	sps, limited := clampSPS(sps)
	err = r.whileStopped(a, func() {
		a.accelerationSPS = sps
	})
	return r.finishSetting(err, limited)
}

// SetTickPrescaler sets how many control ticks make one effective tick.
func (r *Registry) SetTickPrescaler(name byte, prescaler int32) error {
	a, err := r.lookup(name)
	if err != nil {
		return err
	}
	limited := false
	if prescaler < 1 {
		prescaler, limited = 1, true
	}
	err = r.whileStopped(a, func() {
		a.tickPrescaler = prescaler
		a.tickCounter = prescaler
	})
	return r.finishSetting(err, limited)
}

func (r *Registry) finishSetting(err error, limited bool) error {
	if err != nil {
		return err
	}
	r.Persist()
	if limited {
		return ErrValueLimit
	}
	return nil
}

// Persist saves settings after a change. A failing store is logged and
// does not fail the change that triggered it. It runs in the command
// context, so the log line is queued rather than written.
func (r *Registry) Persist() {
	if err := r.SaveConfig(); err != nil {
		DebugAsync("[CONFIG] save failed: " + err.Error())
		RecordEvent(EvtSaveFailed, 0, r.now(), 0, 0)
	}
}

// Settings returns the persisted subset of every axis.
func (r *Registry) Settings() []AxisSettings {
	out := make([]AxisSettings, r.count)
	for i := range out {
		out[i] = r.axes[i].Settings()
	}
	return out
}

// SaveConfig writes the settings of every axis to the config store.
func (r *Registry) SaveConfig() error {
	if r.store == nil {
		return nil
	}
	return r.store.Save(r.Settings())
}

// LoadConfig restores saved settings onto existing axes. Entries for
// unknown axes are skipped, and running axes keep their settings.
func (r *Registry) LoadConfig() error {
	if r.store == nil {
		return nil
	}
	saved, err := r.store.Load()
	if err != nil {
		return err
	}
	for _, s := range saved {
		a := r.Axis(s.Name)
		if a == nil {
			continue
		}
		if err := r.whileStopped(a, func() { r.applySettings(a, s) }); err != nil {
			DebugPrintln("[CONFIG] axis " + string(a.name) + " busy, settings not applied")
		}
	}
	return nil
}

func (r *Registry) applySettings(a *Axis, s AxisSettings) {
	a.minSPS, _ = clampSPS(s.MinSPS)
	a.maxSPS, _ = clampSPS(s.MaxSPS)
	if a.maxSPS < a.minSPS {
		a.maxSPS = a.minSPS
	}
	a.accelerationSPS, _ = clampSPS(s.AccelerationSPS)
	a.tickPrescaler = s.TickPrescaler
	if a.tickPrescaler < 1 {
		a.tickPrescaler = 1
	}
	a.tickCounter = a.tickPrescaler
	a.currentSPS.Store(a.minSPS)
	a.breakInitiationSPS = a.maxSPS
	r.programTimer(a)
}
