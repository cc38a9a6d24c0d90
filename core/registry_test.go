package core

import (
	"errors"
	"testing"
)

// fakeBackend records what the registry asks of the pulse hardware.
type fakeBackend struct {
	prescaler uint32
	period    uint32
	enabled   bool
	enables   int
	disables  int
	dir       Direction
}

func (b *fakeBackend) SetPeriod(prescaler, period uint32) {
	b.prescaler = prescaler
	b.period = period
}

func (b *fakeBackend) Enable() {
	b.enabled = true
	b.enables++
}

func (b *fakeBackend) Disable() {
	b.enabled = false
	b.disables++
}

func (b *fakeBackend) SetDirection(d Direction) { b.dir = d }
func (b *fakeBackend) GetName() string { return "fake" }

type memStore struct {
	saved   []AxisSettings
	saves   int
	loadErr error
	saveErr error
}

func (s *memStore) Load() ([]AxisSettings, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return append([]AxisSettings(nil), s.saved...), nil
}

func (s *memStore) Save(settings []AxisSettings) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append([]AxisSettings(nil), settings...)
	return nil
}

func newTestRegistry(t *testing.T, names ...byte) (*Registry, map[byte]*fakeBackend) {
	t.Helper()
	reg := NewRegistry(DefaultMotionConfig())
	backends := make(map[byte]*fakeBackend)
	for _, n := range names {
		b := &fakeBackend{}
		if err := reg.SetupPeripherals(n, b); err != nil {
			t.Fatalf("SetupPeripherals(%c) failed: %v", n, err)
		}
		backends[n] = b
	}
	return reg, backends
}

func TestNewAxisFactoryState(t *testing.T) {
	reg, backends := newTestRegistry(t, 'X')

	a := reg.Axis('X')
	if a == nil {
		t.Fatal("Expected axis X to exist")
	}
	if !a.Status().Stopped() {
		t.Errorf("Expected STOPPED, got %s", a.Status())
	}
	if a.MinSPS() != DefaultMinSPS || a.MaxSPS() != DefaultMaxSPS {
		t.Errorf("Expected limits %d/%d, got %d/%d", DefaultMinSPS, DefaultMaxSPS, a.MinSPS(), a.MaxSPS())
	}
	if a.CurrentSPS() != a.MinSPS() {
		t.Errorf("Expected current speed %d, got %d", a.MinSPS(), a.CurrentSPS())
	}
	if a.TargetPosition() != 0 || a.CurrentPosition() != 0 {
		t.Errorf("Expected positions 0/0, got %d/%d", a.TargetPosition(), a.CurrentPosition())
	}

	p, period := TimerSettings(DefaultClockHz, DefaultMinSPS)
	if backends['X'].prescaler != p || backends['X'].period != period {
		t.Errorf("Expected timer %d/%d, got %d/%d", p, period, backends['X'].prescaler, backends['X'].period)
	}
}

func TestAxisNamesAreCaseInsensitive(t *testing.T) {
	reg, _ := newTestRegistry(t, 'y')

	if !reg.HasAxis('Y') || !reg.HasAxis('y') {
		t.Error("Expected axis Y to be found under both cases")
	}
	if reg.Axis('y').Name() != 'Y' {
		t.Errorf("Expected stored name Y, got %c", reg.Axis('y').Name())
	}
}

func TestAxisCapacity(t *testing.T) {
	reg := NewRegistry(MotionConfig{MaxAxes: 2})

	for _, n := range []byte{'A', 'B'} {
		if err := reg.InitDefaultState(n); err != nil {
			t.Fatalf("InitDefaultState(%c) failed: %v", n, err)
		}
	}
	if err := reg.InitDefaultState('C'); !errors.Is(err, ErrNoMoreAxisSlots) {
		t.Errorf("Expected ErrNoMoreAxisSlots, got %v", err)
	}
	if err := reg.InitDefaultState('A'); err != nil {
		t.Errorf("Re-initializing existing axis failed: %v", err)
	}
	if reg.Count() != 2 {
		t.Errorf("Expected 2 axes, got %d", reg.Count())
	}
}

func TestUnknownAxis(t *testing.T) {
	reg, _ := newTestRegistry(t, 'X')

	if err := reg.SetTargetPosition('Q', 10); !errors.Is(err, ErrAxisNotFound) {
		t.Errorf("Expected ErrAxisNotFound, got %v", err)
	}
	if err := reg.SetMinSPS('Q', 10); !errors.Is(err, ErrAxisNotFound) {
		t.Errorf("Expected ErrAxisNotFound, got %v", err)
	}
	if err := reg.SetupPeripherals('Q', nil); !errors.Is(err, ErrNoBackend) {
		t.Errorf("Expected ErrNoBackend, got %v", err)
	}
}

func TestSpeedLimitsAreClamped(t *testing.T) {
	reg, _ := newTestRegistry(t, 'X')
	a := reg.Axis('X')

	if err := reg.SetMaxSPS('X', 500000); !errors.Is(err, ErrValueLimit) {
		t.Errorf("Expected ErrValueLimit, got %v", err)
	}
	if a.MaxSPS() != DefaultMaxSPS {
		t.Errorf("Expected max %d, got %d", DefaultMaxSPS, a.MaxSPS())
	}

	if err := reg.SetMinSPS('X', 0); !errors.Is(err, ErrValueLimit) {
		t.Errorf("Expected ErrValueLimit, got %v", err)
	}
	if a.MinSPS() != 1 {
		t.Errorf("Expected min 1, got %d", a.MinSPS())
	}

	if err := reg.SetAccelerationSPS('X', -5); !errors.Is(err, ErrValueLimit) {
		t.Errorf("Expected ErrValueLimit, got %v", err)
	}
	if err := reg.SetTickPrescaler('X', 0); !errors.Is(err, ErrValueLimit) {
		t.Errorf("Expected ErrValueLimit, got %v", err)
	}
	if a.TickPrescaler() != 1 || a.AccelerationSPS() != 1 {
		t.Errorf("Expected acc 1 prescaler 1, got %d/%d", a.AccelerationSPS(), a.TickPrescaler())
	}
}

func TestMinAndMaxStayOrdered(t *testing.T) {
	reg, backends := newTestRegistry(t, 'X')
	a := reg.Axis('X')

	if err := reg.SetMaxSPS('X', 2000); err != nil {
		t.Fatalf("SetMaxSPS failed: %v", err)
	}
	if err := reg.SetMinSPS('X', 3000); err != nil {
		t.Fatalf("SetMinSPS failed: %v", err)
	}
	if a.MaxSPS() != 3000 {
		t.Errorf("Expected max raised to 3000, got %d", a.MaxSPS())
	}
	if a.CurrentSPS() != 3000 {
		t.Errorf("Expected current speed 3000, got %d", a.CurrentSPS())
	}
	if a.AccelerationSPS() != 1 || a.TickPrescaler() != 4 {
		t.Errorf("Expected profile 1/4, got %d/%d", a.AccelerationSPS(), a.TickPrescaler())
	}
	if backends['X'].period != 4000 {
		t.Errorf("Expected period 4000, got %d", backends['X'].period)
	}

	if err := reg.SetMaxSPS('X', 1000); err != nil {
		t.Fatalf("SetMaxSPS failed: %v", err)
	}
	if a.MinSPS() != 1000 || a.CurrentSPS() != 1000 {
		t.Errorf("Expected min and current lowered to 1000, got %d/%d", a.MinSPS(), a.CurrentSPS())
	}
}

func TestSettersRequireStoppedAxis(t *testing.T) {
	reg, backends := newTestRegistry(t, 'X')
	a := reg.Axis('X')

	reg.SetTargetPosition('X', 100)
	reg.ExecuteAll()
	if a.Status().Phase() != PhaseStarting {
		t.Fatalf("Expected STARTING, got %s", a.Status())
	}
	if !backends['X'].enabled {
		t.Error("Expected backend enabled")
	}

	if err := reg.SetMinSPS('X', 10); !errors.Is(err, ErrMustBeStopped) {
		t.Errorf("SetMinSPS: expected ErrMustBeStopped, got %v", err)
	}
	if err := reg.SetCurrentPosition('X', 0); !errors.Is(err, ErrMustBeStopped) {
		t.Errorf("SetCurrentPosition: expected ErrMustBeStopped, got %v", err)
	}
	if err := reg.InitDefaultState('X'); !errors.Is(err, ErrMustBeStopped) {
		t.Errorf("InitDefaultState: expected ErrMustBeStopped, got %v", err)
	}
	if err := reg.SetTargetPosition('X', -100); err != nil {
		t.Errorf("SetTargetPosition while running failed: %v", err)
	}
	if a.MinSPS() != DefaultMinSPS {
		t.Errorf("Expected min unchanged, got %d", a.MinSPS())
	}
}

func TestSetCurrentPositionMovesTarget(t *testing.T) {
	reg, _ := newTestRegistry(t, 'X')

	if err := reg.SetCurrentPosition('X', 42); err != nil {
		t.Fatalf("SetCurrentPosition failed: %v", err)
	}
	a := reg.Axis('X')
	if a.CurrentPosition() != 42 || a.TargetPosition() != 42 {
		t.Errorf("Expected 42/42, got %d/%d", a.CurrentPosition(), a.TargetPosition())
	}

	reg.ExecuteAll()
	if !a.Status().Stopped() {
		t.Errorf("Expected axis to stay STOPPED, got %s", a.Status())
	}
}

func TestSettingsPersistence(t *testing.T) {
	reg, _ := newTestRegistry(t, 'X', 'Y')
	store := &memStore{}
	reg.SetConfigStore(store)

	if err := reg.SetMinSPS('X', 1000); err != nil {
		t.Fatalf("SetMinSPS failed: %v", err)
	}
	if err := reg.SetMaxSPS('X', 5000); err != nil {
		t.Fatalf("SetMaxSPS failed: %v", err)
	}
	if store.saves != 2 {
		t.Errorf("Expected 2 saves, got %d", store.saves)
	}
	if len(store.saved) != 2 || store.saved[0].Name != 'X' {
		t.Fatalf("Unexpected saved settings %+v", store.saved)
	}

	fresh, _ := newTestRegistry(t, 'X', 'Y')
	fresh.SetConfigStore(store)
	if err := fresh.LoadConfig(); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	a := fresh.Axis('X')
	if a.MinSPS() != 1000 || a.MaxSPS() != 5000 {
		t.Errorf("Expected 1000/5000 restored, got %d/%d", a.MinSPS(), a.MaxSPS())
	}
	if a.AccelerationSPS() != 1 || a.TickPrescaler() != 12 {
		t.Errorf("Expected profile 1/12 restored, got %d/%d", a.AccelerationSPS(), a.TickPrescaler())
	}
	if a.CurrentSPS() != 1000 {
		t.Errorf("Expected current speed 1000, got %d", a.CurrentSPS())
	}
}

func TestSaveFailureDoesNotFailSetter(t *testing.T) {
	reg, _ := newTestRegistry(t, 'X')
	reg.SetConfigStore(&memStore{saveErr: errors.New("flash busy")})

	if err := reg.SetMaxSPS('X', 1000); err != nil {
		t.Errorf("Expected setter to succeed, got %v", err)
	}
	if reg.Axis('X').MaxSPS() != 1000 {
		t.Errorf("Expected max 1000, got %d", reg.Axis('X').MaxSPS())
	}
}

func TestSaveFailureIsLogged(t *testing.T) {
	ClearEventRing()
	defer ClearEventRing()
	SetDebugEnabled(true)
	debugChan = make(chan string, 4)
	defer func() {
		debugChan = nil
		SetDebugEnabled(false)
	}()

	reg, _ := newTestRegistry(t, 'X')
	reg.SetConfigStore(&memStore{saveErr: errors.New("flash busy")})
	if err := reg.SetMinSPS('X', 50); err != nil {
		t.Fatalf("Expected setter to succeed, got %v", err)
	}

	select {
	case msg := <-debugChan:
		if msg != "[CONFIG] save failed: flash busy" {
			t.Errorf("Unexpected log line %q", msg)
		}
	default:
		t.Error("Expected save failure to be queued")
	}

	found := false
	for _, evt := range Events() {
		if evt.EventType == EvtSaveFailed {
			found = true
		}
	}
	if !found {
		t.Error("Expected SAVE_FAIL event")
	}
}

func TestLoadConfigError(t *testing.T) {
	reg, _ := newTestRegistry(t, 'X')
	reg.SetConfigStore(&memStore{loadErr: errors.New("corrupt")})

	if err := reg.LoadConfig(); err == nil {
		t.Error("Expected LoadConfig to fail")
	}
}
