package core

// AxisSettings is the persisted subset of an axis: its speed limits and
// acceleration profile.
type AxisSettings struct {
	Name            byte
	MinSPS          int32
	MaxSPS          int32
	AccelerationSPS int32
	TickPrescaler   int32
}

// ConfigStore persists axis settings across restarts.
type ConfigStore interface {
	Load() ([]AxisSettings, error)
	Save(settings []AxisSettings) error
}
