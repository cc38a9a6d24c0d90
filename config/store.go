package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"stepperhub/core"
)

type storedAxis struct {
	Name            string `json:"name"`
	MinSPS          int32  `json:"min_sps"`
	MaxSPS          int32  `json:"max_sps"`
	AccelerationSPS int32  `json:"acceleration_sps"`
	TickPrescaler   int32  `json:"tick_prescaler"`
}

// FileStore keeps axis settings in a JSON file.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path. The file is created on the
// first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load implements core.ConfigStore. A missing file holds no settings.
func (s *FileStore) Load() ([]core.AxisSettings, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var stored []storedAxis
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", s.path, err)
	}
	out := make([]core.AxisSettings, 0, len(stored))
	for _, a := range stored {
		if len(a.Name) != 1 {
			return nil, fmt.Errorf("parse settings %s: %w: %q", s.path, ErrAxisName, a.Name)
		}
		out = append(out, core.AxisSettings{
			Name:            a.Name[0],
			MinSPS:          a.MinSPS,
			MaxSPS:          a.MaxSPS,
			AccelerationSPS: a.AccelerationSPS,
			TickPrescaler:   a.TickPrescaler,
		})
	}
	return out, nil
}

// Save implements core.ConfigStore. The file is replaced atomically.
func (s *FileStore) Save(settings []core.AxisSettings) error {
	stored := make([]storedAxis, len(settings))
	for i, a := range settings {
		stored[i] = storedAxis{
			Name:            string(a.Name),
			MinSPS:          a.MinSPS,
			MaxSPS:          a.MaxSPS,
			AccelerationSPS: a.AccelerationSPS,
			TickPrescaler:   a.TickPrescaler,
		}
	}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// MemoryStore keeps settings in memory.
type MemoryStore struct {
	mu       sync.Mutex
	settings []core.AxisSettings
	saves    int
}

// NewMemoryStore returns a store preloaded with settings.
func NewMemoryStore(settings ...core.AxisSettings) *MemoryStore {
	return &MemoryStore{settings: settings}
}

// Load implements core.ConfigStore.
func (s *MemoryStore) Load() ([]core.AxisSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.AxisSettings(nil), s.settings...), nil
}

// Save implements core.ConfigStore.
func (s *MemoryStore) Save(settings []core.AxisSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = append(s.settings[:0:0], settings...)
	s.saves++
	return nil
}

// Saves returns how many times Save was called.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
