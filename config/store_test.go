package config

import (
	"os"
	"path/filepath"
	"testing"

	"stepperhub/core"
)

var sampleSettings = []core.AxisSettings{
	{Name: 'X', MinSPS: 10, MaxSPS: 4000, AccelerationSPS: 8, TickPrescaler: 12},
	{Name: 'Y', MinSPS: 1, MaxSPS: 400000, AccelerationSPS: 1, TickPrescaler: 100},
}

func TestFileStoreMissing(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "settings.json"))
	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected no settings, got %v", got)
	}
}

func TestFileStoreSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s := NewFileStore(path)
	if err := s.Save(sampleSettings); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := NewFileStore(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != len(sampleSettings) {
		t.Fatalf("Expected %d axes, got %d", len(sampleSettings), len(got))
	}
	for i := range got {
		if got[i] != sampleSettings[i] {
			t.Errorf("Axis %d: expected %+v, got %+v", i, sampleSettings[i], got[i])
		}
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the settings file, got %d entries", len(entries))
	}
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`[{"name":"XX"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path).Load(); err == nil {
		t.Error("Expected error for bad axis name")
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore(sampleSettings[0])
	got, _ := s.Load()
	if len(got) != 1 || got[0] != sampleSettings[0] {
		t.Errorf("Expected preloaded settings, got %v", got)
	}

	in := append([]core.AxisSettings(nil), sampleSettings...)
	s.Save(in)
	in[0].MinSPS = 99
	got, _ = s.Load()
	if got[0].MinSPS != 10 {
		t.Errorf("Expected store to copy settings, got min %d", got[0].MinSPS)
	}
	if s.Saves() != 1 {
		t.Errorf("Expected 1 save, got %d", s.Saves())
	}
}
