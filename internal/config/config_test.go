package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfigRoundTripsThroughProjections(t *testing.T) {
	cfg := DefaultConfig()

	cp := cfg.CostParams()
	if cp.TempoThreshold != 4.5 || cp.NonHarmonicCost != 5 {
		t.Errorf("CostParams() = %+v, want tempo_threshold=4.5 non_harmonic_cost=5", cp)
	}

	ap := cfg.AnnealParams()
	if ap.TotalIterations != 410000 || ap.InitialTemp != 500 {
		t.Errorf("AnnealParams() = %+v, want total_iterations=410000 initial_temp=500", ap)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mixopt.toml")

	cfg := DefaultConfig()
	cfg.InitialTemp = 123.5

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.InitialTemp != 123.5 {
		t.Errorf("loaded.InitialTemp = %v, want 123.5", loaded.InitialTemp)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "does-not-exist.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg != DefaultConfig() {
		t.Errorf("Load of missing file = %+v, want defaults", cfg)
	}
}

func TestSharedGetUpdate(t *testing.T) {
	s := NewShared(DefaultConfig())

	got := s.Get()
	if got.InitialTemp != 500 {
		t.Errorf("Get().InitialTemp = %v, want 500", got.InitialTemp)
	}

	updated := DefaultConfig()
	updated.InitialTemp = 42

	s.Update(updated)

	if s.Get().InitialTemp != 42 {
		t.Errorf("after Update, Get().InitialTemp = %v, want 42", s.Get().InitialTemp)
	}
}
