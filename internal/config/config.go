// ABOUTME: TOML-backed persistence for cost and annealer parameters
// ABOUTME: Adapted from the playlist sorter's GAConfig load/save/default and SharedConfig

// Package config loads and saves the tunable cost-model and annealer
// parameters, and exposes Shared, a mutex-guarded holder that a
// config-file watcher can update while other goroutines read it. A
// running optimization does not reread Shared.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/stojg/mixopt/internal/anneal"
	"github.com/stojg/mixopt/internal/camelot"
	"github.com/stojg/mixopt/internal/cost"
)

// MixConfig holds every tunable recognized by the cost model and the
// annealer (spec.md §6 cost_params / anneal_params).
type MixConfig struct {
	TempoThreshold   float64 `toml:"tempo_threshold"`
	TempoPenalty     float64 `toml:"tempo_penalty"`
	TempoBreakFactor float64 `toml:"tempo_break_factor"`
	TempoCostWeight  float64 `toml:"tempo_cost_weight"`
	NonHarmonicCost  float64 `toml:"non_harmonic_cost"`
	ShiftPenalty     float64 `toml:"shift_penalty"`
	ShiftWeight      float64 `toml:"shift_weight"`

	ExactMatch            float64 `toml:"exact_match"`
	SameKeyScaleChange     float64 `toml:"same_key_scale_change"`
	KeyDiffOne            float64 `toml:"key_diff_one"`
	KeyDiffOneScaleChange  float64 `toml:"key_diff_one_scale_change"`

	TotalIterations int     `toml:"total_iterations"`
	InitialTemp     float64 `toml:"initial_temp"`
	FinalTemp       float64 `toml:"final_temp"`
	MultiSwapFactor float64 `toml:"multi_swap_factor"`
	ReportingRate   int     `toml:"reporting_rate"`
}

// DefaultConfig returns the documented reference defaults (spec.md §6).
func DefaultConfig() MixConfig {
	cp := cost.DefaultParams()
	ap := anneal.DefaultParams()

	return MixConfig{
		TempoThreshold:   cp.TempoThreshold,
		TempoPenalty:     cp.TempoPenalty,
		TempoBreakFactor: cp.TempoBreakFactor,
		TempoCostWeight:  cp.TempoCostWeight,
		NonHarmonicCost:  cp.NonHarmonicCost,
		ShiftPenalty:     cp.ShiftPenalty,
		ShiftWeight:      cp.ShiftWeight,

		ExactMatch:            cp.Harmonic.ExactMatch,
		SameKeyScaleChange:    cp.Harmonic.SameKeyScaleChange,
		KeyDiffOne:            cp.Harmonic.KeyDiffOne,
		KeyDiffOneScaleChange: cp.Harmonic.KeyDiffOneScaleChange,

		TotalIterations: ap.TotalIterations,
		InitialTemp:     ap.InitialTemp,
		FinalTemp:       ap.FinalTemp,
		MultiSwapFactor: ap.MultiSwapFactor,
		ReportingRate:   ap.ReportingRate,
	}
}

// CostParams projects the cost-model fields out of MixConfig.
func (c MixConfig) CostParams() cost.Params {
	return cost.Params{
		TempoThreshold:   c.TempoThreshold,
		TempoPenalty:     c.TempoPenalty,
		TempoBreakFactor: c.TempoBreakFactor,
		TempoCostWeight:  c.TempoCostWeight,
		NonHarmonicCost:  c.NonHarmonicCost,
		ShiftPenalty:     c.ShiftPenalty,
		ShiftWeight:      c.ShiftWeight,
		Harmonic: camelot.Costs{
			ExactMatch:            c.ExactMatch,
			SameKeyScaleChange:    c.SameKeyScaleChange,
			KeyDiffOne:            c.KeyDiffOne,
			KeyDiffOneScaleChange: c.KeyDiffOneScaleChange,
			NonHarmonic:           c.NonHarmonicCost,
		},
	}
}

// AnnealParams projects the annealer fields out of MixConfig.
func (c MixConfig) AnnealParams() anneal.Params {
	return anneal.Params{
		TotalIterations: c.TotalIterations,
		InitialTemp:     c.InitialTemp,
		FinalTemp:       c.FinalTemp,
		MultiSwapFactor: c.MultiSwapFactor,
		ReportingRate:   c.ReportingRate,
	}
}

// GetConfigPath returns the default config file path: the current
// directory first, falling back to ~/.config/mixopt/config.toml.
func GetConfigPath() string {
	if _, err := os.Stat("./mixopt.toml"); err == nil {
		return "./mixopt.toml"
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./mixopt.toml"
	}

	return filepath.Join(home, ".config", "mixopt", "config.toml")
}

// Load reads a TOML config file, falling back to DefaultConfig if the
// file does not exist.
func Load(path string) (MixConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}

		return DefaultConfig(), fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes cfg to path as TOML, creating parent directories as
// needed.
func Save(path string, cfg MixConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	defer func() {
		_ = f.Close()
	}()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Shared wraps MixConfig with a mutex for thread-safe access between
// the config watcher that updates it and the code that reads it.
type Shared struct {
	mu  sync.RWMutex
	cfg MixConfig
}

// NewShared returns a Shared initialized with cfg.
func NewShared(cfg MixConfig) *Shared {
	return &Shared{cfg: cfg}
}

// Get returns a copy of the current config.
func (s *Shared) Get() MixConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.cfg
}

// Update replaces the current config.
func (s *Shared) Update(cfg MixConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg = cfg
}
