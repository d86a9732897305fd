// ABOUTME: Shared playlist loading and annealer-input construction for CLI and monitor modes
// ABOUTME: Adapted from the playlist sorter's InitializePlaylist

package main

import (
	"fmt"

	"github.com/stojg/mixopt/internal/anneal"
	"github.com/stojg/mixopt/internal/camelot"
	"github.com/stojg/mixopt/internal/config"
	"github.com/stojg/mixopt/internal/cost"
	"github.com/stojg/mixopt/internal/track"
)

// session bundles everything a run mode needs once the playlist and
// config have loaded.
type session struct {
	tracks []track.Track
	shared *config.Shared
	tables cost.Tables
}

func loadSession(opts RunOptions) (*session, error) {
	tracks, err := track.LoadWithMetadata(opts.PlaylistPath, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load playlist: %w", err)
	}

	if len(tracks) < 2 {
		return nil, fmt.Errorf("playlist has %d usable track(s), need at least 2 to optimize", len(tracks))
	}

	cfg, err := config.Load(config.GetConfigPath())
	if err != nil {
		return nil, err
	}

	shared := config.NewShared(cfg)
	tables := cost.BuildTables(cfg.CostParams())

	return &session{tracks: tracks, shared: shared, tables: tables}, nil
}

// input projects a session's tracks and live config into an
// anneal.Input for one Optimize call.
func (s *session) input(opts RunOptions, progress func(anneal.Progress)) anneal.Input {
	cfg := s.shared.Get()

	bpm := make([]float64, len(s.tracks))
	keyID := make([]camelot.Key, len(s.tracks))

	for i, t := range s.tracks {
		bpm[i] = t.BPM
		keyID[i] = t.KeyID
	}

	return anneal.Input{
		BPM:          bpm,
		KeyID:        keyID,
		Tables:       s.tables,
		CostParams:   cfg.CostParams(),
		AnnealParams: cfg.AnnealParams(),
		TimeLimit:    opts.TimeLimit,
		Progress:     progress,
	}
}
