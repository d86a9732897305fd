// ABOUTME: Track metadata and M3U8 playlist ingestion — the external collaborator spec.md §6 describes
// ABOUTME: Adapted from the playlist sorter's playlist/track.go and playlist/playlist.go

// Package track implements the library-ingestion collaborator the
// optimizer core treats as external (spec.md §1, §6): reading an
// M3U8 playlist, resolving each entry's audio tags, and filtering out
// tracks the core cannot accept (missing BPM or unparseable key).
package track

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dhowden/tag"

	"github.com/stojg/mixopt/internal/camelot"
)

// Track is one playlist entry together with the metadata the core
// needs plus labels carried through for reporting only (spec.md §3
// "Track").
type Track struct {
	Path   string
	Title  string
	Artist string
	Album  string

	BPM    float64
	Key    string
	KeyID  camelot.Key
	Energy int

	// HasKey and HasBPM record whether those fields resolved; a track
	// with either false is filtered before reaching the core.
	HasKey bool
	HasBPM bool
}

var (
	keyRegex    = regexp.MustCompile(`(\d+[AB])\s*-\s*Energy`)
	energyRegex = regexp.MustCompile(`Energy\s+(\d+)`)
)

// ReadPlaylist reads an M3U8 playlist file, returning one Track per
// non-comment, non-blank line with only Path populated.
func ReadPlaylist(path string) ([]Track, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open playlist: %w", err)
	}

	defer func() { _ = file.Close() }()

	var tracks []Track

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		tracks = append(tracks, Track{Path: line})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading playlist: %w", err)
	}

	return tracks, nil
}

// GetMetadata resolves audio tags for trackPath, reading the BPM from
// whichever custom tag the format exposes and the Camelot key/energy
// from a "NA - Energy N" style comment, matching the reference
// tagging convention.
func GetMetadata(trackPath, baseDir string) (Track, error) {
	fullPath := trackPath
	if !filepath.IsAbs(trackPath) && baseDir != "" {
		fullPath = filepath.Join(baseDir, trackPath)
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return Track{}, fmt.Errorf("failed to open file: %w", err)
	}

	defer func() { _ = file.Close() }()

	meta, err := tag.ReadFrom(file)
	if err != nil {
		return Track{}, fmt.Errorf("failed to read metadata: %w", err)
	}

	title := meta.Title()
	if title == "" {
		title = filepath.Base(trackPath)
	}

	bpm, hasBPM := extractBPM(meta)
	keyStr := extractKey(meta.Comment())

	t := Track{
		Path:   trackPath,
		Title:  title,
		Artist: meta.Artist(),
		Album:  meta.Album(),
		BPM:    bpm,
		Key:    keyStr,
		Energy: extractEnergy(meta.Comment()),
		HasBPM: hasBPM,
	}

	if keyStr != "" {
		if keyID, err := camelot.Parse(keyStr); err == nil {
			t.KeyID = keyID
			t.HasKey = true
		}
	}

	return t, nil
}

func extractBPM(meta tag.Metadata) (float64, bool) {
	raw := meta.Raw()
	if raw == nil {
		return 0, false
	}

	for _, key := range []string{"BPM", "TBPM", "bpm", "tempo"} {
		val, exists := raw[key]
		if !exists {
			continue
		}

		var bpm float64

		switch v := val.(type) {
		case string:
			bpm, _ = strconv.ParseFloat(v, 64)
		case int:
			bpm = float64(v)
		case float64:
			bpm = v
		}

		if bpm > 0 {
			return bpm, true
		}
	}

	return 0, false
}

func extractKey(comment string) string {
	m := keyRegex.FindStringSubmatch(comment)
	if len(m) > 1 {
		return m[1]
	}

	return ""
}

func extractEnergy(comment string) int {
	m := energyRegex.FindStringSubmatch(comment)
	if len(m) <= 1 {
		return 0
	}

	energy, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}

	return energy
}

// LoadWithMetadata reads path as an M3U8 playlist, resolves metadata
// for every entry, and filters out tracks missing BPM or an
// unparseable key (spec.md §6 "Library ingestion ... is required to
// filter out tracks with missing BPM or unparseable key"). If verbose
// is set, progress and skip reasons are printed to stdout.
func LoadWithMetadata(path string, verbose bool) ([]Track, error) {
	entries, err := ReadPlaylist(path)
	if err != nil {
		return nil, err
	}

	baseDir := filepath.Dir(path)

	if verbose {
		fmt.Printf("Loading metadata for %d tracks...\n", len(entries))
	}

	valid := make([]Track, 0, len(entries))

	for i, entry := range entries {
		if verbose && (i+1)%10 == 0 {
			fmt.Printf("[+] Processed %d/%d tracks...\n", i+1, len(entries))
		}

		t, err := GetMetadata(entry.Path, baseDir)
		if err != nil {
			if verbose {
				fmt.Printf("[!] Skipping track (could not read metadata): %s: %v\n", entry.Path, err)
			}

			continue
		}

		if !t.HasBPM || !t.HasKey {
			if verbose {
				fmt.Printf("[!] Skipping track (missing bpm or key): %s\n", entry.Path)
			}

			continue
		}

		valid = append(valid, t)
	}

	if len(valid) == 0 {
		return nil, fmt.Errorf("no tracks with both bpm and a valid key found in %s", path)
	}

	return valid, nil
}

// WritePlaylist writes tracks' Path fields back to path as an M3U8
// file, backing up any existing file to path+".bak" first.
func WritePlaylist(path string, tracks []Track) error {
	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, path+".bak"); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create playlist: %w", err)
	}

	defer func() { _ = file.Close() }()

	w := bufio.NewWriter(file)

	for _, t := range tracks {
		if _, err := w.WriteString(t.Path + "\n"); err != nil {
			return fmt.Errorf("failed to write track: %w", err)
		}
	}

	return w.Flush()
}
