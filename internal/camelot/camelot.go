// ABOUTME: Camelot wheel key algebra — parsing, semitone shift, and harmonic cost
// ABOUTME: The 24-key enum and its pitch-class mapping are fixed, not configuration

// Package camelot implements the 24-point Camelot wheel used for harmonic
// mixing: key parsing, semitone shifting, and the harmonic cost between
// two keys.
package camelot

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// Key is a Camelot key id in 0..23, formed as (number, mode) pairs
// ordered 1A, 1B, 2A, 2B, ..., 12A, 12B.
type Key int

// NumKeys is the size of the Camelot wheel.
const NumKeys = 24

// ErrEmptyKey and ErrMalformedKey are returned by Parse.
var (
	ErrEmptyKey     = errors.New("camelot: empty key")
	ErrMalformedKey = errors.New("camelot: malformed key")
)

var keyRegex = regexp.MustCompile(`^0*(\d+)([AB])$`)

// pitchClass[k] and mode[k] give the canonical mapping for key id k.
// mode: 0 = minor (A), 1 = major (B).
var pitchClass = [NumKeys]int{
	8, 11, // 1A 1B
	3, 6, // 2A 2B
	10, 1, // 3A 3B
	5, 8, // 4A 4B
	0, 3, // 5A 5B
	7, 10, // 6A 6B
	2, 5, // 7A 7B
	9, 0, // 8A 8B
	4, 7, // 9A 9B
	11, 2, // 10A 10B
	6, 9, // 11A 11B
	1, 4, // 12A 12B
}

// pitchModeToKey maps (pitchClass*2 + mode) -> Key id.
var pitchModeToKey [12 * 2]Key

func init() {
	for k := 0; k < NumKeys; k++ {
		pc := pitchClass[k]
		m := k % 2
		pitchModeToKey[pc*2+m] = Key(k)
	}
}

// Number returns the Camelot number (1-12) for a key.
func (k Key) Number() int { return int(k)/2 + 1 }

// Letter returns 'A' (minor) or 'B' (major) for a key.
func (k Key) Letter() byte {
	if int(k)%2 == 0 {
		return 'A'
	}
	return 'B'
}

// Mode returns 0 for minor (A), 1 for major (B).
func (k Key) Mode() int { return int(k) % 2 }

// PitchClass returns the canonical pitch class (0..11) for a key.
func (k Key) PitchClass() int { return pitchClass[k] }

// String renders a key as "NA" or "NB".
func (k Key) String() string {
	return fmt.Sprintf("%d%c", k.Number(), k.Letter())
}

// Parse accepts "NA"/"NB" with optional leading zeros (e.g. "08A") and
// returns the corresponding Key id.
func Parse(s string) (Key, error) {
	if s == "" {
		return 0, ErrEmptyKey
	}

	matches := keyRegex.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedKey, s)
	}

	number, err := strconv.Atoi(matches[1])
	if err != nil || number < 1 || number > 12 {
		return 0, fmt.Errorf("%w: key number out of range in %q", ErrMalformedKey, s)
	}

	mode := 0
	if matches[2] == "B" {
		mode = 1
	}

	return Key((number-1)*2 + mode), nil
}

// Shift applies a semitone shift in {-1, 0, +1} and returns the
// resulting key id. Mode is preserved; pitch class wraps modulo 12.
// Shift is total: every (key, s) pair maps to a valid key.
func Shift(k Key, s int) Key {
	if s == 0 {
		return k
	}

	pc := (pitchClass[k] + s%12 + 12) % 12
	m := k.Mode()

	return pitchModeToKey[pc*2+m]
}

// Harmonic cost constants (spec.md §4.A). These are configuration with
// the documented defaults, threaded through Costs below.
type Costs struct {
	ExactMatch            float64
	SameKeyScaleChange     float64
	KeyDiffOne             float64
	KeyDiffOneScaleChange  float64
	NonHarmonic            float64
}

// DefaultCosts returns the five documented harmonic cost defaults.
func DefaultCosts() Costs {
	return Costs{
		ExactMatch:            0,
		SameKeyScaleChange:     0.5,
		KeyDiffOne:             0.5,
		KeyDiffOneScaleChange:  5,
		NonHarmonic:            5,
	}
}

// HarmonicCost computes the harmonic cost between two effective keys
// per spec.md §4.A.
func HarmonicCost(k1, k2 Key, c Costs) float64 {
	n1, n2 := k1.Number(), k2.Number()
	m1, m2 := k1.Mode(), k2.Mode()

	if n1 == n2 && m1 == m2 {
		return c.ExactMatch
	}

	if n1 == n2 {
		return c.SameKeyScaleChange
	}

	diff := n1 - n2
	if diff < 0 {
		diff = -diff
	}

	d := diff
	if 12-diff < d {
		d = 12 - diff
	}

	if d == 1 && m1 == m2 {
		return c.KeyDiffOne
	}

	if d == 1 {
		return c.KeyDiffOneScaleChange
	}

	return c.NonHarmonic
}

// All returns all 24 keys in canonical order (1A, 1B, 2A, 2B, ..., 12B).
func All() []Key {
	keys := make([]Key, NumKeys)
	for i := range keys {
		keys[i] = Key(i)
	}

	return keys
}
