// ABOUTME: Minimal-precision formatting for cost values shown during a live run
// ABOUTME: Adapted from the playlist sorter's FormatMinimalPrecision

// Package format renders cost values with just enough decimal digits
// to show a change between successive progress reports, so a terminal
// progress line doesn't flicker with noise past the digit that matters.
package format

import (
	"fmt"
	"math"
	"strings"
)

const maxPrecision = 10

// MinimalPrecision returns curr formatted with the minimum precision
// needed to distinguish it from prev, plus one extra digit of clarity.
func MinimalPrecision(prev, curr float64) string {
	if math.IsNaN(prev) || math.IsNaN(curr) || math.IsInf(prev, 0) || math.IsInf(curr, 0) {
		return fmt.Sprintf("%.2f", curr)
	}

	if prev == curr {
		return fmt.Sprintf("%.2f", curr)
	}

	for precision := 1; precision <= maxPrecision; precision++ {
		verb := fmt.Sprintf("%%.%df", precision)
		if fmt.Sprintf(verb, prev) != fmt.Sprintf(verb, curr) {
			clarity := precision + 1
			if clarity > maxPrecision {
				clarity = maxPrecision
			}

			return fmt.Sprintf(fmt.Sprintf("%%.%df", clarity), curr)
		}
	}

	return fmt.Sprintf(fmt.Sprintf("%%.%df", maxPrecision), curr)
}

// MonotonicPrecision is MinimalPrecision specialized for a best-cost
// series that only ever decreases: it compares curr against the lowest
// value seen so far rather than the immediately preceding one, so a
// long run of no-improvement reports doesn't lose precision relative
// to the last real change.
type MonotonicPrecision struct {
	lowest    float64
	precision int
	seen      bool
}

// Format records curr (if it is a new low) and returns it formatted
// against the previous low, never with fewer decimal digits than any
// earlier call returned.
func (m *MonotonicPrecision) Format(curr float64) string {
	if !m.seen {
		m.lowest = curr
		m.seen = true
		m.precision = 2

		return fmt.Sprintf("%.2f", curr)
	}

	s := MinimalPrecision(m.lowest, curr)
	if dot := strings.IndexByte(s, '.'); dot >= 0 && len(s)-dot-1 > m.precision {
		m.precision = len(s) - dot - 1
	}

	if curr < m.lowest {
		m.lowest = curr
	}

	return fmt.Sprintf("%.*f", m.precision, curr)
}
