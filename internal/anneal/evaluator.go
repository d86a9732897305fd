// ABOUTME: Fast delta-cost primitives for the annealer's hot loop (component D)
// ABOUTME: edge cost, affected-edges set, and local shift re-optimization — flat-array lookups only

package anneal

import (
	"github.com/stojg/mixopt/internal/camelot"
	"github.com/stojg/mixopt/internal/cost"
)

// state is the mutable working state for one annealing attempt: a
// permutation (order) over track indices and a per-track shift. bpm
// and keyID are the immutable input arrays shared read-only across
// the whole run.
type state struct {
	tables *cost.Tables
	params cost.Params
	bpm    []float64
	keyID  []camelot.Key

	order  []int
	shifts []int
}

// edgeCostAt returns the total cost of the edge at position j (the
// transition order[j] -> order[j+1]). j must be in [0, len(order)-2].
func (s *state) edgeCostAt(j int) float64 {
	i1, i2 := s.order[j], s.order[j+1]
	_, _, total := cost.EdgeCost(s.tables, s.params, s.bpm[i1], s.bpm[i2], s.keyID[i1], s.keyID[i2], s.shifts[i1], s.shifts[i2])

	return total
}

// edgeBreakdownAt returns (harmonic, tempoRaw) for the edge at position j.
func (s *state) edgeBreakdownAt(j int) (h, tempoRaw float64) {
	i1, i2 := s.order[j], s.order[j+1]
	h, tempoRaw, _ = cost.EdgeCost(s.tables, s.params, s.bpm[i1], s.bpm[i2], s.keyID[i1], s.keyID[i2], s.shifts[i1], s.shifts[i2])

	return h, tempoRaw
}

// affectedEdges returns the set of edge start-positions whose cost can
// change when positions a and b are swapped, per spec.md §4.D. At most
// 4 entries, deduplicated, clipped to [0, n-2].
func affectedEdges(a, b, n int) []int {
	if a > b {
		a, b = b, a
	}

	candidates := [4]int{a - 1, a, b - 1, b}

	out := make([]int, 0, 4)
	seen := make(map[int]struct{}, 4)

	for _, p := range candidates {
		if p < 0 || p > n-2 {
			continue
		}

		if _, dup := seen[p]; dup {
			continue
		}

		seen[p] = struct{}{}
		out = append(out, p)
	}

	return out
}

// sumEdgeCosts sums edgeCostAt over the given positions.
func (s *state) sumEdgeCosts(positions []int) float64 {
	total := 0.0
	for _, j := range positions {
		total += s.edgeCostAt(j)
	}

	return total
}

// optimizeShiftAt tries each shift in {-1, 0, +1} for the track at
// order[pos] and keeps the one minimizing the sum of the (up to two)
// edge costs incident to pos, per spec.md §4.D. Ties keep the current
// value. Mutates shifts in place; touches no edge not incident to pos.
func (s *state) optimizeShiftAt(pos int) {
	i := s.order[pos]
	n := len(s.order)

	localCost := func() float64 {
		c := 0.0
		if pos > 0 {
			c += s.edgeCostAt(pos - 1)
		}

		if pos < n-1 {
			c += s.edgeCostAt(pos)
		}

		return c
	}

	bestShift := s.shifts[i]
	bestCost := localCost()

	for _, cand := range [3]int{-1, 0, 1} {
		if cand == bestShift {
			continue
		}

		s.shifts[i] = cand

		c := localCost()
		if c < bestCost {
			bestCost = c
			bestShift = cand
		}
	}

	s.shifts[i] = bestShift
}
