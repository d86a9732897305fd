// ABOUTME: Cost model and precomputed transition tables over the Camelot algebra
// ABOUTME: Edge cost, state cost, and the once-per-run table builder (components B and C)

// Package cost defines the mix dissonance cost model: per-edge harmonic
// and tempo cost, per-state shift penalty, and the dense lookup tables
// the hot annealing loop depends on.
package cost

import "github.com/stojg/mixopt/internal/camelot"

// Params holds the cost-model configuration recognized by the engine
// (spec.md §6 cost_params).
type Params struct {
	TempoThreshold   float64
	TempoPenalty     float64
	TempoBreakFactor float64
	TempoCostWeight  float64
	NonHarmonicCost  float64
	ShiftPenalty     float64
	ShiftWeight      float64

	Harmonic camelot.Costs
}

// DefaultParams returns the documented reference defaults (spec.md §6).
func DefaultParams() Params {
	return Params{
		TempoThreshold:   4.5,
		TempoPenalty:     5,
		TempoBreakFactor: 2,
		TempoCostWeight:  3,
		NonHarmonicCost:  5,
		ShiftPenalty:     1,
		ShiftWeight:      1,
		Harmonic:         camelot.DefaultCosts(),
	}
}

// Tables holds the flat, integer-indexed lookup tables built once per
// run (spec.md §3 "Precomputed tables", §4.C).
type Tables struct {
	// ShiftTable[key*3+(shift+1)] -> effective key id. 72 entries.
	ShiftTable [camelot.NumKeys * 3]camelot.Key
	// DirectCost[ek1*24+ek2] and IndirectCost[ek1*24+ek2]: harmonic
	// cost between effective keys, direct and best-via-one-intermediate.
	DirectCost   [camelot.NumKeys * camelot.NumKeys]float64
	IndirectCost [camelot.NumKeys * camelot.NumKeys]float64
}

// shiftIndex returns the flat index into ShiftTable for (key, shift).
func shiftIndex(k camelot.Key, shift int) int {
	return int(k)*3 + (shift + 1)
}

// costIndex returns the flat index into Direct/IndirectCost for (ek1, ek2).
func costIndex(ek1, ek2 camelot.Key) int {
	return int(ek1)*camelot.NumKeys + int(ek2)
}

// BuildTables constructs the shift table and the direct/indirect cost
// tables from the harmonic cost parameters. Independent of track
// input: a given set of Params yields identical tables across runs.
func BuildTables(p Params) Tables {
	var t Tables

	for _, k := range camelot.All() {
		for _, s := range []int{-1, 0, 1} {
			t.ShiftTable[shiftIndex(k, s)] = camelot.Shift(k, s)
		}
	}

	keys := camelot.All()
	for _, k1 := range keys {
		for _, k2 := range keys {
			t.DirectCost[costIndex(k1, k2)] = camelot.HarmonicCost(k1, k2, p.Harmonic)
		}
	}

	for _, k1 := range keys {
		for _, k2 := range keys {
			best := t.DirectCost[costIndex(k1, k2)]
			for _, k3 := range keys {
				via := t.DirectCost[costIndex(k1, k3)] + t.DirectCost[costIndex(k3, k2)]
				if via < best {
					best = via
				}
			}

			t.IndirectCost[costIndex(k1, k2)] = best
		}
	}

	return t
}

// EffectiveKey returns the effective key for track key k shifted by s,
// using the precomputed shift table.
func (t *Tables) EffectiveKey(k camelot.Key, s int) camelot.Key {
	return t.ShiftTable[shiftIndex(k, s)]
}

// Breakdown is the three-component decomposition of a state cost
// (spec.md §4.B / §8 invariant 4): Total == H + TempoCostWeight*T +
// ShiftWeight*S within floating tolerance.
type Breakdown struct {
	Harmonic float64
	Tempo    float64
	Shift    float64
	Total    float64
}

// EdgeCost computes the cost of one adjacent transition (spec.md
// §4.B). bpm1/bpm2 are the two tracks' BPM, k1/k2 their base keys,
// s1/s2 their shifts. Returns (harmonicCost, tempoCostRaw, total) so
// callers can accumulate H/T components separately; total already
// applies TempoCostWeight.
func EdgeCost(t *Tables, p Params, bpm1, bpm2 float64, k1, k2 camelot.Key, s1, s2 int) (h, tempoRaw, total float64) {
	diff := bpm1 - bpm2
	if diff < 0 {
		diff = -diff
	}

	breakThreshold := p.TempoBreakFactor * p.TempoThreshold

	if diff > breakThreshold {
		tempoRaw = p.TempoPenalty * p.TempoBreakFactor

		return 0, tempoRaw, p.TempoCostWeight * tempoRaw
	}

	ek1 := t.EffectiveKey(k1, s1)
	ek2 := t.EffectiveKey(k2, s2)
	idx := costIndex(ek1, ek2)

	direct := t.DirectCost[idx]
	h = direct

	if direct == p.NonHarmonicCost && t.IndirectCost[idx] >= p.NonHarmonicCost {
		h += 2 * p.NonHarmonicCost
	}

	if diff > p.TempoThreshold {
		tempoRaw = p.TempoPenalty
	}

	return h, tempoRaw, h + p.TempoCostWeight*tempoRaw
}

// StateCost computes the full cost of a mix state (spec.md §4.B) and
// returns its three-component breakdown. order is a permutation of
// 0..n-1 into the bpm/keyID arrays; shifts[i] is the shift applied to
// track i.
func StateCost(t *Tables, p Params, bpm []float64, keyID []camelot.Key, order []int, shifts []int) Breakdown {
	var b Breakdown

	for j := 0; j < len(order)-1; j++ {
		i1, i2 := order[j], order[j+1]

		h, tempoRaw, _ := EdgeCost(t, p, bpm[i1], bpm[i2], keyID[i1], keyID[i2], shifts[i1], shifts[i2])
		b.Harmonic += h
		b.Tempo += tempoRaw
	}

	shifted := 0

	for _, s := range shifts {
		if s != 0 {
			shifted++
		}
	}

	b.Shift = float64(shifted) * p.ShiftPenalty
	b.Total = b.Harmonic + p.TempoCostWeight*b.Tempo + p.ShiftWeight*b.Shift

	return b
}
