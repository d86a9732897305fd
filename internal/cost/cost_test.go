// ABOUTME: Tests for the cost model and precomputed tables
// ABOUTME: Covers table determinism, edge-cost scenarios from spec.md §8, and breakdown consistency

package cost

import (
	"math"
	"testing"

	"github.com/stojg/mixopt/internal/camelot"
)

func mustParse(t *testing.T, s string) camelot.Key {
	t.Helper()

	k, err := camelot.Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}

	return k
}

// TestIndirectLessOrEqualDirect checks spec.md §8 "Table determinism"
// law: indirect_cost[k1,k2] <= direct_cost[k1,k2] for all k1,k2 (the
// candidate set for indirect includes k3=k2, i.e. direct+0).
func TestIndirectLessOrEqualDirect(t *testing.T) {
	tbl := BuildTables(DefaultParams())

	for _, k1 := range camelot.All() {
		for _, k2 := range camelot.All() {
			idx := costIndex(k1, k2)
			if tbl.IndirectCost[idx] > tbl.DirectCost[idx] {
				t.Errorf("indirect(%s,%s)=%v > direct=%v", k1, k2, tbl.IndirectCost[idx], tbl.DirectCost[idx])
			}
		}
	}
}

func TestBuildTablesDeterministic(t *testing.T) {
	a := BuildTables(DefaultParams())
	b := BuildTables(DefaultParams())

	if a != b {
		t.Error("BuildTables is not deterministic across calls with identical params")
	}
}

func TestShiftTableTotal(t *testing.T) {
	tbl := BuildTables(DefaultParams())
	for i, ek := range tbl.ShiftTable {
		if ek < 0 || int(ek) >= camelot.NumKeys {
			t.Errorf("ShiftTable[%d] = %d out of range", i, ek)
		}
	}
}

// Scenario 1: two identical tracks, same key -> cost 0.
func TestScenarioIdenticalTracks(t *testing.T) {
	tbl := BuildTables(DefaultParams())
	p := DefaultParams()

	k := mustParse(t, "8A")
	keyID := []camelot.Key{k, k}
	bpm := []float64{120, 120}

	b := StateCost(&tbl, p, bpm, keyID, []int{0, 1}, []int{0, 0})
	if b.Total != 0 {
		t.Errorf("identical tracks cost = %v, want 0", b.Total)
	}
}

// Scenario 2: small tempo jump (diff=4 <= 4.5) -> cost 0.
func TestScenarioSmallTempoJump(t *testing.T) {
	tbl := BuildTables(DefaultParams())
	p := DefaultParams()

	k := mustParse(t, "8A")
	keyID := []camelot.Key{k, k}
	bpm := []float64{120, 124}

	b := StateCost(&tbl, p, bpm, keyID, []int{0, 1}, []int{0, 0})
	if b.Total != 0 {
		t.Errorf("small tempo jump cost = %v, want 0", b.Total)
	}
}

// Scenario 3: tempo penalty (diff=6 > 4.5, not a break since 6 <= 9).
func TestScenarioTempoPenalty(t *testing.T) {
	tbl := BuildTables(DefaultParams())
	p := DefaultParams()

	k := mustParse(t, "8A")
	keyID := []camelot.Key{k, k}
	bpm := []float64{120, 126}

	b := StateCost(&tbl, p, bpm, keyID, []int{0, 1}, []int{0, 0})

	want := p.TempoCostWeight * p.TempoPenalty // 3*5=15
	if b.Total != want {
		t.Errorf("tempo penalty cost = %v, want %v", b.Total, want)
	}
}

// Scenario 4: tempo break (diff=80 > 9).
func TestScenarioTempoBreak(t *testing.T) {
	tbl := BuildTables(DefaultParams())
	p := DefaultParams()

	k1 := mustParse(t, "8A")
	k2 := mustParse(t, "1B")
	keyID := []camelot.Key{k1, k2}
	bpm := []float64{120, 200}

	b := StateCost(&tbl, p, bpm, keyID, []int{0, 1}, []int{0, 0})

	wantTempo := p.TempoPenalty * p.TempoBreakFactor // 10
	want := p.TempoCostWeight*wantTempo + 0          // shifts both 0
	if b.Total != want {
		t.Errorf("tempo break cost = %v, want %v", b.Total, want)
	}

	if b.Harmonic != 0 {
		t.Errorf("tempo break harmonic = %v, want 0", b.Harmonic)
	}
}

// TestBreakdownConsistency checks spec.md §8 invariant 4: Total == H +
// TempoCostWeight*T + ShiftWeight*S within 1e-9.
func TestBreakdownConsistency(t *testing.T) {
	tbl := BuildTables(DefaultParams())
	p := DefaultParams()

	k1 := mustParse(t, "8A")
	k2 := mustParse(t, "11B")
	k3 := mustParse(t, "3A")
	keyID := []camelot.Key{k1, k2, k3}
	bpm := []float64{120, 128, 95}

	b := StateCost(&tbl, p, bpm, keyID, []int{0, 1, 2}, []int{1, -1, 0})

	recomputed := b.Harmonic + p.TempoCostWeight*b.Tempo + p.ShiftWeight*b.Shift
	if math.Abs(recomputed-b.Total) > 1e-9 {
		t.Errorf("breakdown inconsistent: Total=%v, recomputed=%v", b.Total, recomputed)
	}
}

func TestEdgeCostBreakTempoSuppressesHarmonic(t *testing.T) {
	tbl := BuildTables(DefaultParams())
	p := DefaultParams()

	k1 := mustParse(t, "1A")
	k2 := mustParse(t, "7B") // would be NON_HARMONIC if it counted

	h, _, _ := EdgeCost(&tbl, p, 100, 300, k1, k2, 0, 0)
	if h != 0 {
		t.Errorf("harmonic cost across a tempo break = %v, want 0", h)
	}
}
