package anneal

import (
	"context"
	"testing"
	"time"

	"github.com/stojg/mixopt/internal/camelot"
	"github.com/stojg/mixopt/internal/cost"
)

func smallInput(t *testing.T, n int, iters int) Input {
	t.Helper()

	tables := cost.BuildTables(cost.DefaultParams())

	bpm := make([]float64, n)
	keyID := make([]camelot.Key, n)

	keys := []string{"8A", "9A", "3B", "1B", "6A", "12B", "4A", "7B"}

	for i := 0; i < n; i++ {
		bpm[i] = 118 + float64(i)*2

		k, err := camelot.Parse(keys[i%len(keys)])
		if err != nil {
			t.Fatalf("parse: %v", err)
		}

		keyID[i] = k
	}

	seed := uint64(42)

	return Input{
		BPM:          bpm,
		KeyID:        keyID,
		Tables:       tables,
		CostParams:   cost.DefaultParams(),
		AnnealParams: Params{TotalIterations: iters, InitialTemp: 50, FinalTemp: 0.1, MultiSwapFactor: 2, ReportingRate: 1000},
		TimeLimit:    2 * time.Second,
		Seed:         &seed,
	}
}

func isPermutation(order []int, n int) bool {
	seen := make([]bool, n)

	for _, i := range order {
		if i < 0 || i >= n || seen[i] {
			return false
		}

		seen[i] = true
	}

	return true
}

func TestOptimizeInvariants(t *testing.T) {
	in := smallInput(t, 6, 2000)

	res, err := Optimize(context.Background(), in)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	n := len(in.BPM)

	if !isPermutation(res.BestOrder, n) {
		t.Errorf("invariant 1: BestOrder %v is not a permutation of 0..%d", res.BestOrder, n-1)
	}

	for _, s := range res.BestShifts {
		if s != -1 && s != 0 && s != 1 {
			t.Errorf("invariant 2: shift %d out of {-1,0,1}", s)
		}
	}

	recomputed := cost.StateCost(&in.Tables, in.CostParams, in.BPM, in.KeyID, res.BestOrder, res.BestShifts)
	if diff := abs(recomputed.Total - res.BestCost); diff > 1e-9 {
		t.Errorf("invariant 3: recompute_total = %v, want %v", recomputed.Total, res.BestCost)
	}

	breakdownSum := res.Breakdown.Harmonic + in.CostParams.TempoCostWeight*res.Breakdown.Tempo + in.CostParams.ShiftWeight*res.Breakdown.Shift
	if diff := abs(breakdownSum - res.BestCost); diff > 1e-9 {
		t.Errorf("invariant 4: H+w*T+w*S = %v, want best_cost = %v", breakdownSum, res.BestCost)
	}

	if res.NAttempts < 1 {
		t.Errorf("invariant 5: n_attempts = %d, want >= 1", res.NAttempts)
	}

	for i, ac := range res.AttemptCosts {
		if ac.Total < res.BestCost-1e-9 {
			t.Errorf("invariant 6: attempt %d cost %v < best_cost %v", i, ac.Total, res.BestCost)
		}
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}

	return v
}

func TestOptimizeMonotonicityOfBestAcrossAttempts(t *testing.T) {
	in := smallInput(t, 6, 2000)

	running := make([]float64, 0)
	best := make([]float64, 0)

	in.Progress = nil

	res, err := Optimize(context.Background(), in)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	runningBest := res.AttemptCosts[0].Total
	running = append(running, runningBest)
	best = append(best, runningBest)

	for _, ac := range res.AttemptCosts[1:] {
		if ac.Total < runningBest {
			runningBest = ac.Total
		}

		running = append(running, ac.Total)
		best = append(best, runningBest)
	}

	for i := 1; i < len(best); i++ {
		if best[i] > best[i-1]+1e-12 {
			t.Errorf("running best increased at attempt %d: %v -> %v", i, best[i-1], best[i])
		}
	}

	if abs(runningBest-res.BestCost) > 1e-9 {
		t.Errorf("final running best %v != reported BestCost %v", runningBest, res.BestCost)
	}
}

func TestOptimizeDeterminism(t *testing.T) {
	in1 := smallInput(t, 6, 3000)
	in2 := smallInput(t, 6, 3000)

	res1, err := Optimize(context.Background(), in1)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	res2, err := Optimize(context.Background(), in2)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	if res1.BestCost != res2.BestCost {
		t.Errorf("determinism: BestCost differs: %v vs %v", res1.BestCost, res2.BestCost)
	}

	for i := range res1.BestOrder {
		if res1.BestOrder[i] != res2.BestOrder[i] {
			t.Fatalf("determinism: BestOrder differs at %d: %v vs %v", i, res1.BestOrder, res2.BestOrder)
		}
	}

	for i := range res1.BestShifts {
		if res1.BestShifts[i] != res2.BestShifts[i] {
			t.Fatalf("determinism: BestShifts differs at %d: %v vs %v", i, res1.BestShifts, res2.BestShifts)
		}
	}
}

func TestOptimizeInvalidInput(t *testing.T) {
	in := smallInput(t, 6, 100)
	in.BPM = in.BPM[:1]
	in.KeyID = in.KeyID[:1]

	_, err := Optimize(context.Background(), in)
	if _, ok := err.(*InvalidInputError); !ok {
		t.Errorf("expected *InvalidInputError, got %T: %v", err, err)
	}
}

func TestOptimizeInvalidConfig(t *testing.T) {
	in := smallInput(t, 6, 100)
	in.AnnealParams.TotalIterations = 0

	_, err := Optimize(context.Background(), in)
	if _, ok := err.(*InvalidConfigError); !ok {
		t.Errorf("expected *InvalidConfigError, got %T: %v", err, err)
	}
}

func TestOptimizeCancellation(t *testing.T) {
	in := smallInput(t, 6, 50000000)
	in.TimeLimit = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Optimize(ctx, in)
	if err == nil {
		t.Fatalf("expected error on pre-cancelled context with zero completed attempts, got result %+v", res)
	}
}

func TestOptimizeDissonantPairRescuableByShift(t *testing.T) {
	// Three tracks whose natural keys form a non-harmonic chain
	// (scenario 5, spec.md §8): 1A and 8A are five steps apart on the
	// wheel, but 8A shifted down a semitone becomes 1A.
	tables := cost.BuildTables(cost.DefaultParams())

	k1a, _ := camelot.Parse("1A")
	k8a, _ := camelot.Parse("8A")
	k2a, _ := camelot.Parse("2A")

	in := Input{
		BPM:          []float64{120, 120, 120},
		KeyID:        []camelot.Key{k1a, k8a, k2a},
		Tables:       tables,
		CostParams:   cost.DefaultParams(),
		AnnealParams: Params{TotalIterations: 20000, InitialTemp: 50, FinalTemp: 0.1, MultiSwapFactor: 2, ReportingRate: 5000},
		TimeLimit:    2 * time.Second,
	}

	seed := uint64(7)
	in.Seed = &seed

	res, err := Optimize(context.Background(), in)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	baseline := cost.StateCost(&tables, in.CostParams, in.BPM, in.KeyID, []int{0, 1, 2}, []int{0, 0, 0})

	if res.Breakdown.Harmonic > 2*in.CostParams.NonHarmonicCost+1e-9 {
		t.Errorf("scenario 5: best harmonic cost %v exceeds 2*NON_HARMONIC=%v", res.Breakdown.Harmonic, 2*in.CostParams.NonHarmonicCost)
	}

	if res.BestCost >= baseline.Total-1e-9 {
		t.Errorf("scenario 5: best cost %v not strictly below all-zero-shift baseline %v", res.BestCost, baseline.Total)
	}
}
