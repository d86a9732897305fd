// ABOUTME: Simulated-annealing search over track order and per-track shift (component E)
// ABOUTME: Outer time-budget loop dispatches independent attempts across a worker pool

package anneal

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/stojg/mixopt/internal/camelot"
	"github.com/stojg/mixopt/internal/cost"
	"github.com/stojg/mixopt/internal/workpool"
)

// Params holds the annealer configuration recognized by the engine
// (spec.md §6 anneal_params).
type Params struct {
	TotalIterations int
	InitialTemp     float64
	FinalTemp       float64
	MultiSwapFactor float64
	ReportingRate   int
}

// DefaultParams returns the documented reference defaults (spec.md §6).
func DefaultParams() Params {
	return Params{
		TotalIterations: 410000,
		InitialTemp:     500,
		FinalTemp:       0.1,
		MultiSwapFactor: 2,
		ReportingRate:   50000,
	}
}

// cooling returns the derived per-iteration cooling factor such that
// InitialTemp*cooling^TotalIterations == FinalTemp (spec.md §4.E).
func (p Params) cooling() float64 {
	return math.Exp(math.Log(p.FinalTemp/p.InitialTemp) / float64(p.TotalIterations))
}

// Input is the full entry-point contract for one optimization run
// (spec.md §6).
type Input struct {
	BPM    []float64
	KeyID  []camelot.Key
	Tables cost.Tables

	CostParams   cost.Params
	AnnealParams Params

	TimeLimit time.Duration
	Seed      *uint64

	// Progress, if non-nil, receives a report roughly every
	// ReportingRate iterations (spec.md §4.E step 9). It must not
	// block; a slow or panicking sink never aborts optimization
	// (spec.md §7), so callers needing isolation should buffer
	// internally.
	Progress func(Progress)
}

// Progress is one progress record emitted from inside an attempt
// (spec.md §4.E step 9).
type Progress struct {
	Attempt    int
	Iteration  int
	Temp       float64
	EscapeMode bool
	BestCost   float64
	Breakdown  cost.Breakdown
}

// TrackStat is the (min, avg, max) aggregate of a track's average
// incident edge cost across all completed attempts (spec.md §4.E
// "Per-track statistics").
type TrackStat struct {
	Min float64
	Avg float64
	Max float64
}

// Result is the full output tuple of one optimization run (spec.md §6).
type Result struct {
	BestOrder  []int
	BestShifts []int
	BestCost   float64
	Breakdown  cost.Breakdown

	AttemptCosts []cost.Breakdown
	NAttempts    int

	PerTrackStats []TrackStat

	Cancelled bool
}

// validate checks Input against spec.md §7's InvalidInput/InvalidConfig
// rules.
func validate(in Input) error {
	n := len(in.BPM)

	if n < 2 {
		return &InvalidInputError{Reason: "need at least 2 tracks"}
	}

	if len(in.KeyID) != n {
		return &InvalidInputError{Reason: "bpm and key_id length mismatch"}
	}

	for i, bpm := range in.BPM {
		if bpm <= 0 {
			return &InvalidInputError{Reason: "bpm must be positive"}
		}

		if in.KeyID[i] < 0 || int(in.KeyID[i]) >= camelot.NumKeys {
			return &InvalidInputError{Reason: "key_id out of range"}
		}
	}

	for _, ek := range in.Tables.ShiftTable {
		if ek < 0 || int(ek) >= camelot.NumKeys {
			return &InvalidInputError{Reason: "shift_table entry out of range"}
		}
	}

	p := in.AnnealParams
	if p.TotalIterations < 1 {
		return &InvalidConfigError{Reason: "total_iterations must be >= 1"}
	}

	if !(p.InitialTemp > 0) || math.IsInf(p.InitialTemp, 0) || math.IsNaN(p.InitialTemp) {
		return &InvalidConfigError{Reason: "initial_temp must be finite and positive"}
	}

	if !(p.FinalTemp > 0) || math.IsInf(p.FinalTemp, 0) || math.IsNaN(p.FinalTemp) {
		return &InvalidConfigError{Reason: "final_temp must be finite and positive"}
	}

	if p.MultiSwapFactor < 1 {
		return &InvalidConfigError{Reason: "multi_swap_factor must be >= 1"}
	}

	if in.TimeLimit <= 0 {
		return &InvalidConfigError{Reason: "time_limit must be > 0"}
	}

	return nil
}

// Optimize runs the simulated-annealing search to completion (spec.md
// §6's single entry point). It launches independent attempts, in
// batches sized to the worker pool, stopping once at least one attempt
// has completed and the elapsed wall time exceeds in.TimeLimit, or ctx
// is cancelled (spec.md §5). The best (order, shifts, cost) across all
// completed attempts is returned along with per-attempt cost
// breakdowns and per-track (min, avg, max) edge-cost statistics.
func Optimize(ctx context.Context, in Input) (Result, error) {
	if err := validate(in); err != nil {
		return Result{}, err
	}

	start := time.Now()

	pool := workpool.New(1)
	defer pool.Close()

	batch := pool.Workers()
	if batch < 1 {
		batch = 1
	}

	seeds := newSeedSeq(in.Seed)

	type numberedCost struct {
		attempt int
		cost    cost.Breakdown
	}

	var (
		mu           sync.Mutex
		best         *attemptResult
		attemptCosts []numberedCost
		trackAcc     []trackAccumulator
	)

	attemptNum := 0

	for {
		if ctx.Err() != nil {
			break
		}

		if attemptNum >= 1 && time.Since(start) >= in.TimeLimit {
			break
		}

		for i := 0; i < batch; i++ {
			attemptNum++
			attemptSeed := seeds.next()
			attNo := attemptNum

			pool.Submit(func() {
				res := runAttempt(ctx, in, attemptSeed, attNo)

				mu.Lock()
				defer mu.Unlock()

				attemptCosts = append(attemptCosts, numberedCost{attempt: res.attempt, cost: res.cost})
				accumulateTrackStats(&trackAcc, res.trackEdgeAvg)

				// Break cost ties by attempt number (assigned
				// before dispatch, so deterministic regardless of
				// goroutine completion order) to keep repeated runs
				// with the same seed bit-identical.
				if best == nil || res.cost.Total < best.cost.Total ||
					(res.cost.Total == best.cost.Total && res.attempt < best.attempt) {
					r := res
					best = &r
				}
			})
		}

		pool.Wait()
	}

	if best == nil {
		return Result{Cancelled: true}, &CancelledError{}
	}

	sort.Slice(attemptCosts, func(i, j int) bool { return attemptCosts[i].attempt < attemptCosts[j].attempt })

	orderedCosts := make([]cost.Breakdown, len(attemptCosts))
	for i, nc := range attemptCosts {
		orderedCosts[i] = nc.cost
	}

	return Result{
		BestOrder:     best.order,
		BestShifts:    best.shifts,
		BestCost:      best.cost.Total,
		Breakdown:     best.cost,
		AttemptCosts:  orderedCosts,
		NAttempts:     len(orderedCosts),
		PerTrackStats: finalizeTrackStats(trackAcc),
		Cancelled:     ctx.Err() != nil,
	}, nil
}
