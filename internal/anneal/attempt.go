// ABOUTME: One independent annealing attempt: init, inner loop, escape-mode state machine
// ABOUTME: Grounded directly on the reference simulated_annealing_mix inner loop (spec.md §4.E)

package anneal

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/stojg/mixopt/internal/camelot"
	"github.com/stojg/mixopt/internal/cost"
)

// attemptResult is the best state one attempt converged to, plus the
// per-track average incident edge cost of that best state (spec.md
// §4.E "Per-track statistics").
type attemptResult struct {
	attempt      int
	order        []int
	shifts       []int
	cost         cost.Breakdown
	trackEdgeAvg []float64
}

// runAttempt runs one annealing attempt to TOTAL_ITERATIONS from a
// fresh random permutation and shift assignment (spec.md §4.E). It
// stops early, keeping its best state so far, when ctx is cancelled;
// ctx is checked once every ReportingRate iterations.
func runAttempt(ctx context.Context, in Input, seed uint64, attemptNum int) attemptResult {
	n := len(in.BPM)
	rng := rand.New(rand.NewPCG(seed, seed^0xD1B54A32D192ED03))

	initOrder := rng.Perm(n)
	initShifts := make([]int, n)

	shiftChoices := [3]int{-1, 0, 1}
	for i := range initShifts {
		initShifts[i] = shiftChoices[rng.IntN(3)]
	}

	st := &state{
		tables: &in.Tables,
		params: in.CostParams,
		bpm:    in.BPM,
		keyID:  in.KeyID,
		order:  initOrder,
		shifts: initShifts,
	}

	bestOrder := append([]int(nil), st.order...)
	bestShifts := append([]int(nil), st.shifts...)
	bestCost := cost.StateCost(st.tables, st.params, st.bpm, st.keyID, bestOrder, bestShifts).Total
	currentCost := bestCost

	p := in.AnnealParams
	cooling := p.cooling()
	temp := p.InitialTemp

	escapeMode := false
	escapeCounter := 0

	escapeBudget := int(p.MultiSwapFactor * float64(n))
	if escapeBudget < 1 {
		escapeBudget = 1
	}

	for masterIter := 0; masterIter < p.TotalIterations; masterIter++ {
		if p.ReportingRate > 0 && masterIter%p.ReportingRate == 0 {
			if ctx.Err() != nil {
				break
			}

			if in.Progress != nil {
				bd := cost.StateCost(st.tables, st.params, st.bpm, st.keyID, bestOrder, bestShifts)
				func() {
					// A panicking sink is discarded so it cannot abort the attempt.
					defer func() { _ = recover() }()

					in.Progress(Progress{
						Attempt:    attemptNum,
						Iteration:  masterIter,
						Temp:       temp,
						EscapeMode: escapeMode,
						BestCost:   bestCost,
						Breakdown:  bd,
					})
				}()
			}
		}

		// Step 1: outside escape mode, reset working state to best.
		// The swap below then overwrites it rather than being
		// explicitly reverted (spec.md §9 "Open question" — the
		// overwrite-on-next-iteration shortcut is intentional).
		if !escapeMode {
			copy(st.order, bestOrder)
			copy(st.shifts, bestShifts)
			currentCost = bestCost
		}

		a := rng.IntN(n)
		b := rng.IntN(n - 1)

		if b >= a {
			b++
		}

		affected := affectedEdges(a, b, n)
		oldEdgeSum := st.sumEdgeCosts(affected)

		oldShiftContrib := 0
		if st.shifts[st.order[a]] != 0 {
			oldShiftContrib++
		}

		if st.shifts[st.order[b]] != 0 {
			oldShiftContrib++
		}

		st.order[a], st.order[b] = st.order[b], st.order[a]

		st.optimizeShiftAt(a)
		st.optimizeShiftAt(b)

		newEdgeSum := st.sumEdgeCosts(affected)

		newShiftContrib := 0
		if st.shifts[st.order[a]] != 0 {
			newShiftContrib++
		}

		if st.shifts[st.order[b]] != 0 {
			newShiftContrib++
		}

		shiftDelta := st.params.ShiftPenalty * st.params.ShiftWeight * float64(newShiftContrib-oldShiftContrib)
		candidate := currentCost + (newEdgeSum - oldEdgeSum) + shiftDelta

		switch {
		case candidate < bestCost:
			bestCost = candidate
			copy(bestOrder, st.order)
			copy(bestShifts, st.shifts)
			currentCost = candidate
			escapeMode = false
			escapeCounter = 0

		case escapeMode:
			currentCost = candidate
			escapeCounter++

			if escapeCounter > escapeBudget {
				escapeMode = false
				escapeCounter = 0
			}

		default:
			if rng.Float64() < math.Exp((bestCost-candidate)/temp) {
				escapeMode = true
				escapeCounter = 0
				currentCost = candidate
			}
		}

		temp *= cooling
	}

	finalBreakdown := cost.StateCost(st.tables, st.params, st.bpm, st.keyID, bestOrder, bestShifts)

	return attemptResult{
		attempt:      attemptNum,
		order:        bestOrder,
		shifts:       bestShifts,
		cost:         finalBreakdown,
		trackEdgeAvg: perTrackEdgeAvg(st.tables, st.params, st.bpm, st.keyID, bestOrder, bestShifts),
	}
}

// perTrackEdgeAvg computes, for each track index, the average cost of
// its (one or two) incident edges in the given best state (spec.md
// §4.E "Per-track statistics").
func perTrackEdgeAvg(t *cost.Tables, p cost.Params, bpm []float64, keyID []camelot.Key, order, shifts []int) []float64 {
	n := len(order)

	pos := make([]int, n)
	for j, idx := range order {
		pos[idx] = j
	}

	avg := make([]float64, n)

	for idx := 0; idx < n; idx++ {
		j := pos[idx]

		sum := 0.0
		count := 0

		if j > 0 {
			i1, i2 := order[j-1], order[j]
			h, tempoRaw, _ := cost.EdgeCost(t, p, bpm[i1], bpm[i2], keyID[i1], keyID[i2], shifts[i1], shifts[i2])
			sum += h + p.TempoCostWeight*tempoRaw
			count++
		}

		if j < n-1 {
			i1, i2 := order[j], order[j+1]
			h, tempoRaw, _ := cost.EdgeCost(t, p, bpm[i1], bpm[i2], keyID[i1], keyID[i2], shifts[i1], shifts[i2])
			sum += h + p.TempoCostWeight*tempoRaw
			count++
		}

		if count > 0 {
			avg[idx] = sum / float64(count)
		}
	}

	return avg
}

// seedSeq produces a deterministic stream of per-attempt seeds from an
// optional caller-supplied root seed (spec.md §4.E "Determinism"). With
// no root seed, it draws from the unseeded global source so repeated
// runs differ, as the spec only requires reproducibility when a seed
// is supplied.
type seedSeq struct {
	r *rand.Rand
}

func newSeedSeq(seed *uint64) *seedSeq {
	var s1, s2 uint64

	if seed != nil {
		s1 = *seed
		s2 = *seed ^ 0x9E3779B97F4A7C15
	} else {
		s1 = rand.Uint64()
		s2 = rand.Uint64()
	}

	return &seedSeq{r: rand.New(rand.NewPCG(s1, s2))}
}

func (s *seedSeq) next() uint64 {
	return s.r.Uint64()
}

// trackAccumulator tracks the running (min, sum, count, max) of one
// track's avg_edge_cost across attempts.
type trackAccumulator struct {
	min, max, sum float64
	count         int
}

// accumulateTrackStats folds one attempt's per-track averages into the
// running accumulators, initializing them lazily on the first attempt.
func accumulateTrackStats(acc *[]trackAccumulator, avgs []float64) {
	if *acc == nil {
		*acc = make([]trackAccumulator, len(avgs))

		for i, v := range avgs {
			(*acc)[i] = trackAccumulator{min: v, max: v, sum: v, count: 1}
		}

		return
	}

	for i, v := range avgs {
		a := &(*acc)[i]

		if v < a.min {
			a.min = v
		}

		if v > a.max {
			a.max = v
		}

		a.sum += v
		a.count++
	}
}

// finalizeTrackStats converts accumulators into the reported
// (min, avg, max) per-track statistics.
func finalizeTrackStats(acc []trackAccumulator) []TrackStat {
	out := make([]TrackStat, len(acc))

	for i, a := range acc {
		avg := 0.0
		if a.count > 0 {
			avg = a.sum / float64(a.count)
		}

		out[i] = TrackStat{Min: a.min, Avg: avg, Max: a.max}
	}

	return out
}
