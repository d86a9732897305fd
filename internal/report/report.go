// ABOUTME: Renders the final mix table, bridge-key suggestions, and tempo-break insertion candidates
// ABOUTME: Ported from the reference mixer's final-report loop; read-only consumer of cost/anneal types

// Package report renders an Optimize result for humans: the ordered
// mix with per-transition costs, harmonic bridge-key suggestions for
// the worst transitions, and candidate tracks to insert at tempo
// breaks (spec.md §6 "a reporting layer ... consumes the output tuple
// ... re-uses the same shift and cost primitives read-only").
package report

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/stojg/mixopt/internal/anneal"
	"github.com/stojg/mixopt/internal/camelot"
	"github.com/stojg/mixopt/internal/cost"
	"github.com/stojg/mixopt/internal/track"
)

// bridgeThreshold is the harmonic-cost level at or above which a transition
// is considered worth suggesting a bridge key for — the reference
// mixer's own cutoff ("h_cost >= 5").
const bridgeThreshold = 5.0

// WriteMix renders the final mix order as a table: position, BPM,
// original key with shift, effective key, per-transition (H,T) cost,
// title/artist, and a bridge-key suggestion when the incoming
// transition is highly dissonant.
func WriteMix(w io.Writer, tracks []track.Track, res anneal.Result, t *cost.Tables, p cost.Params) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "#\tBPM\tKey\t->\tEffective\tTransition\tTrack\tBridge")

	for pos, idx := range res.BestOrder {
		tr := tracks[idx]
		shift := res.BestShifts[idx]
		effKey := t.EffectiveKey(tr.KeyID, shift)

		transInfo := "(start)"
		bridgeHint := ""

		if pos > 0 {
			prevIdx := res.BestOrder[pos-1]
			prevTr := tracks[prevIdx]
			prevShift := res.BestShifts[prevIdx]

			h, tempoRaw, _ := cost.EdgeCost(t, p, prevTr.BPM, tr.BPM, prevTr.KeyID, tr.KeyID, prevShift, shift)
			transInfo = fmt.Sprintf("H=%.1f T=%.1f", h, tempoRaw)

			if h >= bridgeThreshold {
				prevEff := t.EffectiveKey(prevTr.KeyID, prevShift)
				bridgeHint = bridgeHintFor(t, p, prevEff, effKey)
			}
		}

		fmt.Fprintf(tw, "%d.\t%.0f\t%s[%+d]\t->\t%s\t%s\t%s - %s\t%s\n",
			pos+1, tr.BPM, tr.KeyID, shift, effKey, transInfo, tr.Title, tr.Artist, bridgeHint)
	}

	return tw.Flush()
}

// bridgeHintFor returns a "<< 5A(+1) / 6B(0)" style suggestion listing
// every key (with shift) that mixes cleanly (cost <= 0.5) from prevEff
// and into nextEff, matching the reference mixer's suggestion rule.
func bridgeHintFor(t *cost.Tables, p cost.Params, prevEff, nextEff camelot.Key) string {
	const cleanThreshold = 0.5

	var suggestions []string

	for _, k := range camelot.All() {
		for _, s := range []int{-1, 0, 1} {
			candEff := t.EffectiveKey(k, s)

			fromPrev := camelot.HarmonicCost(prevEff, candEff, p.Harmonic)
			toNext := camelot.HarmonicCost(candEff, nextEff, p.Harmonic)

			if fromPrev <= cleanThreshold && toNext <= cleanThreshold {
				suggestions = append(suggestions, fmt.Sprintf("%s(%+d)", k, s))
			}
		}
	}

	if len(suggestions) == 0 {
		return ""
	}

	return "<< " + joinLimited(suggestions, 6)
}

func joinLimited(items []string, max int) string {
	if len(items) > max {
		items = items[:max]
	}

	out := items[0]
	for _, s := range items[1:] {
		out += " / " + s
	}

	return out
}

// InsertionCandidate is one track suggested as a bridge between two
// tracks separated by a tempo break.
type InsertionCandidate struct {
	Track         track.Track
	OptimalShift  int
	EffectiveKey  camelot.Key
}

// FindInsertionCandidates returns up to 10 tracks from library whose
// BPM falls in the overlap of [a.BPM±threshold] and [b.BPM±threshold]
// and which are harmonically reachable (for some shift in {-1,0,+1})
// to either a's or b's effective key, ordered by closeness to the
// transition's average BPM (ported from find_insertion_candidates).
func FindInsertionCandidates(t *cost.Tables, a, b track.Track, aShift, bShift int, library []track.Track, tempoThreshold float64) []InsertionCandidate {
	low := a.BPM - tempoThreshold
	if v := b.BPM - tempoThreshold; v > low {
		low = v
	}

	high := a.BPM + tempoThreshold
	if v := b.BPM + tempoThreshold; v < high {
		high = v
	}

	if low > high {
		return nil
	}

	aEff := t.EffectiveKey(a.KeyID, aShift)
	bEff := t.EffectiveKey(b.KeyID, bShift)

	var candidates []InsertionCandidate

	for _, cand := range library {
		if cand.BPM < low || cand.BPM > high {
			continue
		}

		for _, s := range []int{-1, 0, 1} {
			candEff := t.EffectiveKey(cand.KeyID, s)
			if candEff == aEff || candEff == bEff {
				candidates = append(candidates, InsertionCandidate{Track: cand, OptimalShift: s, EffectiveKey: candEff})

				break
			}
		}
	}

	avgBPM := (a.BPM + b.BPM) / 2

	sort.Slice(candidates, func(i, j int) bool {
		return absF(candidates[i].Track.BPM-avgBPM) < absF(candidates[j].Track.BPM-avgBPM)
	})

	if len(candidates) > 10 {
		candidates = candidates[:10]
	}

	return candidates
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}

	return v
}

// TempoBreakInsertion is one reported tempo-break transition together
// with its suggested insertion candidates.
type TempoBreakInsertion struct {
	PosA, PosB int
	TrackA     track.Track
	TrackB     track.Track
	Candidates []InsertionCandidate
}

// TempoBreakInsertions scans the final mix for transitions whose BPM
// gap is greater than tempo_threshold and at most
// tempo_break_factor*tempo_threshold (the tempo-penalty band, not a
// full tempo break) and returns insertion candidates for each
// (ported from report_tempo_break_insertions).
func TempoBreakInsertions(tracks []track.Track, res anneal.Result, t *cost.Tables, p cost.Params, library []track.Track) []TempoBreakInsertion {
	var out []TempoBreakInsertion

	for pos := 0; pos < len(res.BestOrder)-1; pos++ {
		idxA, idxB := res.BestOrder[pos], res.BestOrder[pos+1]
		a, b := tracks[idxA], tracks[idxB]

		diff := a.BPM - b.BPM
		if diff < 0 {
			diff = -diff
		}

		if diff <= p.TempoThreshold || diff > p.TempoBreakFactor*p.TempoThreshold {
			continue
		}

		candidates := FindInsertionCandidates(t, a, b, res.BestShifts[idxA], res.BestShifts[idxB], library, p.TempoThreshold)

		out = append(out, TempoBreakInsertion{
			PosA: pos, PosB: pos + 1,
			TrackA: a, TrackB: b,
			Candidates: candidates,
		})
	}

	return out
}

// WriteTempoBreakInsertions renders the tempo-break insertion report
// in the reference mixer's table style.
func WriteTempoBreakInsertions(w io.Writer, insertions []TempoBreakInsertion) error {
	if len(insertions) == 0 {
		return nil
	}

	fmt.Fprintln(w, "\nCandidate insertion tracks for tempo-penalty transitions:")

	for _, ins := range insertions {
		fmt.Fprintf(w, "\nTransition between:\n  %s - %s | BPM %.0f\n  %s - %s | BPM %.0f\n",
			ins.TrackA.Title, ins.TrackA.Artist, ins.TrackA.BPM,
			ins.TrackB.Title, ins.TrackB.Artist, ins.TrackB.BPM)

		if len(ins.Candidates) == 0 {
			continue
		}

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "No.\tBPM\tOrigKey\t->\tEffKey\tTrack")

		for i, c := range ins.Candidates {
			fmt.Fprintf(tw, "%d.\t%.0f\t%s[%+d]\t->\t%s\t%s - %s\n",
				i+1, c.Track.BPM, c.Track.KeyID, c.OptimalShift, c.EffectiveKey, c.Track.Title, c.Track.Artist)
		}

		if err := tw.Flush(); err != nil {
			return err
		}
	}

	return nil
}
