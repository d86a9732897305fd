// ABOUTME: Non-interactive CLI mode: spinner, progress line, final report, playlist write
// ABOUTME: Adapted from the playlist sorter's RunCLI / cliGeneticSort

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/stojg/mixopt/internal/anneal"
	"github.com/stojg/mixopt/internal/format"
	"github.com/stojg/mixopt/internal/report"
	"github.com/stojg/mixopt/internal/track"
)

const spinnerUpdateInterval = 500 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func isTTY(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}

	return (stat.Mode() & os.ModeCharDevice) != 0
}

// RunCLI loads the playlist, runs the optimizer to completion while
// printing progress, then reports and (unless DryRun) writes the
// result.
func RunCLI(ctx context.Context, opts RunOptions) error {
	sess, err := loadSession(opts)
	if err != nil {
		return err
	}

	fmt.Printf("Loaded %d tracks. Optimizing (press Ctrl+C to stop early, budget %s)...\n", len(sess.tracks), opts.TimeLimit)

	startTime := time.Now()
	isTerminal := isTTY(os.Stdout)

	var (
		spinnerIdx int
		precision  format.MonotonicPrecision
		lastPrint  time.Time
	)

	progress := func(p anneal.Progress) {
		if !isTerminal {
			return
		}

		if time.Since(lastPrint) < spinnerUpdateInterval {
			return
		}

		lastPrint = time.Now()
		elapsed := time.Since(startTime).Round(time.Second)

		fmt.Printf("\r%6s  attempt %3d  iter %8d  cost %s  %s   ",
			elapsed, p.Attempt, p.Iteration, precision.Format(p.BestCost), spinnerFrames[spinnerIdx])
		spinnerIdx = (spinnerIdx + 1) % len(spinnerFrames)
	}

	in := sess.input(opts, progress)

	res, err := anneal.Optimize(ctx, in)
	if err != nil {
		return fmt.Errorf("optimize: %w", err)
	}

	if isTerminal {
		fmt.Print("\r\033[K")
	}

	fmt.Printf("\nCompleted %d attempt(s) in %v. Best cost: %.4f (H=%.2f T=%.2f S=%.2f)\n",
		res.NAttempts, time.Since(startTime).Round(time.Millisecond), res.BestCost, res.Breakdown.Harmonic, res.Breakdown.Tempo, res.Breakdown.Shift)

	if res.Cancelled {
		fmt.Println("(stopped early — reporting best result found so far)")
	}

	fmt.Println()

	if err := report.WriteMix(os.Stdout, sess.tracks, res, &sess.tables, in.CostParams); err != nil {
		log.Printf("warning: failed to render mix report: %v", err)
	}

	insertions := report.TempoBreakInsertions(sess.tracks, res, &sess.tables, in.CostParams, sess.tracks)
	if err := report.WriteTempoBreakInsertions(os.Stdout, insertions); err != nil {
		log.Printf("warning: failed to render tempo-break report: %v", err)
	}

	sorted := make([]track.Track, len(res.BestOrder))
	for pos, idx := range res.BestOrder {
		sorted[pos] = sess.tracks[idx]
	}

	if opts.DryRun {
		fmt.Println("\n--dry-run: playlist not modified")

		return nil
	}

	outputPath := opts.PlaylistPath
	if opts.OutputPath != "" {
		outputPath = opts.OutputPath
	}

	fmt.Printf("\nWriting optimized playlist to: %s\n", outputPath)

	if err := track.WritePlaylist(outputPath, sorted); err != nil {
		return fmt.Errorf("failed to write playlist: %w", err)
	}

	fmt.Println("Done!")

	return nil
}
