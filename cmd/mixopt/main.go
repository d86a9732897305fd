// ABOUTME: Entry point for mixopt, the DJ set optimizer CLI
// ABOUTME: Handles flag parsing, profiling, and routing to CLI or monitor mode

// Command mixopt finds a low-dissonance track order and per-track
// pitch shift for a playlist, using simulated annealing over the
// Camelot-wheel harmonic cost model.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/stojg/mixopt/internal/debuglog"
)

const defaultTimeLimit = 5 * time.Minute

func main() {
	os.Exit(run())
}

func run() int {
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile := flag.String("memprofile", "", "write memory profile to file")
	visual := flag.Bool("visual", false, "run in visual mode with a live progress dashboard")
	debugFlag := flag.Bool("debug", false, "enable debug logging to mixopt-debug.log")
	dryRun := flag.Bool("dry-run", false, "preview optimization without writing changes")
	output := flag.String("output", "", "write the optimized playlist to this file (default: overwrite input)")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Println("Usage: mixopt [flags] <playlist.m3u8> [time_limit_minutes]")
		fmt.Println("\nFlags:")
		flag.PrintDefaults()

		return 1
	}

	playlistPath := args[0]

	timeLimit := defaultTimeLimit
	if len(args) >= 2 {
		var minutes float64
		if _, err := fmt.Sscanf(args[1], "%f", &minutes); err == nil && minutes > 0 {
			timeLimit = time.Duration(minutes * float64(time.Minute))
		}
	}

	if *cpuprofile != "" {
		stop := setupCPUProfile(*cpuprofile)
		defer stop()
	}

	if *memprofile != "" {
		defer writeMemoryProfile(*memprofile)
	}

	if *debugFlag {
		if err := debuglog.Init("mixopt-debug.log"); err != nil {
			log.Printf("failed to set up debug log: %v", err)

			return 1
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-stop
		cancel()
	}()

	opts := RunOptions{
		PlaylistPath: playlistPath,
		TimeLimit:    timeLimit,
		DryRun:       *dryRun,
		OutputPath:   *output,
	}

	var err error
	if *visual {
		err = RunMonitor(ctx, opts)
	} else {
		err = RunCLI(ctx, opts)
	}

	if err != nil {
		log.Printf("mixopt: %v", err)

		return 1
	}

	return 0
}

func setupCPUProfile(filename string) func() {
	f, err := os.Create(filename)
	if err != nil {
		log.Fatalf("could not create cpu profile: %v", err)
	}

	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		log.Fatalf("could not start cpu profile: %v", err)
	}

	return func() {
		pprof.StopCPUProfile()

		if err := f.Close(); err != nil {
			log.Printf("warning: failed to close cpu profile: %v", err)
		}
	}
}

func writeMemoryProfile(filename string) {
	f, err := os.Create(filename)
	if err != nil {
		log.Printf("could not create memory profile: %v", err)

		return
	}

	defer func() { _ = f.Close() }()

	runtime.GC()

	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Printf("could not write memory profile: %v", err)
	}
}

// RunOptions are the resolved command-line options shared by CLI and
// monitor modes.
type RunOptions struct {
	PlaylistPath string
	TimeLimit    time.Duration
	DryRun       bool
	OutputPath   string
}
