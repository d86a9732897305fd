// ABOUTME: Visual mode: bubbletea dashboard showing live annealer progress
// ABOUTME: Condensed from the playlist sorter's tui package — read-only progress, no population editor

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stojg/mixopt/internal/anneal"
	"github.com/stojg/mixopt/internal/config"
	"github.com/stojg/mixopt/internal/debuglog"
	"github.com/stojg/mixopt/internal/format"
	"github.com/stojg/mixopt/internal/report"
	"github.com/stojg/mixopt/internal/track"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	escapeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

// monitorMsg carries one progress sample from the optimizer goroutine
// into the bubbletea update loop.
type monitorMsg anneal.Progress

// monitorDoneMsg signals Optimize finished (or errored).
type monitorDoneMsg struct {
	res anneal.Result
	err error
}

type monitorModel struct {
	progressBar progress.Model
	log         viewport.Model
	precision   format.MonotonicPrecision

	latest   anneal.Progress
	started  time.Time
	finished bool
	result   anneal.Result
	err      error

	logLines []string

	updates <-chan anneal.Progress
	done    <-chan monitorDoneMsg
	width   int
	height  int
}

func newMonitorModel(updates <-chan anneal.Progress, done <-chan monitorDoneMsg) monitorModel {
	return monitorModel{
		progressBar: progress.New(progress.WithDefaultGradient()),
		log:         viewport.New(80, 10),
		started:     time.Now(),
		updates:     updates,
		done:        done,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), waitForDone(m.done))
}

func waitForUpdate(ch <-chan anneal.Progress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}

		return monitorMsg(p)
	}
}

func waitForDone(ch <-chan monitorDoneMsg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.progressBar.Width = m.width - 4
		m.log.Width = m.width
		m.log.Height = m.height - 8

		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}

		return m, nil

	case monitorMsg:
		p := anneal.Progress(msg)
		m.latest = p

		line := fmt.Sprintf("%6s  attempt %3d  iter %8d  temp %8.2f  cost %s",
			time.Since(m.started).Round(time.Second), p.Attempt, p.Iteration, p.Temp, m.precision.Format(p.BestCost))

		if p.EscapeMode {
			line = escapeStyle.Render(line + "  [escape]")
		}

		m.logLines = append(m.logLines, line)
		if len(m.logLines) > 500 {
			m.logLines = m.logLines[len(m.logLines)-500:]
		}

		m.log.SetContent(strings.Join(m.logLines, "\n"))
		m.log.GotoBottom()

		return m, waitForUpdate(m.updates)

	case monitorDoneMsg:
		m.finished = true
		m.result = msg.res
		m.err = msg.err

		return m, tea.Quit
	}

	return m, nil
}

func (m monitorModel) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("mixopt — live optimization") + "\n\n")

	frac := 0.0
	if m.latest.Iteration > 0 {
		frac = float64(m.latest.Iteration%50000) / 50000
	}

	b.WriteString(m.progressBar.ViewAs(frac) + "\n\n")
	b.WriteString(m.log.View() + "\n\n")
	b.WriteString(dimStyle.Render("q / ctrl+c to stop and report best-so-far"))

	return b.String()
}

// RunMonitor runs the optimizer while driving a bubbletea dashboard,
// then prints the same final report as RunCLI.
func RunMonitor(ctx context.Context, opts RunOptions) error {
	sess, err := loadSession(opts)
	if err != nil {
		return err
	}

	updates := make(chan anneal.Progress, 64)
	done := make(chan monitorDoneMsg, 1)

	progressFn := func(p anneal.Progress) {
		select {
		case updates <- p:
		default:
		}
	}

	in := sess.input(opts, progressFn)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Watch the config file for edits saved during this run. A reload
	// only takes effect on the next mixopt invocation — Optimize works
	// from the Input snapshot taken above — but keeping Shared current
	// means a monitor extension that restarts attempts can pick it up
	// without another disk read.
	if configPath := config.GetConfigPath(); configPath != "" {
		if _, statErr := os.Stat(configPath); statErr == nil {
			watchStop := make(chan struct{})
			defer close(watchStop)

			go func() {
				if err := watchConfig(configPath, sess.shared, watchStop); err != nil {
					debuglog.Debugf("[CONFIG WATCH] stopped: %v", err)
				}
			}()
		}
	}

	finished := make(chan monitorDoneMsg, 1)

	go func() {
		res, err := anneal.Optimize(runCtx, in)
		finished <- monitorDoneMsg{res: res, err: err}
		done <- monitorDoneMsg{res: res, err: err}
		close(updates)
	}()

	prog := tea.NewProgram(newMonitorModel(updates, done))

	_, runErr := prog.Run()
	cancel()

	// After an early quit, Optimize stops at the cancellation and still
	// returns its best-so-far result; wait for it.
	final := <-finished

	if runErr != nil {
		return runErr
	}

	if final.err != nil {
		return fmt.Errorf("optimize: %w", final.err)
	}

	res := final.res

	fmt.Printf("\nCompleted %d attempt(s). Best cost: %.4f (H=%.2f T=%.2f S=%.2f)\n",
		res.NAttempts, res.BestCost, res.Breakdown.Harmonic, res.Breakdown.Tempo, res.Breakdown.Shift)

	if err := reportAndWrite(sess, opts, in, res); err != nil {
		return err
	}

	return nil
}

func reportAndWrite(sess *session, opts RunOptions, in anneal.Input, res anneal.Result) error {
	if err := report.WriteMix(os.Stdout, sess.tracks, res, &sess.tables, in.CostParams); err != nil {
		return err
	}

	insertions := report.TempoBreakInsertions(sess.tracks, res, &sess.tables, in.CostParams, sess.tracks)
	if err := report.WriteTempoBreakInsertions(os.Stdout, insertions); err != nil {
		return err
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

	return track.WritePlaylist(outputPath, sorted)
}
