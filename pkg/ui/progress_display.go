package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"bottagger/internal/scheduler"
	"bottagger/pkg/scoring"
)

// ProgressDisplay provides a clean, minimal single line status for watch
// sessions that run without the dashboard.
type ProgressDisplay struct {
	mu       sync.Mutex
	out      io.Writer
	source   StatsSource
	tally    *Tally
	interval time.Duration
	verbose  bool

	startTime time.Time
	lastUser  string
	lastLabel scoring.Label
	now       func() time.Time
}

// NewProgressDisplay creates a status line fed by source. In verbose mode
// each annotation is printed on its own line instead.
func NewProgressDisplay(out io.Writer, source StatsSource, interval time.Duration, verbose bool) *ProgressDisplay {
	if interval <= 0 {
		interval = time.Second
	}
	return &ProgressDisplay{
		out:       out,
		source:    source,
		tally:     NewTally(),
		interval:  interval,
		verbose:   verbose,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// Tally returns the label counts seen so far.
func (p *ProgressDisplay) Tally() *Tally { return p.tally }

// Run redraws the status line until ctx is done, then prints a summary.
func (p *ProgressDisplay) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.Complete()
			return nil
		case <-ticker.C:
			p.Refresh()
		}
	}
}

// Refresh redraws the status line once.
func (p *ProgressDisplay) Refresh() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.verbose {
		fmt.Fprintf(p.out, "\r%s\r%s", strings.Repeat(" ", 120), p.Line(p.source.Stats()))
	}
}

// Line formats the status of st.
func (p *ProgressDisplay) Line(st scheduler.Stats) string {
	state := Green("[SCANNING]")
	if st.State == scheduler.Throttled {
		wait := st.ThrottledUntil.Sub(p.now())
		if wait < 0 {
			wait = 0
		}
		state = Yellow(fmt.Sprintf("[THROTTLED %s]", formatDuration(wait)))
	}

	line := fmt.Sprintf("%s queue %d • cached %d • annotated %d • %s",
		state,
		st.QueueDepth,
		st.CacheEntries,
		st.Annotated,
		p.tally.Summary(),
	)
	if st.Hidden > 0 {
		line += fmt.Sprintf(" • %s", Magenta(fmt.Sprintf("%d hidden", st.Hidden)))
	}
	if st.Dropped > 0 {
		line += fmt.Sprintf(" • %s", Red(fmt.Sprintf("%d errors", st.Dropped)))
	}
	if p.lastUser != "" {
		line += fmt.Sprintf(" • u/%s %s", p.lastUser, LabelColor(p.lastLabel)(p.lastLabel.String()))
	}
	return line
}

// Complete prints the session summary.
func (p *ProgressDisplay) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := p.source.Stats()
	elapsed := p.now().Sub(p.startTime)

	fmt.Fprintf(p.out, "\n\n%s Annotated %d accounts in %s\n", Green("✓"), st.Annotated, formatDuration(elapsed))
	fmt.Fprintf(p.out, "  %s %s\n", Dim("•"), p.tally.Summary())
	fmt.Fprintf(p.out, "  %s %d fetches, %d throttle windows, %d ineligible\n", Dim("•"), st.Fetches, st.Throttles, st.Ineligible)
	if st.Dropped > 0 {
		fmt.Fprintf(p.out, "  %s %d lookups failed\n", Dim("•"), st.Dropped)
	}
}

func (p *ProgressDisplay) OnAnnotated(username string, r scoring.Result, hidden bool) {
	p.tally.Add(r.Label)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastUser = username
	p.lastLabel = r.Label

	if p.verbose {
		mark := Green("✓")
		if hidden {
			mark = Magenta("⊘")
		}
		fmt.Fprintf(p.out, "%s u/%s %s (adjusted %s)\n", mark, username, LabelColor(r.Label)(r.Label.String()), r.Adjusted)
	}
}

// OnThrottled is a no-op: the status line shows the countdown and the
// Notifier announces the window.
func (p *ProgressDisplay) OnThrottled(time.Time) {}

func (p *ProgressDisplay) OnResumed() {}

func (p *ProgressDisplay) OnDropped(username string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.verbose {
		fmt.Fprintf(p.out, "%s u/%s: %v\n", Red("✗"), username, err)
	}
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	switch {
	case d < 0:
		return "0s"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
