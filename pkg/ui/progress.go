package ui

import (
	"fmt"
	"strings"
	"sync"

	"bottagger/pkg/scoring"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// Tally counts annotated accounts per label.
type Tally struct {
	mu     sync.Mutex
	counts map[scoring.Label]int
	total  int
}

// NewTally creates an empty tally
func NewTally() *Tally {
	return &Tally{counts: make(map[scoring.Label]int)}
}

// Add records one annotation.
func (t *Tally) Add(l scoring.Label) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[l]++
	t.total++
}

// Count returns the number of annotations with label l.
func (t *Tally) Count(l scoring.Label) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[l]
}

// Total returns the number of annotations recorded.
func (t *Tally) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// Bar renders the share of label l as a fixed width bar.
func (t *Tally) Bar(l scoring.Label, width int) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	filled := 0
	if t.total > 0 {
		filled = t.counts[l] * width / t.total
	}
	return strings.Repeat(ProgressBar, filled) + strings.Repeat(ProgressEmpty, width-filled)
}

// Summary renders "High 2 • Medium 1 • Low 0 • N/A 0".
func (t *Tally) Summary() string {
	parts := make([]string, 0, 4)
	for _, l := range []scoring.Label{scoring.High, scoring.Medium, scoring.Low, scoring.NotApplicable} {
		parts = append(parts, LabelColor(l)(fmt.Sprintf("%s %d", l, t.Count(l))))
	}
	return strings.Join(parts, " • ")
}
