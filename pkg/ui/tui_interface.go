package ui

import (
	"context"

	"bottagger/internal/scheduler"
)

// StatsSource is polled by displays for a scheduler snapshot.
type StatsSource interface {
	Stats() scheduler.Stats
}

// Display is a live view of a running scheduler. It receives scheduler
// events and renders until ctx is done.
type Display interface {
	scheduler.Observer
	Run(ctx context.Context) error
}
