// Package scheduler runs an annotation session.
//
// A fast scan tick walks the page, annotates authors whose scores are
// already cached, and queues the rest. A slower drain tick pops one
// username at a time and looks it up. A 429 puts the username back at the
// tail and pauses draining until the throttle window has strictly passed;
// scanning carries on meanwhile.
//
// Only one lookup runs at a time, and a username being looked up cannot be
// queued again until its lookup resolves.
package scheduler
