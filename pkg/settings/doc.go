// Package settings persists the two user-facing feature switches,
// featureEnabled and autoFilterEnabled, in a small JSON file under the
// per-user data directory.
//
// Unset keys resolve to their defaults: the feature runs and auto-filtering
// is off. Writes go through a temporary file that is synced and renamed over
// the old one, so a crash never leaves a truncated file behind.
package settings
