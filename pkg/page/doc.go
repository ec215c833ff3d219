// Package page finds post authors in a Reddit listing and writes
// annotations back into it.
//
// Five markup variants are recognised (old, new desktop, new mobile logged
// in and out, and the logged out "other" desktop layout). Discover tries
// them in order and uses the first one that matches anything. Document
// guards the parsed page so the scan and drain loops can share it, and
// implements the badge and hide operations.
package page
