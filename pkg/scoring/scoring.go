// Package scoring turns profile karma statistics into an automation
// likelihood label.
//
// The heuristic is intentionally simple: accounts with a large amount of
// link karma relative to comment karma look like repost bots, and older
// accounts get the benefit of the doubt.
package scoring

import (
	"fmt"
	"strconv"
	"time"
)

// SecondsPerYear is a Julian year, used to convert account age to years.
const SecondsPerYear = 31557600

// Label is the discrete bucket shown to the user.
type Label int

const (
	NotApplicable Label = iota
	Low
	Medium
	High
)

func (l Label) String() string {
	switch l {
	case Low:
		return "Low"
	case Medium:
		return "Medium"
	case High:
		return "High"
	default:
		return "N/A"
	}
}

// ParseLabel is the inverse of Label.String.
func ParseLabel(s string) (Label, error) {
	switch s {
	case "Low", "low":
		return Low, nil
	case "Medium", "medium":
		return Medium, nil
	case "High", "high":
		return High, nil
	case "N/A", "NotApplicable", "not_applicable":
		return NotApplicable, nil
	}
	return NotApplicable, fmt.Errorf("unknown label %q", s)
}

// ProfileStats are the raw counters the policy is based on.
type ProfileStats struct {
	Primary   int64      // link karma
	Secondary int64      // comment karma
	CreatedAt *time.Time // nil when unknown
}

// Value is a float that may be undefined.
type Value struct {
	Float float64
	Valid bool
}

// Defined wraps f as a valid Value.
func Defined(f float64) Value { return Value{Float: f, Valid: true} }

func (v Value) String() string {
	if !v.Valid {
		return "N/A"
	}
	return strconv.FormatFloat(v.Float, 'f', 2, 64)
}

// Result is the outcome of scoring one profile.
type Result struct {
	RawRatio Value
	Adjusted Value
	Label    Label
}

// Policy holds the thresholds of the heuristic.
type Policy struct {
	// EligibilityFloor is the minimum primary score for a result at all.
	EligibilityFloor int64
	// AgeDecay subtracts DecayPerYear for every year of account age.
	AgeDecay     bool
	DecayPerYear float64
	// Adjusted scores below MediumThreshold are Low, below HighThreshold Medium.
	MediumThreshold float64
	HighThreshold   float64
}

// DefaultPolicy returns the standard thresholds.
func DefaultPolicy() Policy {
	return Policy{
		EligibilityFloor: 100000,
		AgeDecay:         true,
		DecayPerYear:     5,
		MediumThreshold:  50,
		HighThreshold:    100,
	}
}

// Score computes the result for stats at time now. The boolean is false when
// the profile is below the eligibility floor; such profiles must be neither
// cached nor annotated.
func (p Policy) Score(stats ProfileStats, now time.Time) (Result, bool) {
	if stats.Primary < p.EligibilityFloor {
		return Result{}, false
	}

	var raw Value
	if stats.Secondary > 0 {
		raw = Defined(float64(stats.Primary) / float64(stats.Secondary))
	}

	adjusted := raw
	if p.AgeDecay && raw.Valid && stats.CreatedAt != nil {
		ageYears := now.Sub(*stats.CreatedAt).Seconds() / SecondsPerYear
		adjusted = Defined(raw.Float - p.DecayPerYear*ageYears)
	}

	return Result{
		RawRatio: raw,
		Adjusted: adjusted,
		Label:    p.label(adjusted),
	}, true
}

func (p Policy) label(v Value) Label {
	switch {
	case !v.Valid:
		return NotApplicable
	case v.Float < p.MediumThreshold:
		return Low
	case v.Float < p.HighThreshold:
		return Medium
	default:
		return High
	}
}
