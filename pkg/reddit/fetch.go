package reddit

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "bottagger/pkg/errors"
	"bottagger/pkg/scoring"
)

// Outcome classifies a profile fetch.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeThrottled
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeThrottled:
		return "throttled"
	default:
		return "failure"
	}
}

// FetchResult is the tagged result of one profile request: Stats on
// success, an optional retry hint when throttled, Err on failure.
type FetchResult struct {
	Outcome       Outcome
	Stats         scoring.ProfileStats
	RetryAfter    time.Duration
	HasRetryAfter bool
	Err           error
}

// Timeout reports whether a failure was the request running out of time.
func (r FetchResult) Timeout() bool {
	return r.Outcome == OutcomeFailure && errs.Is(r.Err, errs.ErrorTypeTimeout)
}

// FetchProfile issues exactly one request for username's profile. It never
// retries; throttling is reported to the caller.
func (c *Client) FetchProfile(ctx context.Context, username string) FetchResult {
	if IsDeleted(username) {
		return FetchResult{Outcome: OutcomeFailure, Err: errs.New(errs.ErrorTypeNotFound, 0, "deleted account")}
	}

	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	var about AboutResponse
	err := c.GetJSON(ctx, ProfileURL(c.baseURL, username), &about)
	if err == nil {
		return FetchResult{Outcome: OutcomeSuccess, Stats: about.Stats()}
	}

	// A deadline hit while reading the body surfaces as a plain error
	if ctx.Err() != nil && !errs.Is(err, errs.ErrorTypeTimeout) {
		err = errs.Wrap(errs.ErrorTypeTimeout, err, "request did not complete")
	}

	var e *errs.Error
	if errors.As(err, &e) && e.Type == errs.ErrorTypeRateLimit {
		c.logger.WarnWithFields("profile request throttled", map[string]interface{}{
			"username":    username,
			"retry_after": e.RetryAfter,
			"hinted":      e.HasRetryAfter,
		})
		return FetchResult{Outcome: OutcomeThrottled, RetryAfter: e.RetryAfter, HasRetryAfter: e.HasRetryAfter, Err: err}
	}

	return FetchResult{Outcome: OutcomeFailure, Err: fmt.Errorf("fetch profile %s: %w", username, err)}
}
