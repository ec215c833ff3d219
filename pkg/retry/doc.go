// Package retry re-runs fallible operations with backoff.
//
// It is used for loading the page being annotated. Profile fetches are
// never retried here: a throttled lookup goes back on the fetch queue and
// waits out the throttle window instead.
//
//	body, err := retry.DoWithResult(ctx, func(ctx context.Context) ([]byte, error) {
//	    return client.GetPage(ctx, url)
//	}, retry.NewConfig(3, log))
package retry
