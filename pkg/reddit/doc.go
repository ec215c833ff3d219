// Package reddit is the client for Reddit's public profile endpoint.
//
// FetchProfile issues one GET /user/{name}/about.json and classifies the
// response as success (link/comment karma and creation time), throttled
// (HTTP 429 with the optional x-ratelimit-reset hint) or failure. It does
// not retry; the caller decides what a throttle means.
//
// The same client loads listing pages for annotation through GetPage.
package reddit
