// Package ratelimit tracks server imposed throttling of the profile
// endpoint and optionally paces outbound requests.
//
// A Throttle is fed by 429 responses. It holds an expiry computed from the
// x-ratelimit-reset hint, or a fallback window when there is none, and only
// ClearIfExpired ends it. MemoryThrottle serves a single process;
// RedisThrottle shares the window between processes.
//
// A Pacer is a proactive cap (token bucket or sliding window) applied before
// the drain pops a queue entry. It is off unless requests_per_minute is set.
package ratelimit
