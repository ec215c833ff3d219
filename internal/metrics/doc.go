// Package metrics exposes scheduler activity as Prometheus metrics on the
// default registry and serves them at /metrics.
package metrics
