// Package metric provides Prometheus metrics for respkv.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: registry, server metrics and HTTP handler
//   - collector.go: collector reading live store statistics
//
// Metrics include:
//
//   - Command counters and latency histograms, by command name
//   - Active and total client connections
//   - Protocol errors
//   - Number of stored keys
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
