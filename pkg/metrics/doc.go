// Package metrics collects matching statistics and renders them in the
// Prometheus text exposition format (text/plain; version=0.0.4).
//
// Supported metric types:
//   - Counter: monotonically increasing value (e.g. evaluations)
//   - Gauge: value that can go up or down (e.g. published mappings)
//   - Histogram: distribution of values with configurable buckets (e.g. evaluation latency)
//
// All metrics are safe for concurrent use.
//
// # Match Metrics
//
// NewMatchMetrics registers the set the engine reports into:
//
//   - stubmatch_evaluations_total: evaluations by outcome (matched, unmatched, fault)
//   - stubmatch_evaluation_duration_seconds: evaluation latency
//   - stubmatch_mapping_hits_total: wins per mapping (label: mapping)
//   - stubmatch_faults_total: faults by kind (not_found, match_error)
//   - stubmatch_mappings: published mappings
//   - stubmatch_extensions: registered extensions
//
// # Usage
//
//	registry := metrics.NewRegistry()
//	m := metrics.NewMatchMetrics(registry)
//	eng := engine.New(reg, engine.WithMetrics(m))
//	...
//	_ = registry.WriteText(os.Stdout)
package metrics
