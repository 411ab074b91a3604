package metrics

import "time"

// Outcome label values for stubmatch_evaluations_total.
const (
	OutcomeMatched   = "matched"
	OutcomeUnmatched = "unmatched"
	OutcomeFault     = "fault"
)

// Fault kind label values for stubmatch_faults_total.
const (
	FaultNotFound   = "not_found"
	FaultMatchError = "match_error"
	FaultOther      = "other"
)

// MatchMetrics is the metric set reported by the match engine.
// A nil *MatchMetrics is valid and records nothing.
type MatchMetrics struct {
	Evaluations *Counter
	Duration    *Histogram
	MappingHits *Counter
	Faults      *Counter
	Mappings    *Gauge
	Extensions  *Gauge
}

// NewMatchMetrics registers the match metrics on r.
func NewMatchMetrics(r *Registry) *MatchMetrics {
	return &MatchMetrics{
		Evaluations: r.NewCounter(
			"stubmatch_evaluations_total",
			"Total number of request evaluations by outcome",
			"outcome",
		),
		Duration: r.NewHistogram(
			"stubmatch_evaluation_duration_seconds",
			"Duration of request evaluations in seconds",
			DefaultBuckets,
		),
		MappingHits: r.NewCounter(
			"stubmatch_mapping_hits_total",
			"Number of evaluations won by each mapping",
			"mapping",
		),
		Faults: r.NewCounter(
			"stubmatch_faults_total",
			"Number of evaluations aborted by a fault, by kind",
			"kind",
		),
		Mappings: r.NewGauge(
			"stubmatch_mappings",
			"Number of published stub mappings",
		),
		Extensions: r.NewGauge(
			"stubmatch_extensions",
			"Number of registered matcher extensions",
		),
	}
}

// ObserveEvaluation records one evaluation. mappingID is empty unless outcome
// is OutcomeMatched; faultKind is empty unless outcome is OutcomeFault.
func (m *MatchMetrics) ObserveEvaluation(outcome, mappingID, faultKind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if vec, err := m.Evaluations.WithLabels(outcome); err == nil {
		_ = vec.Inc()
	}
	_ = m.Duration.Observe(elapsed.Seconds())

	switch outcome {
	case OutcomeMatched:
		if vec, err := m.MappingHits.WithLabels(mappingID); err == nil {
			_ = vec.Inc()
		}
	case OutcomeFault:
		if vec, err := m.Faults.WithLabels(faultKind); err == nil {
			_ = vec.Inc()
		}
	}
}

// SetMappings records the number of published mappings.
func (m *MatchMetrics) SetMappings(n int) {
	if m == nil {
		return
	}
	_ = m.Mappings.Set(float64(n))
}

// SetExtensions records the number of registered extensions.
func (m *MatchMetrics) SetExtensions(n int) {
	if m == nil {
		return
	}
	_ = m.Extensions.Set(float64(n))
}
