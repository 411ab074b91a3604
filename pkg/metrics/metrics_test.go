package metrics

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestCounter(t *testing.T) {
	t.Run("without labels", func(t *testing.T) {
		r := NewRegistry()
		c := r.NewCounter("test_counter", "A test counter")

		_ = c.Inc()
		_ = c.Inc()
		_ = c.Add(3)

		samples := c.Collect()
		if len(samples) != 1 {
			t.Fatalf("expected 1 sample, got %d", len(samples))
		}
		if samples[0].Value != 5 {
			t.Errorf("expected value 5, got %f", samples[0].Value)
		}
	})

	t.Run("with labels", func(t *testing.T) {
		r := NewRegistry()
		c := r.NewCounter("evaluations", "Evaluations", "outcome")

		vec, err := c.WithLabels("matched")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_ = vec.Inc()
		vec, _ = c.WithLabels("matched")
		_ = vec.Inc()
		vec, _ = c.WithLabels("unmatched")
		_ = vec.Add(5)

		if got := c.Value("matched"); got != 2 {
			t.Errorf("matched = %f, want 2", got)
		}
		if got := c.Value("unmatched"); got != 5 {
			t.Errorf("unmatched = %f, want 5", got)
		}
		if got := c.Value("fault"); got != 0 {
			t.Errorf("fault = %f, want 0", got)
		}

		samples := c.Collect()
		if len(samples) != 2 || samples[0].Labels["outcome"] != "matched" {
			t.Errorf("samples not in label order: %+v", samples)
		}
	})

	t.Run("wrong label count returns error", func(t *testing.T) {
		r := NewRegistry()
		c := r.NewCounter("test", "test", "label1", "label2")
		_, err := c.WithLabels("only_one")
		if !errors.Is(err, ErrLabelCountMismatch) {
			t.Errorf("expected ErrLabelCountMismatch, got %v", err)
		}
	})

	t.Run("negative add returns error", func(t *testing.T) {
		r := NewRegistry()
		c := r.NewCounter("test", "test")
		if err := c.Add(-1); !errors.Is(err, ErrNegativeCounterValue) {
			t.Errorf("expected ErrNegativeCounterValue, got %v", err)
		}
	})
}

func TestGauge(t *testing.T) {
	r := NewRegistry()
	g := r.NewGauge("mappings", "Mappings")

	_ = g.Set(10)
	_ = g.Set(7)
	if got := g.Value(); got != 7 {
		t.Errorf("gauge = %f, want 7", got)
	}

	lg := r.NewGauge("labelled", "Labelled", "kind")
	vec, err := lg.WithLabels("a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vec.Set(1)
	if got := lg.Value("a"); got != 1 {
		t.Errorf("labelled gauge = %f, want 1", got)
	}
}

func TestHistogram(t *testing.T) {
	r := NewRegistry()
	h := r.NewHistogram("latency", "Latency", []float64{1, 0.1, 0.5})

	for _, v := range []float64{0.05, 0.1, 0.3, 0.7, 2} {
		_ = h.Observe(v)
	}
	if h.Count() != 5 {
		t.Fatalf("count = %d, want 5", h.Count())
	}

	buckets := map[string]float64{}
	var sum float64
	for _, s := range h.Collect() {
		switch s.Name {
		case "latency_bucket":
			buckets[s.Labels["le"]] = s.Value
		case "latency_sum":
			sum = s.Value
		}
	}

	want := map[string]float64{"0.1": 2, "0.5": 3, "1": 4, "+Inf": 5}
	for le, n := range want {
		if buckets[le] != n {
			t.Errorf("bucket le=%s = %f, want %f", le, buckets[le], n)
		}
	}
	if sum < 3.14 || sum > 3.16 {
		t.Errorf("sum = %f, want 3.15", sum)
	}
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.NewCounter("dup", "first")

	defer func() {
		if recover() == nil {
			t.Error("expected panic for duplicate metric name")
		}
	}()
	r.NewGauge("dup", "second")
}

func TestWriteText(t *testing.T) {
	r := NewRegistry()
	c := r.NewCounter("hits_total", "Hits with \"quotes\"\nand newline", "mapping")
	r.NewGauge("never_set", "Omitted when empty")
	g := r.NewGauge("mappings", "Mappings")

	vec, _ := c.WithLabels(`id-"1"`)
	_ = vec.Inc()
	_ = g.Set(3)

	var buf bytes.Buffer
	if err := r.WriteText(&buf); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# HELP hits_total Hits with \"quotes\"\\nand newline\n",
		"# TYPE hits_total counter\n",
		`hits_total{mapping="id-\"1\""} 1` + "\n",
		"# TYPE mappings gauge\n",
		"mappings 3\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "never_set") {
		t.Error("metrics without samples should be omitted")
	}
}

func TestMatchMetrics(t *testing.T) {
	r := NewRegistry()
	m := NewMatchMetrics(r)

	m.ObserveEvaluation(OutcomeMatched, "m-1", "", time.Millisecond)
	m.ObserveEvaluation(OutcomeMatched, "m-1", "", time.Millisecond)
	m.ObserveEvaluation(OutcomeUnmatched, "", "", time.Millisecond)
	m.ObserveEvaluation(OutcomeFault, "", FaultNotFound, time.Millisecond)
	m.SetMappings(4)
	m.SetExtensions(2)

	if got := m.Evaluations.Value(OutcomeMatched); got != 2 {
		t.Errorf("matched = %f, want 2", got)
	}
	if got := m.MappingHits.Value("m-1"); got != 2 {
		t.Errorf("hits m-1 = %f, want 2", got)
	}
	if got := m.Faults.Value(FaultNotFound); got != 1 {
		t.Errorf("faults = %f, want 1", got)
	}
	if m.Duration.Count() != 4 {
		t.Errorf("duration count = %d, want 4", m.Duration.Count())
	}
	if m.Mappings.Value() != 4 || m.Extensions.Value() != 2 {
		t.Error("gauges not set")
	}

	var nilMetrics *MatchMetrics
	nilMetrics.ObserveEvaluation(OutcomeMatched, "x", "", 0)
	nilMetrics.SetMappings(1)
}

func TestConcurrentUpdates(t *testing.T) {
	r := NewRegistry()
	c := r.NewCounter("concurrent_total", "Concurrent", "worker")
	h := r.NewHistogram("concurrent_seconds", "Concurrent", DefaultBuckets)

	var wg sync.WaitGroup
	for w := 0; w < 10; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				vec, _ := c.WithLabels("shared")
				_ = vec.Inc()
				_ = h.Observe(0.001)
			}
		}()
	}
	wg.Wait()

	if got := c.Value("shared"); got != 1000 {
		t.Errorf("counter = %f, want 1000", got)
	}
	if h.Count() != 1000 {
		t.Errorf("histogram count = %d, want 1000", h.Count())
	}
}
