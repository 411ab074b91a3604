// Package engine selects the stub mapping that answers a request.
//
// The Engine owns the published mappings and the extension registry. Admin
// calls (RegisterExtension, AddStubMapping, ...) publish new immutable
// snapshots; Evaluate captures one snapshot of each and walks the mappings
// in priority order. An in-flight evaluation never observes a concurrent
// registration.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/getmockd/stubmatch/internal/storage"
	"github.com/getmockd/stubmatch/pkg/logging"
	"github.com/getmockd/stubmatch/pkg/matcher"
	"github.com/getmockd/stubmatch/pkg/metrics"
	"github.com/getmockd/stubmatch/pkg/registry"
	"github.com/getmockd/stubmatch/pkg/request"
	"github.com/getmockd/stubmatch/pkg/stub"
)

// ErrNilRequest is returned by Evaluate for a nil request.
var ErrNilRequest = errors.New("engine: nil request")

// Option is a functional option for configuring an Engine.
type Option func(*Engine)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithMetrics sets where evaluation statistics are recorded.
func WithMetrics(m *metrics.MatchMetrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithStrictExtensionReferences makes AddStubMapping reject mappings that
// reference an extension that is not registered yet. By default such
// mappings are accepted with a warning and fail when evaluated.
func WithStrictExtensionReferences(strict bool) Option {
	return func(e *Engine) { e.strict = strict }
}

// WithStore sets the mapping store. The default is an in-memory store.
func WithStore(s storage.MappingStore) Option {
	return func(e *Engine) {
		if s != nil {
			e.store = s
		}
	}
}

// Engine matches requests against published stub mappings.
// It is safe for concurrent use and keeps no state between requests.
type Engine struct {
	registry *registry.Registry
	store    storage.MappingStore
	log      *slog.Logger
	metrics  *metrics.MatchMetrics
	strict   bool
}

// New creates an Engine resolving named matchers through reg.
// A nil reg gets a fresh registry with the default conflict policy.
func New(reg *registry.Registry, opts ...Option) *Engine {
	if reg == nil {
		reg = registry.New()
	}
	e := &Engine{
		registry: reg,
		store:    storage.NewInMemoryMappingStore(),
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.metrics.SetExtensions(reg.Len())
	e.metrics.SetMappings(e.store.Count())
	return e
}

// Registry returns the extension registry.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// StrictExtensionReferences reports whether unknown extension references are rejected on add.
func (e *Engine) StrictExtensionReferences() bool { return e.strict }

// RegisterExtension registers ext with the engine's registry.
func (e *Engine) RegisterExtension(ext matcher.Extension) error {
	if err := e.registry.Register(ext); err != nil {
		return err
	}
	e.metrics.SetExtensions(e.registry.Len())
	return nil
}

// AddStubMapping validates m and publishes a copy of it, returning the copy
// with its assigned ID. A mapping with the same ID is superseded.
//
// Every named extension the mapping references that is already registered
// gets to validate its parameters, so a bad mapping fails here rather than
// on the first request.
func (e *Engine) AddStubMapping(m *stub.Mapping) (*stub.Mapping, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := e.checkReferences(m); err != nil {
		return nil, err
	}

	stored, err := e.store.Set(m)
	if err != nil {
		return nil, fmt.Errorf("engine: store mapping: %w", err)
	}
	e.metrics.SetMappings(e.store.Count())
	e.log.Debug("published stub mapping",
		"id", stored.ID,
		"name", stored.Name,
		"priority", stored.Priority,
		"version", e.store.Snapshot().Version(),
	)
	return stored, nil
}

func (e *Engine) checkReferences(m *stub.Mapping) error {
	extensions := e.registry.Snapshot()
	for _, ref := range m.NamedReferences() {
		ext, err := extensions.Lookup(ref.Name())
		if err != nil {
			if e.strict {
				return fmt.Errorf("engine: mapping %s: %w", m.Label(), err)
			}
			e.log.Warn("stub mapping references unregistered extension",
				"mapping", m.Label(),
				"extension", ref.Name(),
			)
			continue
		}
		if v, ok := ext.(matcher.ParameterValidator); ok {
			if err := v.ValidateParameters(ref.Parameters()); err != nil {
				return fmt.Errorf("engine: mapping %s: extension %s: %w", m.Label(), ref.Name(), err)
			}
		}
	}
	return nil
}

// RemoveStubMapping removes the mapping with the given ID.
// It reports whether the mapping existed.
func (e *Engine) RemoveStubMapping(id string) bool {
	removed := e.store.Delete(id)
	if removed {
		e.metrics.SetMappings(e.store.Count())
		e.log.Debug("removed stub mapping", "id", id)
	}
	return removed
}

// ResetStubMappings removes every mapping. Registered extensions are kept.
func (e *Engine) ResetStubMappings() {
	e.store.Clear()
	e.metrics.SetMappings(0)
	e.log.Debug("reset stub mappings")
}

// StubMappings returns the published mappings in match order.
func (e *Engine) StubMappings() []*stub.Mapping {
	return e.store.List()
}

// GetStubMapping returns the mapping with the given ID, or nil.
func (e *Engine) GetStubMapping(id string) *stub.Mapping {
	return e.store.Get(id)
}

// Snapshot is a consistent view of mappings and extensions.
type Snapshot struct {
	Mappings   *storage.Snapshot
	Extensions *registry.Snapshot
}

// Snapshot captures the current mappings and extensions as a pair that was
// live at one instant. The mapping snapshot is loaded again after the
// registry; if it moved, a writer ran in between and the pair is retaken.
func (e *Engine) Snapshot() Snapshot {
	for {
		mappings := e.store.Snapshot()
		extensions := e.registry.Snapshot()
		if e.store.Snapshot() == mappings {
			return Snapshot{Mappings: mappings, Extensions: extensions}
		}
	}
}

// Outcome is the result of an evaluation.
type Outcome struct {
	// Mapping is the winning mapping, nil when nothing matched.
	Mapping *stub.Mapping
}

// Unmatched is the Outcome when no mapping accepts the request.
var Unmatched = Outcome{}

// Matched reports whether a mapping was selected.
func (o Outcome) Matched() bool { return o.Mapping != nil }

// Response returns the winning mapping's response, or nil.
func (o Outcome) Response() *stub.ResponseDefinition {
	if o.Mapping == nil {
		return nil
	}
	return o.Mapping.Response
}

// Evaluate selects the mapping for req against a fresh snapshot.
func (e *Engine) Evaluate(req *request.Request) (Outcome, error) {
	return e.EvaluateSnapshot(req, e.Snapshot())
}

// EvaluateSnapshot returns the first mapping, in priority order, whose
// matcher accepts req. A matcher that cannot be evaluated aborts the walk
// with a *FaultError; it is never treated as a non-match.
func (e *Engine) EvaluateSnapshot(req *request.Request, snap Snapshot) (Outcome, error) {
	if req == nil {
		return Unmatched, ErrNilRequest
	}
	start := time.Now()

	var (
		winner *stub.Mapping
		fault  *FaultError
	)
	snap.Mappings.Each(func(m *stub.Mapping) bool {
		ok, err := m.Matcher.Evaluate(req, snap.Extensions)
		if err != nil {
			fault = &FaultError{MappingID: m.ID, Err: err}
			return false
		}
		if ok {
			winner = m
			return false
		}
		return true
	})
	elapsed := time.Since(start)

	switch {
	case fault != nil:
		e.metrics.ObserveEvaluation(metrics.OutcomeFault, "", faultKind(fault), elapsed)
		e.log.Error("stub mapping evaluation failed",
			"mapping", fault.MappingID,
			"method", req.Method(),
			"url", req.URL(),
			"error", fault.Err,
		)
		return Unmatched, fault
	case winner != nil:
		e.metrics.ObserveEvaluation(metrics.OutcomeMatched, winner.ID, "", elapsed)
		return Outcome{Mapping: winner}, nil
	default:
		e.metrics.ObserveEvaluation(metrics.OutcomeUnmatched, "", "", elapsed)
		return Unmatched, nil
	}
}

// Candidates returns every mapping in the snapshot that accepts req, in
// match order. The first candidate is the one Evaluate would select.
func (e *Engine) Candidates(req *request.Request, snap Snapshot) ([]*stub.Mapping, error) {
	if req == nil {
		return nil, ErrNilRequest
	}
	var (
		out   []*stub.Mapping
		fault error
	)
	snap.Mappings.Each(func(m *stub.Mapping) bool {
		ok, err := m.Matcher.Evaluate(req, snap.Extensions)
		if err != nil {
			fault = &FaultError{MappingID: m.ID, Err: err}
			return false
		}
		if ok {
			out = append(out, m)
		}
		return true
	})
	if fault != nil {
		return out, fault
	}
	return out, nil
}

func faultKind(err error) string {
	switch {
	case errors.Is(err, matcher.ErrNotFound):
		return metrics.FaultNotFound
	case errors.Is(err, matcher.ErrMatch):
		return metrics.FaultMatchError
	default:
		return metrics.FaultOther
	}
}
