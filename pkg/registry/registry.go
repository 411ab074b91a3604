// Package registry holds the named matcher extensions that stub mappings
// reference by name.
//
// Writers serialize on a mutex, copy the current table, apply their change and
// publish the copy atomically. Readers take a Snapshot, which never changes
// after publication, so matching never contends with registration.
package registry

import (
	"fmt"
	"log/slog"
	"reflect"
	"regexp"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/getmockd/stubmatch/pkg/logging"
	"github.com/getmockd/stubmatch/pkg/matcher"
)

// ConflictPolicy decides what Register does when the name is already taken.
type ConflictPolicy int

const (
	// ReplaceExisting swaps in the new extension. Later evaluations see only the new one.
	ReplaceExisting ConflictPolicy = iota
	// RejectDuplicate fails the second registration with ErrDuplicate.
	RejectDuplicate
)

func (p ConflictPolicy) String() string {
	switch p {
	case RejectDuplicate:
		return "reject"
	default:
		return "replace"
	}
}

// ParseConflictPolicy parses "replace" or "reject". The empty string is "replace".
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch s {
	case "", "replace":
		return ReplaceExisting, nil
	case "reject":
		return RejectDuplicate, nil
	default:
		return ReplaceExisting, fmt.Errorf("registry: unknown conflict policy %q", s)
	}
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,254}$`)

// ValidateName reports whether name may be used to register an extension.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return &InvalidNameError{Name: name}
	}
	return nil
}

// Option configures a Registry.
type Option func(*Registry)

// WithConflictPolicy sets the duplicate-name policy. The default is ReplaceExisting.
func WithConflictPolicy(p ConflictPolicy) Option {
	return func(r *Registry) { r.policy = p }
}

// WithLogger sets the logger for registration events.
func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// Registry maps extension names to extensions.
type Registry struct {
	mu      sync.Mutex // serializes writers
	current atomic.Pointer[Snapshot]
	policy  ConflictPolicy
	log     *slog.Logger
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{log: logging.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	r.current.Store(&Snapshot{extensions: map[string]matcher.Extension{}})
	return r
}

// Policy returns the conflict policy the registry was built with.
func (r *Registry) Policy() ConflictPolicy { return r.policy }

// Register adds ext under ext.Name(). Once Register returns, every later
// Snapshot sees the extension.
func (r *Registry) Register(ext matcher.Extension) error {
	if isNil(ext) {
		return fmt.Errorf("%w: nil extension", ErrInvalidName)
	}
	name := ext.Name()
	if err := ValidateName(name); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.current.Load()
	_, exists := cur.extensions[name]
	if exists && r.policy == RejectDuplicate {
		return &DuplicateError{Name: name}
	}

	next := cur.with(func(m map[string]matcher.Extension) { m[name] = ext })
	r.current.Store(next)

	if exists {
		r.log.Warn("replaced matcher extension", "name", name, "version", next.version)
	} else {
		r.log.Info("registered matcher extension", "name", name, "version", next.version)
	}
	return nil
}

// Unregister removes name. It reports whether the name was registered.
// Snapshots taken earlier still resolve the removed extension.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.current.Load()
	if _, ok := cur.extensions[name]; !ok {
		return false
	}
	next := cur.with(func(m map[string]matcher.Extension) { delete(m, name) })
	r.current.Store(next)
	r.log.Info("unregistered matcher extension", "name", name, "version", next.version)
	return true
}

// Lookup returns the extension registered under name in the current snapshot.
func (r *Registry) Lookup(name string) (matcher.Extension, error) {
	return r.current.Load().Lookup(name)
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string { return r.current.Load().Names() }

// Len returns the number of registered extensions.
func (r *Registry) Len() int { return r.current.Load().Len() }

// Snapshot returns the current immutable view of the registry.
func (r *Registry) Snapshot() *Snapshot { return r.current.Load() }

// Snapshot is an immutable name to extension table. It implements
// matcher.Resolver and is safe for concurrent use.
type Snapshot struct {
	extensions map[string]matcher.Extension
	version    uint64
}

var _ matcher.Resolver = (*Snapshot)(nil)

func (s *Snapshot) with(mutate func(map[string]matcher.Extension)) *Snapshot {
	m := make(map[string]matcher.Extension, len(s.extensions)+1)
	for k, v := range s.extensions {
		m[k] = v
	}
	mutate(m)
	return &Snapshot{extensions: m, version: s.version + 1}
}

// Lookup implements matcher.Resolver.
func (s *Snapshot) Lookup(name string) (matcher.Extension, error) {
	if s != nil {
		if ext, ok := s.extensions[name]; ok {
			return ext, nil
		}
	}
	return nil, &matcher.NotFoundError{Name: name}
}

// Names returns the registered names in sorted order.
func (s *Snapshot) Names() []string {
	names := make([]string, 0, len(s.extensions))
	for name := range s.extensions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of extensions in the snapshot.
func (s *Snapshot) Len() int { return len(s.extensions) }

// Version increases by one with every published change.
func (s *Snapshot) Version() uint64 { return s.version }

// isNil also catches a typed nil pointer stored in the interface.
func isNil(ext matcher.Extension) bool {
	if ext == nil {
		return true
	}
	switch v := reflect.ValueOf(ext); v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Slice, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
