// Package stub binds request matchers to response definitions.
//
//	m := stub.RequestMatchingExtension("path-contains-param", params.One("path", "findthis")).
//		AtPriority(5).
//		WillReturn(stub.Response().WithStatus(200).WithBodyString("found").MustBuild())
package stub

import (
	"errors"
	"fmt"

	"github.com/getmockd/stubmatch/pkg/matcher"
	"github.com/getmockd/stubmatch/pkg/params"
)

// ErrInvalidMapping is returned for mappings that cannot be published.
var ErrInvalidMapping = errors.New("stub: invalid mapping")

// Mapping binds one RequestMatcher to one response. When several mappings
// match a request, higher Priority wins and ties go to the earlier insertion.
//
// A published Mapping is never mutated. Re-adding a mapping with the same ID
// supersedes it.
type Mapping struct {
	ID       string
	Name     string
	Matcher  matcher.RequestMatcher
	Response *ResponseDefinition
	Priority int
}

// Validate checks that the mapping has a matcher and a valid response.
func (m *Mapping) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil mapping", ErrInvalidMapping)
	}
	if m.Matcher == nil {
		return fmt.Errorf("%w: no request matcher", ErrInvalidMapping)
	}
	if m.Response == nil {
		return fmt.Errorf("%w: no response", ErrInvalidMapping)
	}
	return m.Response.Validate()
}

// NamedReferences returns every named matcher the mapping refers to.
func (m *Mapping) NamedReferences() []*matcher.NamedMatcher {
	return matcher.NamedReferences(m.Matcher)
}

// Label identifies the mapping in logs: its name if set, else its ID.
func (m *Mapping) Label() string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}

func (m *Mapping) String() string {
	return fmt.Sprintf("%s [priority %d] %s -> %s", m.Label(), m.Priority, matcher.Describe(m.Matcher), m.Response)
}

// Clone returns a shallow copy. Matcher and Response are immutable and shared.
func (m *Mapping) Clone() *Mapping {
	c := *m
	return &c
}

// MappingBuilder assembles a Mapping fluently.
type MappingBuilder struct {
	matchers []matcher.RequestMatcher
	id       string
	name     string
	priority int
}

// RequestMatching starts a mapping for requests accepted by m.
func RequestMatching(m matcher.RequestMatcher) *MappingBuilder {
	return &MappingBuilder{matchers: []matcher.RequestMatcher{m}}
}

// RequestMatchingExtension starts a mapping whose matcher is the named
// extension bound to p.
func RequestMatchingExtension(name string, p params.Parameters) *MappingBuilder {
	return RequestMatching(matcher.Named(name, p))
}

// RequestMatchingExtensionInstance starts a mapping whose matcher is ext
// itself, bound to p without going through the registry.
func RequestMatchingExtensionInstance(ext matcher.Extension, p params.Parameters) *MappingBuilder {
	return RequestMatching(matcher.FromExtension(ext, p))
}

// And adds another matcher; all of them must accept the request.
func (b *MappingBuilder) And(m matcher.RequestMatcher) *MappingBuilder {
	b.matchers = append(b.matchers, m)
	return b
}

// WithID sets the mapping ID. An empty ID is assigned when the mapping is added.
func (b *MappingBuilder) WithID(id string) *MappingBuilder {
	b.id = id
	return b
}

// WithName sets a human-readable name.
func (b *MappingBuilder) WithName(name string) *MappingBuilder {
	b.name = name
	return b
}

// AtPriority sets the explicit priority. Higher wins; the default is 0.
func (b *MappingBuilder) AtPriority(p int) *MappingBuilder {
	b.priority = p
	return b
}

// WillReturn completes the mapping. A builder holding only nil matchers
// yields a mapping without a matcher, which Validate rejects.
func (b *MappingBuilder) WillReturn(resp *ResponseDefinition) *Mapping {
	var m matcher.RequestMatcher
	for _, candidate := range b.matchers {
		if candidate != nil {
			m = matcher.All(b.matchers...)
			break
		}
	}
	return &Mapping{
		ID:       b.id,
		Name:     b.name,
		Matcher:  m,
		Response: resp,
		Priority: b.priority,
	}
}
