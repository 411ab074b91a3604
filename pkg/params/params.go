// Package params provides the immutable parameter bag handed to matcher extensions.
//
// A Parameters value is built once, when a stub mapping is configured, and is
// read-only afterwards. Typed getters coerce the stored value or fail with a
// *ConfigError; there are no default-value variants, so an extension that
// needs a parameter has to declare it by asking for it.
package params

import (
	"fmt"
	"sort"
	"strings"
)

// Pair is a single key/value entry used to build Parameters in order.
type Pair struct {
	Key   string
	Value any
}

// P is shorthand for Pair{Key: key, Value: value}.
func P(key string, value any) Pair {
	return Pair{Key: key, Value: value}
}

// Parameters is an immutable mapping from string keys to scalar or list values.
// The zero value is an empty bag.
type Parameters struct {
	values map[string]any
	keys   []string
}

// One builds a bag holding a single entry.
func One(key string, value any) Parameters {
	return Of(P(key, value))
}

// Of builds a bag from ordered pairs. When a key repeats, the last value wins
// but the key keeps the position of its first occurrence.
func Of(pairs ...Pair) Parameters {
	p := Parameters{values: make(map[string]any, len(pairs))}
	for _, pair := range pairs {
		if _, exists := p.values[pair.Key]; !exists {
			p.keys = append(p.keys, pair.Key)
		}
		p.values[pair.Key] = cloneValue(pair.Value)
	}
	return p
}

// FromMap builds a bag from a map. Keys are ordered lexically since map
// iteration order carries no meaning.
func FromMap(m map[string]any) Parameters {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]Pair, len(keys))
	for i, k := range keys {
		pairs[i] = P(k, m[k])
	}
	return Of(pairs...)
}

// Len returns the number of entries.
func (p Parameters) Len() int { return len(p.keys) }

// Has reports whether key is bound.
func (p Parameters) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Keys returns the bound keys in insertion order.
func (p Parameters) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Map returns a copy of the entries.
func (p Parameters) Map() map[string]any {
	out := make(map[string]any, len(p.values))
	for k, v := range p.values {
		out[k] = cloneValue(v)
	}
	return out
}

// Get returns the raw value bound to key.
func (p Parameters) Get(key string) (any, error) {
	v, ok := p.values[key]
	if !ok {
		return nil, missing(key)
	}
	return cloneValue(v), nil
}

// GetString returns the value bound to key as a string.
// Numbers and booleans are formatted; lists and maps are rejected.
func (p Parameters) GetString(key string) (string, error) {
	v, ok := p.values[key]
	if !ok {
		return "", missing(key)
	}
	s, ok := asString(v)
	if !ok {
		return "", wrongType(key, "string", v)
	}
	return s, nil
}

// GetInt returns the value bound to key as an int.
func (p Parameters) GetInt(key string) (int, error) {
	v, ok := p.values[key]
	if !ok {
		return 0, missing(key)
	}
	n, ok := asInt(v)
	if !ok {
		return 0, wrongType(key, "int", v)
	}
	return n, nil
}

// GetFloat returns the value bound to key as a float64.
func (p Parameters) GetFloat(key string) (float64, error) {
	v, ok := p.values[key]
	if !ok {
		return 0, missing(key)
	}
	f, ok := asFloat(v)
	if !ok {
		return 0, wrongType(key, "float", v)
	}
	return f, nil
}

// GetBool returns the value bound to key as a bool.
func (p Parameters) GetBool(key string) (bool, error) {
	v, ok := p.values[key]
	if !ok {
		return false, missing(key)
	}
	b, ok := asBool(v)
	if !ok {
		return false, wrongType(key, "bool", v)
	}
	return b, nil
}

// GetStringSlice returns the list bound to key with every element coerced to a string.
func (p Parameters) GetStringSlice(key string) ([]string, error) {
	v, ok := p.values[key]
	if !ok {
		return nil, missing(key)
	}
	out, ok := asStringSlice(v)
	if !ok {
		return nil, wrongType(key, "list of strings", v)
	}
	return out, nil
}

// GetMap returns the nested map bound to key.
func (p Parameters) GetMap(key string) (map[string]any, error) {
	v, ok := p.values[key]
	if !ok {
		return nil, missing(key)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, wrongType(key, "map", v)
	}
	return cloneMap(m), nil
}

// String renders the bag as {k=v, ...} in key order.
func (p Parameters) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s=%v", k, p.values[k])
	}
	sb.WriteByte('}')
	return sb.String()
}
