package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// File is the top-level document of a mapping file.
type File struct {
	Registry                  RegistrySettings `yaml:"registry,omitempty"`
	StrictExtensionReferences bool             `yaml:"strictExtensionReferences,omitempty"`
	Logging                   LoggingSettings  `yaml:"logging,omitempty"`
	Include                   []string         `yaml:"include,omitempty"`
	Mappings                  []MappingSpec    `yaml:"mappings,omitempty"`
}

// RegistrySettings configures the extension registry.
type RegistrySettings struct {
	// ConflictPolicy is "replace" (default) or "reject".
	ConflictPolicy string `yaml:"conflictPolicy,omitempty"`
}

// LoggingSettings configures the operational logger.
type LoggingSettings struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// MappingSpec is the declarative form of a stub mapping.
type MappingSpec struct {
	ID       string       `yaml:"id,omitempty"`
	Name     string       `yaml:"name,omitempty"`
	Priority int          `yaml:"priority,omitempty"`
	Request  RequestSpec  `yaml:"request"`
	Response ResponseSpec `yaml:"response"`
}

// label identifies the mapping in error messages.
func (m *MappingSpec) label(index int) string {
	switch {
	case m.Name != "":
		return fmt.Sprintf("mappings[%d] (%s)", index, m.Name)
	case m.ID != "":
		return fmt.Sprintf("mappings[%d] (%s)", index, m.ID)
	default:
		return fmt.Sprintf("mappings[%d]", index)
	}
}

// RequestSpec lists the criteria a request must meet. At most one URL
// criterion may be set.
type RequestSpec struct {
	Method          string                  `yaml:"method,omitempty"`
	URL             string                  `yaml:"url,omitempty"`
	URLContains     string                  `yaml:"urlContains,omitempty"`
	URLPattern      string                  `yaml:"urlPattern,omitempty"`
	URLPath         string                  `yaml:"urlPath,omitempty"`
	URLPathPattern  string                  `yaml:"urlPathPattern,omitempty"`
	URLPathTemplate string                  `yaml:"urlPathTemplate,omitempty"`
	URLPathGlob     string                  `yaml:"urlPathGlob,omitempty"`
	Headers         map[string]ValuePattern `yaml:"headers,omitempty"`
	QueryParameters map[string]ValuePattern `yaml:"queryParameters,omitempty"`
	BodyPatterns    []BodyPattern           `yaml:"bodyPatterns,omitempty"`
	CustomMatcher   *CustomMatcherSpec      `yaml:"customMatcher,omitempty"`
}

// ValuePattern matches a header or query parameter value.
// Exactly one operator must be set. absent: false on its own requires the
// value to be present; next to another operator it adds nothing.
type ValuePattern struct {
	EqualTo           *string `yaml:"equalTo,omitempty"`
	Contains          *string `yaml:"contains,omitempty"`
	Matches           *string `yaml:"matches,omitempty"`
	Wildcard          *string `yaml:"wildcard,omitempty"`
	EqualToIgnoreCase *string `yaml:"equalToIgnoreCase,omitempty"`
	Absent            *bool   `yaml:"absent,omitempty"`
}

// UnmarshalYAML accepts a bare scalar as shorthand for equalTo.
func (v *ValuePattern) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s := node.Value
		*v = ValuePattern{EqualTo: &s}
		return nil
	}
	type valuePatternAlias ValuePattern
	var alias valuePatternAlias
	if err := node.Decode(&alias); err != nil {
		return err
	}
	*v = ValuePattern(alias)
	return nil
}

// BodyPattern matches the request body. Exactly one operator must be set.
type BodyPattern struct {
	EqualTo           *string        `yaml:"equalTo,omitempty"`
	Contains          *string        `yaml:"contains,omitempty"`
	Matches           *string        `yaml:"matches,omitempty"`
	EqualToJSON       any            `yaml:"equalToJson,omitempty"`
	MatchesJSONPath   map[string]any `yaml:"matchesJsonPath,omitempty"`
	MatchesJSONSchema any            `yaml:"matchesJsonSchema,omitempty"`
	MatchesXPath      *XPathPattern  `yaml:"matchesXPath,omitempty"`
	ContainsAny       []string       `yaml:"containsAny,omitempty"`
}

// XPathPattern selects an XML element and optionally checks its text.
// A bare scalar is shorthand for the expression alone.
type XPathPattern struct {
	Expression string `yaml:"expression"`
	EqualTo    string `yaml:"equalTo,omitempty"`
}

// UnmarshalYAML accepts either a scalar expression or a mapping.
func (x *XPathPattern) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*x = XPathPattern{Expression: node.Value}
		return nil
	}
	type xpathAlias XPathPattern
	var alias xpathAlias
	if err := node.Decode(&alias); err != nil {
		return err
	}
	*x = XPathPattern(alias)
	return nil
}

// CustomMatcherSpec references a named matcher extension.
type CustomMatcherSpec struct {
	Name       string         `yaml:"name"`
	Parameters map[string]any `yaml:"parameters,omitempty"`
}

// ResponseSpec is the declarative form of a response definition.
// At most one body source may be set.
type ResponseSpec struct {
	Status            int               `yaml:"status,omitempty"`
	Headers           map[string]string `yaml:"headers,omitempty"`
	Body              *string           `yaml:"body,omitempty"`
	JSONBody          any               `yaml:"jsonBody,omitempty"`
	Base64Body        string            `yaml:"base64Body,omitempty"`
	Gzip              bool              `yaml:"gzip,omitempty"`
	GzippedBase64Body string            `yaml:"gzippedBase64Body,omitempty"`
}

// MappingList is the content of an included file: a single mapping or a
// list of mappings.
type MappingList []MappingSpec

// UnmarshalYAML handles both a single mapping and a sequence.
func (l *MappingList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var specs []MappingSpec
		if err := node.Decode(&specs); err != nil {
			return err
		}
		*l = specs
		return nil
	}

	var single MappingSpec
	if err := node.Decode(&single); err != nil {
		return err
	}
	*l = MappingList{single}
	return nil
}
