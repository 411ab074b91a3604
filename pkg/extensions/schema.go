package extensions

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/getmockd/stubmatch/internal/matching"
	"github.com/getmockd/stubmatch/pkg/params"
	"github.com/getmockd/stubmatch/pkg/request"
)

// JSONSchema matches when the request body is JSON that validates against
// the "schema" parameter. The schema may be given as a nested map (as
// decoded from YAML) or as a JSON string.
type JSONSchema struct {
	mu      sync.RWMutex
	schemas map[string]*matching.JSONSchema
}

// NewJSONSchema creates the json-schema extension with an empty compile cache.
func NewJSONSchema() *JSONSchema {
	return &JSONSchema{schemas: make(map[string]*matching.JSONSchema)}
}

// Name implements matcher.Extension.
func (*JSONSchema) Name() string { return "json-schema" }

// IsMatchedBy implements matcher.Extension.
func (s *JSONSchema) IsMatchedBy(req *request.Request, p params.Parameters) (bool, error) {
	schema, err := s.schema(p)
	if err != nil {
		return false, err
	}
	return schema.Match(req.Body()), nil
}

// ValidateParameters compiles the schema.
func (s *JSONSchema) ValidateParameters(p params.Parameters) error {
	_, err := s.schema(p)
	return err
}

func (s *JSONSchema) schema(p params.Parameters) (*matching.JSONSchema, error) {
	raw, err := p.Get("schema")
	if err != nil {
		return nil, err
	}

	var source []byte
	if str, ok := raw.(string); ok {
		source = []byte(str)
	} else if source, err = json.Marshal(raw); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	key := string(source)

	s.mu.RLock()
	compiled, ok := s.schemas[key]
	s.mu.RUnlock()
	if ok {
		return compiled, nil
	}

	compiled, err = matching.CompileJSONSchema(source)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.schemas[key]; ok {
		return existing, nil
	}
	s.schemas[key] = compiled
	return compiled, nil
}
