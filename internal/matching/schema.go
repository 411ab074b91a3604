package matching

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaResource = "schema.json"

// JSONSchema is a compiled JSON Schema (draft 2020-12 unless the schema says otherwise).
type JSONSchema struct {
	schema *jsonschema.Schema
}

// CompileJSONSchema compiles a schema given as a decoded document
// (map[string]interface{} from JSON or YAML) or as raw JSON bytes.
func CompileJSONSchema(schema interface{}) (*JSONSchema, error) {
	var raw []byte
	switch s := schema.(type) {
	case []byte:
		raw = s
	case string:
		raw = []byte(s)
	case json.RawMessage:
		raw = s
	default:
		b, err := json.Marshal(schema)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal schema: %w", err)
		}
		raw = b
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaResource, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	compiled, err := compiler.Compile(schemaResource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return &JSONSchema{schema: compiled}, nil
}

// Match reports whether body is valid JSON that satisfies the schema.
func (s *JSONSchema) Match(body []byte) bool {
	return s.Validate(body) == nil
}

// Validate returns the decode or validation error for body, if any.
func (s *JSONSchema) Validate(body []byte) error {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("body is not JSON: %w", err)
	}
	return s.schema.Validate(doc)
}
