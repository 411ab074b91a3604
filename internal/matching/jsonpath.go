package matching

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/ohler55/ojg/jp"
)

// JSONPathConditions is a compiled set of JSONPath conditions.
// All conditions must hold for a body to match.
type JSONPathConditions struct {
	conditions []jsonPathCondition
}

type jsonPathCondition struct {
	path     string
	expr     jp.Expr
	expected interface{}
}

// CompileJSONPath parses every path in conditions.
// A condition value of {"exists": bool} checks presence instead of equality.
func CompileJSONPath(conditions map[string]interface{}) (*JSONPathConditions, error) {
	if len(conditions) == 0 {
		return nil, fmt.Errorf("at least one JSONPath condition is required")
	}

	paths := make([]string, 0, len(conditions))
	for p := range conditions {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	compiled := &JSONPathConditions{conditions: make([]jsonPathCondition, 0, len(paths))}
	for _, path := range paths {
		expr, err := jp.ParseString(path)
		if err != nil {
			return nil, fmt.Errorf("invalid JSONPath expression %q: %w", path, err)
		}
		compiled.conditions = append(compiled.conditions, jsonPathCondition{
			path:     path,
			expr:     expr,
			expected: conditions[path],
		})
	}
	return compiled, nil
}

// Match evaluates the conditions against a JSON body.
// A body that is not valid JSON does not match.
func (c *JSONPathConditions) Match(body []byte) bool {
	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return false
	}

	for _, cond := range c.conditions {
		if !cond.match(data) {
			return false
		}
	}
	return true
}

// Paths returns the condition paths in evaluation order.
func (c *JSONPathConditions) Paths() []string {
	out := make([]string, len(c.conditions))
	for i, cond := range c.conditions {
		out[i] = cond.path
	}
	return out
}

func (c jsonPathCondition) match(data interface{}) bool {
	results := c.expr.Get(data)

	if isExistenceCheck(c.expected) {
		return (len(results) > 0) == getExistsValue(c.expected)
	}

	// Wildcard paths can return several results; any one may satisfy the condition.
	for _, result := range results {
		if valuesEqual(result, c.expected) {
			return true
		}
	}
	return false
}

// isExistenceCheck reports whether expected is an {"exists": bool} object.
func isExistenceCheck(expected interface{}) bool {
	m, ok := expected.(map[string]interface{})
	if !ok {
		return false
	}
	_, hasExists := m["exists"]
	return hasExists && len(m) == 1
}

func getExistsValue(expected interface{}) bool {
	m, _ := expected.(map[string]interface{})
	b, ok := m["exists"].(bool)
	return ok && b
}

// valuesEqual compares a decoded JSON value with an expected value from
// configuration. YAML decodes integers as int while JSON decodes every
// number as float64, so numbers compare by value.
func valuesEqual(actual, expected interface{}) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}

	actualNum, actualIsNum := toFloat64(actual)
	expectedNum, expectedIsNum := toFloat64(expected)
	if actualIsNum && expectedIsNum {
		return actualNum == expectedNum
	}

	return reflect.DeepEqual(normalizeJSON(actual), normalizeJSON(expected))
}

// toFloat64 attempts to convert a value to float64.
func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	default:
		return 0, false
	}
}

// normalizeJSON round-trips a value through encoding/json so nested numbers
// and map types line up with what json.Unmarshal produces.
func normalizeJSON(v interface{}) interface{} {
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		b, err := json.Marshal(v)
		if err != nil {
			return v
		}
		var out interface{}
		if err := json.Unmarshal(b, &out); err != nil {
			return v
		}
		return out
	default:
		return v
	}
}

// JSONEqual reports whether two documents are semantically equal JSON:
// object key order and insignificant whitespace are ignored.
func JSONEqual(a, b []byte) bool {
	var va, vb interface{}
	if err := json.Unmarshal(a, &va); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &vb); err != nil {
		return false
	}
	return reflect.DeepEqual(va, vb)
}
