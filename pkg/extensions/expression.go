package extensions

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/getmockd/stubmatch/pkg/params"
	"github.com/getmockd/stubmatch/pkg/request"
)

// Expression matches when the expr-lang expression in the "expression"
// parameter evaluates to true. The expression sees:
//
//	method   string               upper-case HTTP method
//	url      string               path and query
//	path     string               path only
//	query    map[string][]string  query parameters
//	headers  map[string]string    first value per canonical header name
//	body     string               raw body
//	json     any                  decoded JSON body, nil when the body is not JSON
//
// Example: `method == "POST" && json.amount > 100 && headers["X-Tenant"] startsWith "acme"`.
// Guard field access with json?.field when the body may not be JSON.
type Expression struct {
	programMu sync.RWMutex
	programs  map[string]*vm.Program
}

// NewExpression creates the expression extension with an empty compile cache.
func NewExpression() *Expression {
	return &Expression{programs: make(map[string]*vm.Program)}
}

// Name implements matcher.Extension.
func (*Expression) Name() string { return "expression" }

// IsMatchedBy implements matcher.Extension.
func (e *Expression) IsMatchedBy(req *request.Request, p params.Parameters) (bool, error) {
	src, err := p.GetString("expression")
	if err != nil {
		return false, err
	}
	program, err := e.compile(src)
	if err != nil {
		return false, err
	}

	out, err := expr.Run(program, requestEnv(req))
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", src, err)
	}
	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("eval %q: result is %T, not bool", src, out)
	}
	return matched, nil
}

// ValidateParameters compiles the expression so syntax and type errors
// surface when the mapping is added.
func (e *Expression) ValidateParameters(p params.Parameters) error {
	src, err := p.GetString("expression")
	if err != nil {
		return err
	}
	_, err = e.compile(src)
	return err
}

// Cached reports how many distinct expressions have been compiled.
func (e *Expression) Cached() int {
	e.programMu.RLock()
	defer e.programMu.RUnlock()
	return len(e.programs)
}

func (e *Expression) compile(src string) (*vm.Program, error) {
	e.programMu.RLock()
	program, ok := e.programs[src]
	e.programMu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := expr.Compile(src, expr.Env(envShape), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", src, err)
	}

	e.programMu.Lock()
	defer e.programMu.Unlock()
	if existing, ok := e.programs[src]; ok {
		return existing, nil
	}
	e.programs[src] = program
	return program, nil
}

// envShape gives the compiler the variable types.
var envShape = map[string]any{
	"method":  "",
	"url":     "",
	"path":    "",
	"query":   map[string][]string{},
	"headers": map[string]string{},
	"body":    "",
	"json":    any(nil),
}

func requestEnv(req *request.Request) map[string]any {
	headers := make(map[string]string)
	for name, values := range req.Headers() {
		if len(values) > 0 {
			headers[http.CanonicalHeaderKey(name)] = values[0]
		}
	}

	var decoded any
	if body := req.Body(); len(body) > 0 && looksLikeJSON(body) {
		if err := json.Unmarshal(body, &decoded); err != nil {
			decoded = nil
		}
	}

	return map[string]any{
		"method":  req.Method(),
		"url":     req.URL(),
		"path":    req.Path(),
		"query":   map[string][]string(req.Query()),
		"headers": headers,
		"body":    req.BodyString(),
		"json":    decoded,
	}
}

func looksLikeJSON(body []byte) bool {
	s := strings.TrimSpace(string(body))
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
}
