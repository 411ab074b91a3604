package matching

import (
	"fmt"

	"github.com/beevik/etree"
)

// XMLPath is a compiled etree path expression, e.g. "//order/item[@sku='A1']".
type XMLPath struct {
	source string
	path   etree.Path
}

// CompileXMLPath parses an etree path.
func CompileXMLPath(expr string) (*XMLPath, error) {
	p, err := etree.CompilePath(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid XML path %q: %w", expr, err)
	}
	return &XMLPath{source: expr, path: p}, nil
}

// Match reports whether the body parses as XML and contains at least one
// element selected by the path. When text is non-empty an element must also
// carry exactly that text.
func (x *XMLPath) Match(body []byte, text string) bool {
	if len(body) == 0 {
		return false
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return false
	}
	if doc.Root() == nil {
		return false
	}

	for _, el := range doc.FindElementsPath(x.path) {
		if text == "" || el.Text() == text {
			return true
		}
	}
	return false
}

// String returns the source expression.
func (x *XMLPath) String() string { return x.source }
