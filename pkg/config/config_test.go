package config

import (
	"encoding/base64"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/stubmatch/pkg/codec"
	"github.com/getmockd/stubmatch/pkg/engine"
	"github.com/getmockd/stubmatch/pkg/matcher"
	"github.com/getmockd/stubmatch/pkg/registry"
	"github.com/getmockd/stubmatch/pkg/request"
	"github.com/getmockd/stubmatch/pkg/stub"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func matches(t *testing.T, m *stub.Mapping, req *request.Request) bool {
	t.Helper()
	ok, err := m.Matcher.Evaluate(req, registry.New().Snapshot())
	require.NoError(t, err)
	return ok
}

func TestLoadBytes_Settings(t *testing.T) {
	cfg, err := LoadBytes([]byte(`
registry:
  conflictPolicy: reject
strictExtensionReferences: true
logging:
  level: debug
  format: json
`), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, registry.RejectDuplicate, cfg.ConflictPolicy)
	assert.True(t, cfg.StrictExtensionReferences)
	assert.Empty(t, cfg.Mappings)

	lc, err := cfg.LoggingConfig(os.Stderr)
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", lc.Level.String())
	assert.Len(t, cfg.RegistryOptions(), 1)
	assert.Len(t, cfg.EngineOptions(), 1)
}

func TestLoadBytes_Defaults(t *testing.T) {
	cfg, err := LoadBytes([]byte("mappings: []\n"), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, registry.ReplaceExisting, cfg.ConflictPolicy)
	assert.False(t, cfg.StrictExtensionReferences)
}

func TestLoadBytes_InvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown policy", "registry: {conflictPolicy: merge}\n"},
		{"unknown level", "logging: {level: loud}\n"},
		{"unknown format", "logging: {format: xml}\n"},
		{"unknown field", "mapings: []\n"},
		{"empty document", ""},
		{"broken yaml", "mappings: [unclosed\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes([]byte(tt.yaml), t.TempDir())
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestRequestMatchers(t *testing.T) {
	h := http.Header{}
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("X-Tenant", "ACME")
	order := request.MustNew("POST", "/orders/42?channel=web", h, []byte(`{"amount": 250, "currency": "EUR"}`))
	xml := request.MustNew("POST", "/soap", nil, []byte(`<envelope><order><id>7</id></order></envelope>`))

	tests := []struct {
		name string
		yaml string
		req  *request.Request
		want bool
	}{
		{"empty request matches all", `request: {}`, order, true},
		{"method", `request: {method: post}`, order, true},
		{"method mismatch", `request: {method: GET}`, order, false},
		{"url", `request: {url: "/orders/42?channel=web"}`, order, true},
		{"urlContains", `request: {urlContains: "channel=web"}`, order, true},
		{"urlPattern", `request: {urlPattern: "^/orders/[0-9]+\\?.*$"}`, order, true},
		{"urlPath", `request: {urlPath: /orders/42}`, order, true},
		{"urlPathPattern", `request: {urlPathPattern: "/orders/\\d+"}`, order, true},
		{"urlPathTemplate", `request: {urlPathTemplate: "/orders/{id}"}`, order, true},
		{"urlPathGlob", `request: {urlPathGlob: "/orders/**"}`, order, true},
		{"header shorthand", `request: {headers: {X-Tenant: ACME}}`, order, true},
		{"header contains", `request: {headers: {Content-Type: {contains: json}}}`, order, true},
		{"header matches", `request: {headers: {X-Tenant: {matches: "^AC"}}}`, order, true},
		{"header wildcard", `request: {headers: {Content-Type: {wildcard: "application/*"}}}`, order, true},
		{"header ignore case", `request: {headers: {X-Tenant: {equalToIgnoreCase: acme}}}`, order, true},
		{"header absent", `request: {headers: {Authorization: {absent: true}}}`, order, true},
		{"header absent fails", `request: {headers: {X-Tenant: {absent: true}}}`, order, false},
		{"query equal", `request: {queryParameters: {channel: {equalTo: web}}}`, order, true},
		{"query matches", `request: {queryParameters: {channel: {matches: "^w"}}}`, order, true},
		{"query absent", `request: {queryParameters: {page: {absent: true}}}`, order, true},
		{"header present", `request: {headers: {X-Tenant: {absent: false}}}`, order, true},
		{"header present fails", `request: {headers: {Authorization: {absent: false}}}`, order, false},
		{"header absent false beside operator", `request: {headers: {X-Tenant: {equalTo: ACME, absent: false}}}`, order, true},
		{"query present", `request: {queryParameters: {channel: {absent: false}}}`, order, true},
		{"query present fails", `request: {queryParameters: {page: {absent: false}}}`, order, false},
		{"body contains", `request: {bodyPatterns: [{contains: amount}]}`, order, true},
		{"body matches", `request: {bodyPatterns: [{matches: "\"amount\": \\d+"}]}`, order, true},
		{"body equalTo", `request: {bodyPatterns: [{equalTo: "nope"}]}`, order, false},
		{"body json string", `request: {bodyPatterns: [{equalToJson: '{"currency":"EUR","amount":250}'}]}`, order, true},
		{"body json map", `request: {bodyPatterns: [{equalToJson: {currency: EUR, amount: 250}}]}`, order, true},
		{"body jsonpath", `request: {bodyPatterns: [{matchesJsonPath: {"$.currency": EUR}}]}`, order, true},
		{"body jsonpath exists", `request: {bodyPatterns: [{matchesJsonPath: {"$.missing": {exists: false}}}]}`, order, true},
		{"body json schema", `request: {bodyPatterns: [{matchesJsonSchema: {type: object, required: [amount]}}]}`, order, true},
		{"body containsAny", `request: {bodyPatterns: [{containsAny: [USD, EUR]}]}`, order, true},
		{"body xpath scalar", `request: {bodyPatterns: [{matchesXPath: //order/id}]}`, xml, true},
		{"body xpath text", `request: {bodyPatterns: [{matchesXPath: {expression: //order/id, equalTo: "8"}}]}`, xml, false},
		{"all criteria", `
request:
  method: POST
  urlPath: /orders/42
  headers: {X-Tenant: {equalTo: ACME}}
  bodyPatterns:
    - contains: amount
    - matchesJsonPath: {"$.amount": 250}`, order, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadBytes([]byte("mappings:\n  - "+indent(tt.yaml)+"\n    response: {status: 204}\n"), t.TempDir())
			require.NoError(t, err)
			require.Len(t, cfg.Mappings, 1)
			assert.Equal(t, tt.want, matches(t, cfg.Mappings[0], tt.req))
		})
	}
}

// indent continues a multi-line YAML snippet inside a list item.
func indent(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		out = append(out, s[i])
		if s[i] == '\n' {
			out = append(out, "    "...)
		}
	}
	return string(out)
}

func TestRequestMatchers_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		target error
	}{
		{"two url criteria", `request: {url: /a, urlPath: /a}`, ErrInvalidConfig},
		{"header without operator", `request: {headers: {X-A: {}}}`, ErrInvalidConfig},
		{"header two operators", `request: {headers: {X-A: {equalTo: a, contains: b}}}`, ErrInvalidConfig},
		{"header absent beside operator", `request: {headers: {X-A: {equalTo: a, absent: true}}}`, ErrInvalidConfig},
		{"query contains unsupported", `request: {queryParameters: {a: {contains: b}}}`, ErrInvalidConfig},
		{"body without operator", `request: {bodyPatterns: [{}]}`, ErrInvalidConfig},
		{"body two operators", `request: {bodyPatterns: [{contains: a, equalTo: a}]}`, ErrInvalidConfig},
		{"custom without name", `request: {customMatcher: {parameters: {a: 1}}}`, ErrInvalidConfig},
		{"bad regex", `request: {urlPattern: "(["}`, matcher.ErrInvalidMatcher},
		{"bad json", `request: {bodyPatterns: [{equalToJson: "{nope"}]}`, matcher.ErrInvalidMatcher},
		{"bad schema", `request: {bodyPatterns: [{matchesJsonSchema: {type: 12}}]}`, matcher.ErrInvalidMatcher},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes([]byte("mappings:\n  - "+tt.yaml+"\n    response: {status: 200}\n"), t.TempDir())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.Contains(t, err.Error(), "mappings[0]")
		})
	}
}

func TestCustomMatcher(t *testing.T) {
	cfg, err := LoadBytes([]byte(`
mappings:
  - name: find-this
    request:
      method: GET
      customMatcher:
        name: path-contains-param
        parameters:
          path: findthis
    response:
      status: 200
`), t.TempDir())
	require.NoError(t, err)
	require.Len(t, cfg.Mappings, 1)

	refs := cfg.Mappings[0].NamedReferences()
	require.Len(t, refs, 1)
	assert.Equal(t, "path-contains-param", refs[0].Name())
	path, err := refs[0].Parameters().GetString("path")
	require.NoError(t, err)
	assert.Equal(t, "findthis", path)
}

func TestResponses(t *testing.T) {
	gz, err := codec.CompressString("zipped")
	require.NoError(t, err)
	gzB64 := base64.StdEncoding.EncodeToString(gz)

	tests := []struct {
		name       string
		yaml       string
		status     int
		plain      string
		compressed bool
		header     [2]string
	}{
		{"default status", `{}`, 200, "", false, [2]string{}},
		{"body and headers", `{status: 201, headers: {X-Id: "7"}, body: created}`, 201, "created", false, [2]string{"X-Id", "7"}},
		{"json body", `{jsonBody: {ok: true}}`, 200, `{"ok":true}`, false, [2]string{"Content-Type", "application/json"}},
		{"base64 body", `{base64Body: aGVsbG8=}`, 200, "hello", false, [2]string{}},
		{"gzip", `{body: squeeze me, gzip: true}`, 200, "squeeze me", true, [2]string{"Content-Encoding", "gzip"}},
		{"pre-compressed", `{gzippedBase64Body: ` + gzB64 + `}`, 200, "zipped", true, [2]string{"Content-Encoding", "gzip"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadBytes([]byte("mappings:\n  - request: {}\n    response: "+tt.yaml+"\n"), t.TempDir())
			require.NoError(t, err)
			require.Len(t, cfg.Mappings, 1)

			resp := cfg.Mappings[0].Response
			assert.Equal(t, tt.status, resp.Status())
			assert.Equal(t, tt.compressed, resp.IsCompressed())
			body, err := resp.PlainBody()
			require.NoError(t, err)
			assert.Equal(t, tt.plain, string(body))
			if tt.header[0] != "" {
				assert.Equal(t, tt.header[1], resp.Header(tt.header[0]))
			}
		})
	}
}

func TestResponses_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		target error
	}{
		{"two body sources", `{body: a, base64Body: YQ==}`, ErrInvalidConfig},
		{"bad base64", `{base64Body: "!!!"}`, ErrInvalidConfig},
		{"not gzip", `{gzippedBase64Body: aGVsbG8=}`, codec.ErrDecode},
		{"bad status", `{status: 42}`, stub.ErrInvalidMapping},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes([]byte("mappings:\n  - request: {}\n    response: "+tt.yaml+"\n"), t.TempDir())
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestLoad_Includes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "stubs.yaml"), `
include:
  - mappings/**/*.yaml
  - extra.yaml
mappings:
  - id: inline
    request: {urlPath: /inline}
    response: {status: 200}
`)
	writeFile(t, filepath.Join(dir, "mappings", "b.yaml"), `
- id: b1
  request: {urlPath: /b1}
  response: {status: 200}
- id: b2
  request: {urlPath: /b2}
  response: {status: 200}
`)
	writeFile(t, filepath.Join(dir, "mappings", "nested", "a.yaml"), `
id: nested
request: {urlPath: /nested}
response: {status: 200}
`)
	writeFile(t, filepath.Join(dir, "extra.yaml"), `
id: extra
request: {urlPath: /extra}
response: {status: 200}
`)

	cfg, err := Load(filepath.Join(dir, "stubs.yaml"))
	require.NoError(t, err)

	var ids []string
	for _, m := range cfg.Mappings {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"inline", "b1", "b2", "nested", "extra"}, ids)
	assert.Len(t, cfg.Sources, 4)
	assert.Equal(t, filepath.Join(dir, "stubs.yaml"), cfg.Sources[0])
}

func TestLoad_IncludeNoMatches(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "stubs.yaml"), "include: [missing/*.yaml]\n")

	cfg, err := Load(filepath.Join(dir, "stubs.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Mappings)
}

func TestLoad_IncludeErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "stubs.yaml"), "include: [bad.yaml]\n")
	writeFile(t, filepath.Join(dir, "bad.yaml"), "request: {url: /a, urlContains: a}\nresponse: {}\n")

	_, err := Load(filepath.Join(dir, "stubs.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "bad.yaml")

	_, err = Load(filepath.Join(dir, "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("STUBMATCH_TEST_PATH", "/from-env")

	tests := []struct {
		in   string
		want string
	}{
		{"${STUBMATCH_TEST_PATH}", "/from-env"},
		{"${STUBMATCH_TEST_PATH:-/default}", "/from-env"},
		{"${STUBMATCH_TEST_UNSET:-/default}", "/default"},
		{"${STUBMATCH_TEST_UNSET}", ""},
		{"plain $HOME", "plain $HOME"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandEnvVars(tt.in))
		})
	}
}

func TestLoadBytes_ExpandsEnv(t *testing.T) {
	t.Setenv("STUBMATCH_TEST_PATH", "/from-env")
	cfg, err := LoadBytes([]byte(`
mappings:
  - request: {urlPath: "${STUBMATCH_TEST_PATH}"}
    response: {status: 200}
`), t.TempDir())
	require.NoError(t, err)
	assert.True(t, matches(t, cfg.Mappings[0], request.MustNew("GET", "/from-env", nil, nil)))
}

func TestApply(t *testing.T) {
	cfg, err := LoadBytes([]byte(`
strictExtensionReferences: true
mappings:
  - id: low
    request: {urlContains: /a}
    response: {status: 200, body: low}
  - id: high
    priority: 10
    request: {urlContains: /a}
    response: {status: 200, body: high}
`), t.TempDir())
	require.NoError(t, err)

	e := engine.New(registry.New(cfg.RegistryOptions()...), cfg.EngineOptions()...)
	assert.True(t, e.StrictExtensionReferences())

	published, err := cfg.Apply(e)
	require.NoError(t, err)
	assert.Len(t, published, 2)

	out, err := e.Evaluate(request.MustNew("GET", "/a", nil, nil))
	require.NoError(t, err)
	require.True(t, out.Matched())
	assert.Equal(t, "high", out.Mapping.ID)
}

func TestApply_StrictUnknownExtension(t *testing.T) {
	cfg, err := LoadBytes([]byte(`
strictExtensionReferences: true
mappings:
  - id: ok
    request: {urlPath: /ok}
    response: {}
  - id: custom
    request: {customMatcher: {name: not-registered}}
    response: {}
`), t.TempDir())
	require.NoError(t, err)

	e := engine.New(nil, cfg.EngineOptions()...)
	published, err := cfg.Apply(e)
	assert.ErrorIs(t, err, matcher.ErrNotFound)
	assert.Len(t, published, 1)
}
