package matcher

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/stubmatch/pkg/request"
)

func mustBuiltin(t *testing.T) func(*Builtin, error) *Builtin {
	return func(b *Builtin, err error) *Builtin {
		t.Helper()
		require.NoError(t, err)
		return b
	}
}

func TestBuiltins(t *testing.T) {
	must := mustBuiltin(t)

	header := http.Header{}
	header.Set("Content-Type", "application/json; charset=utf-8")
	header.Set("Authorization", "Bearer abc123")
	header.Set("X-Mode", "STRICT")
	header.Add("Accept", "text/html")
	header.Add("Accept", "application/json")

	jsonReq := request.MustNew("POST", "/api/v1/orders/42?expand=items&tag=a&tag=b", header,
		[]byte(`{"id": 42, "status": "open", "items": [{"sku": "A1"}]}`))
	xmlReq := request.MustNew("POST", "/soap", nil,
		[]byte(`<Envelope><Body><GetUser id="9">alice</GetUser></Body></Envelope>`))

	tests := []struct {
		name    string
		matcher *Builtin
		req     *request.Request
		want    bool
	}{
		{"anything", Anything(), jsonReq, true},
		{"method", Method("post"), jsonReq, true},
		{"method mismatch", Method("GET"), jsonReq, false},
		{"method any", Method("ANY"), jsonReq, true},

		{"url equals", URLEquals("/api/v1/orders/42?expand=items&tag=a&tag=b"), jsonReq, true},
		{"url equals without query", URLEquals("/api/v1/orders/42"), jsonReq, false},
		{"url contains", URLContains("orders/42"), jsonReq, true},
		{"url contains query", URLContains("expand=items"), jsonReq, true},
		{"url contains miss", URLContains("users"), jsonReq, false},
		{"url regex", must(URLMatches(`^/api/v\d+/orders/\d+\?`)), jsonReq, true},
		{"path equals", URLPathEquals("/api/v1/orders/42"), jsonReq, true},
		{"path regex", must(URLPathMatches(`/orders/\d+$`)), jsonReq, true},
		{"path template", URLPathTemplate("/api/{version}/orders/{id}"), jsonReq, true},
		{"path template miss", URLPathTemplate("/api/{version}/users/{id}"), jsonReq, false},
		{"path glob", must(URLPathGlob("/api/**/orders/*")), jsonReq, true},
		{"path glob miss", must(URLPathGlob("/api/*/users/**")), jsonReq, false},

		{"header equals", HeaderEquals("authorization", "Bearer abc123"), jsonReq, true},
		{"header equals second value", HeaderEquals("Accept", "application/json"), jsonReq, true},
		{"header contains", HeaderContains("Content-Type", "json"), jsonReq, true},
		{"header regex", must(HeaderMatches("Authorization", `^Bearer \w+$`)), jsonReq, true},
		{"header wildcard", HeaderWildcard("Authorization", "Bearer *"), jsonReq, true},
		{"header wildcard miss", HeaderWildcard("Authorization", "Basic *"), jsonReq, false},
		{"header ignore case", HeaderEqualsIgnoreCase("X-Mode", "strict"), jsonReq, true},
		{"header absent", HeaderAbsent("X-Missing"), jsonReq, true},
		{"header absent but present", HeaderAbsent("X-Mode"), jsonReq, false},
		{"header present", HeaderPresent("x-mode"), jsonReq, true},
		{"header equals on missing header", HeaderEquals("X-Missing", ""), jsonReq, false},

		{"query equals", QueryParamEquals("expand", "items"), jsonReq, true},
		{"query equals multi", QueryParamEquals("tag", "b"), jsonReq, true},
		{"query regex", must(QueryParamMatches("tag", `^[ab]$`)), jsonReq, true},
		{"query absent", QueryParamAbsent("page"), jsonReq, true},
		{"query absent but present", QueryParamAbsent("expand"), jsonReq, false},

		{"body equals", BodyEquals(`{"id": 42, "status": "open", "items": [{"sku": "A1"}]}`), jsonReq, true},
		{"body contains", BodyContains(`"status": "open"`), jsonReq, true},
		{"body contains any", must(BodyContainsAny([]string{"closed", "A1"})), jsonReq, true},
		{"body contains any miss", must(BodyContainsAny([]string{"closed", "Z9"})), jsonReq, false},
		{"body regex", must(BodyMatches(`"id":\s*\d+`)), jsonReq, true},
		{"body json equal", must(BodyEqualsJSON(`{"status":"open","items":[{"sku":"A1"}],"id":42}`)), jsonReq, true},
		{"body json not equal", must(BodyEqualsJSON(`{"id": 43}`)), jsonReq, false},
		{"body jsonpath", must(BodyJSONPath(map[string]interface{}{"$.status": "open", "$.items[0].sku": "A1"})), jsonReq, true},
		{"body jsonpath miss", must(BodyJSONPath(map[string]interface{}{"$.status": "closed"})), jsonReq, false},
		{"body jsonpath on xml", must(BodyJSONPath(map[string]interface{}{"$.status": "open"})), xmlReq, false},
		{"body schema", must(BodyJSONSchema(`{"type":"object","required":["id"]}`)), jsonReq, true},
		{"body schema miss", must(BodyJSONSchema(`{"type":"object","required":["customer"]}`)), jsonReq, false},
		{"body xpath", must(BodyXPath("//GetUser[@id='9']", "")), xmlReq, true},
		{"body xpath text", must(BodyXPath("//GetUser", "alice")), xmlReq, true},
		{"body xpath text miss", must(BodyXPath("//GetUser", "bob")), xmlReq, false},
		{"body xpath on json", must(BodyXPath("//GetUser", "")), jsonReq, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.matcher.Evaluate(tt.req, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, tt.matcher.String())
		})
	}
}

func TestBuiltinConstructorErrors(t *testing.T) {
	tests := []struct {
		name string
		fn   func() error
	}{
		{"url regex", func() error { _, err := URLMatches("("); return err }},
		{"path regex", func() error { _, err := URLPathMatches("[a-"); return err }},
		{"path glob", func() error { _, err := URLPathGlob("/api/[a-"); return err }},
		{"header regex", func() error { _, err := HeaderMatches("X", "("); return err }},
		{"query regex", func() error { _, err := QueryParamMatches("q", "("); return err }},
		{"body regex", func() error { _, err := BodyMatches("("); return err }},
		{"contains any empty", func() error { _, err := BodyContainsAny(nil); return err }},
		{"json equal invalid", func() error { _, err := BodyEqualsJSON("{nope"); return err }},
		{"jsonpath empty", func() error { _, err := BodyJSONPath(nil); return err }},
		{"schema invalid", func() error { _, err := BodyJSONSchema(`{"type": 5}`); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.fn(), ErrInvalidMatcher)
		})
	}
}

func TestBuiltinKindAndDescribe(t *testing.T) {
	b := URLContains("correct")
	assert.Equal(t, "urlContains", b.Kind())
	assert.Equal(t, "url contains correct", Describe(b))
}
