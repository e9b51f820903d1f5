package formatter

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/tkingovr/logbridge/api"
)

const testEnvironment = "test"

func testExchange() *api.Exchange {
	reqHeaders := http.Header{}
	reqHeaders.Set("Accept", "text/html")
	reqHeaders.Set("Php-Auth-Pw", "secret")
	reqHeaders.Set("Host", "localhost")

	respHeaders := http.Header{}
	respHeaders.Set("Cache-Control", "no-cache, private")
	respHeaders.Set("Etag", `"abc123"`)
	respHeaders.Set("Content-Type", "text/html; charset=UTF-8")

	return &api.Exchange{
		Method:          http.MethodGet,
		Protocol:        "HTTP/1.0",
		URI:             "http://localhost/",
		Status:          http.StatusOK,
		RequestHeaders:  reqHeaders,
		ResponseHeaders: respHeaders,
		ResponseBody:    []byte("Body content response"),
	}
}

func testPostExchange() *api.Exchange {
	ex := testExchange()
	ex.Method = http.MethodPost
	ex.PostParams = api.Fields{
		{Key: "postVar1", Value: "value un"},
		{Key: "postVar2", Value: "value 2"},
		{Key: "programs", Value: api.Fields{
			{Key: "id", Value: 42},
			{Key: "title", Value: "Non mais Allo quoi"},
		}},
	}
	return ex
}

func newTestFormatter(opts ...Option) *Formatter {
	return New(testEnvironment, append([]Option{WithIgnore("php-auth-pw")}, opts...)...)
}

func TestRenderContent_Sections(t *testing.T) {
	content := newTestFormatter().RenderContent(testExchange(), api.Options{})

	for _, want := range []string{"HTTP 1.0 200 OK", "Cache-Control", "Etag", "Request\n", "Response\n", "Uri : http://localhost/"} {
		if !strings.Contains(content, want) {
			t.Errorf("content should contain %q:\n%s", want, content)
		}
	}
	if strings.Contains(content, "Response body") {
		t.Error("response body section must be disabled by default")
	}
	if strings.Contains(content, "Post parameters") {
		t.Error("post parameters section must be disabled by default")
	}
}

func TestRenderContent_SectionOrder(t *testing.T) {
	content := newTestFormatter().RenderContent(testPostExchange(), api.Options{
		api.OptionResponseBody:   true,
		api.OptionPostParameters: true,
	})

	order := []string{"HTTP 1.0 200", "\nRequest\n", "\nResponse\n", "\nPost parameters\n", "\nResponse body\n"}
	last := -1
	for _, marker := range order {
		idx := strings.Index(content, marker)
		if idx < 0 {
			t.Fatalf("missing %q in:\n%s", marker, content)
		}
		if idx <= last {
			t.Errorf("%q out of order in:\n%s", marker, content)
		}
		last = idx
	}
}

func TestRenderContent_NonStandardStatus(t *testing.T) {
	ex := testExchange()
	ex.Status = 599
	content := newTestFormatter().RenderContent(ex, nil)

	if !strings.HasPrefix(content, "HTTP 1.0 599\n") {
		t.Errorf("expected bare status line, got:\n%s", content)
	}
}

func TestRenderContent_Exception(t *testing.T) {
	ex := testExchange()
	ex.Status = 500
	ex.Error = fmt.Errorf("loading user: %w", errors.New("connection refused"))
	content := newTestFormatter().RenderContent(ex, api.Options{api.OptionResponseBody: true})

	if !strings.Contains(content, "\nException\n"+sectionRule+"\nloading user: connection refused\n") {
		t.Errorf("expected exception section:\n%s", content)
	}
	if strings.Index(content, "\nException\n") < strings.Index(content, "\nResponse body\n") {
		t.Errorf("exception must come last:\n%s", content)
	}
}

func TestRenderContent_PanicStack(t *testing.T) {
	ex := testExchange()
	ex.Error = &api.PanicError{Value: "boom", Stack: []byte("goroutine 1 [running]:\nmain.handler()")}
	content := newTestFormatter().RenderContent(ex, nil)

	if !strings.HasSuffix(content, "Exception\n"+sectionRule+"\npanic: boom\ngoroutine 1 [running]:\nmain.handler()\n") {
		t.Errorf("expected panic value and stack:\n%s", content)
	}
}

func TestRenderContent_NoExceptionByDefault(t *testing.T) {
	content := newTestFormatter().RenderContent(testExchange(), nil)
	if strings.Contains(content, "Exception") {
		t.Errorf("exception section must be absent:\n%s", content)
	}
}

func TestRenderContent_MasksHeaders(t *testing.T) {
	content := newTestFormatter().RenderContent(testExchange(), nil)

	if strings.Contains(content, "secret") {
		t.Errorf("masked header value leaked:\n%s", content)
	}
	if !strings.Contains(content, "Php-Auth-Pw : "+Redacted) {
		t.Errorf("expected redacted header:\n%s", content)
	}
	if !strings.Contains(content, "Accept : text/html") {
		t.Errorf("expected plain header:\n%s", content)
	}
}

func TestRenderContent_CacheLinesOnlyWhenPresent(t *testing.T) {
	ex := testExchange()
	ex.ResponseHeaders = http.Header{}
	content := newTestFormatter().RenderContent(ex, nil)

	if strings.Contains(content, "Cache-Control") || strings.Contains(content, "Etag") {
		t.Errorf("cache lines should be absent:\n%s", content)
	}
}

func TestRenderContent_ResponseBody(t *testing.T) {
	f := newTestFormatter()

	content := f.RenderContent(testExchange(), api.Options{api.OptionResponseBody: false})
	if strings.Contains(content, "Response body") {
		t.Error("disabled response body must not be rendered")
	}

	content = f.RenderContent(testExchange(), api.Options{api.OptionResponseBody: true})
	if !strings.Contains(content, "Response body\n") {
		t.Errorf("expected response body section:\n%s", content)
	}
	if !strings.Contains(content, "Body content response") {
		t.Errorf("expected body text:\n%s", content)
	}
}

func TestRenderContent_PostParameters(t *testing.T) {
	content := newTestFormatter().RenderContent(testPostExchange(), api.Options{api.OptionPostParameters: true})

	for _, want := range []string{"Post parameters", "postVar2 : value 2", "programs :\n", "└ id : 42", "└ title : Non mais Allo quoi"} {
		if !strings.Contains(content, want) {
			t.Errorf("content should contain %q:\n%s", want, content)
		}
	}

	// the nested line follows its parent
	parent := strings.Index(content, "programs :")
	child := strings.Index(content, "  └ title : Non mais Allo quoi")
	if parent < 0 || child < parent {
		t.Errorf("nested line should follow parent:\n%s", content)
	}
}

func TestRenderContent_PostParametersOnlyForBodyMethods(t *testing.T) {
	ex := testPostExchange()
	ex.Method = http.MethodGet
	content := newTestFormatter().RenderContent(ex, api.Options{api.OptionPostParameters: true})

	if strings.Contains(content, "Post parameters") {
		t.Errorf("GET must not render post parameters:\n%s", content)
	}
}

func TestRenderContent_PostParametersMasked(t *testing.T) {
	ex := testPostExchange()
	ex.PostParams = append(ex.PostParams,
		api.Field{Key: "password", Value: "hunter2"},
		api.Field{Key: "user", Value: api.Fields{{Key: "Password", Value: "hunter3"}}},
	)
	content := New(testEnvironment, WithIgnore("password")).RenderContent(ex, api.Options{api.OptionPostParameters: true})

	if strings.Contains(content, "hunter2") || strings.Contains(content, "hunter3") {
		t.Errorf("password leaked:\n%s", content)
	}
	if !strings.Contains(content, "password : "+Redacted) {
		t.Errorf("expected redacted password:\n%s", content)
	}
}

func TestRenderContent_MasksFieldsInLists(t *testing.T) {
	ex := testPostExchange()
	ex.PostParams = api.Fields{
		{Key: "users", Value: []any{api.Fields{{Key: "password", Value: "hunter2"}}}},
	}
	content := New(testEnvironment, WithIgnore("password")).RenderContent(ex, api.Options{api.OptionPostParameters: true})

	if strings.Contains(content, "hunter2") {
		t.Errorf("masked field leaked:\n%s", content)
	}
	if !strings.Contains(content, "users :\n  └ 0 : {password: "+Redacted+"}\n") {
		t.Errorf("expected redacted list entry:\n%s", content)
	}
}

func TestRenderContent_DeepNestingInline(t *testing.T) {
	ex := testPostExchange()
	ex.PostParams = api.Fields{
		{Key: "order", Value: api.Fields{
			{Key: "lines", Value: []any{"a", "b"}},
			{Key: "customer", Value: api.Fields{{Key: "name", Value: "x"}}},
		}},
		{Key: "tags", Value: []any{"red", "blue"}},
	}
	content := newTestFormatter().RenderContent(ex, api.Options{api.OptionPostParameters: true})

	for _, want := range []string{"order :\n", "  └ lines : [a, b]\n", "  └ customer : {name: x}\n", "tags :\n", "  └ 0 : red\n", "  └ 1 : blue\n"} {
		if !strings.Contains(content, want) {
			t.Errorf("content should contain %q:\n%s", want, content)
		}
	}
}

func TestRenderContext_Keys(t *testing.T) {
	ctx := newTestFormatter().RenderContext(testExchange())
	m := ctx.Map()

	if len(m) != 7 {
		t.Fatalf("expected 7 keys, got %d", len(m))
	}
	for _, k := range []string{"environment", "route", "method", "status", "user", "key", "uri"} {
		if _, ok := m[k]; !ok {
			t.Errorf("missing key %s", k)
		}
	}
	if m["environment"] != testEnvironment {
		t.Errorf("expected environment test, got %v", m["environment"])
	}
	if m["method"] != "GET" || m["status"] != 200 || m["uri"] != "http://localhost/" {
		t.Errorf("unexpected context %v", m)
	}
}

func TestRenderContext_NoRouteNoIdentity(t *testing.T) {
	ctx := newTestFormatter().RenderContext(testExchange())

	if ctx.Route != nil {
		t.Errorf("expected nil route, got %q", *ctx.Route)
	}
	if ctx.User != nil {
		t.Errorf("expected nil user, got %q", *ctx.User)
	}
	if ctx.Key != "test..GET.200" {
		t.Errorf("expected key test..GET.200, got %s", ctx.Key)
	}
}

func TestRenderContext_RouteAndIdentity(t *testing.T) {
	ex := testExchange()
	ex.Route = "homepage"
	f := newTestFormatter(WithIdentity(IdentityFunc(func(*api.Exchange) (string, bool) {
		return "test", true
	})))

	ctx := f.RenderContext(ex)
	if ctx.Route == nil || *ctx.Route != "homepage" {
		t.Errorf("expected route homepage, got %v", ctx.Route)
	}
	if ctx.User == nil || *ctx.User != "test" {
		t.Errorf("expected user test, got %v", ctx.User)
	}
	if ctx.Key != "test.homepage.GET.200" {
		t.Errorf("unexpected key %s", ctx.Key)
	}
}

func TestRenderContext_KeyPrefix(t *testing.T) {
	ctx := newTestFormatter(WithKeyPrefix("shop")).RenderContext(testExchange())
	if ctx.Key != "shop.test..GET.200" {
		t.Errorf("unexpected key %s", ctx.Key)
	}
}

func TestIdentity_Header(t *testing.T) {
	ex := testExchange()
	ex.RequestHeaders.Set("X-Remote-User", "alice")

	name, ok := HeaderIdentity("X-Remote-User").DisplayName(ex)
	if !ok || name != "alice" {
		t.Errorf("expected alice, got %q", name)
	}
	if _, ok := HeaderIdentity("X-Missing").DisplayName(ex); ok {
		t.Error("expected no identity for missing header")
	}
}

func TestIdentity_BasicAuth(t *testing.T) {
	ex := testExchange()
	ex.RequestHeaders.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("bob:pw")))

	name, ok := BasicAuthIdentity().DisplayName(ex)
	if !ok || name != "bob" {
		t.Errorf("expected bob, got %q", name)
	}

	ex.RequestHeaders.Del("Authorization")
	if _, ok := BasicAuthIdentity().DisplayName(ex); ok {
		t.Error("expected no identity without credentials")
	}
}

func TestFormat(t *testing.T) {
	record := newTestFormatter().Format(testExchange(), api.LevelWarning, "slow", api.Options{api.OptionResponseBody: true})

	if record.Level != api.LevelWarning || record.Filter != "slow" {
		t.Errorf("unexpected record %+v", record)
	}
	if !strings.Contains(record.Message, "Body content response") {
		t.Error("expected body in message")
	}
	if record.Context.Key != "test..GET.200" {
		t.Errorf("unexpected key %s", record.Context.Key)
	}
	if record.Timestamp.IsZero() {
		t.Error("expected timestamp")
	}
}

func TestFormatter_DefaultIgnore(t *testing.T) {
	ex := testExchange()
	ex.RequestHeaders.Set("Authorization", "Bearer token-value")
	content := New(testEnvironment).RenderContent(ex, nil)

	if strings.Contains(content, "token-value") {
		t.Errorf("authorization must be masked by default:\n%s", content)
	}
}

func TestFormatter_Concurrent(t *testing.T) {
	f := newTestFormatter()
	ex := testPostExchange()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.Format(ex, api.LevelInfo, "all", api.Options{api.OptionPostParameters: true})
		}()
	}
	wg.Wait()
}
