package formatter

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tkingovr/logbridge/api"
)

const sectionRule = "------------------------"

// Formatter renders exchanges into log records: a text block for humans
// and a closed key/value context for machines. It holds no mutable state
// and is safe for concurrent use.
type Formatter struct {
	environment string
	ignore      IgnoreList
	keyPrefix   string
	identity    IdentityProvider
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithIgnore sets the field names masked in headers and POST parameters,
// replacing the defaults.
func WithIgnore(names ...string) Option {
	return func(f *Formatter) {
		f.ignore = NewIgnoreList(names...)
	}
}

// WithKeyPrefix prepends prefix to the derived log key.
func WithKeyPrefix(prefix string) Option {
	return func(f *Formatter) {
		f.keyPrefix = prefix
	}
}

// WithIdentity sets the provider of the user display name.
func WithIdentity(p IdentityProvider) Option {
	return func(f *Formatter) {
		if p != nil {
			f.identity = p
		}
	}
}

// New creates a formatter for the given environment name.
func New(environment string, opts ...Option) *Formatter {
	f := &Formatter{
		environment: environment,
		ignore:      NewIgnoreList(DefaultIgnore...),
		identity:    noIdentity{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Environment returns the configured environment name.
func (f *Formatter) Environment() string { return f.environment }

// Format builds the log record of an exchange at the given level.
func (f *Formatter) Format(ex *api.Exchange, level api.Level, filter string, opts api.Options) *api.LogRecord {
	return &api.LogRecord{
		Timestamp: time.Now(),
		Level:     level,
		Filter:    filter,
		Message:   f.RenderContent(ex, opts),
		Context:   f.RenderContext(ex),
	}
}

// RenderContent renders the text block of an exchange. Sections appear in
// a fixed order: summary, Request, Response, Post parameters, Response body,
// Exception. Post parameters and Response body only when enabled by opts,
// Exception only when the exchange carries an error.
func (f *Formatter) RenderContent(ex *api.Exchange, opts api.Options) string {
	var b strings.Builder

	fmt.Fprintf(&b, "HTTP %s %d", ex.ProtocolVersion(), ex.Status)
	if text := http.StatusText(ex.Status); text != "" {
		b.WriteString(" " + text)
	}
	b.WriteByte('\n')

	writeSection(&b, "Request")
	writeFields(&b, Mask(api.HeaderFields(ex.RequestHeaders), f.ignore))
	fmt.Fprintf(&b, "Uri : %s\n", ex.URI)

	for _, name := range []string{"Cache-Control", "Etag"} {
		if v := ex.ResponseHeaders.Get(name); v != "" {
			fmt.Fprintf(&b, "%s : %s\n", name, v)
		}
	}

	writeSection(&b, "Response")
	writeFields(&b, Mask(api.HeaderFields(ex.ResponseHeaders), f.ignore))

	if opts.Bool(api.OptionPostParameters) && hasBody(ex.Method) {
		writeSection(&b, "Post parameters")
		writeParams(&b, Mask(ex.PostParams, f.ignore))
	}

	if opts.Bool(api.OptionResponseBody) {
		writeSection(&b, "Response body")
		b.Write(ex.ResponseBody)
		b.WriteByte('\n')
	}

	if ex.Error != nil {
		writeException(&b, ex.Error)
	}

	return b.String()
}

// RenderContext returns the structured context of an exchange.
func (f *Formatter) RenderContext(ex *api.Exchange) api.LogContext {
	ctx := api.LogContext{
		Environment: f.environment,
		Method:      ex.Method,
		Status:      ex.Status,
		Key:         f.key(ex),
		URI:         ex.URI,
	}
	if ex.Route != "" {
		route := ex.Route
		ctx.Route = &route
	}
	if name, ok := f.identity.DisplayName(ex); ok {
		ctx.User = &name
	}
	return ctx
}

// key derives <prefix.><environment>.<route>.<method>.<status>; an absent
// route leaves its segment empty.
func (f *Formatter) key(ex *api.Exchange) string {
	key := fmt.Sprintf("%s.%s.%s.%d", f.environment, ex.Route, ex.Method, ex.Status)
	if f.keyPrefix != "" {
		key = f.keyPrefix + "." + key
	}
	return key
}

func hasBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

func writeException(b *strings.Builder, err error) {
	writeSection(b, "Exception")
	b.WriteString(err.Error())
	b.WriteByte('\n')

	var p *api.PanicError
	if errors.As(err, &p) && len(p.Stack) > 0 {
		b.Write(p.Stack)
		if p.Stack[len(p.Stack)-1] != '\n' {
			b.WriteByte('\n')
		}
	}
}

func writeSection(b *strings.Builder, title string) {
	b.WriteByte('\n')
	b.WriteString(title)
	b.WriteByte('\n')
	b.WriteString(sectionRule)
	b.WriteByte('\n')
}

func writeFields(b *strings.Builder, fields api.Fields) {
	for _, f := range fields {
		fmt.Fprintf(b, "%s : %s\n", f.Key, api.FormatValue(f.Value))
	}
}

// writeParams prints one tree level below each top-level parameter.
// Anything nested deeper is printed inline.
func writeParams(b *strings.Builder, fields api.Fields) {
	for _, f := range fields {
		switch v := f.Value.(type) {
		case api.Fields:
			fmt.Fprintf(b, "%s :\n", f.Key)
			for _, child := range v {
				fmt.Fprintf(b, "  └ %s : %s\n", child.Key, api.FormatValue(child.Value))
			}
		case []any:
			fmt.Fprintf(b, "%s :\n", f.Key)
			for i, item := range v {
				fmt.Fprintf(b, "  └ %d : %s\n", i, api.FormatValue(item))
			}
		case []string:
			fmt.Fprintf(b, "%s :\n", f.Key)
			for i, item := range v {
				fmt.Fprintf(b, "  └ %d : %s\n", i, item)
			}
		default:
			fmt.Fprintf(b, "%s : %s\n", f.Key, api.FormatValue(v))
		}
	}
}
