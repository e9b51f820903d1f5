// Package middleware feeds completed HTTP exchanges of a net/http handler
// into the logging pipeline.
package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"runtime/debug"
	"sync"

	"github.com/tkingovr/logbridge/api"
	"github.com/tkingovr/logbridge/internal/pipeline"
	"github.com/tkingovr/logbridge/internal/policy"
)

// DefaultMaxBody bounds the captured request and response bodies.
const DefaultMaxBody = 64 << 10

// Processor runs an exchange entry through the pipeline. *pipeline.Chain
// implements it.
type Processor interface {
	Process(ctx context.Context, e *pipeline.Entry) error
}

// RouteNamer returns the route name of a served request, empty when the
// request matched no named route.
type RouteNamer func(r *http.Request) string

// PatternRoute names a request by the http.ServeMux pattern that served it.
func PatternRoute(r *http.Request) string { return r.Pattern }

// KnownPatterns names a request by its ServeMux pattern only when routes
// knows that pattern.
func KnownPatterns(routes policy.RouteResolver) RouteNamer {
	return func(r *http.Request) string {
		if r.Pattern != "" && routes.Exists(r.Pattern) {
			return r.Pattern
		}
		return ""
	}
}

type errorKey struct{}

type errorSlot struct {
	mu  sync.Mutex
	err error
}

func (s *errorSlot) get() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// RecordError attaches err to the exchange served with ctx so it is rendered
// in the Exception section. The last recorded error wins. Outside the
// middleware it does nothing.
func RecordError(ctx context.Context, err error) {
	if slot, ok := ctx.Value(errorKey{}).(*errorSlot); ok {
		slot.mu.Lock()
		slot.err = err
		slot.mu.Unlock()
	}
}

// Option configures the middleware.
type Option func(*middleware)

// WithRouteNamer overrides how route names are derived.
func WithRouteNamer(fn RouteNamer) Option {
	return func(m *middleware) {
		if fn != nil {
			m.routeNamer = fn
		}
	}
}

// WithMaxBody sets the capture limit for request and response bodies.
func WithMaxBody(n int64) Option {
	return func(m *middleware) {
		if n > 0 {
			m.maxBody = n
		}
	}
}

type middleware struct {
	chain      Processor
	logger     *slog.Logger
	routeNamer RouteNamer
	maxBody    int64
}

// New returns a middleware that runs every completed exchange through chain.
// Pipeline errors are logged and never reach the client. A handler panic is
// recovered, answered with 500 when nothing was written yet, and logged as
// a 500 exchange carrying an *api.PanicError. http.ErrAbortHandler is
// re-raised after logging.
func New(chain Processor, logger *slog.Logger, opts ...Option) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m := &middleware{
		chain:      chain,
		logger:     logger,
		routeNamer: PatternRoute,
		maxBody:    DefaultMaxBody,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m.wrap
}

func (m *middleware) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params := m.readParams(r)

		slot := &errorSlot{}
		r = r.WithContext(context.WithValue(r.Context(), errorKey{}, slot))

		rw := newResponseWriter(w, m.maxBody)
		perr := m.serve(next, rw, r)

		ex := &api.Exchange{
			Route:           m.routeNamer(r),
			Method:          r.Method,
			Protocol:        r.Proto,
			URI:             requestURI(r),
			Status:          rw.StatusCode(),
			RequestHeaders:  r.Header.Clone(),
			ResponseHeaders: rw.Header().Clone(),
			PostParams:      params,
			ResponseBody:    rw.Body(),
			Error:           slot.get(),
		}
		if perr != nil {
			ex.Status = http.StatusInternalServerError
			ex.Error = perr
		}

		if err := m.chain.Process(r.Context(), pipeline.NewEntry(ex)); err != nil {
			m.logger.Error("exchange pipeline error",
				"error", err,
				"method", ex.Method,
				"uri", ex.URI,
			)
		}

		if perr != nil && perr.Value == http.ErrAbortHandler {
			panic(http.ErrAbortHandler)
		}
	})
}

// serve runs next and converts a panic into an *api.PanicError.
func (m *middleware) serve(next http.Handler, rw *responseWriter, r *http.Request) (perr *api.PanicError) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		perr = &api.PanicError{Value: v, Stack: debug.Stack()}
		if v == http.ErrAbortHandler {
			return
		}
		m.logger.Error("handler panic", "panic", v, "method", r.Method, "url", r.URL.String())
		if !rw.written {
			http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}()
	next.ServeHTTP(rw, r)
	return nil
}

// readParams decodes the form body of POST, PUT and PATCH requests and
// restores r.Body for the handler. Bodies larger than the capture limit are
// passed through undecoded.
func (m *middleware) readParams(r *http.Request) api.Fields {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return nil
	}

	mediaType, mediaParams, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil
	}
	if mediaType != "application/x-www-form-urlencoded" && mediaType != "multipart/form-data" {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, m.maxBody+1))
	if err != nil {
		m.logger.Warn("reading request body", "error", err)
	}
	r.Body = readCloser{io.MultiReader(bytes.NewReader(body), r.Body), r.Body}
	if err != nil || int64(len(body)) > m.maxBody {
		return nil
	}

	if mediaType == "multipart/form-data" {
		return m.parseMultipart(body, mediaParams["boundary"])
	}

	params, err := ParseForm(string(body))
	if err != nil {
		m.logger.Debug("decoding form body", "error", err)
		return nil
	}
	return params
}

func (m *middleware) parseMultipart(body []byte, boundary string) api.Fields {
	if boundary == "" {
		return nil
	}
	req := &http.Request{
		Method: http.MethodPost,
		Header: http.Header{"Content-Type": {"multipart/form-data; boundary=" + boundary}},
		Body:   io.NopCloser(bytes.NewReader(body)),
	}
	if err := req.ParseMultipartForm(m.maxBody); err != nil {
		m.logger.Debug("decoding multipart body", "error", err)
		return nil
	}
	defer req.MultipartForm.RemoveAll()
	return formFields(req.MultipartForm.Value)
}

func requestURI(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

// readCloser replays the captured prefix of a body and closes the original.
type readCloser struct {
	io.Reader
	io.Closer
}
