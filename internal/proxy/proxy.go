// Package proxy runs a logging HTTP reverse proxy: every exchange with the
// upstream passes through the logbridge middleware.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/tkingovr/logbridge/internal/middleware"
)

// Proxy is an HTTP reverse proxy whose exchanges are logged.
type Proxy struct {
	target       *url.URL
	reverseProxy *httputil.ReverseProxy
	handler      http.Handler
	logger       *slog.Logger
}

// Option configures a Proxy.
type Option func(*options)

type options struct {
	routes      []string
	metricsPath string
	metrics     http.Handler
}

// WithRoutes registers ServeMux patterns ("GET /users/{id}") in front of the
// upstream so that requests are named after the pattern they match.
func WithRoutes(patterns ...string) Option {
	return func(o *options) {
		o.routes = append(o.routes, patterns...)
	}
}

// WithMetrics serves h at path. Requests to it are not proxied or logged.
func WithMetrics(path string, h http.Handler) Option {
	return func(o *options) {
		o.metricsPath = path
		o.metrics = h
	}
}

// NewProxy creates a proxy forwarding to target. wrap is applied around the
// route mux; it is normally the logbridge middleware.
func NewProxy(target string, wrap func(http.Handler) http.Handler, logger *slog.Logger, opts ...Option) (*Proxy, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid target URL %q: scheme and host are required", target)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	p := &Proxy{
		target: u,
		logger: logger,
	}

	rp := httputil.NewSingleHostReverseProxy(u)
	rp.ErrorHandler = p.errorHandler
	p.reverseProxy = rp

	routes, err := routeMux(rp, o.routes)
	if err != nil {
		return nil, err
	}

	var h http.Handler = routes
	if wrap != nil {
		h = wrap(routes)
	}

	if o.metrics != nil {
		top := http.NewServeMux()
		top.Handle("/", h)
		if err := register(top, "GET "+o.metricsPath, o.metrics); err != nil {
			return nil, err
		}
		h = top
	}

	p.handler = h
	return p, nil
}

// routeMux forwards every request upstream. Each pattern is registered so
// the mux records it on the request.
func routeMux(upstream http.Handler, patterns []string) (*http.ServeMux, error) {
	mux := http.NewServeMux()
	catchAll := false
	for _, pattern := range patterns {
		if pattern == "/" {
			catchAll = true
		}
		if err := register(mux, pattern, upstream); err != nil {
			return nil, err
		}
	}
	if !catchAll {
		mux.Handle("/", upstream)
	}
	return mux, nil
}

// register converts ServeMux registration panics (invalid or conflicting
// patterns) into errors.
func register(mux *http.ServeMux, pattern string, h http.Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("route %q: %v", pattern, r)
		}
	}()
	mux.Handle(pattern, h)
	return nil
}

func (p *Proxy) errorHandler(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.Error("proxy error", "error", err, "url", r.URL.String())
	middleware.RecordError(r.Context(), fmt.Errorf("upstream %s: %w", p.target.Host, err))
	http.Error(w, "proxy error: "+err.Error(), http.StatusBadGateway)
}

// ServeHTTP handles incoming HTTP requests.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.handler.ServeHTTP(w, r)
}

// ListenAndServe starts the proxy server and stops it when ctx is done.
func (p *Proxy) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: p,
	}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	p.logger.Info("starting logging proxy",
		"listen", addr,
		"target", p.target.String(),
	)

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
