package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Exchange is one completed request/response pair as seen by the logger.
type Exchange struct {
	// Route is the name of the matched route, empty when none matched.
	Route string

	Method string

	// Protocol is the request protocol, e.g. "HTTP/1.1".
	Protocol string

	// URI is the full request URI.
	URI string

	Status int

	RequestHeaders  http.Header
	ResponseHeaders http.Header

	// PostParams holds decoded form parameters of body-bearing requests.
	PostParams Fields

	ResponseBody []byte

	// Error is the failure reported while serving the request, nil when the
	// handler completed normally.
	Error error
}

// PanicError is a handler panic recovered while serving an exchange.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// ProtocolVersion returns the version part of Protocol ("1.1" for
// "HTTP/1.1"), defaulting to "1.0".
func (ex *Exchange) ProtocolVersion() string {
	if ex.Protocol == "" {
		return "1.0"
	}
	if _, v, ok := strings.Cut(ex.Protocol, "/"); ok {
		return v
	}
	return ex.Protocol
}

// Options are formatter toggles attached to a filter.
type Options map[string]any

// Recognized option keys.
const (
	OptionResponseBody   = "response_body"
	OptionPostParameters = "post_parameters"
)

// Bool returns the boolean value of key, false when absent or not a bool.
func (o Options) Bool(key string) bool {
	v, ok := o[key].(bool)
	return ok && v
}

// LogContext is the structured context of a log record. Its key set is
// closed: environment, route, method, status, user, key, uri.
type LogContext struct {
	Environment string  `json:"environment"`
	Route       *string `json:"route"`
	Method      string  `json:"method"`
	Status      int     `json:"status"`
	User        *string `json:"user"`
	Key         string  `json:"key"`
	URI         string  `json:"uri"`
}

// ContextKeys lists the context keys in their fixed order.
var ContextKeys = []string{"environment", "route", "method", "status", "user", "key", "uri"}

// Map returns the context as a map with exactly the seven context keys.
// Absent route and user map to nil.
func (c LogContext) Map() map[string]any {
	m := map[string]any{
		"environment": c.Environment,
		"route":       nil,
		"method":      c.Method,
		"status":      c.Status,
		"user":        nil,
		"key":         c.Key,
		"uri":         c.URI,
	}
	if c.Route != nil {
		m["route"] = *c.Route
	}
	if c.User != nil {
		m["user"] = *c.User
	}
	return m
}

// LogRecord is the rendered entry handed to a sink.
type LogRecord struct {
	Timestamp time.Time  `json:"timestamp"`
	Level     Level      `json:"level"`
	Filter    string     `json:"filter,omitempty"`
	Message   string     `json:"message"`
	Context   LogContext `json:"context"`
}
