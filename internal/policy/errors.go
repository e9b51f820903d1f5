package policy

import (
	"errors"
	"fmt"
)

// ErrConfiguration is matched by every error raised while validating filter
// configuration. Such errors are fatal to startup.
var ErrConfiguration = errors.New("configuration error")

// ParseError reports an invalid filter definition.
type ParseError struct {
	Filter string
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("filter %q: %s", e.Filter, e.Msg)
}

func (e *ParseError) Unwrap() error { return ErrConfiguration }

func parseErrorf(filter, format string, args ...any) *ParseError {
	return &ParseError{Filter: filter, Msg: fmt.Sprintf(format, args...)}
}
