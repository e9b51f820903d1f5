package config

import (
	"github.com/tkingovr/logbridge/internal/formatter"
)

const (
	DefaultEnvironment = "dev"
	DefaultSink        = SinkSlog
)

// Sink names accepted in settings.
const (
	SinkSlog  = "slog"
	SinkJSONL = "jsonl"
)

// DefaultLogDir returns the default log directory path.
func DefaultLogDir() string {
	return "~/.logbridge/logs"
}

// DefaultIgnore returns the field names masked when settings list none.
func DefaultIgnore() []string {
	return append([]string(nil), formatter.DefaultIgnore...)
}
