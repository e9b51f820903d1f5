package sink

import (
	"context"
	"log/slog"

	"github.com/tkingovr/logbridge/api"
)

// SlogSink writes records to a slog logger at the record's level. The
// context is attached as a "context" group holding its seven keys.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink writing to logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Emit(ctx context.Context, record *api.LogRecord) error {
	c := record.Context
	s.logger.LogAttrs(ctx, record.Level.SlogLevel(), record.Message,
		slog.String("filter", record.Filter),
		slog.Group("context",
			slog.String("environment", c.Environment),
			optionalAttr("route", c.Route),
			slog.String("method", c.Method),
			slog.Int("status", c.Status),
			optionalAttr("user", c.User),
			slog.String("key", c.Key),
			slog.String("uri", c.URI),
		),
	)
	return nil
}

func (s *SlogSink) Close() error { return nil }

func optionalAttr(key string, v *string) slog.Attr {
	if v == nil {
		return slog.Any(key, nil)
	}
	return slog.String(key, *v)
}
