package sink

import (
	"context"

	"github.com/tkingovr/logbridge/api"
)

// Sink receives rendered log records.
type Sink interface {
	// Emit delivers one record.
	Emit(ctx context.Context, record *api.LogRecord) error

	// Close shuts down the sink and flushes any buffers.
	Close() error
}
