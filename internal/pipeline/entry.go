package pipeline

import (
	"time"

	"github.com/tkingovr/logbridge/api"
	"github.com/tkingovr/logbridge/internal/policy"
)

// Entry carries one exchange through the chain.
type Entry struct {
	// Exchange is the completed request/response pair.
	Exchange *api.Exchange

	// Result is set by the evaluate stage.
	Result *policy.EvalResult

	// Record is set by the format stage.
	Record *api.LogRecord

	// StartTime records when the entry entered the pipeline.
	StartTime time.Time

	// Halted indicates the exchange is not logged.
	Halted bool

	// Throttled is set when a matched exchange was halted by a throttle limit.
	Throttled bool
}

// NewEntry creates an Entry for a completed exchange.
func NewEntry(ex *api.Exchange) *Entry {
	return &Entry{
		Exchange:  ex,
		StartTime: time.Now(),
	}
}

// Logged reports whether the exchange was selected for logging.
func (e *Entry) Logged() bool {
	return e.Result != nil && e.Result.Matched && !e.Halted
}
