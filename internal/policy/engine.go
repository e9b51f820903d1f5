package policy

import (
	"context"

	"github.com/tkingovr/logbridge/api"
)

// Engine is the interface for level selection backends.
type Engine interface {
	// Evaluate selects the level for a completed exchange. A result with
	// Matched false means the exchange is not logged.
	Evaluate(ctx context.Context, ex *api.Exchange) (*EvalResult, error)
}
