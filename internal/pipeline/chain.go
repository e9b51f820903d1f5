package pipeline

import (
	"context"
	"fmt"
	"log/slog"
)

// Chain runs an exchange entry through its stages in order.
type Chain struct {
	stages []Stage
	logger *slog.Logger
}

// NewChain creates a new chain.
func NewChain(logger *slog.Logger, stages ...Stage) *Chain {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Chain{
		stages: stages,
		logger: logger,
	}
}

// Process runs every stage on e. Halting an entry does not stop the
// chain: later stages check Logged themselves, so metrics still count
// suppressed and throttled exchanges.
func (c *Chain) Process(ctx context.Context, e *Entry) error {
	for _, s := range c.stages {
		if err := s.Process(ctx, e); err != nil {
			return fmt.Errorf("stage %q: %w", s.Name(), err)
		}
		if c.logger.Enabled(ctx, slog.LevelDebug) {
			c.logger.LogAttrs(ctx, slog.LevelDebug, "stage executed", entryAttrs(s.Name(), e)...)
		}
	}
	return nil
}

func entryAttrs(stage string, e *Entry) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("stage", stage),
		slog.String("route", e.Exchange.Route),
		slog.String("method", e.Exchange.Method),
		slog.Int("status", e.Exchange.Status),
	}
	if e.Result != nil && e.Result.Matched {
		attrs = append(attrs,
			slog.String("filter", e.Result.Filter),
			slog.String("level", e.Result.Level.String()),
		)
	}
	return append(attrs,
		slog.Bool("logged", e.Logged()),
		slog.Bool("throttled", e.Throttled),
	)
}

// AddStage appends a stage to the chain.
func (c *Chain) AddStage(s Stage) {
	c.stages = append(c.stages, s)
}
