package pipeline

import (
	"context"

	"github.com/tkingovr/logbridge/internal/policy"
)

// EvaluateStage selects the level of the exchange with a policy engine.
type EvaluateStage struct {
	engine policy.Engine
}

func NewEvaluateStage(engine policy.Engine) *EvaluateStage {
	return &EvaluateStage{engine: engine}
}

func (s *EvaluateStage) Name() string { return "evaluate" }

func (s *EvaluateStage) Process(ctx context.Context, e *Entry) error {
	result, err := s.engine.Evaluate(ctx, e.Exchange)
	if err != nil {
		return err
	}
	e.Result = result

	// No matching filter: the exchange is not logged
	if !result.Matched {
		e.Halted = true
	}

	return nil
}
