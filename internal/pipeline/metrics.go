package pipeline

import (
	"context"

	"github.com/tkingovr/logbridge/internal/metrics"
)

// MetricsStage counts logged, throttled and suppressed exchanges.
type MetricsStage struct {
	recorder *metrics.Recorder
}

func NewMetricsStage(r *metrics.Recorder) *MetricsStage {
	return &MetricsStage{recorder: r}
}

func (s *MetricsStage) Name() string { return "metrics" }

func (s *MetricsStage) Process(_ context.Context, e *Entry) error {
	if e.Throttled {
		s.recorder.Throttled(e.Result.Filter)
		return nil
	}
	if !e.Logged() {
		s.recorder.Suppressed()
		return nil
	}
	s.recorder.Logged(e.Result.Level, e.Result.Filter)
	return nil
}
