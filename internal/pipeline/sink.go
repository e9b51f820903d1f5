package pipeline

import (
	"context"

	"github.com/tkingovr/logbridge/internal/sink"
)

// SinkStage hands every rendered record to a sink.
type SinkStage struct {
	sink sink.Sink
}

func NewSinkStage(s sink.Sink) *SinkStage {
	return &SinkStage{sink: s}
}

func (s *SinkStage) Name() string { return "sink" }

func (s *SinkStage) Process(ctx context.Context, e *Entry) error {
	if e.Record == nil {
		return nil
	}
	return s.sink.Emit(ctx, e.Record)
}
