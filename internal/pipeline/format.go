package pipeline

import (
	"context"

	"github.com/tkingovr/logbridge/internal/formatter"
)

// FormatStage renders the log record of a selected exchange.
type FormatStage struct {
	formatter *formatter.Formatter
}

func NewFormatStage(f *formatter.Formatter) *FormatStage {
	return &FormatStage{formatter: f}
}

func (s *FormatStage) Name() string { return "format" }

func (s *FormatStage) Process(_ context.Context, e *Entry) error {
	if e.Halted || e.Result == nil {
		return nil
	}
	e.Record = s.formatter.Format(e.Exchange, e.Result.Level, e.Result.Filter, e.Result.Options)
	return nil
}
