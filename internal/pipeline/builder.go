package pipeline

import (
	"log/slog"

	"github.com/tkingovr/logbridge/internal/formatter"
	"github.com/tkingovr/logbridge/internal/metrics"
	"github.com/tkingovr/logbridge/internal/policy"
	"github.com/tkingovr/logbridge/internal/sink"
)

// ChainConfig holds the configuration for building the exchange chain.
type ChainConfig struct {
	Engine       policy.Engine
	Formatter    *formatter.Formatter
	Sink         sink.Sink
	Metrics      *metrics.Recorder
	Throttle     *policy.Throttle
	ScrubSecrets bool
	Logger       *slog.Logger
}

// BuildChain constructs the exchange processing chain:
// evaluate, throttle, format, scrub, metrics, sink.
func BuildChain(cfg ChainConfig) *Chain {
	stages := []Stage{NewEvaluateStage(cfg.Engine)}

	if cfg.Throttle != nil {
		stages = append(stages, NewThrottleStage(*cfg.Throttle))
	}

	stages = append(stages, NewFormatStage(cfg.Formatter))

	if cfg.ScrubSecrets {
		stages = append(stages, NewScrubStage())
	}

	if cfg.Metrics != nil {
		stages = append(stages, NewMetricsStage(cfg.Metrics))
	}

	// Sink is always last
	if cfg.Sink != nil {
		stages = append(stages, NewSinkStage(cfg.Sink))
	}

	return NewChain(cfg.Logger, stages...)
}
