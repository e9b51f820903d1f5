package cli

import (
	"context"
	"fmt"

	"github.com/tkingovr/logbridge/internal/config"
	"github.com/tkingovr/logbridge/internal/formatter"
	"github.com/tkingovr/logbridge/internal/policy"
	"github.com/tkingovr/logbridge/internal/sink"
)

func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func newParser(cfg *config.Config) (*policy.Parser, error) {
	p := policy.NewParser(policy.NewStaticRoutes(cfg.Routes...))
	if cfg.RuleType != "" {
		if err := p.SetRuleType(cfg.RuleType); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func newRuleSet(cfg *config.Config) (*policy.RuleSet, error) {
	parser, err := newParser(cfg)
	if err != nil {
		return nil, err
	}
	return policy.NewRuleSetFromFile(cfg.File, parser)
}

// newEngine builds the level selection engine. The rego engine replaces the
// filter list; filters are still validated so a broken file never starts.
func newEngine(ctx context.Context, cfg *config.Config) (policy.Engine, error) {
	rules, err := newRuleSet(cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing filters: %w", err)
	}
	if cfg.Engine != policy.EngineRego {
		return rules, nil
	}
	engine, err := policy.NewOPAEngine(ctx, cfg.RegoPolicy)
	if err != nil {
		return nil, fmt.Errorf("creating rego engine: %w", err)
	}
	return engine, nil
}

func newFormatter(cfg *config.Config) *formatter.Formatter {
	identity := formatter.BasicAuthIdentity()
	if cfg.IdentityHeader != "" {
		identity = formatter.HeaderIdentity(cfg.IdentityHeader)
	}
	return formatter.New(cfg.Environment,
		formatter.WithIgnore(cfg.Ignore...),
		formatter.WithKeyPrefix(cfg.KeyPrefix),
		formatter.WithIdentity(identity),
	)
}

func newSink(cfg *config.Config) (sink.Sink, error) {
	switch cfg.Sink {
	case config.SinkJSONL:
		s, err := sink.NewJSONLSink(cfg.LogDir)
		if err != nil {
			return nil, fmt.Errorf("creating jsonl sink: %w", err)
		}
		return s, nil
	default:
		return sink.NewSlogSink(logger), nil
	}
}
