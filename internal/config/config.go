package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tkingovr/logbridge/internal/policy"
)

// Config is the runtime configuration for logbridge.
type Config struct {
	File *policy.File
	Path string

	Environment    string
	KeyPrefix      string
	Ignore         []string
	Routes         []string
	RuleType       string
	Engine         string
	RegoPolicy     string
	IdentityHeader string
	Sink           string
	LogDir         string
	ScrubSecrets   bool
	Throttle       *policy.Throttle
}

// Load reads a policy YAML file and produces a runtime Config.
func Load(path string) (*Config, error) {
	pf, err := policy.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return fromPolicy(pf, path)
}

// LoadBytes parses YAML data and produces a runtime Config.
func LoadBytes(data []byte) (*Config, error) {
	pf, err := policy.LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return fromPolicy(pf, "")
}

func fromPolicy(pf *policy.File, path string) (*Config, error) {
	s := pf.Settings
	cfg := &Config{
		File:           pf,
		Path:           path,
		Environment:    s.Environment,
		KeyPrefix:      s.KeyPrefix,
		Ignore:         s.Ignore,
		Routes:         s.Routes,
		RuleType:       s.RuleType,
		Engine:         s.Engine,
		IdentityHeader: s.IdentityHeader,
		Sink:           s.Sink,
		ScrubSecrets:   s.ScrubSecrets,
		Throttle:       s.Throttle,
	}

	if cfg.Environment == "" {
		cfg.Environment = DefaultEnvironment
	}
	if cfg.Ignore == nil {
		cfg.Ignore = DefaultIgnore()
	}

	switch cfg.Sink {
	case "":
		cfg.Sink = DefaultSink
	case SinkSlog, SinkJSONL:
	default:
		return nil, fmt.Errorf("%w: unknown sink %q", policy.ErrConfiguration, cfg.Sink)
	}

	// Log directory
	cfg.LogDir = s.LogDir
	if cfg.LogDir == "" {
		cfg.LogDir = DefaultLogDir()
	}
	cfg.LogDir = expandHome(cfg.LogDir)

	// Rego policy paths are relative to the config file
	if s.RegoPolicy != "" {
		cfg.RegoPolicy = expandHome(s.RegoPolicy)
		if path != "" && !filepath.IsAbs(cfg.RegoPolicy) {
			cfg.RegoPolicy = filepath.Join(filepath.Dir(path), cfg.RegoPolicy)
		}
	}

	return cfg, nil
}

func expandHome(path string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// DefaultConfig returns a config with defaults for when no config file is
// given. It has no filters, so nothing is logged.
func DefaultConfig() *Config {
	return &Config{
		File: &policy.File{
			Version: 1,
			Settings: policy.Settings{
				Environment: DefaultEnvironment,
				Engine:      policy.EngineRules,
			},
		},
		Environment: DefaultEnvironment,
		Ignore:      DefaultIgnore(),
		Engine:      policy.EngineRules,
		Sink:        DefaultSink,
		LogDir:      expandHome(DefaultLogDir()),
	}
}
