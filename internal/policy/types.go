package policy

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tkingovr/logbridge/api"
)

// File represents the top-level YAML policy configuration.
type File struct {
	Version  int      `yaml:"version" json:"version"`
	Settings Settings `yaml:"settings" json:"settings"`
	Filters  Filters  `yaml:"filters" json:"filters"`
}

// Settings contains process-wide settings.
type Settings struct {
	Environment    string   `yaml:"environment" json:"environment"`
	KeyPrefix      string   `yaml:"key_prefix,omitempty" json:"key_prefix,omitempty"`
	Ignore         []string `yaml:"ignore,omitempty" json:"ignore,omitempty"`
	Routes         []string `yaml:"routes,omitempty" json:"routes,omitempty"`
	RuleType       string   `yaml:"rule_type,omitempty" json:"rule_type,omitempty"`
	Engine         string   `yaml:"engine,omitempty" json:"engine,omitempty"`
	RegoPolicy     string   `yaml:"rego_policy,omitempty" json:"rego_policy,omitempty"`
	IdentityHeader string   `yaml:"identity_header,omitempty" json:"identity_header,omitempty"`
	Sink           string   `yaml:"sink,omitempty" json:"sink,omitempty"`
	LogDir         string   `yaml:"log_dir,omitempty" json:"log_dir,omitempty"`

	// ScrubSecrets redacts token-like values from rendered messages.
	ScrubSecrets bool `yaml:"scrub_secrets,omitempty" json:"scrub_secrets,omitempty"`

	Throttle *Throttle `yaml:"throttle,omitempty" json:"throttle,omitempty"`
}

// Throttle bounds how many records are logged per time window.
type Throttle struct {
	// Global applies across all filters.
	Global *Limit `yaml:"global,omitempty" json:"global,omitempty"`

	// PerFilter maps filter names to their own limits.
	PerFilter map[string]*Limit `yaml:"per_filter,omitempty" json:"per_filter,omitempty"`
}

// Limit allows at most Max records per Window.
type Limit struct {
	Max    int           `yaml:"max" json:"max"`
	Window time.Duration `yaml:"window" json:"window"`
}

// Engine names accepted in settings.
const (
	EngineRules = "rules"
	EngineRego  = "rego"
)

// RawFilter is an unvalidated filter definition as read from configuration.
type RawFilter struct {
	Name   string         `json:"name"`
	Config map[string]any `json:"config"`
}

// Filters keeps filter definitions in declaration order.
type Filters []RawFilter

// UnmarshalYAML decodes a mapping of filter name to definition, keeping
// the mapping order.
func (fs *Filters) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: filters must be a mapping of name to definition", node.Line)
	}

	seen := make(map[string]bool, len(node.Content)/2)
	out := make(Filters, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		name := keyNode.Value
		if seen[name] {
			return fmt.Errorf("line %d: duplicate filter %q", keyNode.Line, name)
		}
		seen[name] = true

		var cfg map[string]any
		if err := valNode.Decode(&cfg); err != nil {
			return fmt.Errorf("filter %q: %w", name, err)
		}
		if cfg == nil {
			cfg = map[string]any{}
		}
		out = append(out, RawFilter{Name: name, Config: cfg})
	}

	*fs = out
	return nil
}

// EvalResult is the outcome of evaluating an exchange.
type EvalResult struct {
	// Matched is false when no filter applies; the exchange is not logged.
	Matched bool        `json:"matched"`
	Level   api.Level   `json:"level"`
	Filter  string      `json:"filter,omitempty"`
	Options api.Options `json:"options,omitempty"`
}
