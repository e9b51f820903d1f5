package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads and validates a YAML policy file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy file: %w", err)
	}
	return LoadBytes(data)
}

// LoadBytes parses and validates YAML policy data. Filter definitions are
// kept raw; Parser validates them.
func LoadBytes(data []byte) (*File, error) {
	var pf File
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("%w: parsing policy YAML: %v", ErrConfiguration, err)
	}
	if err := validate(&pf); err != nil {
		return nil, err
	}
	return &pf, nil
}

func validate(pf *File) error {
	if pf.Version != 1 {
		return fmt.Errorf("%w: unsupported policy version: %d (expected 1)", ErrConfiguration, pf.Version)
	}

	switch pf.Settings.Engine {
	case "":
		pf.Settings.Engine = EngineRules
	case EngineRules:
	case EngineRego:
		if pf.Settings.RegoPolicy == "" {
			return fmt.Errorf("%w: engine %q requires rego_policy", ErrConfiguration, EngineRego)
		}
	default:
		return fmt.Errorf("%w: unknown engine %q", ErrConfiguration, pf.Settings.Engine)
	}

	if t := pf.Settings.Throttle; t != nil {
		if err := validateLimit("global", t.Global); err != nil {
			return err
		}
		for name, l := range t.PerFilter {
			if err := validateLimit(name, l); err != nil {
				return err
			}
		}
	}

	for i, f := range pf.Filters {
		if f.Name == "" {
			return fmt.Errorf("%w: filter %d: name is required", ErrConfiguration, i)
		}
	}

	return nil
}

func validateLimit(name string, l *Limit) error {
	if l == nil {
		return nil
	}
	if l.Max <= 0 || l.Window <= 0 {
		return fmt.Errorf("%w: throttle %q: max and window must be positive", ErrConfiguration, name)
	}
	return nil
}
