package policy

import (
	"fmt"
	"strings"

	"github.com/tkingovr/logbridge/api"
)

// Parser validates raw filter definitions and builds rules from them.
type Parser struct {
	routes   RouteResolver
	factory  RuleFactory
	ruleType string
}

// NewParser creates a parser resolving route names through routes.
// A nil resolver rejects every filter that names a route.
func NewParser(routes RouteResolver) *Parser {
	return &Parser{routes: routes}
}

// SetRouteResolver replaces the route resolver.
func (p *Parser) SetRouteResolver(routes RouteResolver) *Parser {
	p.routes = routes
	return p
}

// SetRuleType selects a registered custom rule type. An empty name
// restores the default Filter type.
func (p *Parser) SetRuleType(name string) error {
	if name == "" {
		p.factory = nil
		p.ruleType = ""
		return nil
	}
	factory, ok := lookupRuleType(name)
	if !ok {
		return fmt.Errorf("%w: unknown rule type %q (registered: %s)",
			ErrConfiguration, name, strings.Join(RuleTypes(), ", "))
	}
	if err := p.SetRuleFactory(factory); err != nil {
		return fmt.Errorf("rule type %q: %w", name, err)
	}
	p.ruleType = name
	return nil
}

// SetRuleFactory installs a constructor for rules. The factory is probed
// once and rejected if it cannot produce a rule.
func (p *Parser) SetRuleFactory(factory RuleFactory) error {
	if factory == nil {
		return fmt.Errorf("%w: nil rule factory", ErrConfiguration)
	}
	if probe := factory("probe"); probe == nil {
		return fmt.Errorf("%w: rule factory is not instantiable", ErrConfiguration)
	}
	p.factory = factory
	p.ruleType = "custom"
	return nil
}

// RuleType returns the selected rule type name, empty for the default.
func (p *Parser) RuleType() string { return p.ruleType }

func (p *Parser) newRule(name string) RuleBuilder {
	if p.factory != nil {
		return p.factory(name)
	}
	return NewFilter(name)
}

// Parse validates a raw filter definition and returns the rule it describes.
// The keys route, method and status are mandatory even when null.
func (p *Parser) Parse(name string, raw map[string]any) (Rule, error) {
	_, hasRoute := raw["route"]
	_, hasMethod := raw["method"]
	_, hasStatus := raw["status"]
	if !hasRoute || !hasMethod || !hasStatus {
		return nil, parseErrorf(name, `undefined "route", "method" or "status" parameter`)
	}

	route, err := p.parseRoute(name, raw["route"])
	if err != nil {
		return nil, err
	}
	methods, err := parseMethods(name, raw["method"])
	if err != nil {
		return nil, err
	}
	statuses, err := parseStatuses(name, raw["status"])
	if err != nil {
		return nil, err
	}
	level, err := parseLevel(name, raw["level"])
	if err != nil {
		return nil, err
	}
	options, err := parseOptions(name, raw["options"])
	if err != nil {
		return nil, err
	}

	rule := p.newRule(name)
	rule.SetRoute(route)
	rule.SetMethods(methods)
	rule.SetStatuses(statuses)
	rule.SetLevel(level)
	rule.SetOptions(options)
	return rule, nil
}

// ParseAll parses filters in declaration order, stopping at the first error.
func (p *Parser) ParseAll(filters []RawFilter) ([]Rule, error) {
	rules := make([]Rule, 0, len(filters))
	for _, f := range filters {
		rule, err := p.Parse(f.Name, f.Config)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (p *Parser) parseRoute(filter string, v any) (*string, error) {
	if v == nil {
		return nil, nil
	}
	route, ok := v.(string)
	if !ok {
		return nil, parseErrorf(filter, "unrecognized value %q from route parameter", fmt.Sprint(v))
	}
	if p.routes == nil || !p.routes.Exists(route) {
		return nil, parseErrorf(filter, "undefined route %q from route resolver", route)
	}
	return &route, nil
}

func parseMethods(filter string, v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return val, nil
	case []any:
		methods := make([]string, 0, len(val))
		for _, item := range val {
			m, ok := item.(string)
			if !ok {
				return nil, parseErrorf(filter, "unrecognized value %q from method parameter", fmt.Sprint(v))
			}
			methods = append(methods, m)
		}
		return methods, nil
	default:
		return nil, parseErrorf(filter, "unrecognized value %q from method parameter", fmt.Sprint(v))
	}
}

func parseStatuses(filter string, v any) ([]int, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case []int:
		return val, nil
	case []any:
		statuses := make([]int, 0, len(val))
		for _, item := range val {
			s, ok := toInt(item)
			if !ok {
				return nil, parseErrorf(filter, "unrecognized value %q from status parameter", fmt.Sprint(v))
			}
			statuses = append(statuses, s)
		}
		return statuses, nil
	default:
		return nil, parseErrorf(filter, "unrecognized value %q from status parameter", fmt.Sprint(v))
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	default:
		return 0, false
	}
}

func parseLevel(filter string, v any) (api.Level, error) {
	if v == nil {
		return api.DefaultLevel, nil
	}
	s, ok := v.(string)
	if !ok {
		return 0, parseErrorf(filter, "unrecognized value %q from level parameter", fmt.Sprint(v))
	}
	level, err := api.ParseLevel(s)
	if err != nil {
		return 0, parseErrorf(filter, "invalid value %q from level parameter, allowed %s",
			s, strings.Join(api.LevelNames(), ", "))
	}
	return level, nil
}

func parseOptions(filter string, v any) (api.Options, error) {
	switch val := v.(type) {
	case nil:
		return api.Options{}, nil
	case api.Options:
		return val, nil
	case map[string]any:
		return api.Options(val), nil
	default:
		return nil, parseErrorf(filter, "unrecognized value %q from options parameter", fmt.Sprint(v))
	}
}
