package policy

import (
	"context"
	"fmt"
	"slices"

	"github.com/tkingovr/logbridge/api"
)

// RuleSet implements first-match-wins level selection over rules kept in
// declaration order. It is read-only after construction and safe for
// concurrent use.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet creates a rule set. Rule order is the matching order.
func NewRuleSet(rules ...Rule) *RuleSet {
	return &RuleSet{rules: slices.Clone(rules)}
}

// NewRuleSetFromFile parses the filters of a loaded policy file.
func NewRuleSetFromFile(pf *File, parser *Parser) (*RuleSet, error) {
	rules, err := parser.ParseAll(pf.Filters)
	if err != nil {
		return nil, err
	}
	return NewRuleSet(rules...), nil
}

// Match returns the first rule matching the exchange.
func (s *RuleSet) Match(ex *api.Exchange) (Rule, bool) {
	for _, rule := range s.rules {
		if matches(rule, ex) {
			return rule, true
		}
	}
	return nil, false
}

// Level returns the level of the first matching rule. ok is false when the
// exchange must not be logged.
func (s *RuleSet) Level(ex *api.Exchange) (level api.Level, ok bool) {
	rule, ok := s.Match(ex)
	if !ok {
		return 0, false
	}
	return rule.Level(), true
}

// Evaluate implements Engine.
func (s *RuleSet) Evaluate(_ context.Context, ex *api.Exchange) (*EvalResult, error) {
	rule, ok := s.Match(ex)
	if !ok {
		return &EvalResult{}, nil
	}
	return &EvalResult{
		Matched: true,
		Level:   rule.Level(),
		Filter:  rule.Name(),
		Options: rule.Options(),
	}, nil
}

// Rules returns the rules in matching order.
func (s *RuleSet) Rules() []Rule {
	return slices.Clone(s.rules)
}

// Len returns the number of rules.
func (s *RuleSet) Len() int { return len(s.rules) }

func (s *RuleSet) String() string {
	return fmt.Sprintf("RuleSet(%d rules)", len(s.rules))
}

func matches(rule Rule, ex *api.Exchange) bool {
	// Route is an exact name comparison
	if route, ok := rule.Route(); ok && route != ex.Route {
		return false
	}

	if methods := rule.Methods(); methods != nil && !slices.Contains(methods, ex.Method) {
		return false
	}

	if statuses := rule.Statuses(); statuses != nil && !slices.Contains(statuses, ex.Status) {
		return false
	}

	return true
}
