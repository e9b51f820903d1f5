package policy

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/tkingovr/logbridge/api"
)

// Rule is a configured filter: a route/method/status matcher and the level it selects.
type Rule interface {
	Name() string

	// Route returns the route name to match, ok is false when any route matches.
	Route() (route string, ok bool)

	// Methods returns the accepted methods, nil when any method matches.
	Methods() []string

	// Statuses returns the accepted status codes, nil when any status matches.
	Statuses() []int

	Level() api.Level
	Options() api.Options
}

// RuleBuilder is the construction contract the parser fills in. Custom
// rule types embed *Filter to satisfy it.
type RuleBuilder interface {
	Rule
	SetRoute(route *string)
	SetMethods(methods []string)
	SetStatuses(statuses []int)
	SetLevel(level api.Level)
	SetOptions(options api.Options)
}

// RuleFactory constructs an empty rule with the given name.
type RuleFactory func(name string) RuleBuilder

// Filter is the default Rule implementation.
type Filter struct {
	name     string
	route    *string
	methods  []string
	statuses []int
	level    api.Level
	options  api.Options
}

// NewFilter returns an empty filter at the default level matching everything.
func NewFilter(name string) *Filter {
	return &Filter{
		name:    name,
		level:   api.DefaultLevel,
		options: api.Options{},
	}
}

func (f *Filter) Name() string { return f.name }

func (f *Filter) Route() (string, bool) {
	if f.route == nil {
		return "", false
	}
	return *f.route, true
}

func (f *Filter) Methods() []string     { return f.methods }
func (f *Filter) Statuses() []int       { return f.statuses }
func (f *Filter) Level() api.Level      { return f.level }
func (f *Filter) Options() api.Options  { return f.options }
func (f *Filter) SetLevel(l api.Level)  { f.level = l }
func (f *Filter) SetMethods(m []string) { f.methods = slices.Clone(m) }
func (f *Filter) SetStatuses(s []int)   { f.statuses = slices.Clone(s) }

func (f *Filter) SetRoute(route *string) {
	if route == nil {
		f.route = nil
		return
	}
	r := *route
	f.route = &r
}

func (f *Filter) SetOptions(o api.Options) {
	f.options = make(api.Options, len(o))
	for k, v := range o {
		f.options[k] = v
	}
}

func (f *Filter) String() string {
	route, ok := f.Route()
	if !ok {
		route = "*"
	}
	return fmt.Sprintf("%s(route=%s methods=%v statuses=%v level=%s)", f.name, route, f.methods, f.statuses, f.level)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]RuleFactory{}
)

// RegisterRuleType makes a custom rule type selectable by name from
// configuration. It panics on an empty name, a nil factory or a duplicate
// registration, like database/sql.Register.
func RegisterRuleType(name string, factory RuleFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if name == "" {
		panic("policy: RegisterRuleType with empty name")
	}
	if factory == nil {
		panic("policy: RegisterRuleType factory is nil")
	}
	if _, dup := registry[name]; dup {
		panic("policy: RegisterRuleType called twice for " + name)
	}
	registry[name] = factory
}

// RuleTypes returns the registered rule type names, sorted.
func RuleTypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupRuleType(name string) (RuleFactory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}
