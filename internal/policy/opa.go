package policy

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/open-policy-agent/opa/v1/storage/inmem"

	"github.com/tkingovr/logbridge/api"
)

// OPAEngine implements the Engine interface using embedded OPA/Rego.
type OPAEngine struct {
	query rego.PreparedEvalQuery
}

// NewOPAEngine creates a new OPA engine from a .rego policy file.
func NewOPAEngine(ctx context.Context, path string) (*OPAEngine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading OPA policy file: %w", err)
	}
	return NewOPAEngineFromSource(ctx, string(data))
}

// NewOPAEngineFromSource creates a new OPA engine from raw Rego source.
func NewOPAEngineFromSource(ctx context.Context, source string) (*OPAEngine, error) {
	if _, err := ast.ParseModuleWithOpts("policy.rego", source, ast.ParserOptions{RegoVersion: ast.RegoV1}); err != nil {
		return nil, fmt.Errorf("%w: parsing Rego policy: %v", ErrConfiguration, err)
	}

	r := rego.New(
		rego.Query("data.logbridge"),
		rego.Module("policy.rego", source),
		rego.Store(inmem.New()),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: preparing OPA query: %v", ErrConfiguration, err)
	}
	return &OPAEngine{query: query}, nil
}

// Evaluate runs the Rego policy against the exchange.
//
// The policy must live in package logbridge and may define:
//
//	level: "debug" | "info" | ... | "emergency" (undefined: not logged)
//	filter: string
//	options: object
//
// Input available to the policy:
//
//	input.route: string or null
//	input.method: string
//	input.status: number
func (e *OPAEngine) Evaluate(ctx context.Context, ex *api.Exchange) (*EvalResult, error) {
	input := map[string]any{
		"route":  nil,
		"method": ex.Method,
		"status": ex.Status,
	}
	if ex.Route != "" {
		input["route"] = ex.Route
	}

	rs, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("OPA evaluation failed: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return &EvalResult{}, nil
	}

	resultMap, ok := rs[0].Expressions[0].Value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected OPA result type %T", rs[0].Expressions[0].Value)
	}
	return parseOPAResult(resultMap)
}

func parseOPAResult(m map[string]any) (*EvalResult, error) {
	raw, ok := m["level"]
	if !ok {
		return &EvalResult{}, nil
	}
	name, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("OPA policy returned non-string level %v", raw)
	}
	level, err := api.ParseLevel(name)
	if err != nil {
		return nil, fmt.Errorf("OPA policy: %w", err)
	}

	result := &EvalResult{
		Matched: true,
		Level:   level,
		Filter:  "_opa",
		Options: api.Options{},
	}
	if f, ok := m["filter"].(string); ok {
		result.Filter = f
	}
	if opts, ok := m["options"].(map[string]any); ok {
		result.Options = api.Options(opts)
	}
	return result, nil
}
