// Package policy evaluates request admission rules before the gate runs.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Engine is the OPA admission policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.chat_policy.decision"),
		rego.Module("chat_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate checks the admission policy.
// Input keys: role, model, session_id, allowlist (optional string list).
// Returns: decision ("allow" or "block"), reason, error.
func (e *Engine) Evaluate(ctx context.Context, input interface{}) (string, string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return "allow", "default", nil
	}

	val := results[0].Expressions[0].Value
	if obj, ok := val.(map[string]interface{}); ok {
		decision, _ := obj["decision"].(string)
		reason, _ := obj["reason"].(string)
		if decision == "" {
			decision = "allow"
		}
		return decision, reason, nil
	}
	if s, ok := val.(string); ok {
		return s, "", nil
	}

	return "allow", "unexpected return type", nil
}

// DefaultPolicy is the default admission policy content.
const DefaultPolicy = `
package chat_policy

import rego.v1

default decision := {"decision": "allow", "reason": ""}

# Stateful messages must come from the user role
decision := {"decision": "block", "reason": "message role must be user"} if {
	input.role != ""
	input.role != "user"
}

# Enforce the model allow-list when one is configured
decision := {"decision": "block", "reason": "model not allowed"} if {
	input.role == "user"
	count(input.allowlist) > 0
	not allowed_model
}

allowed_model if {
	input.allowlist[_] == input.model
}
`
