package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPolicyAllows(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, DefaultPolicy)
	assert.NoError(t, err)

	decision, _, err := engine.Evaluate(ctx, map[string]interface{}{
		"role":      "user",
		"model":     "gpt-4o-mini",
		"allowlist": []string{},
	})
	assert.NoError(t, err)
	assert.Equal(t, "allow", decision)
}

func TestPolicyBlocksNonUserRole(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, DefaultPolicy)
	assert.NoError(t, err)

	decision, reason, err := engine.Evaluate(ctx, map[string]interface{}{
		"role":      "assistant",
		"model":     "gpt-4o-mini",
		"allowlist": []string{},
	})
	assert.NoError(t, err)
	assert.Equal(t, "block", decision)
	assert.Equal(t, "message role must be user", reason)
}

func TestPolicyEnforcesModelAllowlist(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, DefaultPolicy)
	assert.NoError(t, err)

	decision, reason, err := engine.Evaluate(ctx, map[string]interface{}{
		"role":      "user",
		"model":     "gpt-4-turbo",
		"allowlist": []string{"gpt-4o-mini"},
	})
	assert.NoError(t, err)
	assert.Equal(t, "block", decision)
	assert.Equal(t, "model not allowed", reason)

	decision, _, err = engine.Evaluate(ctx, map[string]interface{}{
		"role":      "user",
		"model":     "gpt-4o-mini",
		"allowlist": []string{"gpt-4o-mini"},
	})
	assert.NoError(t, err)
	assert.Equal(t, "allow", decision)
}
