package gate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carverhealth/medgate/domain"
)

// scriptClassifier returns scripted verdicts in order and records every
// conversation view it was asked to judge.
type scriptClassifier struct {
	verdicts []bool
	calls    [][]domain.ChatMessage
}

func (s *scriptClassifier) Classify(ctx context.Context, messages []domain.ChatMessage) bool {
	s.calls = append(s.calls, messages)
	if len(s.verdicts) == 0 {
		return false
	}
	v := s.verdicts[0]
	s.verdicts = s.verdicts[1:]
	return v
}

func TestSinglePolicyClassifiesLatestOnly(t *testing.T) {
	cls := &scriptClassifier{verdicts: []bool{true}}
	g := New(cls, PolicySingle)

	conversation := []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "tell me a joke"},
		{Role: domain.RoleAssistant, Content: "why did the chicken..."},
		{Role: domain.RoleUser, Content: "what is the ICD-10 code for diabetes?"},
	}
	d := g.Decide(context.Background(), conversation)

	assert.True(t, d.Allowed)
	assert.Len(t, cls.calls, 1)
	assert.Equal(t, []domain.ChatMessage{conversation[2]}, cls.calls[0])
}

func TestContextPolicyAllowsOnFirstPass(t *testing.T) {
	cls := &scriptClassifier{verdicts: []bool{true}}
	g := New(cls, PolicyContext)

	d := g.Decide(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "I have a fever"},
	})

	assert.True(t, d.Allowed)
	assert.Len(t, cls.calls, 1, "second classification should be skipped when the first allows")
}

func TestContextPolicyRecoversFollowUp(t *testing.T) {
	cls := &scriptClassifier{verdicts: []bool{false, true}}
	g := New(cls, PolicyContext)

	d := g.Decide(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "I think I have the flu"},
		{Role: domain.RoleAssistant, Content: "Your fever should subside in 2-3 days with rest."},
		{Role: domain.RoleUser, Content: "how long does it last?"},
	})

	assert.True(t, d.Allowed)
	assert.Len(t, cls.calls, 2)
	combined := cls.calls[1]
	assert.Len(t, combined, 1)
	assert.Equal(t, domain.RoleUser, combined[0].Role)
	assert.Equal(t, "Your fever should subside in 2-3 days with rest.\nhow long does it last?", combined[0].Content)
}

func TestContextPolicyDeniesWithoutPriorContext(t *testing.T) {
	cls := &scriptClassifier{verdicts: []bool{false}}
	g := New(cls, PolicyContext)

	d := g.Decide(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "what's the weather today?"},
	})

	assert.False(t, d.Allowed)
	assert.Len(t, cls.calls, 1, "no assistant context to retry with")
}

func TestContextPolicyDeniesWhenBothPassesFail(t *testing.T) {
	cls := &scriptClassifier{verdicts: []bool{false, false}}
	g := New(cls, PolicyContext)

	d := g.Decide(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleAssistant, Content: "The capital of France is Paris."},
		{Role: domain.RoleUser, Content: "what about Italy?"},
	})

	assert.False(t, d.Allowed)
	assert.Len(t, cls.calls, 2)
}

func TestSessionPolicyClassifiesFullConversation(t *testing.T) {
	cls := &scriptClassifier{verdicts: []bool{true}}
	g := New(cls, PolicySession)

	conversation := []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "You are a helpful medical assistant."},
		{Role: domain.RoleUser, Content: "I have a headache"},
		{Role: domain.RoleAssistant, Content: "How long have you had it?"},
		{Role: domain.RoleUser, Content: "what painkiller should I take?"},
	}
	d := g.DecideSession(context.Background(), conversation)

	assert.True(t, d.Allowed)
	assert.Len(t, cls.calls, 1)
	assert.Equal(t, conversation, cls.calls[0])
}

func TestDecideDeniesWithoutUserTurn(t *testing.T) {
	cls := &scriptClassifier{verdicts: []bool{true}}
	g := New(cls, PolicySingle)

	d := g.Decide(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "system prompt only"},
	})

	assert.False(t, d.Allowed)
	assert.Empty(t, cls.calls)
}

func TestUnknownPolicyFallsBackToContext(t *testing.T) {
	g := New(&scriptClassifier{}, "bogus")
	assert.Equal(t, PolicyContext, g.Policy())
}

func TestRefusalEnvelopeShape(t *testing.T) {
	resp := Refusal("gpt-4o-mini")

	assert.Equal(t, "chat.completion", resp.Object)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "gpt-4o-mini", resp.Model)
	assert.Len(t, resp.Choices, 1)
	assert.Equal(t, domain.RoleAssistant, resp.Choices[0].Message.Role)
	assert.Equal(t, RefusalText, resp.Choices[0].Message.Content)
	assert.Equal(t, "stop", resp.Choices[0].FinishReason)
}
