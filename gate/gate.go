// Package gate wraps the proxied chat call with an allow/deny decision.
package gate

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carverhealth/medgate/domain"
	"github.com/carverhealth/medgate/llm"
)

// Gate policies.
const (
	PolicySingle  = "single"  // classify the latest user message alone
	PolicyContext = "context" // retry with prior assistant context on deny
	PolicySession = "session" // classify the full accumulated conversation
)

// RefusalText is returned verbatim when a request is denied.
const RefusalText = "I'm sorry, but I can only help with medical and health-related questions, such as symptoms, conditions, medications, procedures, or medical billing. Please ask me something health-related."

// Classifier is the yes/no topical judgment the gate consumes.
type Classifier interface {
	Classify(ctx context.Context, messages []domain.ChatMessage) bool
}

// Decision is the outcome of gating one request.
type Decision struct {
	Allowed bool
	Policy  string
}

// Gate selects the conversation slice to classify and produces the decision.
type Gate struct {
	classifier Classifier
	policy     string
}

// New creates a gate with the given policy. Unknown policies fall back to the
// context-aware policy.
func New(classifier Classifier, policy string) *Gate {
	switch policy {
	case PolicySingle, PolicyContext, PolicySession:
	default:
		policy = PolicyContext
	}
	return &Gate{classifier: classifier, policy: policy}
}

// Policy returns the configured policy name.
func (g *Gate) Policy() string {
	return g.policy
}

// Decide runs the configured policy against the conversation. The
// conversation must end with the latest user turn.
func (g *Gate) Decide(ctx context.Context, conversation []domain.ChatMessage) Decision {
	return g.decide(ctx, conversation, g.policy)
}

// DecideSession always applies the full-session policy, regardless of the
// configured one. Used by the stateful endpoint where the history exists.
func (g *Gate) DecideSession(ctx context.Context, conversation []domain.ChatMessage) Decision {
	return g.decide(ctx, conversation, PolicySession)
}

func (g *Gate) decide(ctx context.Context, conversation []domain.ChatMessage, policy string) Decision {
	d := Decision{Policy: policy}
	latest, latestOK := latestUserMessage(conversation)
	if !latestOK {
		return d
	}

	switch policy {
	case PolicySession:
		d.Allowed = g.classifier.Classify(ctx, conversation)

	case PolicySingle:
		d.Allowed = g.classifier.Classify(ctx, []domain.ChatMessage{latest})

	default: // PolicyContext
		if g.classifier.Classify(ctx, []domain.ChatMessage{latest}) {
			d.Allowed = true
			break
		}
		// Short follow-ups ("how long does it last?") only make sense next
		// to the reply they follow.
		prior, ok := priorAssistantMessage(conversation)
		if !ok {
			break
		}
		combined := domain.ChatMessage{
			Role:    domain.RoleUser,
			Content: prior.Content + "\n" + latest.Content,
		}
		d.Allowed = g.classifier.Classify(ctx, []domain.ChatMessage{combined})
	}
	return d
}

// Refusal synthesizes a completion envelope carrying the fixed refusal text.
// Same shape as a genuine upstream completion.
func Refusal(model string) *llm.ChatCompletionResponse {
	return &llm.ChatCompletionResponse{
		ID:      "chatcmpl-" + uuid.New().String()[:8],
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []llm.Choice{
			{
				Index: 0,
				Message: &domain.ChatMessage{
					Role:    domain.RoleAssistant,
					Content: RefusalText,
				},
				FinishReason: "stop",
			},
		},
	}
}

// latestUserMessage returns the last user turn in the conversation.
func latestUserMessage(conversation []domain.ChatMessage) (domain.ChatMessage, bool) {
	for i := len(conversation) - 1; i >= 0; i-- {
		if conversation[i].Role == domain.RoleUser {
			return conversation[i], true
		}
	}
	return domain.ChatMessage{}, false
}

// priorAssistantMessage returns the most recent assistant turn.
func priorAssistantMessage(conversation []domain.ChatMessage) (domain.ChatMessage, bool) {
	for i := len(conversation) - 1; i >= 0; i-- {
		if conversation[i].Role == domain.RoleAssistant {
			return conversation[i], true
		}
	}
	return domain.ChatMessage{}, false
}
