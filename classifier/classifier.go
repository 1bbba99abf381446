// Package classifier decides whether a conversation is about a medical topic.
//
// The verdict comes from a constrained upstream call: a fixed instruction
// prompt, a one-token completion budget, zero temperature, and an exact match
// against "yes". Anything else, including a failed call, is a deny.
package classifier

import (
	"context"
	"log"
	"strings"

	"github.com/carverhealth/medgate/domain"
	"github.com/carverhealth/medgate/llm"
)

// instruction enumerates the accepted topic taxonomy and constrains the
// answer to a single token.
const instruction = `You are a strict binary classifier. Decide whether the user's message is about a medical or health-related topic.

Medical topics include: symptoms, medical conditions and diseases, medications and dosages, medical coding systems (ICD-10, CPT), medical procedures and treatments, health insurance and medical billing, anatomy, mental health, medical devices, and vital signs.

Answer with exactly one word: "yes" if the message is about a medical topic, "no" otherwise. Do not explain.`

var (
	classifierMaxTokens   = 1
	classifierTemperature = 0.0
)

// Classifier issues yes/no topical-relevance calls against the upstream.
type Classifier struct {
	client llm.Client
	model  string
}

// New creates a classifier using the given low-cost model.
func New(client llm.Client, model string) *Classifier {
	return &Classifier{client: client, model: model}
}

// Classify reports whether the supplied conversation view is in-domain.
// Fail-closed: any upstream failure or malformed answer counts as "no".
func (c *Classifier) Classify(ctx context.Context, messages []domain.ChatMessage) bool {
	req := &llm.ChatCompletionRequest{
		Model:       c.model,
		Messages:    append([]domain.ChatMessage{{Role: domain.RoleSystem, Content: instruction}}, messages...),
		MaxTokens:   &classifierMaxTokens,
		Temperature: &classifierTemperature,
	}

	allowed := false
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		log.Printf("WARN: classification call failed, denying: %v", err)
		return allowed
	}
	if len(resp.Choices) > 0 && resp.Choices[0].Message != nil {
		answer := strings.ToLower(strings.TrimSpace(resp.Choices[0].Message.Content))
		if answer == "yes" {
			allowed = true
		}
	}
	return allowed
}
