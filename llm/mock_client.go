package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/carverhealth/medgate/domain"
)

// MockClient is a mock implementation of Client for local development.
type MockClient struct{}

// NewMockClient creates a new mock LLM client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Ensure MockClient implements Client.
var _ Client = (*MockClient)(nil)

// mockMedicalTerms lets the mock answer classification prompts well enough to
// exercise the gate without a real provider.
var mockMedicalTerms = []string{
	"fever", "pain", "headache", "symptom", "medication", "insulin",
	"diagnosis", "icd", "cpt", "billing", "insurance", "blood", "doctor",
	"prescription", "dosage", "anxiety", "depression", "surgery",
}

// CreateChatCompletion returns a canned response. Classifier-shaped requests
// (single-token budget) get a yes/no verdict based on a keyword scan.
func (m *MockClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	responseContent := m.generateMockResponse(req)

	return &ChatCompletionResponse{
		ID:      fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []Choice{
			{
				Index: 0,
				Message: &domain.ChatMessage{
					Role:    domain.RoleAssistant,
					Content: responseContent,
				},
				FinishReason: "stop",
			},
		},
		Usage: &Usage{
			PromptTokens:     m.estimateTokens(req),
			CompletionTokens: len(responseContent) / 4,
			TotalTokens:      m.estimateTokens(req) + len(responseContent)/4,
		},
	}, nil
}

// ListModels returns a list of mock models.
func (m *MockClient) ListModels(ctx context.Context) ([]Model, error) {
	return []Model{
		{
			ID:      "mock-gpt-4o-mini",
			Object:  "model",
			Created: time.Now().Unix(),
			OwnedBy: "mock",
		},
	}, nil
}

func (m *MockClient) generateMockResponse(req *ChatCompletionRequest) string {
	lastUser := ""
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == domain.RoleUser {
			lastUser = req.Messages[i].Content
			break
		}
	}

	if req.MaxTokens != nil && *req.MaxTokens == 1 {
		lower := strings.ToLower(lastUser)
		for _, term := range mockMedicalTerms {
			if strings.Contains(lower, term) {
				return "yes"
			}
		}
		return "no"
	}

	if lastUser == "" {
		return "[MOCK] This is a mock response from the LLM client."
	}
	return fmt.Sprintf("[MOCK] Received your message: %q. This is a mock response.", truncate(lastUser, 100))
}

// estimateTokens provides a rough token count estimate.
func (m *MockClient) estimateTokens(req *ChatCompletionRequest) int {
	total := 0
	for _, msg := range req.Messages {
		total += len(msg.Content) / 4
	}
	return total
}

// truncate truncates a string to the given length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
