package llm

import "context"

// Client defines the interface for upstream LLM operations.
type Client interface {
	// CreateChatCompletion sends a chat completion request.
	CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error)

	// ListModels retrieves the list of available models.
	ListModels(ctx context.Context) ([]Model, error)
}

// Ensure HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
