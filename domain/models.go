// Package domain defines the core types shared across the proxy.
package domain

import (
	"encoding/json"
	"time"
)

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the inbound body of POST /api/chat. The stateless variant
// supplies Messages; the stateful variant supplies SessionID and Message.
type ChatRequest struct {
	Messages    []ChatMessage `json:"messages,omitempty"`
	SessionID   string        `json:"sessionId,omitempty"`
	Message     *ChatMessage  `json:"message,omitempty"`
	Model       string        `json:"model,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

// GateDecision is one recorded allow/deny outcome.
type GateDecision struct {
	DecisionID string    `json:"decision_id"`
	SessionID  string    `json:"session_id,omitempty"`
	Policy     string    `json:"policy"`
	Allowed    bool      `json:"allowed"`
	LatencyMs  int64     `json:"latency_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// LLMCall is one recorded upstream call outcome.
type LLMCall struct {
	RequestID        string    `json:"request_id"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	LatencyMs        int64     `json:"latency_ms"`
	Error            string    `json:"error,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Session is a server-held conversation keyed by a caller-supplied ID.
type Session struct {
	SessionID string          `json:"session_id"`
	Messages  []ChatMessage   `json:"messages"`
	UpdatedAt time.Time       `json:"updated_at"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}
