package api

import (
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/carverhealth/medgate/domain"
	"github.com/carverhealth/medgate/gate"
	"github.com/carverhealth/medgate/llm"
)

// Chat handles gated chat completion requests. A body with a sessionId is the
// stateful variant; otherwise the full message list must be supplied.
// POST /api/chat
func (h *Handler) Chat(c echo.Context) error {
	var req domain.ChatRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	if req.SessionID != "" || req.Message != nil {
		return h.chatStateful(c, &req)
	}
	return h.chatStateless(c, &req)
}

func (h *Handler) chatStateless(c echo.Context, req *domain.ChatRequest) error {
	ctx := c.Request().Context()

	if len(req.Messages) == 0 {
		return errorJSON(c, http.StatusBadRequest, "messages is required")
	}

	model := h.model(req)
	latest := req.Messages[len(req.Messages)-1]
	if blocked, reason := h.admit(c, latest.Role, model); blocked {
		return errorJSON(c, http.StatusBadRequest, reason)
	}

	started := time.Now()
	decision := h.gate.Decide(ctx, req.Messages)
	h.recordDecision(ctx, "", decision, started)

	if !decision.Allowed {
		return c.JSON(http.StatusOK, gate.Refusal(model))
	}

	resp, err := h.complete(c, req, model, req.Messages)
	if err != nil {
		return upstreamErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) chatStateful(c echo.Context, req *domain.ChatRequest) error {
	ctx := c.Request().Context()

	if req.SessionID == "" || req.Message == nil {
		return errorJSON(c, http.StatusBadRequest, "sessionId and message are required")
	}
	model := h.model(req)
	if blocked, reason := h.admit(c, req.Message.Role, model); blocked {
		return errorJSON(c, http.StatusBadRequest, reason)
	}

	// The new message must be in the store before classification so the
	// classifier context includes it.
	h.sessions.Append(req.SessionID, *req.Message)
	conversation := h.sessions.Get(req.SessionID)

	started := time.Now()
	decision := h.gate.DecideSession(ctx, conversation)
	h.recordDecision(ctx, req.SessionID, decision, started)

	if !decision.Allowed {
		refusal := gate.Refusal(model)
		h.sessions.Append(req.SessionID, *refusal.Choices[0].Message)
		return c.JSON(http.StatusOK, refusal)
	}

	resp, err := h.complete(c, req, model, conversation)
	if err != nil {
		return upstreamErrorJSON(c, err)
	}
	if len(resp.Choices) > 0 && resp.Choices[0].Message != nil {
		h.sessions.Append(req.SessionID, *resp.Choices[0].Message)
	}
	return c.JSON(http.StatusOK, resp)
}

// complete issues the real upstream completion and records the outcome.
func (h *Handler) complete(c echo.Context, req *domain.ChatRequest, model string, messages []domain.ChatMessage) (*llm.ChatCompletionResponse, error) {
	ctx := c.Request().Context()

	maxTokens := h.config.MaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	temperature := h.config.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	started := time.Now()
	resp, err := h.llmClient.CreateChatCompletion(ctx, &llm.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	})
	h.recordCall(ctx, model, resp, err, started)
	if err != nil {
		log.Printf("ERROR: upstream completion failed: %v", err)
		return nil, err
	}
	return resp, nil
}

// admit evaluates the admission policy. Evaluation errors fall back to allow:
// admission is a validation layer, not the gate, and must not turn policy
// engine faults into refusals of well-formed requests.
func (h *Handler) admit(c echo.Context, role, model string) (blocked bool, reason string) {
	if h.policy == nil {
		return false, ""
	}
	allowlist := h.config.ModelAllowlist
	if allowlist == nil {
		allowlist = []string{}
	}
	decision, reason, err := h.policy.Evaluate(c.Request().Context(), map[string]interface{}{
		"role":      role,
		"model":     model,
		"allowlist": allowlist,
	})
	if err != nil {
		log.Printf("WARN: admission policy evaluation failed: %v", err)
		return false, ""
	}
	if decision == "block" {
		if reason == "" {
			reason = "request blocked by policy"
		}
		return true, reason
	}
	return false, ""
}

func (h *Handler) model(req *domain.ChatRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return h.config.ChatModel
}
