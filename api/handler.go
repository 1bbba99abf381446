// Package api provides the HTTP handlers for the medgate proxy.
package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carverhealth/medgate/config"
	"github.com/carverhealth/medgate/domain"
	"github.com/carverhealth/medgate/gate"
	"github.com/carverhealth/medgate/llm"
	"github.com/carverhealth/medgate/policy"
	"github.com/carverhealth/medgate/session"
	"github.com/carverhealth/medgate/store"
)

// Handler handles HTTP requests.
type Handler struct {
	config    *config.Config
	llmClient llm.Client
	gate      *gate.Gate
	sessions  *session.Store
	audit     store.Store
	policy    *policy.Engine
}

// NewHandler creates a new handler.
func NewHandler(cfg *config.Config, llmClient llm.Client, g *gate.Gate, sessions *session.Store, audit store.Store, policyEngine *policy.Engine) *Handler {
	return &Handler{
		config:    cfg,
		llmClient: llmClient,
		gate:      g,
		sessions:  sessions,
		audit:     audit,
		policy:    policyEngine,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/chat", h.Chat)
	e.POST("/api/analyze-pdf", h.AnalyzePDF)
	e.GET("/api/models", h.Models)
	e.GET("/api/health", h.Health)
}

// Health returns health status. Never depends on upstream availability.
// GET /api/health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":      "OK",
		"message":     "medgate proxy is running",
		"environment": h.config.Environment,
	})
}

// Models proxies the upstream model list.
// GET /api/models
func (h *Handler) Models(c echo.Context) error {
	models, err := h.llmClient.ListModels(c.Request().Context())
	if err != nil {
		log.Printf("ERROR: failed to list models: %v", err)
		return upstreamErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, llm.ModelsResponse{Object: "list", Data: models})
}

// errorJSON writes the standard error envelope.
func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// upstreamErrorJSON mirrors an upstream failure to the caller: the provider's
// own status code when known, 502 otherwise.
func upstreamErrorJSON(c echo.Context, err error) error {
	if ue, ok := err.(*llm.UpstreamError); ok {
		return c.JSON(ue.StatusCode, map[string]string{
			"error":   "upstream request failed",
			"details": ue.Message,
		})
	}
	return c.JSON(http.StatusBadGateway, map[string]string{
		"error":   "upstream request failed",
		"details": err.Error(),
	})
}

// recordDecision writes one gate decision to the audit trail, best-effort.
func (h *Handler) recordDecision(ctx context.Context, sessionID string, d gate.Decision, started time.Time) {
	if h.audit == nil {
		return
	}
	rec := &domain.GateDecision{
		DecisionID: "gd_" + uuid.New().String()[:8],
		SessionID:  sessionID,
		Policy:     d.Policy,
		Allowed:    d.Allowed,
		LatencyMs:  time.Since(started).Milliseconds(),
	}
	if err := h.audit.RecordGateDecision(ctx, rec); err != nil {
		log.Printf("WARN: failed to record gate decision: %v", err)
	}
}

// recordCall writes one upstream call outcome to the audit trail, best-effort.
func (h *Handler) recordCall(ctx context.Context, model string, resp *llm.ChatCompletionResponse, callErr error, started time.Time) {
	if h.audit == nil {
		return
	}
	rec := &domain.LLMCall{
		RequestID: "llm_" + uuid.New().String()[:8],
		Model:     model,
		LatencyMs: time.Since(started).Milliseconds(),
	}
	if callErr != nil {
		rec.Error = callErr.Error()
	}
	if resp != nil {
		rec.Model = resp.Model
		if resp.Usage != nil {
			rec.PromptTokens = resp.Usage.PromptTokens
			rec.CompletionTokens = resp.Usage.CompletionTokens
			rec.TotalTokens = resp.Usage.TotalTokens
		}
	}
	if err := h.audit.RecordLLMCall(ctx, rec); err != nil {
		log.Printf("WARN: failed to record llm call: %v", err)
	}
}
