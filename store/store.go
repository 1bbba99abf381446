// Package store defines the audit-trail storage interface and implementations.
package store

import (
	"context"

	"github.com/carverhealth/medgate/domain"
)

// Store defines the interface for audit persistence.
type Store interface {
	// Gate decision audit
	RecordGateDecision(ctx context.Context, d *domain.GateDecision) error
	GetGateDecisions(ctx context.Context, sessionID string, limit int) ([]domain.GateDecision, error)

	// Upstream call audit
	RecordLLMCall(ctx context.Context, call *domain.LLMCall) error
	GetLLMCalls(ctx context.Context, limit int) ([]domain.LLMCall, error)

	// Lifecycle
	Close() error
}
