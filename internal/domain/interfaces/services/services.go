// Package services declares the contracts of the external collaborators:
// the long-term memory store, the LLM provider, and the voice-call
// provider. Handlers depend on these interfaces so tests can substitute
// in-process fakes.
package services

import (
	"context"
	"time"

	"agent-suite/internal/domain/dto"
)

// Memory is one entry returned by the memory collaborator. The
// collaborator's ranking and embedding behavior is a black box; this
// system only reads content and metadata.
type Memory struct {
	ID         string         `json:"id"`
	Content    string         `json:"content"`
	MemoryType string         `json:"memory_type,omitempty"`
	Confidence float64        `json:"confidence,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type IMemoryService interface {
	// Add stores one free-text memory scoped to userID.
	Add(ctx context.Context, content string, userID string, metadata map[string]any) error

	// Search returns up to limit memories for userID ranked against query.
	Search(ctx context.Context, query string, userID string, limit int) ([]Memory, error)

	// BuildCustomerContext renders a numbered history of the customer's
	// memories, degrading to a fixed phrase when none exist or the
	// collaborator is unreachable.
	BuildCustomerContext(ctx context.Context, customerID string) string
}

type ILLMService interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// OutboundCall describes a provider call started or listed through the
// voice provider API.
type OutboundCall struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Customer  string `json:"customer,omitempty"`
	StartedAt string `json:"startedAt,omitempty"`
	EndedAt   string `json:"endedAt,omitempty"`
}

type IVoiceProvider interface {
	StartOutboundCall(ctx context.Context, phoneNumber string, customerID string, req dto.OutboundCallRequest) (OutboundCall, error)
	ListCalls(ctx context.Context, limit int) ([]OutboundCall, error)
	EndCall(ctx context.Context, callID string) error
}
