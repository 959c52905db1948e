package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	Iservices "agent-suite/internal/domain/interfaces/services"
	"agent-suite/internal/infra/logger"
)

// ConversationService drives the speech-recognition conversation flow:
// each turn takes the caller's transcribed speech, generates a reply with
// the customer's memory context, and records the exchange. History lives
// in process, keyed by customer, for the duration of the call.
type ConversationService struct {
	LLM    Iservices.ILLMService
	Memory Iservices.IMemoryService
	Logger *logger.Logger

	mu      sync.Mutex
	history map[string][]turn
}

type turn struct {
	role    string
	content string
}

func NewConversationService(llm Iservices.ILLMService, memory Iservices.IMemoryService, log *logger.Logger) *ConversationService {
	return &ConversationService{
		LLM:     llm,
		Memory:  memory,
		Logger:  log,
		history: make(map[string][]turn),
	}
}

const conversationPrompt = `You are a friendly customer support agent for TechCorp.
Keep responses concise (2-3 sentences max) since this is a phone conversation.
Be helpful, warm, and professional.

CUSTOMER CONTEXT:
%s

CONVERSATION HISTORY:
%s

Respond naturally to the customer's latest message. Don't use markdown or special formatting.`

// Reply generates the agent's next utterance for a caller's speech
// result. The interaction is stored as a memory, best-effort.
func (s *ConversationService) Reply(ctx context.Context, customerID, callSid, speech string) (string, error) {
	s.appendTurn(customerID, "user", speech)

	customerContext := s.Memory.BuildCustomerContext(ctx, customerID)
	prompt := fmt.Sprintf(conversationPrompt, customerContext, s.renderHistory(customerID))

	response, err := s.LLM.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}
	response = strings.TrimSpace(response)

	s.appendTurn(customerID, "assistant", response)

	err = s.Memory.Add(ctx,
		fmt.Sprintf("Customer said: %q | Agent responded: %q", speech, response),
		customerID,
		map[string]any{"call_sid": callSid, "interaction_type": "voice_support"},
	)
	if err != nil {
		s.Logger.Error(fmt.Sprintf("Failed to store interaction for %s: %v", customerID, err))
	}

	return response, nil
}

// Forget drops the in-process history for a customer once their call ends.
func (s *ConversationService) Forget(customerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.history, customerID)
}

func (s *ConversationService) appendTurn(customerID, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[customerID] = append(s.history[customerID], turn{role: role, content: content})
}

func (s *ConversationService) renderHistory(customerID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]string, 0, len(s.history[customerID]))
	for _, t := range s.history[customerID] {
		lines = append(lines, t.role+": "+t.content)
	}
	return strings.Join(lines, "\n")
}
