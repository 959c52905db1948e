package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agent-suite/internal/domain/dto"
	"agent-suite/internal/domain/entities"
	Iservices "agent-suite/internal/domain/interfaces/services"
	"agent-suite/internal/infra/logger"
	"agent-suite/internal/infra/registry"
)

// CallService translates provider call-lifecycle events into Call
// Registry mutations and flushes a summary into long-term memory when a
// call ends. Memory writes are best-effort: failures are logged and
// swallowed, never retried, never surfaced to the provider.
type CallService struct {
	Registry    registry.CallRegistry
	Memory      Iservices.IMemoryService
	Logger      *logger.Logger
	AssistantID string
}

func NewCallService(reg registry.CallRegistry, memory Iservices.IMemoryService, log *logger.Logger, assistantID string) *CallService {
	return &CallService{Registry: reg, Memory: memory, Logger: log, AssistantID: assistantID}
}

// Dispatch applies one webhook event and returns the response body owed
// to the provider. Unknown event types are not an error condition:
// providers add event types independently of this consumer, so anything
// unrecognized is acknowledged without mutation.
func (cs *CallService) Dispatch(ctx context.Context, event *dto.WebhookEnvelope) map[string]any {
	switch event.Type() {
	case dto.EventAssistantRequest:
		return cs.handleAssistantRequest(ctx, event)
	case dto.EventFunctionCall:
		return cs.handleFunctionCall(ctx, event)
	case dto.EventStatusUpdate:
		return cs.handleStatusUpdate(ctx, event)
	case dto.EventTranscript:
		return cs.handleTranscript(ctx, event)
	case dto.EventConversation:
		return cs.handleConversationUpdate(ctx, event)
	case dto.EventSpeechUpdate:
		// Partial speech fragments carry no durable state.
		return success()
	case dto.EventHang:
		return cs.handleHang(ctx, event)
	case dto.EventEndOfCallReport:
		return cs.handleEndOfCallReport(ctx, event)
	default:
		cs.Logger.Debug(fmt.Sprintf("Unhandled event type: %q", event.Type()))
		return success()
	}
}

func (cs *CallService) handleStatusUpdate(ctx context.Context, event *dto.WebhookEnvelope) map[string]any {
	callID := event.CallID()
	if callID == "" {
		return success()
	}

	status := event.CallStatus()
	cs.Logger.Info(fmt.Sprintf("Status update %q for call %s", status, callID))

	switch status {
	case "ringing", "in-progress":
		call := event.CallData()
		customerPhone := "Unknown"
		customerID := ""
		direction := entities.DirectionOutbound
		assistantID := ""

		if call != nil {
			if call.Customer != nil && call.Customer.Number != "" {
				customerPhone = call.Customer.Number
				customerID = call.Customer.Number
			}
			if customerID == "" {
				customerID = call.Metadata["customerId"]
			}
			if call.Type == "inboundPhoneCall" {
				direction = entities.DirectionInbound
			}
			assistantID = call.AssistantID
		}
		if customerID == "" {
			customerID = customerPhone
		}

		callStatus := entities.CallStatusInProgress
		if status == "ringing" {
			callStatus = entities.CallStatusRinging
		}

		err := cs.Registry.SetActiveCall(ctx, entities.LiveCall{
			ID:            callID,
			CustomerID:    customerID,
			CustomerPhone: customerPhone,
			Direction:     direction,
			Status:        callStatus,
			StartTime:     time.Now(),
			AssistantID:   assistantID,
			Transcript:    []entities.TranscriptEntry{},
		})
		if err != nil {
			cs.Logger.Error(fmt.Sprintf("Failed to store active call %s: %v", callID, err))
		}

	case "ended", "forwarding":
		if err := cs.Registry.UpdateStatus(ctx, callID, entities.CallStatusEnded); err != nil {
			cs.Logger.Error(fmt.Sprintf("Failed to mark call %s ended: %v", callID, err))
		}
	}

	return success()
}

func (cs *CallService) handleTranscript(ctx context.Context, event *dto.WebhookEnvelope) map[string]any {
	callID := event.CallID()
	entries := event.TranscriptData()
	if callID == "" || len(entries) == 0 {
		return success()
	}

	latest := entries[len(entries)-1]
	text := latest.Message()
	if text == "" {
		return success()
	}

	if err := cs.Registry.AppendTranscript(ctx, callID, entities.TranscriptEntry{
		Role:      normalizeRole(latest.Role),
		Text:      text,
		Timestamp: time.Now(),
	}); err != nil {
		cs.Logger.Error(fmt.Sprintf("Failed to append transcript for call %s: %v", callID, err))
	}
	return success()
}

func (cs *CallService) handleConversationUpdate(ctx context.Context, event *dto.WebhookEnvelope) map[string]any {
	callID := event.CallID()
	conversation := event.ConversationData()
	if callID == "" || len(conversation) == 0 {
		return success()
	}

	latest := conversation[len(conversation)-1]
	if latest.Content == "" {
		return success()
	}

	// The registry drops the entry when it repeats the last stored text,
	// which covers the provider re-sending the full conversation.
	if err := cs.Registry.AppendTranscript(ctx, callID, entities.TranscriptEntry{
		Role:      normalizeRole(latest.Role),
		Text:      latest.Content,
		Timestamp: time.Now(),
	}); err != nil {
		cs.Logger.Error(fmt.Sprintf("Failed to append conversation entry for call %s: %v", callID, err))
	}
	return success()
}

func (cs *CallService) handleHang(ctx context.Context, event *dto.WebhookEnvelope) map[string]any {
	callID := event.CallID()
	if callID == "" {
		return success()
	}

	cs.Logger.Info(fmt.Sprintf("Call hung up: %s", callID))
	if err := cs.Registry.UpdateStatus(ctx, callID, entities.CallStatusEnded); err != nil {
		cs.Logger.Error(fmt.Sprintf("Failed to mark call %s ended: %v", callID, err))
	}
	return success()
}

func (cs *CallService) handleEndOfCallReport(ctx context.Context, event *dto.WebhookEnvelope) map[string]any {
	callID := event.CallID()
	transcript := event.TranscriptData()
	customerID := cs.customerID(event)

	cs.Logger.Info(fmt.Sprintf("Call ended: %s customer: %s", callID, customerID))

	summary := event.SummaryText()
	if summary == "" {
		summary = GenerateSummary(transcript)
	}

	memoriesStored := cs.flushMemories(ctx, callID, customerID, summary, transcript)

	if callID != "" {
		if err := cs.Registry.EndCall(ctx, callID, summary, memoriesStored); err != nil {
			cs.Logger.Error(fmt.Sprintf("Failed to end call %s: %v", callID, err))
		}
	}
	return success()
}

// flushMemories writes the call summary and up to five key points as
// separate memory entries keyed by customer identity. Each write is a
// single attempt; the count of successful writes is reported back into
// call history.
func (cs *CallService) flushMemories(ctx context.Context, callID, customerID, summary string, transcript []dto.TranscriptEvent) int {
	stored := 0

	err := cs.Memory.Add(ctx, "Call summary: "+summary, customerID, map[string]any{
		"type":      "call_summary",
		"call_id":   callID,
		"agent_id":  cs.AssistantID,
		"timestamp": time.Now().Format(time.RFC3339),
	})
	if err != nil {
		cs.Logger.Error(fmt.Sprintf("Failed to store call summary for %s: %v", customerID, err))
	} else {
		stored++
	}

	for _, point := range ExtractKeyPoints(transcript) {
		err := cs.Memory.Add(ctx, point, customerID, map[string]any{
			"type":     "call_detail",
			"call_id":  callID,
			"agent_id": cs.AssistantID,
		})
		if err != nil {
			cs.Logger.Error(fmt.Sprintf("Failed to store key point for %s: %v", customerID, err))
			continue
		}
		stored++
	}

	cs.Logger.Info(fmt.Sprintf("Stored %d memories for customer %s", stored, customerID))
	return stored
}

func (cs *CallService) handleAssistantRequest(ctx context.Context, event *dto.WebhookEnvelope) map[string]any {
	customerID := cs.customerID(event)
	if customerID == "" || customerID == "unknown" {
		return map[string]any{}
	}

	context := cs.Memory.BuildCustomerContext(ctx, customerID)
	return map[string]any{
		"assistant": map[string]any{
			"model": map[string]any{
				"messages": []map[string]string{
					{
						"role":    "system",
						"content": "CUSTOMER CONTEXT:\n" + context + "\n\nUse this context to personalize responses.",
					},
				},
			},
		},
	}
}

func (cs *CallService) handleFunctionCall(ctx context.Context, event *dto.WebhookEnvelope) map[string]any {
	fn := event.FunctionCall
	customerID := cs.customerID(event)
	if fn == nil {
		return map[string]any{"result": "Unknown function."}
	}

	switch fn.Name {
	case "searchCustomerHistory":
		query := fn.Parameters["query"]
		if query == "" || customerID == "" {
			return map[string]any{"result": "No query provided."}
		}
		memories, err := cs.Memory.Search(ctx, query, customerID, 5)
		if err != nil {
			cs.Logger.Error(fmt.Sprintf("History search failed for %s: %v", customerID, err))
			return map[string]any{"result": "No history found."}
		}
		contents := make([]string, 0, len(memories))
		for _, m := range memories {
			contents = append(contents, m.Content)
		}
		if len(contents) == 0 {
			return map[string]any{"result": "No history found."}
		}
		return map[string]any{"result": strings.Join(contents, "\n")}

	case "saveNote":
		note := fn.Parameters["note"]
		if note == "" || customerID == "" {
			return map[string]any{"result": "No note provided."}
		}
		if err := cs.Memory.Add(ctx, note, customerID, map[string]any{"type": "agent_note"}); err != nil {
			cs.Logger.Error(fmt.Sprintf("Failed to save note for %s: %v", customerID, err))
		}
		return map[string]any{"result": "Note saved."}

	default:
		return map[string]any{"result": "Unknown function."}
	}
}

// customerID resolves the memory-scoping key: email from call metadata
// when present (better scoping), then the explicit customerId, then the
// phone number.
func (cs *CallService) customerID(event *dto.WebhookEnvelope) string {
	call := event.CallData()
	if call == nil {
		return "unknown"
	}
	if email := call.Metadata["customerEmail"]; email != "" {
		return email
	}
	if id := call.Metadata["customerId"]; id != "" {
		return id
	}
	if call.Customer != nil && call.Customer.Number != "" {
		return call.Customer.Number
	}
	return "unknown"
}

// HandleTwilioStatus applies a telephony status callback: terminal
// statuses summarize the transcript, store a memory, and close the call;
// anything else is a plain status update.
func (cs *CallService) HandleTwilioStatus(ctx context.Context, callSid, callStatus, callDuration string) {
	terminal := map[string]bool{"completed": true, "failed": true, "busy": true, "no-answer": true}
	if !terminal[callStatus] {
		status := entities.CallStatusInProgress
		if callStatus == "ringing" {
			status = entities.CallStatusRinging
		}
		if err := cs.Registry.UpdateStatus(ctx, callSid, status); err != nil {
			cs.Logger.Error(fmt.Sprintf("Failed to update call %s status: %v", callSid, err))
		}
		return
	}

	call, ok, err := cs.Registry.GetActiveCall(ctx, callSid)
	if err != nil {
		cs.Logger.Error(fmt.Sprintf("Failed to read call %s: %v", callSid, err))
	}

	summary := "Call " + callStatus
	memoriesStored := 0

	if ok && len(call.Transcript) > 0 {
		topics := make([]string, 0, 3)
		for _, entry := range call.Transcript[:min(3, len(call.Transcript))] {
			topics = append(topics, truncate(entry.Text, 50))
		}
		summary = fmt.Sprintf("Call %s. Duration: %ss. Topics discussed: %s...", callStatus, callDuration, strings.Join(topics, ", "))

		err := cs.Memory.Add(ctx,
			fmt.Sprintf("Voice support call on %s. %s", time.Now().Format("2006-01-02"), summary),
			call.CustomerID,
			map[string]any{
				"call_sid":          callSid,
				"duration":          callDuration,
				"direction":         call.Direction,
				"transcript_length": len(call.Transcript),
			},
		)
		if err != nil {
			cs.Logger.Error(fmt.Sprintf("Failed to store call memory for %s: %v", call.CustomerID, err))
		} else {
			memoriesStored++
		}
	}

	if err := cs.Registry.EndCall(ctx, callSid, summary, memoriesStored); err != nil {
		cs.Logger.Error(fmt.Sprintf("Failed to end call %s: %v", callSid, err))
	}
}

// TrackCall seeds the registry record for a call this system initiated.
func (cs *CallService) TrackCall(ctx context.Context, callID, customerID, customerPhone, direction, status string) error {
	callStatus := entities.CallStatusRinging
	if status == "in-progress" {
		callStatus = entities.CallStatusInProgress
	}
	return cs.Registry.SetActiveCall(ctx, entities.LiveCall{
		ID:            callID,
		CustomerID:    customerID,
		CustomerPhone: customerPhone,
		Direction:     direction,
		Status:        callStatus,
		StartTime:     time.Now(),
		Transcript:    []entities.TranscriptEntry{},
	})
}

// GenerateSummary derives a fallback summary from the first ~50 words of
// customer utterances when the provider supplied none.
func GenerateSummary(transcript []dto.TranscriptEvent) string {
	if len(transcript) == 0 {
		return "Voice call completed"
	}

	var words []string
	for _, entry := range transcript {
		if normalizeRole(entry.Role) != entities.RoleCustomer {
			continue
		}
		words = append(words, strings.Fields(entry.Message())...)
	}
	if len(words) == 0 {
		return "Brief call."
	}
	if len(words) > 50 {
		words = words[:50]
	}
	return "Customer discussed: " + strings.Join(words, " ") + "..."
}

// ExtractKeyPoints pulls up to five noteworthy customer sentences:
// trouble keywords become issue entries, desire keywords become
// preference entries.
func ExtractKeyPoints(transcript []dto.TranscriptEvent) []string {
	points := []string{}
	for _, entry := range transcript {
		if normalizeRole(entry.Role) != entities.RoleCustomer {
			continue
		}
		text := entry.Message()
		lower := strings.ToLower(text)

		if strings.Contains(lower, "problem") || strings.Contains(lower, "issue") || strings.Contains(lower, "not working") {
			points = append(points, "Issue reported: "+text)
		}
		if strings.Contains(lower, "prefer") || strings.Contains(lower, "like") || strings.Contains(lower, "want") {
			points = append(points, "Preference: "+text)
		}
	}
	if len(points) > 5 {
		points = points[:5]
	}
	return points
}

func normalizeRole(role string) string {
	if role == "assistant" || role == "agent" || role == "bot" {
		return entities.RoleAgent
	}
	return entities.RoleCustomer
}

func success() map[string]any {
	return map[string]any{"success": true}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
