package dto

import "encoding/json"

// Provider event types the dispatcher understands. Anything else is
// acknowledged and ignored: providers evolve their event schema
// independently of this consumer.
const (
	EventAssistantRequest = "assistant-request"
	EventFunctionCall     = "function-call"
	EventStatusUpdate     = "status-update"
	EventTranscript       = "transcript"
	EventSpeechUpdate     = "speech-update"
	EventConversation     = "conversation-update"
	EventEndOfCallReport  = "end-of-call-report"
	EventHang             = "hang"
)

// WebhookEnvelope is the raw provider event. The payload shape varies per
// type and between provider versions, so every accessor falls back across
// the known field paths (message.call vs top-level call, call.id vs
// message.callId) instead of trusting a single one.
type WebhookEnvelope struct {
	Message      *WebhookMessage   `json:"message,omitempty"`
	Call         *CallInfo         `json:"call,omitempty"`
	Status       string            `json:"status,omitempty"`
	Transcript   TranscriptPayload `json:"transcript,omitempty"`
	Summary      string            `json:"summary,omitempty"`
	Conversation []ChatMessage     `json:"conversation,omitempty"`
	FunctionCall *FunctionCall     `json:"functionCall,omitempty"`
}

type WebhookMessage struct {
	Type         string            `json:"type"`
	Call         *CallInfo         `json:"call,omitempty"`
	CallID       string            `json:"callId,omitempty"`
	Status       string            `json:"status,omitempty"`
	Role         string            `json:"role,omitempty"`
	Transcript   TranscriptPayload `json:"transcript,omitempty"`
	Conversation []ChatMessage     `json:"conversation,omitempty"`
	Summary      string            `json:"summary,omitempty"`
	Analysis     *CallAnalysis     `json:"analysis,omitempty"`
	Artifact     *CallArtifact     `json:"artifact,omitempty"`
}

type CallInfo struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	AssistantID string            `json:"assistantId,omitempty"`
	Customer    *CustomerInfo     `json:"customer,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type CustomerInfo struct {
	Number string `json:"number"`
	Name   string `json:"name,omitempty"`
}

type CallAnalysis struct {
	Summary string `json:"summary,omitempty"`
}

type CallArtifact struct {
	Transcript TranscriptPayload `json:"transcript,omitempty"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type FunctionCall struct {
	Name       string            `json:"name"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// TranscriptEvent is one transcript fragment as delivered by the provider.
// Text may arrive under "text" or "content" depending on the event type.
type TranscriptEvent struct {
	Role    string `json:"role"`
	Text    string `json:"text"`
	Content string `json:"content"`
}

// Message returns t.Text, falling back to t.Content.
func (t TranscriptEvent) Message() string {
	if t.Text != "" {
		return t.Text
	}
	return t.Content
}

// TranscriptPayload absorbs the three shapes providers deliver transcripts
// in: an array of entries, a single entry object, or a plain string. An
// unparsable payload decodes to empty rather than failing the event.
type TranscriptPayload struct {
	Entries []TranscriptEvent
}

func (p *TranscriptPayload) UnmarshalJSON(data []byte) error {
	var entries []TranscriptEvent
	if err := json.Unmarshal(data, &entries); err == nil {
		p.Entries = entries
		return nil
	}

	var single TranscriptEvent
	if err := json.Unmarshal(data, &single); err == nil {
		p.Entries = []TranscriptEvent{single}
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil && text != "" {
		p.Entries = []TranscriptEvent{{Role: "user", Text: text}}
	}
	return nil
}

func (p TranscriptPayload) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Entries)
}

// Latest returns the most recent transcript entry, if any.
func (p TranscriptPayload) Latest() (TranscriptEvent, bool) {
	if len(p.Entries) == 0 {
		return TranscriptEvent{}, false
	}
	return p.Entries[len(p.Entries)-1], true
}

// Type returns the event discriminator.
func (e *WebhookEnvelope) Type() string {
	if e.Message != nil {
		return e.Message.Type
	}
	return ""
}

// CallData returns call details from message.call, falling back to the
// top-level call object.
func (e *WebhookEnvelope) CallData() *CallInfo {
	if e.Message != nil && e.Message.Call != nil {
		return e.Message.Call
	}
	return e.Call
}

// CallID returns the call identifier from call.id, falling back to
// message.callId.
func (e *WebhookEnvelope) CallID() string {
	if call := e.CallData(); call != nil && call.ID != "" {
		return call.ID
	}
	if e.Message != nil {
		return e.Message.CallID
	}
	return ""
}

// CallStatus returns the status from the message, falling back to the
// top level.
func (e *WebhookEnvelope) CallStatus() string {
	if e.Message != nil && e.Message.Status != "" {
		return e.Message.Status
	}
	return e.Status
}

// TranscriptData returns transcript entries from the message, the top
// level, or the end-of-call artifact, in that order.
func (e *WebhookEnvelope) TranscriptData() []TranscriptEvent {
	if e.Message != nil && len(e.Message.Transcript.Entries) > 0 {
		return e.Message.Transcript.Entries
	}
	if len(e.Transcript.Entries) > 0 {
		return e.Transcript.Entries
	}
	if e.Message != nil && e.Message.Artifact != nil {
		return e.Message.Artifact.Transcript.Entries
	}
	return nil
}

// SummaryText returns the provider-computed summary from the message, the
// top level, or the analysis block, in that order.
func (e *WebhookEnvelope) SummaryText() string {
	if e.Message != nil && e.Message.Summary != "" {
		return e.Message.Summary
	}
	if e.Summary != "" {
		return e.Summary
	}
	if e.Message != nil && e.Message.Analysis != nil {
		return e.Message.Analysis.Summary
	}
	return ""
}

// ConversationData returns the running conversation from the message,
// falling back to the top level.
func (e *WebhookEnvelope) ConversationData() []ChatMessage {
	if e.Message != nil && len(e.Message.Conversation) > 0 {
		return e.Message.Conversation
	}
	return e.Conversation
}
