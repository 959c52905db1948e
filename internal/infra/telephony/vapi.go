package telephony

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"agent-suite/internal/domain/dto"
	Iservices "agent-suite/internal/domain/interfaces/services"
	"agent-suite/internal/infra/logger"
)

// VapiClient drives the voice-AI provider's REST API: assistant
// management and phone-call control. Webhooks flow the other way and are
// handled by the call service.
type VapiClient struct {
	BaseURL       string
	APIKey        string
	AssistantID   string
	PhoneNumberID string
	ServerURL     string
	HttpClient    *http.Client
	Logger        *logger.Logger
}

func NewVapiClient(baseURL, apiKey, assistantID, phoneNumberID, serverURL string, httpClient *http.Client, log *logger.Logger) *VapiClient {
	return &VapiClient{
		BaseURL:       baseURL,
		APIKey:        apiKey,
		AssistantID:   assistantID,
		PhoneNumberID: phoneNumberID,
		ServerURL:     serverURL,
		HttpClient:    httpClient,
		Logger:        log,
	}
}

// StartOutboundCall places a call to phoneNumber with the customer's
// identity attached as assistant metadata, so later webhook events can be
// scoped back to the customer.
func (c *VapiClient) StartOutboundCall(ctx context.Context, phoneNumber string, customerID string, req dto.OutboundCallRequest) (Iservices.OutboundCall, error) {
	assistantID, err := c.ensureAssistant(ctx)
	if err != nil {
		return Iservices.OutboundCall{}, err
	}

	firstMessage := "Hello! This is TechCorp support. How can I help you today?"
	if req.CustomerName != "" {
		firstMessage = fmt.Sprintf("Hello %s! This is TechCorp support calling about your recent inquiry. How can I help you today?", firstName(req.CustomerName))
	}

	payload := map[string]any{
		"assistantId":   assistantID,
		"phoneNumberId": c.PhoneNumberID,
		"customer": map[string]any{
			"number": phoneNumber,
			"name":   req.CustomerName,
		},
		"assistantOverrides": map[string]any{
			"metadata": map[string]string{
				"customerId":    customerID,
				"customerName":  req.CustomerName,
				"customerEmail": req.CustomerEmail,
				"ticketId":      req.TicketID,
				"ticketSubject": req.TicketSubject,
			},
			"firstMessage": firstMessage,
		},
	}

	var call Iservices.OutboundCall
	if err := c.do(ctx, http.MethodPost, "/call/phone", payload, &call); err != nil {
		return Iservices.OutboundCall{}, err
	}
	return call, nil
}

// ListCalls returns the provider's most recent calls.
func (c *VapiClient) ListCalls(ctx context.Context, limit int) ([]Iservices.OutboundCall, error) {
	var calls []struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		Customer *struct {
			Number string `json:"number"`
		} `json:"customer"`
		StartedAt string `json:"startedAt"`
		EndedAt   string `json:"endedAt"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/call?limit=%d", limit), nil, &calls); err != nil {
		return nil, err
	}

	out := make([]Iservices.OutboundCall, 0, len(calls))
	for _, call := range calls {
		item := Iservices.OutboundCall{
			ID:        call.ID,
			Status:    call.Status,
			StartedAt: call.StartedAt,
			EndedAt:   call.EndedAt,
		}
		if call.Customer != nil {
			item.Customer = call.Customer.Number
		}
		out = append(out, item)
	}
	return out, nil
}

// EndCall asks the provider to hang up an in-progress call.
func (c *VapiClient) EndCall(ctx context.Context, callID string) error {
	return c.do(ctx, http.MethodDelete, "/call/"+callID, nil, nil)
}

// ensureAssistant returns the configured assistant id, creating a support
// assistant on first use when none is configured.
func (c *VapiClient) ensureAssistant(ctx context.Context) (string, error) {
	if c.AssistantID != "" {
		return c.AssistantID, nil
	}

	payload := map[string]any{
		"name": "TechCorp Support Agent",
		"model": map[string]any{
			"provider":     "openai",
			"model":        "gpt-4o-mini",
			"systemPrompt": supportAssistantPrompt,
			"temperature":  0.7,
		},
		"voice": map[string]any{
			"provider": "11labs",
			"voiceId":  "rachel",
		},
		"firstMessage": "Hello! Welcome to TechCorp support. How can I help you today?",
		"serverUrl":    c.ServerURL,
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/assistant", payload, &created); err != nil {
		return "", err
	}

	c.Logger.Info(fmt.Sprintf("Created voice assistant %s", created.ID))
	c.AssistantID = created.ID
	return created.ID, nil
}

const supportAssistantPrompt = `You are a friendly and helpful customer support agent for TechCorp.

Your role is to:
1. Greet customers warmly
2. Listen to their issues carefully
3. Provide helpful solutions
4. Be patient and professional

Keep responses concise (2-3 sentences) since this is a phone conversation.
Speak naturally and conversationally.`

func (c *VapiClient) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HttpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(res.Body)
		return fmt.Errorf("unexpected provider status %s: %s", res.Status, string(raw))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func firstName(full string) string {
	for i, r := range full {
		if r == ' ' {
			return full[:i]
		}
	}
	return full
}
