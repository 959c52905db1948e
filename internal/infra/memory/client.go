// Package memory implements the client for the long-term memory
// collaborator. Writes on the call path are best-effort: callers log
// failures and continue, they never retry or surface them upstream.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	Iservices "agent-suite/internal/domain/interfaces/services"
	"agent-suite/internal/infra/logger"
)

type Client struct {
	BaseURL    string
	APIKey     string
	AgentID    string
	HttpClient *http.Client
	Logger     *logger.Logger
}

func NewClient(baseURL, apiKey, agentID string, httpClient *http.Client, log *logger.Logger) *Client {
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		AgentID:    agentID,
		HttpClient: httpClient,
		Logger:     log,
	}
}

func (c *Client) Add(ctx context.Context, content string, userID string, metadata map[string]any) error {
	payload := map[string]any{
		"content":     content,
		"user_id":     userID,
		"memory_type": "observation",
		"metadata":    metadata,
	}
	if c.AgentID != "" {
		payload["agent_id"] = c.AgentID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal memory payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/memories", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create memory request: %w", err)
	}
	c.setHeaders(req)

	res, err := c.HttpClient.Do(req)
	if err != nil {
		return fmt.Errorf("memory request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(res.Body)
		return fmt.Errorf("unexpected memory API status %s: %s", res.Status, string(raw))
	}
	return nil
}

func (c *Client) Search(ctx context.Context, query string, userID string, limit int) ([]Iservices.Memory, error) {
	payload := map[string]any{
		"query":   query,
		"user_id": userID,
		"limit":   limit,
	}
	if c.AgentID != "" {
		payload["agent_id"] = c.AgentID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal search payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/memories/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	c.setHeaders(req)

	res, err := c.HttpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("unexpected memory API status %s: %s", res.Status, string(raw))
	}

	// The API has answered with both "results" and "memories" across
	// versions; accept either.
	var decoded struct {
		Results  []Iservices.Memory `json:"results"`
		Memories []Iservices.Memory `json:"memories"`
	}
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if len(decoded.Results) > 0 {
		return decoded.Results, nil
	}
	return decoded.Memories, nil
}

// BuildCustomerContext renders the customer's history as a numbered list.
// Collaborator failures degrade to fixed phrases so the caller's request
// keeps working without memory context.
func (c *Client) BuildCustomerContext(ctx context.Context, customerID string) string {
	memories, err := c.Search(ctx, "customer support call history", customerID, 10)
	if err != nil {
		c.Logger.Error(fmt.Sprintf("Failed to load customer memories for %s: %v", customerID, err))
		return "Unable to retrieve customer history."
	}
	if len(memories) == 0 {
		return "This is a new customer with no previous interaction history."
	}

	var buf bytes.Buffer
	buf.WriteString("Customer interaction history:\n")
	for i, m := range memories {
		fmt.Fprintf(&buf, "%d. %s (%s)\n", i+1, m.Content, m.CreatedAt.Format("2006-01-02"))
	}
	return buf.String()
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Accept", "application/json")
}
