// Package executor calls the external sandboxed code-execution service.
// Learner code never runs in-process.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"agent-suite/internal/domain/entities"
	"agent-suite/internal/infra/logger"
)

// TestResult is the executor's verdict on one test case.
type TestResult struct {
	Passed      bool   `json:"passed"`
	Input       string `json:"input"`
	Expected    string `json:"expected"`
	Actual      string `json:"actual"`
	Description string `json:"description,omitempty"`
}

// ExecutionResult is the executor's full response. Success means every
// test case passed.
type ExecutionResult struct {
	Success     bool         `json:"success"`
	Output      string       `json:"output,omitempty"`
	Error       string       `json:"error,omitempty"`
	TestResults []TestResult `json:"testResults,omitempty"`
}

type Client struct {
	BaseURL    string
	APIKey     string
	HttpClient *http.Client
	Logger     *logger.Logger
}

func NewClient(baseURL, apiKey string, httpClient *http.Client, log *logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{BaseURL: baseURL, APIKey: apiKey, HttpClient: httpClient, Logger: log}
}

// Execute runs code against the problem's test cases in the remote
// sandbox and returns its verdict.
func (c *Client) Execute(ctx context.Context, code, functionName string, testCases []entities.TestCase) (ExecutionResult, error) {
	payload, err := json.Marshal(map[string]any{
		"code":         code,
		"functionName": functionName,
		"testCases":    testCases,
	})
	if err != nil {
		return ExecutionResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/execute", bytes.NewReader(payload))
	if err != nil {
		return ExecutionResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return ExecutionResult{}, fmt.Errorf("execution service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ExecutionResult{}, fmt.Errorf("execution service returned %d", resp.StatusCode)
	}

	var result ExecutionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return ExecutionResult{}, fmt.Errorf("decode execution result: %w", err)
	}
	return result, nil
}
