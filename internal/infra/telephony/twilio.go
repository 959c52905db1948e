package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"agent-suite/internal/infra/logger"
)

// TwilioClient places outbound calls through the Twilio REST API.
// Inbound call flow is driven by Twilio's webhooks and the TwiML the
// handlers return.
type TwilioClient struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	FromNumber string
	HttpClient *http.Client
	Logger     *logger.Logger
}

func NewTwilioClient(baseURL, accountSID, authToken, fromNumber string, httpClient *http.Client, log *logger.Logger) *TwilioClient {
	return &TwilioClient{
		BaseURL:    baseURL,
		AccountSID: accountSID,
		AuthToken:  authToken,
		FromNumber: fromNumber,
		HttpClient: httpClient,
		Logger:     log,
	}
}

// CreateCall starts an outbound call that fetches its TwiML from
// webhookURL. Returns the provider call SID.
func (c *TwilioClient) CreateCall(ctx context.Context, toNumber, webhookURL string) (string, error) {
	form := url.Values{}
	form.Set("To", toNumber)
	form.Set("From", c.FromNumber)
	form.Set("Url", webhookURL)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls.json", c.BaseURL, c.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.AccountSID, c.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.HttpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("unexpected provider status %s: %s", res.Status, string(raw))
	}

	var created struct {
		Sid string `json:"sid"`
	}
	if err := json.NewDecoder(res.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return created.Sid, nil
}

// NormalizePhoneNumber converts user input into an E.164-like form:
// non-digit characters are stripped, a bare 10-digit number is assumed US
// and prefixed with +1, and an 11-digit number starting with 1 gains a +.
func NormalizePhoneNumber(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	cleaned := digits.String()

	if strings.HasPrefix(phone, "+") {
		return "+" + cleaned
	}
	if len(cleaned) == 10 {
		return "+1" + cleaned
	}
	if len(cleaned) == 11 && strings.HasPrefix(cleaned, "1") {
		return "+" + cleaned
	}
	return "+" + cleaned
}
