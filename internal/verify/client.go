package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spec-kit/phone-auth/internal/config"
)

// Provider status values this service cares about. Any other value is
// treated uniformly as a failure by the caller.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
)

// Outcome is the transient result of one challenge operation. It is consumed
// immediately by the calling workflow and never stored.
type Outcome struct {
	Status string
	Raw    map[string]any
}

// Accepted reports whether a send request was taken by the provider.
func (o Outcome) Accepted() bool {
	return o.Status == StatusPending || o.Status == StatusApproved
}

// Approved reports whether a code check passed.
func (o Outcome) Approved() bool {
	return o.Status == StatusApproved
}

// Client issues challenge requests against a Twilio-Verify-shaped REST API.
type Client struct {
	accountSID string
	authToken  string
	serviceSID string
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a gateway client from config.
func NewClient(cfg config.VerifyConfig) *Client {
	return &Client{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		serviceSID: cfg.ServiceSID,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout()},
	}
}

// Start requests an SMS challenge for the phone number.
func (c *Client) Start(ctx context.Context, phone string) (Outcome, error) {
	form := url.Values{}
	form.Set("To", phone)
	form.Set("Channel", "sms")
	return c.post(ctx, fmt.Sprintf("%s/Services/%s/Verifications", c.baseURL, c.serviceSID), form)
}

// Check submits a user-entered code for the phone number.
func (c *Client) Check(ctx context.Context, phone, code string) (Outcome, error) {
	form := url.Values{}
	form.Set("To", phone)
	form.Set("Code", code)
	return c.post(ctx, fmt.Sprintf("%s/Services/%s/VerificationCheck", c.baseURL, c.serviceSID), form)
}

func (c *Client) post(ctx context.Context, endpoint string, form url.Values) (Outcome, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Outcome{}, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Outcome{}, fmt.Errorf("verify request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Outcome{}, fmt.Errorf("decode verify response: %w", err)
	}

	status, _ := payload["status"].(string)
	return Outcome{Status: status, Raw: payload}, nil
}
