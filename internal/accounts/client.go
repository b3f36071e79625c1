package accounts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spec-kit/phone-auth/internal/config"
)

// ErrNoUserID reports an account creation response without a usable identifier.
var ErrNoUserID = errors.New("account store returned no user id")

// Client talks to the external account store's admin user API. The store owns
// auth accounts; this service only creates and deletes them around signup.
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

// NewClient builds an account store client from config.
func NewClient(cfg config.AccountsConfig) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		serviceKey: cfg.ServiceKey,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
	}
}

type createUserRequest struct {
	Phone        string            `json:"phone"`
	PhoneConfirm bool              `json:"phone_confirm"`
	UserMetadata map[string]string `json:"user_metadata"`
}

type createUserResponse struct {
	ID   string `json:"id"`
	User *struct {
		ID string `json:"id"`
	} `json:"user"`
}

// CreateUser provisions an auth account with the phone pre-confirmed and
// returns the new account id.
func (c *Client) CreateUser(ctx context.Context, phone, name string) (string, error) {
	body, err := json.Marshal(createUserRequest{
		Phone:        phone,
		PhoneConfirm: true,
		UserMetadata: map[string]string{"name": name},
	})
	if err != nil {
		return "", fmt.Errorf("encode create user request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/admin/users", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build create user request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("create user request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("create user: account store returned %d", resp.StatusCode)
	}

	var payload createUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode create user response: %w", err)
	}

	id := payload.ID
	if id == "" && payload.User != nil {
		id = payload.User.ID
	}
	if id == "" {
		return "", ErrNoUserID
	}
	return id, nil
}

// DeleteUser removes an auth account. Used only as the compensating step when
// the profile insert fails after account creation.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/admin/users/"+id, nil)
	if err != nil {
		return fmt.Errorf("build delete user request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete user request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("delete user: account store returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)
}
