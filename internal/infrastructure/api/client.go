package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"marketplace/internal/domain/message"
	"marketplace/internal/domain/user"
)

const (
	defaultTimeout = 15 * time.Second
	userPath       = "/user"
	authorizePath  = "/user/authorize"
	messagesPath   = "/messages"
	maxErrorBody   = 4 << 10
)

var ErrUnexpectedStatus = errors.New("unexpected API status")

// StatusError is returned for non-2xx API responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// Client talks to the backend that owns users, messages and the payment
// provider integration.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

var (
	_ user.API    = (*Client)(nil)
	_ message.API = (*Client)(nil)
)

// NewClient creates a new backend API client
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

type urlResponse struct {
	URL string `json:"url"`
}

type submitRequest struct {
	Text        string `json:"text"`
	Marketplace string `json:"marketplace"`
}

// Fetch returns the current user.
func (c *Client) Fetch(ctx context.Context) (*user.User, error) {
	var u user.User
	if err := c.do(ctx, http.MethodGet, userPath, nil, &u); err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	return &u, nil
}

// Authorize returns the payment provider authorization URL. An empty URL is
// not an error; only the disconnected page renders it.
func (c *Client) Authorize(ctx context.Context) (string, error) {
	var resp urlResponse
	if err := c.do(ctx, http.MethodGet, authorizePath, nil, &resp); err != nil {
		return "", fmt.Errorf("authorize: %w", err)
	}
	return resp.URL, nil
}

// List returns all messages in API order.
func (c *Client) List(ctx context.Context) ([]message.Message, error) {
	var messages []message.Message
	if err := c.do(ctx, http.MethodGet, messagesPath, nil, &messages); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// Submit creates a payment preference for text and returns its checkout URL.
func (c *Client) Submit(ctx context.Context, text, marketplaceID string) (string, error) {
	var resp urlResponse
	body := submitRequest{Text: text, Marketplace: marketplaceID}
	if err := c.do(ctx, http.MethodPost, messagesPath, body, &resp); err != nil {
		return "", fmt.Errorf("submit message: %w", err)
	}
	if resp.URL == "" {
		return "", errors.New("submit message: empty url in response")
	}
	return resp.URL, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
