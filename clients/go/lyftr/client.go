// Package lyftr provides a client for the Lyftr webhook message API.
package lyftr

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is a Lyftr API client.
type Client struct {
	BaseURL    string
	Secret     string
	HTTPClient *http.Client
}

// NewClient creates a new client. The secret is only needed for SendMessage.
func NewClient(baseURL, secret string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	return &Client{
		BaseURL:    baseURL,
		Secret:     secret,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is returned for any response with status >= 400.
type APIError struct {
	StatusCode int
	Message    string
	Details    []FieldError
}

// FieldError describes a rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("lyftr error %d: %s (%s: %s)", e.StatusCode, e.Message, e.Details[0].Field, e.Details[0].Message)
	}
	return fmt.Sprintf("lyftr error %d: %s", e.StatusCode, e.Message)
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// doRequest performs an HTTP request.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte, signed bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if signed {
		req.Header.Set("X-Signature", Sign(c.Secret, body))
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error   string       `json:"error"`
			Details []FieldError `json:"details"`
		}
		_ = json.Unmarshal(respBody, &errResp)
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errResp.Error, Details: errResp.Details}
	}

	return respBody, nil
}

// Message is an inbound message as accepted and returned by the API.
type Message struct {
	MessageID string  `json:"message_id"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Timestamp string  `json:"ts"`
	Text      *string `json:"text,omitempty"`
}

// SendMessage signs and posts a message to /webhook. Duplicates are not an error.
func (c *Client) SendMessage(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = c.doRequest(ctx, http.MethodPost, "/webhook", body, true)
	return err
}

// ListOptions filters a message listing. Zero values are omitted.
type ListOptions struct {
	Limit  int
	Offset int
	From   string
	Since  string
	Query  string
}

// MessagesResponse is one page of messages.
type MessagesResponse struct {
	Data   []Message `json:"data"`
	Total  int       `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

// ListMessages retrieves a page of stored messages.
func (c *Client) ListMessages(ctx context.Context, opts ListOptions) (*MessagesResponse, error) {
	q := url.Values{}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	if opts.From != "" {
		q.Set("from", opts.From)
	}
	if opts.Since != "" {
		q.Set("since", opts.Since)
	}
	if opts.Query != "" {
		q.Set("q", opts.Query)
	}

	path := "/messages"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	respBody, err := c.doRequest(ctx, http.MethodGet, path, nil, false)
	if err != nil {
		return nil, err
	}

	var resp MessagesResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SenderCount is a sender and its message count.
type SenderCount struct {
	From  string `json:"from"`
	Count int64  `json:"count"`
}

// StatsResponse summarizes stored messages.
type StatsResponse struct {
	TotalMessages     int64         `json:"total_messages"`
	SendersCount      int64         `json:"senders_count"`
	MessagesPerSender []SenderCount `json:"messages_per_sender"`
	FirstMessageTS    *string       `json:"first_message_ts"`
	LastMessageTS     *string       `json:"last_message_ts"`
}

// Stats retrieves message statistics.
func (c *Client) Stats(ctx context.Context) (*StatsResponse, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/stats", nil, false)
	if err != nil {
		return nil, err
	}

	var resp StatsResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Check is one readiness check result.
type Check struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the body of the probe endpoints.
type HealthResponse struct {
	Status    string           `json:"status"`
	Version   string           `json:"version,omitempty"`
	Checks    map[string]Check `json:"checks,omitempty"`
	Timestamp string           `json:"timestamp,omitempty"`
}

// Live checks the liveness probe.
func (c *Client) Live(ctx context.Context) (*HealthResponse, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/health/live", nil, false)
	if err != nil {
		return nil, err
	}

	var resp HealthResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ready checks the readiness probe. A 503 is decoded rather than returned as
// an error; callers inspect Status for "ready" or "not_ready".
func (c *Client) Ready(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health/ready", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, err
	}
	return &health, nil
}
