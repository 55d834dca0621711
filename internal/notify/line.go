// ABOUTME: Push delivery of report text through the LINE Messaging API.
// ABOUTME: Failures surface as DeliveryError and never touch persisted state.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// DefaultBaseURL is the LINE Messaging API root.
const DefaultBaseURL = "https://api.line.me"

// MaxTextRunes is the longest text message LINE accepts.
const MaxTextRunes = 5000

// DefaultTimeout bounds a single push.
const DefaultTimeout = 10 * time.Second

// Notifier delivers a formatted report.
type Notifier interface {
	Send(ctx context.Context, text string) error
	Enabled() bool
}

// DeliveryError describes a failed push.
type DeliveryError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("push message: %v", e.Err)
	}
	return fmt.Sprintf("push message: status %d: %s", e.StatusCode, e.Body)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// LineClient pushes text messages to one recipient.
type LineClient struct {
	httpClient *http.Client
	baseURL    string
	to         string
}

// NewLineClient creates a client authenticated with a channel access token.
func NewLineClient(token, to, baseURL string, timeout time.Duration) *LineClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	hc.Timeout = timeout
	return &LineClient{httpClient: hc, baseURL: baseURL, to: to}
}

// Enabled is always true for a configured client.
func (c *LineClient) Enabled() bool {
	return true
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []textMessage `json:"messages"`
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Send pushes text, truncated to MaxTextRunes.
func (c *LineClient) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(pushRequest{
		To:       c.to,
		Messages: []textMessage{{Type: "text", Text: Truncate(text, MaxTextRunes)}},
	})
	if err != nil {
		return &DeliveryError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/bot/message/push", bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &DeliveryError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &DeliveryError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}
	return nil
}

// Truncate cuts s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

// Disabled drops every message.
type Disabled struct{}

// Send does nothing.
func (Disabled) Send(context.Context, string) error { return nil }

// Enabled is false.
func (Disabled) Enabled() bool { return false }
