// Package resendmail sends transactional email through the Resend API.
package resendmail

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

	"github.com/trustedge/integrations/config"
	"github.com/trustedge/integrations/internal/core"
	apperrors "github.com/trustedge/integrations/internal/errors"
)

const defaultBaseURL = "https://api.resend.com"

// Config configures a Resend client.
type Config struct {
	Email config.EmailConfig
	// BaseURL overrides the API endpoint in tests.
	BaseURL string
	Client  *http.Client
}

// Client implements core.EmailProvider against the Resend REST API.
type Client struct {
	cfg     config.EmailConfig
	baseURL string
	client  *http.Client
}

// NewClient builds a Resend client.
func NewClient(cfg Config) *Client {
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{
		cfg:     cfg.Email,
		baseURL: strings.TrimRight(base, "/"),
		client:  hc,
	}
}

// Configured reports whether the API key and sender address are present.
func (c *Client) Configured() bool {
	return c.cfg.Configured()
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

// Send delivers one plain-text email. An empty From falls back to the
// configured sender.
func (c *Client) Send(ctx context.Context, msg core.EmailMessage) error {
	if !c.Configured() {
		return apperrors.Config("resend email is not configured")
	}
	if msg.To == "" {
		return errors.New("recipient address is required")
	}

	from := msg.From
	if from == "" {
		from = c.cfg.From
	}

	body, err := json.Marshal(sendRequest{
		From:    from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("encode email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.ResendAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("email request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("resend send %s: %s", resp.Status, strings.TrimSpace(string(errBody)))
	}
	return nil
}

var _ core.EmailProvider = (*Client)(nil)
