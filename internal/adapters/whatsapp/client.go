// Package whatsapp integrates with the WhatsApp Cloud API for outbound
// template messages and inbound media.
package whatsapp

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

const defaultGraphBaseURL = "https://graph.facebook.com/v20.0"

// maxMediaBytes caps downloads so one oversized media object cannot exhaust
// memory.
const maxMediaBytes = 64 << 20

// Config configures a WhatsApp client.
type Config struct {
	WhatsApp config.WhatsAppConfig
	// GraphBaseURL overrides the Graph API endpoint in tests.
	GraphBaseURL string
	Client       *http.Client
}

// Client implements core.MessagingProvider against the Graph API.
type Client struct {
	cfg          config.WhatsAppConfig
	graphBaseURL string
	client       *http.Client
}

// NewClient builds a WhatsApp Cloud API client.
func NewClient(cfg Config) *Client {
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	base := strings.TrimSpace(cfg.GraphBaseURL)
	if base == "" {
		base = defaultGraphBaseURL
	}
	return &Client{
		cfg:          cfg.WhatsApp,
		graphBaseURL: strings.TrimRight(base, "/"),
		client:       hc,
	}
}

// ConfiguredForOutbound reports whether template sends are possible.
func (c *Client) ConfiguredForOutbound() bool {
	return c.cfg.ConfiguredForOutbound()
}

type mediaMetadataResponse struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
}

// GetMediaMetadata resolves a media id to its download URL and MIME type. The
// URL is short-lived and must be fetched with the same access token.
func (c *Client) GetMediaMetadata(ctx context.Context, mediaID string) (*core.MediaMetadata, error) {
	if c.cfg.AccessToken == "" {
		return nil, apperrors.Config("whatsapp access token is not configured")
	}
	if mediaID == "" {
		return nil, errors.New("media id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.graphBaseURL+"/"+mediaID, nil)
	if err != nil {
		return nil, fmt.Errorf("create media metadata request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("media metadata request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("media metadata %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var meta mediaMetadataResponse
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decode media metadata: %w", err)
	}
	if meta.URL == "" {
		return nil, errors.New("media metadata missing url")
	}

	return &core.MediaMetadata{URL: meta.URL, MimeType: meta.MimeType, FileSize: meta.FileSize}, nil
}

// DownloadMedia fetches the binary content behind a media URL obtained from
// GetMediaMetadata.
func (c *Client) DownloadMedia(ctx context.Context, url string) (*core.MediaDownload, error) {
	if c.cfg.AccessToken == "" {
		return nil, apperrors.Config("whatsapp access token is not configured")
	}
	if url == "" {
		return nil, errors.New("media url is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create media download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("media download request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("media download %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read media content: %w", err)
	}
	if len(data) > maxMediaBytes {
		return nil, fmt.Errorf("media exceeds %d byte limit", maxMediaBytes)
	}

	return &core.MediaDownload{Data: data, MimeType: resp.Header.Get("Content-Type")}, nil
}

type templateSendRequest struct {
	MessagingProduct string          `json:"messaging_product"`
	To               string          `json:"to"`
	Type             string          `json:"type"`
	Template         templatePayload `json:"template"`
}

type templatePayload struct {
	Name       string              `json:"name"`
	Language   templateLanguage    `json:"language"`
	Components []templateComponent `json:"components,omitempty"`
}

type templateLanguage struct {
	Code string `json:"code"`
}

type templateComponent struct {
	Type       string              `json:"type"`
	Parameters []templateParameter `json:"parameters"`
}

type templateParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SendTemplateMessage sends the configured template to a phone number, with
// the given parameters filling the body placeholders in order.
func (c *Client) SendTemplateMessage(ctx context.Context, msg core.TemplateMessage) error {
	if !c.ConfiguredForOutbound() {
		return apperrors.Config("whatsapp outbound messaging is not configured")
	}
	if msg.ToPhone == "" {
		return errors.New("recipient phone is required")
	}

	payload := templateSendRequest{
		MessagingProduct: "whatsapp",
		To:               msg.ToPhone,
		Type:             "template",
		Template: templatePayload{
			Name:     c.cfg.TemplateName,
			Language: templateLanguage{Code: c.cfg.TemplateLanguage},
		},
	}
	if len(msg.Params) > 0 {
		params := make([]templateParameter, 0, len(msg.Params))
		for _, p := range msg.Params {
			params = append(params, templateParameter{Type: "text", Text: p})
		}
		payload.Template.Components = []templateComponent{{Type: "body", Parameters: params}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode template payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/messages", c.graphBaseURL, c.cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create template send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("template send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("template send %s: %s", resp.Status, strings.TrimSpace(string(errBody)))
	}
	return nil
}

var _ core.MessagingProvider = (*Client)(nil)
