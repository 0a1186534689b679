// Package zoom provisions meetings through the Zoom server-to-server OAuth API.
package zoom

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/trustedge/integrations/config"
	"github.com/trustedge/integrations/internal/core"
	"github.com/trustedge/integrations/internal/data"
	apperrors "github.com/trustedge/integrations/internal/errors"
)

const (
	defaultOAuthBaseURL = "https://zoom.us"
	defaultAPIBaseURL   = "https://api.zoom.us/v2"

	// meetingTypeScheduled is Zoom's type for a one-off scheduled meeting.
	meetingTypeScheduled = 2

	tokenCacheKey = "zoom:s2s"
)

// Config configures a Zoom client.
type Config struct {
	Zoom config.ZoomConfig
	// OAuthBaseURL and APIBaseURL override the Zoom endpoints in tests.
	OAuthBaseURL string
	APIBaseURL   string
	Client       *http.Client
	TokenCache   core.TokenCache
	TimeProvider data.TimeProvider
}

// Client implements core.MeetingProvider against the Zoom REST API.
type Client struct {
	cfg          config.ZoomConfig
	oauthBaseURL string
	apiBaseURL   string
	client       *http.Client
	tokens       core.TokenCache
	timeProvider data.TimeProvider
}

// NewClient builds a Zoom client. The token cache is required; credentials
// may be absent, in which case Configured reports false and CreateMeeting
// returns a config error.
func NewClient(cfg Config) (*Client, error) {
	if cfg.TokenCache == nil {
		return nil, errors.New("token cache is required")
	}

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &data.RealTimeProvider{}
	}

	return &Client{
		cfg:          cfg.Zoom,
		oauthBaseURL: fallback(cfg.OAuthBaseURL, defaultOAuthBaseURL),
		apiBaseURL:   fallback(cfg.APIBaseURL, defaultAPIBaseURL),
		client:       hc,
		tokens:       cfg.TokenCache,
		timeProvider: tp,
	}, nil
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}

// Configured reports whether the server-to-server credentials are present.
func (c *Client) Configured() bool {
	return c.cfg.Configured()
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *Client) fetchToken(ctx context.Context) (string, time.Time, error) {
	endpoint := fmt.Sprintf("%s/oauth/token?grant_type=account_credentials&account_id=%s",
		c.oauthBaseURL, url.QueryEscape(c.cfg.AccountID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("create zoom token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("zoom token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", time.Time{}, fmt.Errorf("zoom token %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", time.Time{}, fmt.Errorf("decode zoom token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", time.Time{}, errors.New("zoom token response missing access_token")
	}

	expiresAt := c.timeProvider.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	return tr.AccessToken, expiresAt, nil
}

type createMeetingRequest struct {
	Topic     string          `json:"topic"`
	Type      int             `json:"type"`
	StartTime string          `json:"start_time"`
	Duration  int             `json:"duration"`
	Timezone  string          `json:"timezone"`
	Agenda    string          `json:"agenda,omitempty"`
	Settings  meetingSettings `json:"settings"`
}

type meetingSettings struct {
	JoinBeforeHost bool `json:"join_before_host"`
	WaitingRoom    bool `json:"waiting_room"`
}

type createMeetingResponse struct {
	ID       int64  `json:"id"`
	JoinURL  string `json:"join_url"`
	StartURL string `json:"start_url"`
}

// CreateMeeting provisions a scheduled meeting under the configured user.
func (c *Client) CreateMeeting(ctx context.Context, req core.MeetingRequest) (*core.MeetingResult, error) {
	if !c.Configured() {
		return nil, apperrors.Config("zoom credentials are not configured")
	}

	token, err := c.tokens.Get(ctx, tokenCacheKey, c.fetchToken)
	if err != nil {
		return nil, fmt.Errorf("obtain zoom token: %w", err)
	}

	payload := createMeetingRequest{
		Topic:     req.Topic,
		Type:      meetingTypeScheduled,
		StartTime: req.StartTime.UTC().Format("2006-01-02T15:04:05Z"),
		Duration:  req.DurationMinutes,
		Timezone:  req.Timezone,
		Agenda:    req.Agenda,
		Settings: meetingSettings{
			JoinBeforeHost: false,
			WaitingRoom:    true,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode zoom meeting payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/users/%s/meetings", c.apiBaseURL, url.PathEscape(c.cfg.UserID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create zoom meeting request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("zoom meeting request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("zoom create meeting %s: %s", resp.Status, strings.TrimSpace(string(errBody)))
	}

	var created createMeetingResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decode zoom meeting response: %w", err)
	}
	if created.ID == 0 || created.JoinURL == "" {
		return nil, errors.New("zoom meeting response missing id or join_url")
	}

	return &core.MeetingResult{
		MeetingID: strconv.FormatInt(created.ID, 10),
		JoinURL:   created.JoinURL,
		StartURL:  created.StartURL,
	}, nil
}

var _ core.MeetingProvider = (*Client)(nil)
