package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustedge/integrations/config"
	"github.com/trustedge/integrations/internal/core"
)

func outboundCfg() config.WhatsAppConfig {
	return config.WhatsAppConfig{
		AccessToken:      "wa-token",
		PhoneNumberID:    "123456",
		TemplateName:     "booking_confirmation",
		TemplateLanguage: "en_US",
	}
}

func TestGetMediaMetadata(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves the media url", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/media-1", r.URL.Path)
			assert.Equal(t, "Bearer wa-token", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"url":       srvURL(r) + "/download/media-1",
				"mime_type": "image/jpeg",
				"file_size": 2048,
			})
		}))
		defer srv.Close()

		c := NewClient(Config{WhatsApp: outboundCfg(), GraphBaseURL: srv.URL})
		meta, err := c.GetMediaMetadata(ctx, "media-1")
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", meta.MimeType)
		assert.Equal(t, int64(2048), meta.FileSize)
		assert.Contains(t, meta.URL, "/download/media-1")
	})

	t.Run("missing token is a config error", func(t *testing.T) {
		c := NewClient(Config{WhatsApp: config.WhatsAppConfig{}})
		_, err := c.GetMediaMetadata(ctx, "media-1")
		require.Error(t, err)
	})

	t.Run("provider error status is surfaced", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":{"message":"media not found"}}`, http.StatusNotFound)
		}))
		defer srv.Close()

		c := NewClient(Config{WhatsApp: outboundCfg(), GraphBaseURL: srv.URL})
		_, err := c.GetMediaMetadata(ctx, "media-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "media not found")
	})

	t.Run("response without url errors", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"mime_type": "image/jpeg"})
		}))
		defer srv.Close()

		c := NewClient(Config{WhatsApp: outboundCfg(), GraphBaseURL: srv.URL})
		_, err := c.GetMediaMetadata(ctx, "media-1")
		require.Error(t, err)
	})
}

// srvURL reconstructs the test server's base URL from the inbound request.
func srvURL(r *http.Request) string {
	return "http://" + r.Host
}

func TestDownloadMedia(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches the bytes with the access token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer wa-token", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF-1.7"))
		}))
		defer srv.Close()

		c := NewClient(Config{WhatsApp: outboundCfg()})
		download, err := c.DownloadMedia(ctx, srv.URL+"/d/media-1")
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.7"), download.Data)
		assert.Equal(t, "application/pdf", download.MimeType)
	})

	t.Run("empty url errors", func(t *testing.T) {
		c := NewClient(Config{WhatsApp: outboundCfg()})
		_, err := c.DownloadMedia(ctx, "")
		require.Error(t, err)
	})
}

func TestSendTemplateMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("posts the template with body parameters", func(t *testing.T) {
		var got templateSendRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/123456/messages", r.URL.Path)
			assert.Equal(t, "Bearer wa-token", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_ = json.NewEncoder(w).Encode(map[string]any{"messages": []any{map[string]string{"id": "wamid.out"}}})
		}))
		defer srv.Close()

		c := NewClient(Config{WhatsApp: outboundCfg(), GraphBaseURL: srv.URL})
		err := c.SendTemplateMessage(ctx, core.TemplateMessage{
			ToPhone: "14155550134",
			Params:  []string{"Dana", "Tuesday, March 10, 2026 at 3:30 PM"},
		})
		require.NoError(t, err)

		assert.Equal(t, "whatsapp", got.MessagingProduct)
		assert.Equal(t, "14155550134", got.To)
		assert.Equal(t, "template", got.Type)
		assert.Equal(t, "booking_confirmation", got.Template.Name)
		assert.Equal(t, "en_US", got.Template.Language.Code)
		require.Len(t, got.Template.Components, 1)
		require.Len(t, got.Template.Components[0].Parameters, 2)
		assert.Equal(t, "Dana", got.Template.Components[0].Parameters[0].Text)
	})

	t.Run("unconfigured outbound is a config error", func(t *testing.T) {
		c := NewClient(Config{WhatsApp: config.WhatsAppConfig{AccessToken: "wa-token"}})
		err := c.SendTemplateMessage(ctx, core.TemplateMessage{ToPhone: "14155550134"})
		require.Error(t, err)
	})

	t.Run("graph error status is surfaced", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":{"message":"template not approved"}}`, http.StatusBadRequest)
		}))
		defer srv.Close()

		c := NewClient(Config{WhatsApp: outboundCfg(), GraphBaseURL: srv.URL})
		err := c.SendTemplateMessage(ctx, core.TemplateMessage{ToPhone: "14155550134"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "template not approved")
	})
}
