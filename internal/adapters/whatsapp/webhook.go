package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// VerifySignature checks the X-Hub-Signature-256 header against the raw
// request body using the app secret. The comparison is constant-time.
func VerifySignature(appSecret string, body []byte, header string) bool {
	if appSecret == "" || header == "" {
		return false
	}

	provided, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(provided))
}

// InboundMediaEvent is one media message extracted from a webhook delivery.
type InboundMediaEvent struct {
	MessageID string
	MediaID   string
	MediaType string
	FromPhone string
	Timestamp string
	FileName  string
	MimeType  string
}

// mediaMessageTypes are the message types that carry a media object.
var mediaMessageTypes = map[string]bool{
	"image":    true,
	"document": true,
	"video":    true,
	"audio":    true,
	"sticker":  true,
}

type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []webhookMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type webhookMessage struct {
	ID        string        `json:"id"`
	From      string        `json:"from"`
	Timestamp string        `json:"timestamp"`
	Type      string        `json:"type"`
	Image     *webhookMedia `json:"image"`
	Document  *webhookMedia `json:"document"`
	Video     *webhookMedia `json:"video"`
	Audio     *webhookMedia `json:"audio"`
	Sticker   *webhookMedia `json:"sticker"`
}

type webhookMedia struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Filename string `json:"filename"`
}

func (m webhookMessage) media() *webhookMedia {
	switch m.Type {
	case "image":
		return m.Image
	case "document":
		return m.Document
	case "video":
		return m.Video
	case "audio":
		return m.Audio
	case "sticker":
		return m.Sticker
	default:
		return nil
	}
}

// ExtractInboundMediaEvents parses a webhook body and returns one event per
// media message. Text and status-only deliveries produce no events.
func ExtractInboundMediaEvents(body []byte) ([]InboundMediaEvent, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}

	var events []InboundMediaEvent
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if !mediaMessageTypes[msg.Type] {
					continue
				}
				media := msg.media()
				if media == nil || media.ID == "" || msg.ID == "" {
					continue
				}
				events = append(events, InboundMediaEvent{
					MessageID: msg.ID,
					MediaID:   media.ID,
					MediaType: msg.Type,
					FromPhone: msg.From,
					Timestamp: msg.Timestamp,
					FileName:  media.Filename,
					MimeType:  media.MimeType,
				})
			}
		}
	}
	return events, nil
}
