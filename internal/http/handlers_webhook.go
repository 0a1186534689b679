package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/trustedge/integrations/internal/adapters/whatsapp"
	"github.com/trustedge/integrations/internal/domain/model"
	"github.com/trustedge/integrations/internal/service"
)

// maxWebhookBodyBytes bounds webhook payloads; real deliveries are far
// smaller.
const maxWebhookBodyBytes = 1 << 20

// handleWebhookVerify answers the provider's subscription handshake by
// echoing hub.challenge when the verify token matches.
func (s *Server) handleWebhookVerify(w http.ResponseWriter, r *http.Request) {
	if s.waCfg.WebhookVerifyToken == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusServiceUnavailable,
			ErrCode: "not_configured",
			Err:     errors.New("webhook verify token is not configured"),
		})
		return
	}

	q := r.URL.Query()
	if q.Get("hub.mode") != "subscribe" ||
		q.Get("hub.verify_token") != s.waCfg.WebhookVerifyToken {
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "verification_failed",
			Err:     errors.New("webhook verification failed"),
		})
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(q.Get("hub.challenge")))
}

type webhookResponse struct {
	OK       bool `json:"ok"`
	Received int  `json:"received"`
	Queued   int  `json:"queued"`
}

// handleWebhookEvents verifies the delivery signature, extracts media
// messages, and enqueues one job per message. Enqueue failures for individual
// events are logged and skipped; the provider retries the whole delivery, and
// idempotency keys absorb the replays.
func (s *Server) handleWebhookEvents(w http.ResponseWriter, r *http.Request) {
	if !s.waCfg.ConfiguredForWebhook() {
		WriteError(w, ErrorParams{
			Code:    http.StatusServiceUnavailable,
			ErrCode: "not_configured",
			Err:     errors.New("whatsapp webhook is not configured"),
		})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_body",
			Err:     errors.New("failed to read request body"),
		})
		return
	}

	if !whatsapp.VerifySignature(s.waCfg.AppSecret, body, r.Header.Get("X-Hub-Signature-256")) {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "invalid_signature",
			Err:     errors.New("webhook signature verification failed"),
		})
		return
	}

	events, err := whatsapp.ExtractInboundMediaEvents(body)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_payload",
			Err:     errors.New("unparseable webhook payload"),
		})
		return
	}

	queued := 0
	for _, event := range events {
		payload, marshalErr := json.Marshal(model.MediaPayload{
			MessageID: event.MessageID,
			MediaID:   event.MediaID,
			MediaType: event.MediaType,
			FromPhone: event.FromPhone,
			Timestamp: event.Timestamp,
			FileName:  event.FileName,
			MimeType:  event.MimeType,
		})
		if marshalErr != nil {
			s.logger.ErrorContext(r.Context(), "failed to encode media payload",
				"message_id", event.MessageID, "error", marshalErr)
			continue
		}

		_, enqueueErr := s.jobs.Enqueue(r.Context(), &model.EnqueueRequest{
			Type:           model.JobTypeProcessInboundMedia,
			Payload:        payload,
			IdempotencyKey: service.MediaIdempotencyKey(event.MessageID),
		})
		if enqueueErr != nil {
			s.logger.ErrorContext(r.Context(), "failed to enqueue media job",
				"message_id", event.MessageID, "error", enqueueErr)
			continue
		}
		queued++
	}

	WriteJSON(w, http.StatusOK, webhookResponse{OK: true, Received: len(events), Queued: queued})
}
