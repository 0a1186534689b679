package service

import (
	"context"
	"fmt"

	"github.com/trustedge/integrations/internal/core"
	"github.com/trustedge/integrations/internal/domain/media"
	"github.com/trustedge/integrations/internal/domain/model"
	"github.com/trustedge/integrations/internal/domain/phone"
	apperrors "github.com/trustedge/integrations/internal/errors"
)

// HandleProcessInboundMedia downloads an inbound media message and stores it
// in the sender's folder. The ingested_documents check makes redeliveries and
// retries of a partially-failed attempt converge on exactly one stored file
// record.
func (h *Handlers) HandleProcessInboundMedia(ctx context.Context, job *model.IntegrationJob) error {
	var payload model.MediaPayload
	if err := model.DecodePayload(job.Payload, &payload); err != nil {
		return err
	}

	exists, err := h.documents.ExistsByMessageID(ctx, payload.MessageID)
	if err != nil {
		return fmt.Errorf("check ingested document: %w", err)
	}
	if exists {
		if h.logger != nil {
			h.logger.InfoContext(ctx, "media already ingested", "message_id", payload.MessageID)
		}
		return nil
	}

	phoneKey := phone.NormalizeKey(payload.FromPhone)
	if phoneKey == "" {
		return fmt.Errorf("sender phone %q has no digits", payload.FromPhone)
	}

	folder, err := h.ensureFolderForPhone(ctx, phoneKey)
	if err != nil {
		return err
	}

	meta, err := h.messaging.GetMediaMetadata(ctx, payload.MediaID)
	if err != nil {
		return fmt.Errorf("resolve media %s: %w", payload.MediaID, err)
	}

	download, err := h.messaging.DownloadMedia(ctx, meta.URL)
	if err != nil {
		return fmt.Errorf("download media %s: %w", payload.MediaID, err)
	}

	// Provider metadata is authoritative; the webhook payload and the
	// download response only fill in when it is missing.
	mimeType := meta.MimeType
	if mimeType == "" {
		mimeType = payload.MimeType
	}
	if mimeType == "" {
		mimeType = download.MimeType
	}

	fileName := media.FileName(payload.FileName, payload.MediaType, payload.MessageID, mimeType)

	uploaded, err := h.storage.UploadFile(ctx, core.UploadRequest{
		FolderID: folder.ProviderFolderID,
		FileName: fileName,
		MimeType: mimeType,
		Data:     download.Data,
	})
	if err != nil {
		return fmt.Errorf("upload media %s: %w", payload.MediaID, err)
	}

	sizeBytes := meta.FileSize
	if sizeBytes == 0 {
		sizeBytes = int64(len(download.Data))
	}

	doc := &model.IngestedDocument{
		MessageID:        payload.MessageID,
		MediaID:          payload.MediaID,
		SenderPhone:      payload.FromPhone,
		SenderPhoneKey:   phoneKey,
		MediaType:        payload.MediaType,
		MimeType:         mimeType,
		FileName:         fileName,
		SizeBytes:        sizeBytes,
		Provider:         providerWhatsApp,
		ExternalFolderID: folder.ID,
		ProviderFileID:   uploaded.ID,
		Status:           "stored",
	}
	if err := h.documents.Insert(ctx, doc); err != nil {
		// A concurrent delivery finished first; the file is stored either way.
		if apperrors.IsConflict(err) {
			return nil
		}
		return fmt.Errorf("record ingested document: %w", err)
	}

	if h.logger != nil {
		h.logger.InfoContext(ctx, "inbound media stored",
			"message_id", payload.MessageID,
			"file_name", fileName,
			"folder", folder.PathLabel,
		)
	}
	return nil
}
