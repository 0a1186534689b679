package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/trustedge/integrations/internal/domain/model"
	apperrors "github.com/trustedge/integrations/internal/errors"
)

// DocumentRepo provides database operations for ingested document records.
type DocumentRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB, cfg RepoConfig) *DocumentRepo {
	return &DocumentRepo{
		DB:           db,
		timeProvider: cfg.timeProvider(),
		logger:       cfg.Logger,
	}
}

// ExistsByMessageID reports whether a document has already been ingested for
// the given source message id.
func (r *DocumentRepo) ExistsByMessageID(ctx context.Context, messageID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM ingested_documents WHERE message_id = $1)`,
		messageID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check document for message %s: %w", messageID, err)
	}
	return exists, nil
}

// Insert records one stored inbound document. message_id carries a unique
// constraint; a duplicate insert from a redelivered webhook maps to Conflict.
func (r *DocumentRepo) Insert(ctx context.Context, doc *model.IngestedDocument) error {
	if doc == nil {
		return errors.New("document is required")
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO ingested_documents (message_id, media_id, sender_phone, sender_phone_key, media_type, mime_type, file_name, size_bytes, provider, external_folder_id, provider_file_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, doc.MessageID, doc.MediaID, doc.SenderPhone, doc.SenderPhoneKey,
		doc.MediaType, doc.MimeType, doc.FileName, doc.SizeBytes,
		doc.Provider, doc.ExternalFolderID, doc.ProviderFileID, doc.Status)
	if err != nil {
		if apperrors.IsUniqueViolation(err) {
			return apperrors.Wrap(err, apperrors.ErrCodeConflict,
				fmt.Sprintf("document for message %s already ingested", doc.MessageID))
		}
		return fmt.Errorf("insert document for message %s: %w", doc.MessageID, err)
	}

	if r.logger != nil {
		r.logger.Debug("ingested document recorded",
			slog.String("message_id", doc.MessageID),
			slog.String("file_name", doc.FileName))
	}
	return nil
}
