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

// FolderRepo provides database operations for external folder mappings.
type FolderRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewFolderRepo creates a new FolderRepo.
func NewFolderRepo(db *sql.DB, cfg RepoConfig) *FolderRepo {
	return &FolderRepo{
		DB:           db,
		timeProvider: cfg.timeProvider(),
		logger:       cfg.Logger,
	}
}

const folderColumns = `
  id,
  entity_type,
  entity_id,
  phone_key,
  provider,
  provider_folder_id,
  path_label,
  is_active,
  created_at
`

// FindActiveByClient returns the active folder mapping for a client.
func (r *FolderRepo) FindActiveByClient(ctx context.Context, clientID string) (*model.ExternalFolder, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+folderColumns+`
		FROM external_folders
		WHERE entity_type = 'client' AND entity_id = $1 AND is_active
	`, clientID)
	return r.scanOne(row, "client folder mapping")
}

// FindActiveByPhoneKey returns the active folder mapping for a prospect phone key.
func (r *FolderRepo) FindActiveByPhoneKey(ctx context.Context, phoneKey string) (*model.ExternalFolder, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+folderColumns+`
		FROM external_folders
		WHERE entity_type = 'prospect_phone' AND phone_key = $1 AND is_active
	`, phoneKey)
	return r.scanOne(row, "prospect folder mapping")
}

// Insert stores a new folder mapping. A partial unique index on the active
// rows enforces at most one live mapping per entity; losing that race
// surfaces as a Conflict error so callers can fall back to a re-read.
func (r *FolderRepo) Insert(ctx context.Context, folder *model.ExternalFolder) (*model.ExternalFolder, error) {
	if folder == nil {
		return nil, errors.New("folder is required")
	}

	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO external_folders (entity_type, entity_id, phone_key, provider, provider_folder_id, path_label, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING `+folderColumns,
		folder.EntityType, folder.EntityID, folder.PhoneKey,
		folder.Provider, folder.ProviderFolderID, folder.PathLabel)

	created, err := scanFolder(row)
	if err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeConflict, "folder mapping already exists")
		}
		return nil, fmt.Errorf("insert folder mapping: %w", err)
	}
	return created, nil
}

func (r *FolderRepo) scanOne(row *sql.Row, what string) (*model.ExternalFolder, error) {
	folder, err := scanFolder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFoundf("%s not found", what)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", what, err)
	}
	return folder, nil
}

func scanFolder(scanner rowScanner) (*model.ExternalFolder, error) {
	f := &model.ExternalFolder{}
	var entityID, phoneKey sql.NullString

	if err := scanner.Scan(
		&f.ID,
		&f.EntityType,
		&entityID,
		&phoneKey,
		&f.Provider,
		&f.ProviderFolderID,
		&f.PathLabel,
		&f.IsActive,
		&f.CreatedAt,
	); err != nil {
		return nil, err
	}

	f.EntityID = nullableString(entityID)
	f.PhoneKey = nullableString(phoneKey)
	return f, nil
}
