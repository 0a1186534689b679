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

// ClientRepo reads converted client records.
type ClientRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewClientRepo creates a new ClientRepo.
func NewClientRepo(db *sql.DB, cfg RepoConfig) *ClientRepo {
	return &ClientRepo{
		DB:           db,
		timeProvider: cfg.timeProvider(),
		logger:       cfg.Logger,
	}
}

// GetByID retrieves a client by id.
func (r *ClientRepo) GetByID(ctx context.Context, id string) (*model.Client, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, name, phone, client_status
		FROM clients
		WHERE id = $1
	`, id)
	return r.scanOne(row, fmt.Sprintf("client %s", id))
}

// FindActiveByPhoneKey matches an active client whose normalized phone equals
// the given key. Phones are stored raw; the stripped comparison mirrors the
// normalization applied to inbound sender phones.
func (r *ClientRepo) FindActiveByPhoneKey(ctx context.Context, phoneKey string) (*model.Client, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, name, phone, client_status
		FROM clients
		WHERE client_status = 'active'
		  AND regexp_replace(phone, '\D', '', 'g') = $1
		ORDER BY created_at ASC
		LIMIT 1
	`, phoneKey)
	return r.scanOne(row, "client by phone key")
}

func (r *ClientRepo) scanOne(row *sql.Row, what string) (*model.Client, error) {
	c := &model.Client{}
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFoundf("%s not found", what)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", what, err)
	}
	return c, nil
}
