package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/trustedge/integrations/internal/domain/model"
)

// maxEventNoteLen caps audit notes so a long provider error cannot bloat the
// lead timeline.
const maxEventNoteLen = 1000

// LeadEventRepo appends audit notes to a lead's timeline.
type LeadEventRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewLeadEventRepo creates a new LeadEventRepo.
func NewLeadEventRepo(db *sql.DB, cfg RepoConfig) *LeadEventRepo {
	return &LeadEventRepo{
		DB:           db,
		timeProvider: cfg.timeProvider(),
		logger:       cfg.Logger,
	}
}

// Append inserts one audit event. Notes are truncated to the column limit.
func (r *LeadEventRepo) Append(ctx context.Context, event *model.LeadEvent) error {
	if event == nil {
		return errors.New("event is required")
	}
	if event.LeadID == "" {
		return errors.New("event lead id is required")
	}

	note := event.Note
	if len(note) > maxEventNoteLen {
		note = note[:maxEventNoteLen]
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO lead_events (lead_id, event_type, note, actor)
		VALUES ($1, $2, $3, $4)
	`, event.LeadID, event.EventType, note, event.Actor)
	if err != nil {
		return fmt.Errorf("append lead event: %w", err)
	}
	return nil
}
