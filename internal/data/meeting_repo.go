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

// MeetingRepo provides database operations for booking meeting records.
type MeetingRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewMeetingRepo creates a new MeetingRepo.
func NewMeetingRepo(db *sql.DB, cfg RepoConfig) *MeetingRepo {
	return &MeetingRepo{
		DB:           db,
		timeProvider: cfg.timeProvider(),
		logger:       cfg.Logger,
	}
}

const meetingColumns = `
  id,
  booking_id,
  provider,
  meeting_id,
  join_url,
  start_url,
  status,
  scheduled_start,
  timezone,
  created_at
`

// FindByBooking returns the meeting record for a booking, or a NotFound error.
func (r *MeetingRepo) FindByBooking(ctx context.Context, bookingID string) (*model.BookingMeeting, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+meetingColumns+`
		FROM booking_meetings
		WHERE booking_id = $1
	`, bookingID)

	meeting, err := scanMeeting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFoundf("meeting for booking %s not found", bookingID)
	}
	if err != nil {
		return nil, fmt.Errorf("get meeting for booking %s: %w", bookingID, err)
	}
	return meeting, nil
}

// Upsert converges on one meeting row per booking. A redelivered meeting for
// the same booking overwrites the previous provider references.
func (r *MeetingRepo) Upsert(ctx context.Context, meeting *model.BookingMeeting) error {
	if meeting == nil {
		return errors.New("meeting is required")
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO booking_meetings (booking_id, provider, meeting_id, join_url, start_url, status, scheduled_start, timezone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (booking_id) DO UPDATE SET
			provider        = EXCLUDED.provider,
			meeting_id      = EXCLUDED.meeting_id,
			join_url        = EXCLUDED.join_url,
			start_url       = EXCLUDED.start_url,
			status          = EXCLUDED.status,
			scheduled_start = EXCLUDED.scheduled_start,
			timezone        = EXCLUDED.timezone
	`, meeting.BookingID, meeting.Provider, meeting.MeetingID, meeting.JoinURL,
		meeting.StartURL, meeting.Status, meeting.ScheduledStart, meeting.Timezone)
	if err != nil {
		return fmt.Errorf("upsert meeting for booking %s: %w", meeting.BookingID, err)
	}
	return nil
}

func scanMeeting(scanner rowScanner) (*model.BookingMeeting, error) {
	m := &model.BookingMeeting{}
	var startURL sql.NullString

	if err := scanner.Scan(
		&m.ID,
		&m.BookingID,
		&m.Provider,
		&m.MeetingID,
		&m.JoinURL,
		&startURL,
		&m.Status,
		&m.ScheduledStart,
		&m.Timezone,
		&m.CreatedAt,
	); err != nil {
		return nil, err
	}

	m.StartURL = nullableString(startURL)
	return m, nil
}
