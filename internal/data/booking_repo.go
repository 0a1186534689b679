package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/trustedge/integrations/internal/core"
	"github.com/trustedge/integrations/internal/domain/model"
	apperrors "github.com/trustedge/integrations/internal/errors"
)

// BookingRepo reads booking details and reserves slots.
type BookingRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewBookingRepo creates a new BookingRepo.
func NewBookingRepo(db *sql.DB, cfg RepoConfig) *BookingRepo {
	return &BookingRepo{
		DB:           db,
		timeProvider: cfg.timeProvider(),
		logger:       cfg.Logger,
	}
}

// GetDetails joins a booking with its lead and slot. The joins are left
// outer: a booking with a dangling lead or slot reference still loads, with
// the missing side nil, so handlers can report the data problem precisely.
func (r *BookingRepo) GetDetails(ctx context.Context, bookingID string) (*model.BookingDetails, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT
			b.id,
			b.status,
			l.id, l.name, l.email, l.phone, l.service_interest,
			s.starts_at, s.ends_at, s.timezone
		FROM bookings b
		LEFT JOIN leads l ON l.id = b.lead_id
		LEFT JOIN slots s ON s.id = b.slot_id
		WHERE b.id = $1
	`, bookingID)

	details := &model.BookingDetails{}
	var (
		leadID, leadName, leadEmail, leadPhone sql.NullString
		serviceInterest                        sql.NullString
		startsAt, endsAt                       sql.NullTime
		timezone                               sql.NullString
	)

	err := row.Scan(
		&details.ID,
		&details.Status,
		&leadID, &leadName, &leadEmail, &leadPhone, &serviceInterest,
		&startsAt, &endsAt, &timezone,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFoundf("booking %s not found", bookingID)
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", bookingID, err)
	}

	if leadID.Valid {
		details.Lead = &model.Lead{
			ID:              leadID.String,
			Name:            leadName.String,
			Email:           leadEmail.String,
			Phone:           leadPhone.String,
			ServiceInterest: nullableString(serviceInterest),
		}
	}
	if startsAt.Valid {
		details.Slot = &model.Slot{
			StartsAt: startsAt.Time.UTC(),
			EndsAt:   endsAt.Time.UTC(),
			Timezone: timezone.String,
		}
	}
	return details, nil
}

// ReserveSlot invokes the atomic reservation function. The function holds a
// row lock on the slot, so two concurrent reservations for the same slot
// serialize and the loser raises slot_unavailable, mapped here to Conflict.
func (r *BookingRepo) ReserveSlot(ctx context.Context, req core.ReserveSlotRequest) (*model.ReservedSlot, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT booking_id, lead_id, slot_start, slot_timezone
		FROM reserve_slot_atomic($1, $2, $3, $4, $5, $6)
	`, req.SlotID, req.FullName, req.Email, req.Phone, req.ServiceInterest, req.Message)

	reserved := &model.ReservedSlot{}
	err := row.Scan(&reserved.BookingID, &reserved.LeadID, &reserved.SlotStart, &reserved.SlotTimezone)
	if err != nil {
		if isSlotUnavailable(err) {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeConflict, "slot is no longer available")
		}
		return nil, apperrors.Wrap(apperrors.MapDBError(err), apperrors.ErrCodeInternal, "reserve slot")
	}

	reserved.SlotStart = reserved.SlotStart.UTC()
	return reserved, nil
}

// isSlotUnavailable matches the error the reservation function raises when
// the slot is already taken.
func isSlotUnavailable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "slot_unavailable")
}
