package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/trustedge/integrations/internal/core"
	"github.com/trustedge/integrations/internal/domain/model"
)

// minMeetingMinutes is the floor for provisioned meeting length.
const minMeetingMinutes = 15

// meetingDurationMinutes derives the meeting length from the slot window.
func meetingDurationMinutes(slot *model.Slot) int {
	minutes := int(math.Round(slot.EndsAt.Sub(slot.StartsAt).Minutes()))
	if minutes < minMeetingMinutes {
		return minMeetingMinutes
	}
	return minutes
}

// HandleCreateMeeting provisions the video meeting for a confirmed booking
// and chains the client confirmation job. Re-running against a booking that
// already has a meeting only re-chains the confirmation, which its own
// idempotency key collapses.
func (h *Handlers) HandleCreateMeeting(ctx context.Context, job *model.IntegrationJob) error {
	var payload model.MeetingPayload
	if err := model.DecodePayload(job.Payload, &payload); err != nil {
		return err
	}

	booking, err := h.bookings.GetDetails(ctx, payload.BookingID)
	if err != nil {
		return fmt.Errorf("load booking: %w", err)
	}
	if booking.Status != model.BookingStatusBooked {
		return fmt.Errorf("booking %s is not active (status %s)", booking.ID, booking.Status)
	}
	if booking.Lead == nil || booking.Slot == nil {
		return fmt.Errorf("booking %s is missing lead or slot", booking.ID)
	}

	if existing, findErr := h.meetings.FindByBooking(ctx, booking.ID); findErr == nil {
		return h.chainConfirmation(ctx, booking.ID, booking.Lead.ID, existing.MeetingID)
	}

	created, err := h.meeting.CreateMeeting(ctx, meetingRequestFor(booking))
	if err != nil {
		return fmt.Errorf("create meeting: %w", err)
	}

	record := &model.BookingMeeting{
		BookingID:      booking.ID,
		Provider:       "zoom",
		MeetingID:      created.MeetingID,
		JoinURL:        created.JoinURL,
		Status:         "scheduled",
		ScheduledStart: booking.Slot.StartsAt,
		Timezone:       booking.Slot.Timezone,
	}
	if created.StartURL != "" {
		startURL := created.StartURL
		record.StartURL = &startURL
	}
	if err := h.meetings.Upsert(ctx, record); err != nil {
		return fmt.Errorf("store meeting: %w", err)
	}

	h.appendLeadNote(ctx, booking.Lead.ID, "meeting_created",
		fmt.Sprintf("Zoom meeting %s created for booking %s", created.MeetingID, booking.ID))

	return h.chainConfirmation(ctx, booking.ID, booking.Lead.ID, created.MeetingID)
}

func meetingRequestFor(booking *model.BookingDetails) core.MeetingRequest {
	agenda := "Tax consultation"
	if booking.Lead.ServiceInterest != nil && *booking.Lead.ServiceInterest != "" {
		agenda = *booking.Lead.ServiceInterest
	}
	return core.MeetingRequest{
		Topic:           "Tax Consultation - " + booking.Lead.Name,
		StartTime:       booking.Slot.StartsAt,
		DurationMinutes: meetingDurationMinutes(booking.Slot),
		Timezone:        booking.Slot.Timezone,
		Agenda:          agenda,
	}
}

func (h *Handlers) chainConfirmation(ctx context.Context, bookingID, leadID, meetingID string) error {
	payload, err := json.Marshal(model.ConfirmationPayload{BookingID: bookingID, LeadID: leadID})
	if err != nil {
		return fmt.Errorf("encode confirmation payload: %w", err)
	}

	_, err = h.jobs.Enqueue(ctx, &model.EnqueueRequest{
		Type:           model.JobTypeSendClientConfirmation,
		Payload:        payload,
		IdempotencyKey: confirmationIdempotencyKey(bookingID, meetingID),
	})
	if err != nil {
		return fmt.Errorf("enqueue confirmation: %w", err)
	}
	return nil
}
