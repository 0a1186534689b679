package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trustedge/integrations/internal/core"
	"github.com/trustedge/integrations/internal/domain/model"
	"github.com/trustedge/integrations/internal/domain/phone"
	apperrors "github.com/trustedge/integrations/internal/errors"
)

// slotLabelLayout renders the slot start for human-facing messages.
const slotLabelLayout = "Monday, January 2, 2006 at 3:04 PM"

// slotLabel formats the slot start in its own timezone. An unknown timezone
// falls back to UTC rather than failing the whole confirmation.
func slotLabel(slot *model.Slot) string {
	loc, err := time.LoadLocation(slot.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return slot.StartsAt.In(loc).Format(slotLabelLayout)
}

// HandleSendClientConfirmation sends the booking confirmation over email and
// WhatsApp in parallel. An unconfigured channel fails the attempt like any
// other send failure, so a deployment missing provider credentials surfaces
// through retry exhaustion instead of quietly confirming nothing. Retried
// sends are tolerated by the providers as duplicate notifications.
func (h *Handlers) HandleSendClientConfirmation(ctx context.Context, job *model.IntegrationJob) error {
	var payload model.ConfirmationPayload
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

	meeting, err := h.meetings.FindByBooking(ctx, booking.ID)
	if err != nil {
		return fmt.Errorf("load meeting: %w", err)
	}

	label := slotLabel(booking.Slot)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return h.sendConfirmationEmail(gctx, booking, meeting, label)
	})
	g.Go(func() error {
		return h.sendConfirmationMessage(gctx, booking, label, meeting.JoinURL)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	h.appendLeadNote(ctx, booking.Lead.ID, "confirmation_sent",
		fmt.Sprintf("Booking confirmation sent for %s (%s)", booking.ID, label))
	return nil
}

func (h *Handlers) sendConfirmationEmail(ctx context.Context, booking *model.BookingDetails, meeting *model.BookingMeeting, label string) error {
	if !h.emailCfg.Configured() {
		return apperrors.Config("confirmation email credentials are not configured")
	}
	if booking.Lead.Email == "" {
		return fmt.Errorf("booking %s lead has no email address", booking.ID)
	}

	serviceLabel := "Tax consultation"
	if booking.Lead.ServiceInterest != nil && *booking.Lead.ServiceInterest != "" {
		serviceLabel = *booking.Lead.ServiceInterest
	}
	text := fmt.Sprintf(
		"Hi %s,\n\nYour consultation is confirmed for %s (%s).\nService: %s\n\nJoin link: %s\n\nSee you then.",
		booking.Lead.Name, label, booking.Slot.Timezone, serviceLabel, meeting.JoinURL,
	)
	err := h.email.Send(ctx, core.EmailMessage{
		From:    h.emailCfg.From,
		To:      booking.Lead.Email,
		Subject: "Your consultation is confirmed",
		Text:    text,
	})
	if err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}
	return nil
}

func (h *Handlers) sendConfirmationMessage(ctx context.Context, booking *model.BookingDetails, label, joinURL string) error {
	if !h.messaging.ConfiguredForOutbound() {
		return apperrors.Config("whatsapp template credentials are not configured")
	}

	to := phone.FormatForWhatsApp(booking.Lead.Phone)
	if to == "" {
		return fmt.Errorf("booking %s lead phone %q cannot be normalized", booking.ID, booking.Lead.Phone)
	}

	err := h.messaging.SendTemplateMessage(ctx, core.TemplateMessage{
		ToPhone: to,
		Params:  []string{booking.Lead.Name, label, joinURL},
	})
	if err != nil {
		return fmt.Errorf("send confirmation message: %w", err)
	}
	return nil
}
