package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/trustedge/integrations/config"
	"github.com/trustedge/integrations/internal/core"
	"github.com/trustedge/integrations/internal/domain/model"
)

// HandlersOptions groups dependencies for the job type handlers.
type HandlersOptions struct {
	Jobs       *JobService               // Required: for follow-up job chaining
	Bookings   core.BookingRepository    // Required
	Meetings   core.MeetingRepository    // Required
	Folders    core.FolderRepository     // Required
	Documents  core.DocumentRepository   // Required
	Clients    core.ClientRepository     // Required
	LeadEvents core.LeadEventRepository  // Optional: audit trail sink
	Meeting    core.MeetingProvider      // Required
	Storage    core.StorageProvider      // Required
	Messaging  core.MessagingProvider    // Required
	Email      core.EmailProvider        // Required
	Drive      config.DriveConfig
	EmailCfg   config.EmailConfig
	Logger     *slog.Logger // Optional: structured logger
}

// Handlers implements the four job type handlers over the repository and
// provider interfaces.
type Handlers struct {
	jobs       *JobService
	bookings   core.BookingRepository
	meetings   core.MeetingRepository
	folders    core.FolderRepository
	documents  core.DocumentRepository
	clients    core.ClientRepository
	leadEvents core.LeadEventRepository
	meeting    core.MeetingProvider
	storage    core.StorageProvider
	messaging  core.MessagingProvider
	email      core.EmailProvider
	driveCfg   config.DriveConfig
	emailCfg   config.EmailConfig
	logger     *slog.Logger
}

// NewHandlers constructs the handler set.
func NewHandlers(opts HandlersOptions) (*Handlers, error) {
	switch {
	case opts.Jobs == nil:
		return nil, errors.New("JobService is required")
	case opts.Bookings == nil:
		return nil, errors.New("BookingRepository is required")
	case opts.Meetings == nil:
		return nil, errors.New("MeetingRepository is required")
	case opts.Folders == nil:
		return nil, errors.New("FolderRepository is required")
	case opts.Documents == nil:
		return nil, errors.New("DocumentRepository is required")
	case opts.Clients == nil:
		return nil, errors.New("ClientRepository is required")
	case opts.Meeting == nil:
		return nil, errors.New("MeetingProvider is required")
	case opts.Storage == nil:
		return nil, errors.New("StorageProvider is required")
	case opts.Messaging == nil:
		return nil, errors.New("MessagingProvider is required")
	case opts.Email == nil:
		return nil, errors.New("EmailProvider is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "job_handlers")
	}

	return &Handlers{
		jobs:       opts.Jobs,
		bookings:   opts.Bookings,
		meetings:   opts.Meetings,
		folders:    opts.Folders,
		documents:  opts.Documents,
		clients:    opts.Clients,
		leadEvents: opts.LeadEvents,
		meeting:    opts.Meeting,
		storage:    opts.Storage,
		messaging:  opts.Messaging,
		email:      opts.Email,
		driveCfg:   opts.Drive,
		emailCfg:   opts.EmailCfg,
		logger:     logger,
	}, nil
}

// Register installs all four handlers on the dispatcher.
func (h *Handlers) Register(d *Dispatcher) {
	d.Register(model.JobTypeCreateMeeting, h.HandleCreateMeeting)
	d.Register(model.JobTypeSendClientConfirmation, h.HandleSendClientConfirmation)
	d.Register(model.JobTypeEnsureFolder, h.HandleEnsureFolder)
	d.Register(model.JobTypeProcessInboundMedia, h.HandleProcessInboundMedia)
}

// appendLeadNote writes a best-effort audit event; failures are logged, never
// surfaced, so a notes table outage cannot fail an otherwise complete job.
func (h *Handlers) appendLeadNote(ctx context.Context, leadID, eventType, note string) {
	if h.leadEvents == nil || leadID == "" {
		return
	}
	err := h.leadEvents.Append(ctx, &model.LeadEvent{
		LeadID:    leadID,
		EventType: eventType,
		Note:      note,
		Actor:     actorIntegrationWorker,
	})
	if err != nil && h.logger != nil {
		h.logger.WarnContext(ctx, "failed to append lead note", "lead_id", leadID, "error", err)
	}
}

// confirmationIdempotencyKey keys the follow-up confirmation job on both the
// booking and the meeting, so a re-created meeting sends a fresh confirmation
// while redeliveries of the same meeting do not.
func confirmationIdempotencyKey(bookingID, meetingID string) string {
	return fmt.Sprintf("%s:%s:%s", model.JobTypeSendClientConfirmation, bookingID, meetingID)
}

// MeetingIdempotencyKey keys create_meeting jobs on the booking.
func MeetingIdempotencyKey(bookingID string) string {
	return fmt.Sprintf("%s:%s", model.JobTypeCreateMeeting, bookingID)
}

// MediaIdempotencyKey keys process_inbound_media jobs on the provider
// message id, which is stable across webhook redeliveries.
func MediaIdempotencyKey(messageID string) string {
	return "wa_media:" + messageID
}
