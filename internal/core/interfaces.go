// Package core defines the contracts between the service layer and the data
// and provider layers (ports in hexagonal architecture). Service
// implementations depend on these interfaces, not concrete implementations.
package core

import (
	"context"
	"time"

	"github.com/trustedge/integrations/internal/domain/model"
)

// JobRepository defines the interface for integration job data operations.
type JobRepository interface {
	// Enqueue inserts a pending job, deduplicating on the idempotency key.
	// A concurrent duplicate insert resolves to the existing row.
	Enqueue(ctx context.Context, req *model.EnqueueRequest) (*model.EnqueueResult, error)
	// DueJobs returns up to limit pending jobs whose next_attempt_at has
	// passed, oldest created first.
	DueJobs(ctx context.Context, limit int) ([]*model.IntegrationJob, error)
	// Claim conditionally transitions a pending job to running. Returns
	// (nil, nil) when the job was already claimed or is terminal.
	Claim(ctx context.Context, jobID string) (*model.IntegrationJob, error)
	// MarkSucceeded finalizes a running job. Returns false when the row was
	// no longer running.
	MarkSucceeded(ctx context.Context, jobID string) (bool, error)
	// MarkFailure increments attempts and either reschedules the job with
	// the given delay or fails it permanently.
	MarkFailure(ctx context.Context, params MarkFailureParams) (bool, error)
	// RequeueStale returns running jobs locked longer than maxAge to
	// pending, incrementing attempts. Returns the number requeued.
	RequeueStale(ctx context.Context, maxAge time.Duration, limit int) (int64, error)
	// GetByID retrieves a job by its id.
	GetByID(ctx context.Context, id string) (*model.IntegrationJob, error)
	// Stats counts jobs per status.
	Stats(ctx context.Context) (*model.JobStats, error)
}

// MarkFailureParams groups parameters for JobRepository.MarkFailure.
type MarkFailureParams struct {
	JobID        string
	ErrMsg       string
	FinalFailure bool
	RetryDelay   time.Duration
}

// FolderRepository defines the interface for external folder mappings.
type FolderRepository interface {
	// FindActiveByClient returns the active mapping for a client, or a
	// NotFound error.
	FindActiveByClient(ctx context.Context, clientID string) (*model.ExternalFolder, error)
	// FindActiveByPhoneKey returns the active mapping for a prospect phone
	// key, or a NotFound error.
	FindActiveByPhoneKey(ctx context.Context, phoneKey string) (*model.ExternalFolder, error)
	// Insert stores a new mapping. A unique-violation Conflict error means a
	// concurrent caller won the race; callers fall back to a re-read.
	Insert(ctx context.Context, folder *model.ExternalFolder) (*model.ExternalFolder, error)
}

// MeetingRepository defines the interface for booking meeting records.
type MeetingRepository interface {
	FindByBooking(ctx context.Context, bookingID string) (*model.BookingMeeting, error)
	// Upsert converges on one row per booking id.
	Upsert(ctx context.Context, meeting *model.BookingMeeting) error
}

// DocumentRepository defines the interface for ingested document records.
type DocumentRepository interface {
	ExistsByMessageID(ctx context.Context, messageID string) (bool, error)
	Insert(ctx context.Context, doc *model.IngestedDocument) error
}

// BookingRepository reads booking details and reserves slots.
type BookingRepository interface {
	GetDetails(ctx context.Context, bookingID string) (*model.BookingDetails, error)
	// ReserveSlot invokes the atomic reservation procedure.
	ReserveSlot(ctx context.Context, req ReserveSlotRequest) (*model.ReservedSlot, error)
}

// ReserveSlotRequest carries the lead-capture fields into the reservation
// procedure.
type ReserveSlotRequest struct {
	SlotID          string
	FullName        string
	Email           string
	Phone           string
	ServiceInterest string
	Message         string
}

// ClientRepository reads converted client records.
type ClientRepository interface {
	GetByID(ctx context.Context, id string) (*model.Client, error)
	// FindActiveByPhoneKey matches an active client whose normalized phone
	// equals the given key, or returns a NotFound error.
	FindActiveByPhoneKey(ctx context.Context, phoneKey string) (*model.Client, error)
}

// LeadEventRepository appends audit notes to a lead's timeline.
type LeadEventRepository interface {
	Append(ctx context.Context, event *model.LeadEvent) error
}
