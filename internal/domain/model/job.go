// Package model defines the core data types used throughout the integrations job system.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobType identifies which handler processes a job.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobType string

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobTypeCreateMeeting provisions a Zoom meeting for a confirmed booking.
	JobTypeCreateMeeting JobType = "create_meeting"
	// JobTypeSendClientConfirmation sends the booking confirmation email and WhatsApp template.
	JobTypeSendClientConfirmation JobType = "send_client_confirmation"
	// JobTypeEnsureFolder creates or resolves the Drive folder for a client or prospect.
	JobTypeEnsureFolder JobType = "ensure_folder"
	// JobTypeProcessInboundMedia ingests an inbound WhatsApp media message into Drive.
	JobTypeProcessInboundMedia JobType = "process_inbound_media"

	// JobStatusPending indicates a job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates a job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusSucceeded indicates a job has finished successfully.
	JobStatusSucceeded JobStatus = "succeeded"
	// JobStatusFailed indicates a job has exhausted its attempts.
	JobStatusFailed JobStatus = "failed"
)

// UnmarshalText implements encoding.TextUnmarshaler for JobType to allow env parsing.
func (t *JobType) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	jt := JobType(v)
	if jt.Valid() {
		*t = jt
		return nil
	}
	return fmt.Errorf("invalid JobType: %q", v)
}

// ErrUnknownJobType is returned by the dispatcher for a job type with no handler.
var ErrUnknownJobType = errors.New("unknown job type")

// Valid returns true if the JobType is valid.
func (t JobType) Valid() bool {
	return t == JobTypeCreateMeeting || t == JobTypeSendClientConfirmation ||
		t == JobTypeEnsureFolder || t == JobTypeProcessInboundMedia
}

// Valid returns true if the JobStatus is valid.
func (s JobStatus) Valid() bool {
	return s == JobStatusPending || s == JobStatusRunning ||
		s == JobStatusSucceeded || s == JobStatusFailed
}

// Terminal returns true if the status is an end state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// IntegrationJob is a durable record of one unit of external-side-effect work.
// Rows are never deleted; succeeded and failed jobs remain as an audit trail.
type IntegrationJob struct {
	ID             string          `json:"id"                        db:"id"`
	Type           JobType         `json:"job_type"                  db:"job_type"`
	Status         JobStatus       `json:"status"                    db:"status"`
	Payload        json.RawMessage `json:"payload"                   db:"payload"`
	Attempts       int             `json:"attempts"                  db:"attempts"`
	NextAttemptAt  time.Time       `json:"next_attempt_at"           db:"next_attempt_at"`
	IdempotencyKey *string         `json:"idempotency_key,omitempty" db:"idempotency_key"`
	LastError      *string         `json:"last_error,omitempty"      db:"last_error"`
	LockedAt       *time.Time      `json:"locked_at,omitempty"       db:"locked_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"    db:"completed_at"`
	CreatedAt      time.Time       `json:"created_at"                db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"                db:"updated_at"`
}

// EnqueueRequest describes a job to enqueue.
type EnqueueRequest struct {
	Type           JobType         `json:"job_type"`
	Payload        json.RawMessage `json:"payload"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// Validate validates the EnqueueRequest fields.
func (r *EnqueueRequest) Validate() error {
	if !r.Type.Valid() {
		return errors.New("invalid job type")
	}
	if len(r.Payload) == 0 {
		return errors.New("payload is required")
	}
	return nil
}

// EnqueueResult reports the outcome of an enqueue call.
type EnqueueResult struct {
	ID      string `json:"id"`
	Deduped bool   `json:"deduped"`
}

// RunSummary aggregates the outcome of one worker invocation.
type RunSummary struct {
	Scanned   int `json:"scanned"`
	Claimed   int `json:"claimed"`
	Succeeded int `json:"succeeded"`
	Retried   int `json:"retried"`
	Failed    int `json:"failed"`
}

// JobStats counts jobs in each state.
type JobStats struct {
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}
