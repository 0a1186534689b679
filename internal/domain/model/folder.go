package model

import "time"

// FolderEntityType distinguishes the business entity a folder mapping belongs to.
type FolderEntityType string

const (
	// FolderEntityClient maps a converted client to its Drive folder.
	FolderEntityClient FolderEntityType = "client"
	// FolderEntityProspectPhone maps a not-yet-converted sender phone to a Drive folder.
	FolderEntityProspectPhone FolderEntityType = "prospect_phone"
)

// ExternalFolder associates a client or normalized phone key with a
// provider-side folder. At most one active mapping exists per
// (entity_type, entity key).
type ExternalFolder struct {
	ID               string           `json:"id"                 db:"id"`
	EntityType       FolderEntityType `json:"entity_type"        db:"entity_type"`
	EntityID         *string          `json:"entity_id"          db:"entity_id"`
	PhoneKey         *string          `json:"phone_key"          db:"phone_key"`
	Provider         string           `json:"provider"           db:"provider"`
	ProviderFolderID string           `json:"provider_folder_id" db:"provider_folder_id"`
	PathLabel        string           `json:"path_label"         db:"path_label"`
	IsActive         bool             `json:"is_active"          db:"is_active"`
	CreatedAt        time.Time        `json:"created_at"         db:"created_at"`
}

// BookingMeeting associates a booking with a provider meeting. At most one
// row exists per booking (idempotent upsert keyed by booking_id).
type BookingMeeting struct {
	ID             string    `json:"id"              db:"id"`
	BookingID      string    `json:"booking_id"      db:"booking_id"`
	Provider       string    `json:"provider"        db:"provider"`
	MeetingID      string    `json:"meeting_id"      db:"meeting_id"`
	JoinURL        string    `json:"join_url"        db:"join_url"`
	StartURL       *string   `json:"start_url"       db:"start_url"`
	Status         string    `json:"status"          db:"status"`
	ScheduledStart time.Time `json:"scheduled_start" db:"scheduled_start"`
	Timezone       string    `json:"timezone"        db:"timezone"`
	CreatedAt      time.Time `json:"created_at"      db:"created_at"`
}

// IngestedDocument records one stored inbound media message, keyed by the
// source message id so webhook redeliveries are processed at most once.
type IngestedDocument struct {
	ID               string    `json:"id"                 db:"id"`
	MessageID        string    `json:"message_id"         db:"message_id"`
	MediaID          string    `json:"media_id"           db:"media_id"`
	SenderPhone      string    `json:"sender_phone"       db:"sender_phone"`
	SenderPhoneKey   string    `json:"sender_phone_key"   db:"sender_phone_key"`
	MediaType        string    `json:"media_type"         db:"media_type"`
	MimeType         string    `json:"mime_type"          db:"mime_type"`
	FileName         string    `json:"file_name"          db:"file_name"`
	SizeBytes        int64     `json:"size_bytes"         db:"size_bytes"`
	Provider         string    `json:"provider"           db:"provider"`
	ExternalFolderID string    `json:"external_folder_id" db:"external_folder_id"`
	ProviderFileID   string    `json:"provider_file_id"   db:"provider_file_id"`
	Status           string    `json:"status"             db:"status"`
	CreatedAt        time.Time `json:"created_at"         db:"created_at"`
}
