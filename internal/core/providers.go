package core

import (
	"context"
	"time"
)

// MeetingRequest describes the meeting to provision.
type MeetingRequest struct {
	Topic           string
	StartTime       time.Time
	DurationMinutes int
	Timezone        string
	Agenda          string
}

// MeetingResult is the provider's view of a created meeting.
type MeetingResult struct {
	MeetingID string
	JoinURL   string
	StartURL  string
}

// MeetingProvider provisions video-conference meetings.
type MeetingProvider interface {
	Configured() bool
	CreateMeeting(ctx context.Context, req MeetingRequest) (*MeetingResult, error)
}

// FolderResult is the provider's view of a storage folder.
type FolderResult struct {
	ID   string
	Name string
}

// FileResult is the provider's view of an uploaded file.
type FileResult struct {
	ID   string
	Name string
}

// UploadRequest describes a file upload into an existing folder.
type UploadRequest struct {
	FolderID string
	FileName string
	MimeType string
	Data     []byte
}

// StorageProvider manages folders and files in the external document store.
type StorageProvider interface {
	Configured() bool
	// EnsureFolder finds or creates a folder with the given name under the
	// parent. Safe to call repeatedly.
	EnsureFolder(ctx context.Context, name, parentID string) (*FolderResult, error)
	UploadFile(ctx context.Context, req UploadRequest) (*FileResult, error)
}

// MediaMetadata describes an inbound media object held by the messaging
// provider.
type MediaMetadata struct {
	URL      string
	MimeType string
	FileSize int64
}

// MediaDownload is the fetched binary content of a media object.
type MediaDownload struct {
	Data     []byte
	MimeType string
}

// TemplateMessage is an outbound templated notification.
type TemplateMessage struct {
	ToPhone string
	// Params fill the template body placeholders in order.
	Params []string
}

// MessagingProvider is the WhatsApp-style messaging integration.
type MessagingProvider interface {
	ConfiguredForOutbound() bool
	GetMediaMetadata(ctx context.Context, mediaID string) (*MediaMetadata, error)
	DownloadMedia(ctx context.Context, url string) (*MediaDownload, error)
	SendTemplateMessage(ctx context.Context, msg TemplateMessage) error
}

// EmailMessage is a plain-text outbound email.
type EmailMessage struct {
	From    string
	To      string
	Subject string
	Text    string
}

// EmailProvider sends transactional email.
type EmailProvider interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// TokenCache is an expiry-aware cache for provider access tokens. Get returns
// a cached token when it is still valid past the refresh margin; otherwise it
// invokes fetch and caches the result.
type TokenCache interface {
	Get(ctx context.Context, key string, fetch TokenFetchFunc) (string, error)
}

// TokenFetchFunc obtains a fresh token and its expiry.
type TokenFetchFunc func(ctx context.Context) (token string, expiresAt time.Time, err error)
