package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MeetingPayload is the payload for create_meeting jobs.
type MeetingPayload struct {
	BookingID string `json:"bookingId"`
	LeadID    string `json:"leadId,omitempty"`
}

// Validate checks required fields.
func (p *MeetingPayload) Validate() error {
	if p.BookingID == "" {
		return errors.New("create_meeting requires bookingId")
	}
	return nil
}

// ConfirmationPayload is the payload for send_client_confirmation jobs.
type ConfirmationPayload struct {
	BookingID string `json:"bookingId"`
	LeadID    string `json:"leadId,omitempty"`
}

// Validate checks required fields.
func (p *ConfirmationPayload) Validate() error {
	if p.BookingID == "" {
		return errors.New("send_client_confirmation requires bookingId")
	}
	return nil
}

// FolderPayload is the payload for ensure_folder jobs. Exactly one of
// ClientID or PhoneKey/SenderPhone must identify the entity.
type FolderPayload struct {
	ClientID    string `json:"clientId,omitempty"`
	PhoneKey    string `json:"phoneKey,omitempty"`
	SenderPhone string `json:"senderPhone,omitempty"`
}

// Validate checks that some entity reference is present.
func (p *FolderPayload) Validate() error {
	if p.ClientID == "" && p.PhoneKey == "" && p.SenderPhone == "" {
		return errors.New("ensure_folder requires either clientId or phoneKey/senderPhone")
	}
	return nil
}

// MediaPayload is the payload for process_inbound_media jobs.
type MediaPayload struct {
	MessageID string `json:"messageId"`
	MediaID   string `json:"mediaId"`
	MediaType string `json:"mediaType"`
	FromPhone string `json:"fromPhone"`
	Timestamp string `json:"timestamp,omitempty"`
	FileName  string `json:"fileName,omitempty"`
	MimeType  string `json:"mimeType,omitempty"`
}

// Validate checks required fields.
func (p *MediaPayload) Validate() error {
	if p.MessageID == "" || p.MediaID == "" || p.MediaType == "" || p.FromPhone == "" {
		return errors.New("process_inbound_media payload is incomplete")
	}
	return nil
}

// DecodePayload unmarshals raw payload JSON into dst and validates it.
func DecodePayload(raw json.RawMessage, dst interface{ Validate() error }) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return dst.Validate()
}

// leadRef is the minimal shape used to pull an optional lead reference out of
// any job payload for audit notes.
type leadRef struct {
	LeadID string `json:"leadId"`
}

// LeadIDFromPayload extracts the lead reference carried by a payload, or ""
// when the payload has none. Malformed payloads yield "" rather than an error
// because audit notes are best-effort.
func LeadIDFromPayload(raw json.RawMessage) string {
	var ref leadRef
	if err := json.Unmarshal(raw, &ref); err != nil {
		return ""
	}
	return ref.LeadID
}
