package model

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	// BookingStatusBooked is an active, confirmed booking.
	BookingStatusBooked BookingStatus = "booked"
	// BookingStatusCancelled is a booking cancelled before the slot.
	BookingStatusCancelled BookingStatus = "cancelled"
	// BookingStatusNoShow is a booking where the lead did not attend.
	BookingStatusNoShow BookingStatus = "no_show"
)

// Lead is the counterparty on a booking.
type Lead struct {
	ID              string  `json:"id"               db:"id"`
	Name            string  `json:"name"             db:"name"`
	Email           string  `json:"email"            db:"email"`
	Phone           string  `json:"phone"            db:"phone"`
	ServiceInterest *string `json:"service_interest" db:"service_interest"`
}

// Slot is the reserved time window on a booking.
type Slot struct {
	StartsAt time.Time `json:"starts_at" db:"starts_at"`
	EndsAt   time.Time `json:"ends_at"   db:"ends_at"`
	Timezone string    `json:"timezone"  db:"timezone"`
}

// BookingDetails joins a booking with its lead and slot. Lead or Slot may be
// nil when the referenced row is missing; handlers treat that as a data error.
type BookingDetails struct {
	ID     string        `json:"id"`
	Status BookingStatus `json:"status"`
	Lead   *Lead         `json:"lead"`
	Slot   *Slot         `json:"slot"`
}

// Client is a converted lead with an ongoing engagement.
type Client struct {
	ID     string `json:"id"     db:"id"`
	Name   string `json:"name"   db:"name"`
	Phone  string `json:"phone"  db:"phone"`
	Status string `json:"status" db:"client_status"`
}

// LeadEvent is an append-only audit note on a lead's timeline.
type LeadEvent struct {
	LeadID    string `json:"lead_id"    db:"lead_id"`
	EventType string `json:"event_type" db:"event_type"`
	Note      string `json:"note"       db:"note"`
	Actor     string `json:"actor"      db:"actor"`
}

// ReservedSlot is the result of the atomic slot reservation procedure.
type ReservedSlot struct {
	BookingID    string    `json:"booking_id"    db:"booking_id"`
	LeadID       string    `json:"lead_id"       db:"lead_id"`
	SlotStart    time.Time `json:"slot_start"    db:"slot_start"`
	SlotTimezone string    `json:"slot_timezone" db:"slot_timezone"`
}
