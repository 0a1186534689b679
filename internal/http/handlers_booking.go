package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/trustedge/integrations/internal/core"
	"github.com/trustedge/integrations/internal/domain/model"
	apperrors "github.com/trustedge/integrations/internal/errors"
	"github.com/trustedge/integrations/internal/service"
)

type reserveSlotRequest struct {
	SlotID          string `json:"slotId"`
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	ServiceInterest string `json:"serviceInterest"`
	Message         string `json:"message"`
}

func (r *reserveSlotRequest) validate() error {
	r.SlotID = strings.TrimSpace(r.SlotID)
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)

	switch {
	case r.SlotID == "":
		return errors.New("slotId is required")
	case r.FullName == "":
		return errors.New("fullName is required")
	case r.Email == "" || !strings.Contains(r.Email, "@"):
		return errors.New("a valid email is required")
	case r.Phone == "":
		return errors.New("phone is required")
	}
	return nil
}

type reserveSlotResponse struct {
	BookingID    string    `json:"bookingId"`
	LeadID       string    `json:"leadId"`
	SlotStart    time.Time `json:"slotStart"`
	SlotTimezone string    `json:"slotTimezone"`
}

// handleReserveSlot reserves a consultation slot and seeds the integration
// pipeline. The reservation itself is atomic in the database; the follow-up
// meeting job is enqueued best-effort because a lost enqueue is recoverable
// while a double booking is not.
func (s *Server) handleReserveSlot(w http.ResponseWriter, r *http.Request) {
	var req reserveSlotRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_request", Err: err})
		return
	}

	reserved, err := s.bookings.ReserveSlot(r.Context(), core.ReserveSlotRequest{
		SlotID:          req.SlotID,
		FullName:        req.FullName,
		Email:           req.Email,
		Phone:           req.Phone,
		ServiceInterest: req.ServiceInterest,
		Message:         req.Message,
	})
	if err != nil {
		if apperrors.IsConflict(err) {
			WriteError(w, ErrorParams{
				Code:    http.StatusConflict,
				ErrCode: "slot_unavailable",
				Err:     errors.New("slot is no longer available"),
			})
			return
		}
		s.logger.ErrorContext(r.Context(), "slot reservation failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "reservation_failed",
			Err:     errors.New("reservation failed"),
		})
		return
	}

	s.enqueueMeetingJob(r, reserved)

	WriteJSON(w, http.StatusCreated, reserveSlotResponse{
		BookingID:    reserved.BookingID,
		LeadID:       reserved.LeadID,
		SlotStart:    reserved.SlotStart,
		SlotTimezone: reserved.SlotTimezone,
	})
}

func (s *Server) enqueueMeetingJob(r *http.Request, reserved *model.ReservedSlot) {
	payload, err := json.Marshal(model.MeetingPayload{
		BookingID: reserved.BookingID,
		LeadID:    reserved.LeadID,
	})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to encode meeting payload",
			"booking_id", reserved.BookingID, "error", err)
		return
	}

	_, err = s.jobs.Enqueue(r.Context(), &model.EnqueueRequest{
		Type:           model.JobTypeCreateMeeting,
		Payload:        payload,
		IdempotencyKey: service.MeetingIdempotencyKey(reserved.BookingID),
	})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to enqueue meeting job",
			"booking_id", reserved.BookingID,
			"error", fmt.Errorf("enqueue create_meeting: %w", err))
	}
}
