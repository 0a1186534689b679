package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trustedge/integrations/config"
	"github.com/trustedge/integrations/internal/domain/model"
)

// handlerFixture wires the handler set over in-memory stubs.
type handlerFixture struct {
	jobRepo    *stubJobRepo
	bookings   *stubBookingRepo
	meetings   *stubMeetingRepo
	folders    *stubFolderRepo
	documents  *stubDocumentRepo
	clients    *stubClientRepo
	leadEvents *stubLeadEventRepo
	meeting    *stubMeetingProvider
	storage    *stubStorageProvider
	messaging  *stubMessagingProvider
	email      *stubEmailProvider
	handlers   *Handlers
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	f := &handlerFixture{
		jobRepo:    newStubJobRepo(),
		bookings:   &stubBookingRepo{},
		meetings:   newStubMeetingRepo(),
		folders:    newStubFolderRepo(),
		documents:  newStubDocumentRepo(),
		clients:    newStubClientRepo(),
		leadEvents: &stubLeadEventRepo{},
		meeting:    &stubMeetingProvider{},
		storage:    &stubStorageProvider{},
		messaging:  &stubMessagingProvider{outbound: true},
		email:      &stubEmailProvider{},
	}

	jobs, err := NewJobService(JobServiceOptions{Repo: f.jobRepo})
	require.NoError(t, err)

	f.handlers, err = NewHandlers(HandlersOptions{
		Jobs:       jobs,
		Bookings:   f.bookings,
		Meetings:   f.meetings,
		Folders:    f.folders,
		Documents:  f.documents,
		Clients:    f.clients,
		LeadEvents: f.leadEvents,
		Meeting:    f.meeting,
		Storage:    f.storage,
		Messaging:  f.messaging,
		Email:      f.email,
		Drive:      config.DriveConfig{RootFolderID: "root-folder"},
		EmailCfg:   config.EmailConfig{ResendAPIKey: "rk_test", From: "bookings@example.com"},
	})
	require.NoError(t, err)
	return f
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func jobOf(t *testing.T, jobType model.JobType, payload any) *model.IntegrationJob {
	t.Helper()
	return &model.IntegrationJob{
		ID:      "job-under-test",
		Type:    jobType,
		Status:  model.JobStatusRunning,
		Payload: mustJSON(t, payload),
	}
}

func bookedDetails() *model.BookingDetails {
	start := time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)
	return &model.BookingDetails{
		ID:     "booking-1",
		Status: model.BookingStatusBooked,
		Lead: &model.Lead{
			ID:    "lead-1",
			Name:  "Dana Whitfield",
			Email: "dana@example.com",
			Phone: "+1 (415) 555-0134",
		},
		Slot: &model.Slot{
			StartsAt: start,
			EndsAt:   start.Add(45 * time.Minute),
			Timezone: "America/Los_Angeles",
		},
	}
}

func TestNewHandlers(t *testing.T) {
	t.Run("returns error when a dependency is missing", func(t *testing.T) {
		_, err := NewHandlers(HandlersOptions{})
		require.Error(t, err)
	})
}

func TestMeetingDurationMinutes(t *testing.T) {
	start := time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		window time.Duration
		want   int
	}{
		{name: "standard slot", window: 45 * time.Minute, want: 45},
		{name: "short slot floors at minimum", window: 5 * time.Minute, want: 15},
		{name: "exact minimum", window: 15 * time.Minute, want: 15},
		{name: "long slot", window: 2 * time.Hour, want: 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot := &model.Slot{StartsAt: start, EndsAt: start.Add(tt.window)}
			require.Equal(t, tt.want, meetingDurationMinutes(slot))
		})
	}
}

func TestIdempotencyKeys(t *testing.T) {
	require.Equal(t, "create_meeting:booking-1", MeetingIdempotencyKey("booking-1"))
	require.Equal(t, "wa_media:wamid.123", MediaIdempotencyKey("wamid.123"))
	require.Equal(t,
		"send_client_confirmation:booking-1:987",
		confirmationIdempotencyKey("booking-1", "987"))
}
