package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobTypeValid(t *testing.T) {
	for _, jt := range []JobType{
		JobTypeCreateMeeting,
		JobTypeSendClientConfirmation,
		JobTypeEnsureFolder,
		JobTypeProcessInboundMedia,
	} {
		assert.True(t, jt.Valid(), string(jt))
	}
	assert.False(t, JobType("resize_image").Valid())
	assert.False(t, JobType("").Valid())
}

func TestJobTypeUnmarshalText(t *testing.T) {
	var jt JobType
	require.NoError(t, jt.UnmarshalText([]byte("  Create_Meeting ")))
	assert.Equal(t, JobTypeCreateMeeting, jt)

	require.Error(t, jt.UnmarshalText([]byte("unknown")))
}

func TestJobStatusTerminal(t *testing.T) {
	assert.False(t, JobStatusPending.Terminal())
	assert.False(t, JobStatusRunning.Terminal())
	assert.True(t, JobStatusSucceeded.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
}

func TestEnqueueRequestValidate(t *testing.T) {
	valid := EnqueueRequest{Type: JobTypeCreateMeeting, Payload: []byte(`{"bookingId":"b1"}`)}
	require.NoError(t, valid.Validate())

	missingPayload := EnqueueRequest{Type: JobTypeCreateMeeting}
	require.Error(t, missingPayload.Validate())

	badType := EnqueueRequest{Type: "nope", Payload: []byte(`{}`)}
	require.Error(t, badType.Validate())
}

func TestDecodePayload(t *testing.T) {
	t.Run("meeting payload", func(t *testing.T) {
		var p MeetingPayload
		require.NoError(t, DecodePayload([]byte(`{"bookingId":"b1","leadId":"l1"}`), &p))
		assert.Equal(t, "b1", p.BookingID)
		assert.Equal(t, "l1", p.LeadID)
	})

	t.Run("validation runs after decode", func(t *testing.T) {
		var p MeetingPayload
		require.Error(t, DecodePayload([]byte(`{"leadId":"l1"}`), &p))
	})

	t.Run("folder payload needs some entity reference", func(t *testing.T) {
		var p FolderPayload
		require.Error(t, DecodePayload([]byte(`{}`), &p))
		require.NoError(t, DecodePayload([]byte(`{"senderPhone":"+14155550134"}`), &p))
	})

	t.Run("media payload requires source fields", func(t *testing.T) {
		var p MediaPayload
		require.Error(t, DecodePayload([]byte(`{"messageId":"m1"}`), &p))
	})

	t.Run("malformed json errors", func(t *testing.T) {
		var p MeetingPayload
		require.Error(t, DecodePayload([]byte(`{"bookingId":`), &p))
	})
}

func TestLeadIDFromPayload(t *testing.T) {
	assert.Equal(t, "l1", LeadIDFromPayload([]byte(`{"bookingId":"b1","leadId":"l1"}`)))
	assert.Empty(t, LeadIDFromPayload([]byte(`{"bookingId":"b1"}`)))
	assert.Empty(t, LeadIDFromPayload([]byte(`not json`)))
}
