package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/trustedge/integrations/internal/domain/model"
	"github.com/trustedge/integrations/internal/mocks"
)

func TestNewJobService(t *testing.T) {
	t.Run("requires a repository", func(t *testing.T) {
		_, err := NewJobService(JobServiceOptions{})
		require.Error(t, err)
	})

	t.Run("must variant panics without a repository", func(t *testing.T) {
		assert.Panics(t, func() {
			MustNewJobService(JobServiceOptions{})
		})
	})
}

func TestJobServiceEnqueue(t *testing.T) {
	ctx := context.Background()

	t.Run("passes the request through", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockJobRepository(ctrl)

		req := &model.EnqueueRequest{
			Type:           model.JobTypeCreateMeeting,
			Payload:        []byte(`{"bookingId":"booking-1"}`),
			IdempotencyKey: "create_meeting:booking-1",
		}
		repo.EXPECT().Enqueue(gomock.Any(), req).
			Return(&model.EnqueueResult{ID: "job-1"}, nil)

		svc := MustNewJobService(JobServiceOptions{Repo: repo})
		result, err := svc.Enqueue(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "job-1", result.ID)
		assert.False(t, result.Deduped)
	})

	t.Run("surfaces repository errors", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockJobRepository(ctrl)
		repo.EXPECT().Enqueue(gomock.Any(), gomock.Any()).
			Return(nil, errors.New("connection refused"))

		svc := MustNewJobService(JobServiceOptions{Repo: repo})
		_, err := svc.Enqueue(ctx, &model.EnqueueRequest{
			Type:    model.JobTypeEnsureFolder,
			Payload: []byte(`{}`),
		})
		require.Error(t, err)
	})

	t.Run("reports dedupe hits", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockJobRepository(ctrl)
		repo.EXPECT().Enqueue(gomock.Any(), gomock.Any()).
			Return(&model.EnqueueResult{ID: "job-1", Deduped: true}, nil)

		svc := MustNewJobService(JobServiceOptions{Repo: repo})
		result, err := svc.Enqueue(ctx, &model.EnqueueRequest{
			Type:           model.JobTypeCreateMeeting,
			Payload:        []byte(`{"bookingId":"booking-1"}`),
			IdempotencyKey: "create_meeting:booking-1",
		})
		require.NoError(t, err)
		assert.True(t, result.Deduped)
	})
}

func TestJobServiceStats(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	repo.EXPECT().Stats(gomock.Any()).
		Return(&model.JobStats{Pending: 2, Succeeded: 7}, nil)

	svc := MustNewJobService(JobServiceOptions{Repo: repo})
	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, 7, stats.Succeeded)
}
