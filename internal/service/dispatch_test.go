package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustedge/integrations/internal/domain/model"
)

func TestDispatcher(t *testing.T) {
	ctx := context.Background()

	t.Run("routes to the registered handler", func(t *testing.T) {
		d := NewDispatcher()
		var got *model.IntegrationJob
		d.Register(model.JobTypeCreateMeeting, func(_ context.Context, job *model.IntegrationJob) error {
			got = job
			return nil
		})

		job := &model.IntegrationJob{ID: "job-1", Type: model.JobTypeCreateMeeting}
		require.NoError(t, d.Dispatch(ctx, job))
		assert.Equal(t, job, got)
	})

	t.Run("unknown type", func(t *testing.T) {
		d := NewDispatcher()
		err := d.Dispatch(ctx, &model.IntegrationJob{Type: model.JobTypeEnsureFolder})
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrUnknownJobType)
	})

	t.Run("later registration replaces the handler", func(t *testing.T) {
		d := NewDispatcher()
		d.Register(model.JobTypeEnsureFolder, func(context.Context, *model.IntegrationJob) error {
			return errors.New("first")
		})
		d.Register(model.JobTypeEnsureFolder, func(context.Context, *model.IntegrationJob) error {
			return nil
		})

		require.NoError(t, d.Dispatch(ctx, &model.IntegrationJob{Type: model.JobTypeEnsureFolder}))
	})
}
