package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustedge/integrations/internal/domain/model"
)

func TestHandleEnsureFolder(t *testing.T) {
	ctx := context.Background()

	t.Run("creates client folder and mapping", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.clients.byID["client-abc123def456"] = &model.Client{
			ID:   "client-abc123def456",
			Name: "Frank & Sons, LLC",
		}

		job := jobOf(t, model.JobTypeEnsureFolder, model.FolderPayload{ClientID: "client-abc123def456"})
		require.NoError(t, f.handlers.HandleEnsureFolder(ctx, job))

		require.Len(t, f.storage.ensureCalls, 1)
		assert.Equal(t, "Client - Frank Sons LLC - client-a", f.storage.ensureCalls[0])

		mapping := f.folders.byClient["client-abc123def456"]
		require.NotNil(t, mapping)
		assert.Equal(t, model.FolderEntityClient, mapping.EntityType)
		assert.True(t, mapping.IsActive)
	})

	t.Run("existing client mapping short-circuits", func(t *testing.T) {
		f := newHandlerFixture(t)
		clientID := "client-1"
		f.folders.byClient[clientID] = &model.ExternalFolder{
			ID:       "mapping-existing",
			EntityID: &clientID,
			IsActive: true,
		}

		job := jobOf(t, model.JobTypeEnsureFolder, model.FolderPayload{ClientID: clientID})
		require.NoError(t, f.handlers.HandleEnsureFolder(ctx, job))

		assert.Empty(t, f.storage.ensureCalls)
		assert.Zero(t, f.folders.insertCalls)
	})

	t.Run("lost insert race falls back to winner's mapping", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.clients.byID["client-1"] = &model.Client{ID: "client-1", Name: "Acme"}
		f.folders.insertConflict = true

		folder, err := f.handlers.ensureClientFolder(ctx, "client-1")
		require.NoError(t, err)
		require.NotNil(t, folder)
		assert.Equal(t, "mapping-winner", folder.ID)
		assert.Equal(t, 1, f.folders.insertCalls)
	})

	t.Run("prospect phone creates prospect mapping", func(t *testing.T) {
		f := newHandlerFixture(t)

		job := jobOf(t, model.JobTypeEnsureFolder, model.FolderPayload{SenderPhone: "+1 (415) 555-0134"})
		require.NoError(t, f.handlers.HandleEnsureFolder(ctx, job))

		require.Len(t, f.storage.ensureCalls, 1)
		assert.Equal(t, "Prospect - 14155550134", f.storage.ensureCalls[0])

		mapping := f.folders.byPhone["14155550134"]
		require.NotNil(t, mapping)
		assert.Equal(t, model.FolderEntityProspectPhone, mapping.EntityType)
	})

	t.Run("phone matching an active client resolves the client folder", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.clients.byPhone["14155550134"] = &model.Client{ID: "client-9", Name: "Dana Whitfield"}
		f.clients.byID["client-9"] = &model.Client{ID: "client-9", Name: "Dana Whitfield"}

		job := jobOf(t, model.JobTypeEnsureFolder, model.FolderPayload{PhoneKey: "14155550134"})
		require.NoError(t, f.handlers.HandleEnsureFolder(ctx, job))

		require.Len(t, f.storage.ensureCalls, 1)
		assert.Contains(t, f.storage.ensureCalls[0], "Client - Dana Whitfield")
		assert.NotNil(t, f.folders.byClient["client-9"])
		assert.Nil(t, f.folders.byPhone["14155550134"])
	})

	t.Run("payload without entity reference fails", func(t *testing.T) {
		f := newHandlerFixture(t)
		job := jobOf(t, model.JobTypeEnsureFolder, model.FolderPayload{})
		require.Error(t, f.handlers.HandleEnsureFolder(ctx, job))
	})
}
