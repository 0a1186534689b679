package service

import (
	"context"
	"fmt"

	"github.com/trustedge/integrations/internal/domain/media"
	"github.com/trustedge/integrations/internal/domain/model"
	"github.com/trustedge/integrations/internal/domain/phone"
	apperrors "github.com/trustedge/integrations/internal/errors"
)

const (
	providerGoogleDrive = "google_drive"
	providerWhatsApp    = "whatsapp"

	// clientIDSuffixLen is how much of the client id goes into the folder
	// name to disambiguate clients with the same display name.
	clientIDSuffixLen = 8
)

func clientFolderName(client *model.Client) string {
	suffix := client.ID
	if len(suffix) > clientIDSuffixLen {
		suffix = suffix[:clientIDSuffixLen]
	}
	return fmt.Sprintf("Client - %s - %s", media.SafeLabel(client.Name, "Client"), suffix)
}

func prospectFolderName(phoneKey string) string {
	return "Prospect - " + phoneKey
}

// HandleEnsureFolder resolves or creates the storage folder for the entity the
// payload references. Re-runs and concurrent runs converge on one active
// mapping per entity.
func (h *Handlers) HandleEnsureFolder(ctx context.Context, job *model.IntegrationJob) error {
	var payload model.FolderPayload
	if err := model.DecodePayload(job.Payload, &payload); err != nil {
		return err
	}

	if payload.ClientID != "" {
		_, err := h.ensureClientFolder(ctx, payload.ClientID)
		return err
	}

	phoneKey := payload.PhoneKey
	if phoneKey == "" {
		phoneKey = phone.NormalizeKey(payload.SenderPhone)
	}
	if phoneKey == "" {
		return fmt.Errorf("ensure_folder payload has no usable phone key")
	}

	_, err := h.ensureFolderForPhone(ctx, phoneKey)
	return err
}

// ensureClientFolder returns the active mapping for a client, creating the
// provider folder and the mapping when absent. Losing the mapping insert race
// falls back to the winner's row.
func (h *Handlers) ensureClientFolder(ctx context.Context, clientID string) (*model.ExternalFolder, error) {
	if existing, err := h.folders.FindActiveByClient(ctx, clientID); err == nil {
		return existing, nil
	} else if !apperrors.IsNotFound(err) {
		return nil, fmt.Errorf("look up client folder: %w", err)
	}

	client, err := h.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("load client: %w", err)
	}

	name := clientFolderName(client)
	folder, err := h.storage.EnsureFolder(ctx, name, h.driveCfg.RootFolderID)
	if err != nil {
		return nil, fmt.Errorf("ensure provider folder: %w", err)
	}

	mapping := &model.ExternalFolder{
		EntityType:       model.FolderEntityClient,
		EntityID:         &client.ID,
		Provider:         providerGoogleDrive,
		ProviderFolderID: folder.ID,
		PathLabel:        name,
	}
	created, err := h.folders.Insert(ctx, mapping)
	if err != nil {
		if apperrors.IsConflict(err) {
			return h.folders.FindActiveByClient(ctx, clientID)
		}
		return nil, fmt.Errorf("store client folder mapping: %w", err)
	}
	return created, nil
}

// ensureFolderForPhone resolves the folder for an inbound sender phone: an
// active client with that phone gets their client folder; anyone else gets a
// prospect folder keyed by the normalized phone.
func (h *Handlers) ensureFolderForPhone(ctx context.Context, phoneKey string) (*model.ExternalFolder, error) {
	client, err := h.clients.FindActiveByPhoneKey(ctx, phoneKey)
	if err == nil {
		return h.ensureClientFolder(ctx, client.ID)
	}
	if !apperrors.IsNotFound(err) {
		return nil, fmt.Errorf("match client by phone: %w", err)
	}

	if existing, findErr := h.folders.FindActiveByPhoneKey(ctx, phoneKey); findErr == nil {
		return existing, nil
	} else if !apperrors.IsNotFound(findErr) {
		return nil, fmt.Errorf("look up prospect folder: %w", findErr)
	}

	name := prospectFolderName(phoneKey)
	folder, err := h.storage.EnsureFolder(ctx, name, h.driveCfg.RootFolderID)
	if err != nil {
		return nil, fmt.Errorf("ensure provider folder: %w", err)
	}

	mapping := &model.ExternalFolder{
		EntityType:       model.FolderEntityProspectPhone,
		PhoneKey:         &phoneKey,
		Provider:         providerGoogleDrive,
		ProviderFolderID: folder.ID,
		PathLabel:        name,
	}
	created, err := h.folders.Insert(ctx, mapping)
	if err != nil {
		if apperrors.IsConflict(err) {
			return h.folders.FindActiveByPhoneKey(ctx, phoneKey)
		}
		return nil, fmt.Errorf("store prospect folder mapping: %w", err)
	}
	return created, nil
}
