// Package drive stores client documents in Google Drive through a service
// account.
package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/trustedge/integrations/config"
	"github.com/trustedge/integrations/internal/core"
	apperrors "github.com/trustedge/integrations/internal/errors"
)

const folderMimeType = "application/vnd.google-apps.folder"

// Client implements core.StorageProvider against the Drive v3 API.
type Client struct {
	cfg     config.DriveConfig
	service *drivev3.Service
}

// NewClient builds a Drive client from service-account credentials. With
// incomplete credentials it returns a client whose Configured reports false;
// operations then fail with a config error instead of an auth error.
func NewClient(ctx context.Context, cfg config.DriveConfig) (*Client, error) {
	c := &Client{cfg: cfg}
	if !cfg.Configured() {
		return c, nil
	}

	// Keys pasted into single-line env vars arrive with literal \n sequences.
	pem := strings.ReplaceAll(cfg.PrivateKey, `\n`, "\n")

	jwtCfg := &jwt.Config{
		Email:      cfg.ServiceAccountEmail,
		PrivateKey: []byte(pem),
		Scopes:     []string{drivev3.DriveScope},
		TokenURL:   google.JWTTokenURL,
	}

	service, err := drivev3.NewService(ctx, option.WithHTTPClient(jwtCfg.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	c.service = service
	return c, nil
}

// Configured reports whether the service-account credentials are present.
func (c *Client) Configured() bool {
	return c.cfg.Configured() && c.service != nil
}

// RootFolderID returns the configured root folder all mappings live under.
func (c *Client) RootFolderID() string {
	return c.cfg.RootFolderID
}

// EnsureFolder finds a non-trashed folder with the given name under parentID,
// creating it when absent. Repeated calls converge on the same folder.
func (c *Client) EnsureFolder(ctx context.Context, name, parentID string) (*core.FolderResult, error) {
	if !c.Configured() {
		return nil, apperrors.Config("google drive credentials are not configured")
	}
	if name == "" || parentID == "" {
		return nil, errors.New("folder name and parent id are required")
	}

	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and '%s' in parents and trashed = false",
		escapeQueryValue(name), folderMimeType, escapeQueryValue(parentID))

	list, err := c.service.Files.List().
		Context(ctx).
		Q(query).
		Fields("files(id, name)").
		PageSize(1).
		Do()
	if err != nil {
		return nil, fmt.Errorf("search drive folder %q: %w", name, err)
	}
	if len(list.Files) > 0 {
		return &core.FolderResult{ID: list.Files[0].Id, Name: list.Files[0].Name}, nil
	}

	created, err := c.service.Files.Create(&drivev3.File{
		Name:     name,
		MimeType: folderMimeType,
		Parents:  []string{parentID},
	}).Context(ctx).Fields("id, name").Do()
	if err != nil {
		return nil, fmt.Errorf("create drive folder %q: %w", name, err)
	}
	return &core.FolderResult{ID: created.Id, Name: created.Name}, nil
}

// UploadFile stores a file in the given folder.
func (c *Client) UploadFile(ctx context.Context, req core.UploadRequest) (*core.FileResult, error) {
	if !c.Configured() {
		return nil, apperrors.Config("google drive credentials are not configured")
	}
	if req.FolderID == "" || req.FileName == "" {
		return nil, errors.New("folder id and file name are required")
	}

	created, err := c.service.Files.Create(&drivev3.File{
		Name:    req.FileName,
		Parents: []string{req.FolderID},
	}).
		Context(ctx).
		Media(bytes.NewReader(req.Data), googleapi.ContentType(req.MimeType)).
		Fields("id, name").
		Do()
	if err != nil {
		return nil, fmt.Errorf("upload drive file %q: %w", req.FileName, err)
	}
	return &core.FileResult{ID: created.Id, Name: created.Name}, nil
}

// escapeQueryValue escapes the quote characters Drive's query language
// interprets.
func escapeQueryValue(value string) string {
	return strings.ReplaceAll(strings.ReplaceAll(value, `\`, `\\`), `'`, `\'`)
}

var _ core.StorageProvider = (*Client)(nil)
