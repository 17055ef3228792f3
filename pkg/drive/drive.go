package drive

import (
	"context"
	"fmt"
	"io"
	"strings"

	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const folderMimeType = "application/vnd.google-apps.folder"

// queryEscaper neutralizes characters with meaning in Drive search queries.
var queryEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// StoredFile references an object created in Drive.
type StoredFile struct {
	ID   string
	Link string
}

// Client wraps the four Drive primitives the intake pipeline depends on:
// folder lookup, folder creation, file creation and link-permission grant.
type Client struct {
	svc          *gdrive.Service
	rootFolderID string
}

// NewClient authenticates with a service-account credentials file.
func NewClient(ctx context.Context, credentialsFile, rootFolderID string) (*Client, error) {
	svc, err := gdrive.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gdrive.DriveScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &Client{svc: svc, rootFolderID: rootFolderID}, nil
}

// FindFolder returns the ID of a non-trashed folder with the given name under
// the root container, or an empty string when none exists.
func (c *Client) FindFolder(ctx context.Context, name string) (string, error) {
	query := fmt.Sprintf("name='%s' and mimeType='%s' and '%s' in parents and trashed=false",
		queryEscaper.Replace(name), folderMimeType, c.rootFolderID)
	res, err := c.svc.Files.List().
		Q(query).
		Spaces("drive").
		Fields("files(id)").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("list folders: %w", err)
	}
	if len(res.Files) == 0 {
		return "", nil
	}
	return res.Files[0].Id, nil
}

// CreateFolder creates a folder under the root container and returns its ID.
func (c *Client) CreateFolder(ctx context.Context, name string) (string, error) {
	folder := &gdrive.File{
		Name:     name,
		MimeType: folderMimeType,
		Parents:  []string{c.rootFolderID},
	}
	created, err := c.svc.Files.Create(folder).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("create folder %q: %w", name, err)
	}
	return created.Id, nil
}

// UploadFile streams r into a new file under folderID.
func (c *Client) UploadFile(ctx context.Context, folderID, name, mimeType string, r io.Reader) (*StoredFile, error) {
	meta := &gdrive.File{Name: name, Parents: []string{folderID}}
	call := c.svc.Files.Create(meta).
		Fields("id", "webViewLink").
		SupportsAllDrives(true).
		Context(ctx)
	if mimeType != "" {
		call = call.Media(r, googleapi.ContentType(mimeType))
	} else {
		call = call.Media(r)
	}
	created, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("upload file %q: %w", name, err)
	}
	link := created.WebViewLink
	if link == "" {
		link = fmt.Sprintf("https://drive.google.com/file/d/%s/view?usp=sharing", created.Id)
	}
	return &StoredFile{ID: created.Id, Link: link}, nil
}

// GrantLinkAccess makes the file readable by anyone holding its link.
func (c *Client) GrantLinkAccess(ctx context.Context, fileID string) error {
	perm := &gdrive.Permission{Type: "anyone", Role: "reader"}
	_, err := c.svc.Permissions.Create(fileID, perm).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("grant link access on %s: %w", fileID, err)
	}
	return nil
}
