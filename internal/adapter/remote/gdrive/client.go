package gdrive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/mmcdole/shuttle/internal/domain"
	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	// fileFields are the fields requested for uploaded objects
	fileFields = "id, name, webViewLink"

	listPageSize = 100
)

// ServiceFactory builds an authenticated Drive service handle and the
// function that tears down its transport
type ServiceFactory func(ctx context.Context) (*drive.Service, func(), error)

// TokenSourcer supplies the OAuth token source for Drive calls
type TokenSourcer interface {
	TokenSource() (oauth2.TokenSource, error)
}

// NewServiceFactory returns a factory that authenticates with the given token source.
// Every handle gets its own transport so tearing one down leaves the others alone.
func NewServiceFactory(auth TokenSourcer, opts ...option.ClientOption) ServiceFactory {
	return func(ctx context.Context) (*drive.Service, func(), error) {
		ts, err := auth.TokenSource()
		if err != nil {
			return nil, nil, err
		}
		base := http.DefaultTransport.(*http.Transport).Clone()
		hc := &http.Client{Transport: &oauth2.Transport{Source: ts, Base: base}}

		all := append([]option.ClientOption{option.WithHTTPClient(hc)}, opts...)
		svc, err := drive.NewService(ctx, all...)
		if err != nil {
			base.CloseIdleConnections()
			return nil, nil, err
		}
		return svc, base.CloseIdleConnections, nil
	}
}

// driveHandle is one authenticated service and its teardown
type driveHandle struct {
	svc     *drive.Service
	release func()
}

// Client implements domain.Backend for Google Drive.
// The service handle is built on first use and cached until Invalidate.
type Client struct {
	factory ServiceFactory
	current atomic.Pointer[driveHandle]
	buildMu sync.Mutex
	logger  *slog.Logger
}

// NewClient creates a Drive backend
func NewClient(factory ServiceFactory, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{factory: factory, logger: logger}
}

// Describe returns the backend label
func (c *Client) Describe() string { return "Google Drive" }

// Invalidate tears down the cached service: its idle connections are closed
// and the next call builds a new one. Requests already in flight finish on
// the old handle.
func (c *Client) Invalidate() {
	h := c.current.Swap(nil)
	if h == nil {
		return
	}
	if h.release != nil {
		h.release()
	}
	c.logger.Debug("drive service torn down")
}

// service returns the cached handle or builds one
func (c *Client) service(ctx context.Context) (*drive.Service, error) {
	if h := c.current.Load(); h != nil {
		return h.svc, nil
	}

	c.buildMu.Lock()
	defer c.buildMu.Unlock()
	if h := c.current.Load(); h != nil {
		return h.svc, nil
	}

	svc, release, err := c.factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	c.logger.Debug("drive service created")
	c.current.Store(&driveHandle{svc: svc, release: release})
	return svc, nil
}

// FindByName returns the first non-trashed file named name, or nil
func (c *Client) FindByName(ctx context.Context, name, folderID string) (*domain.ObjectRef, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return nil, err
	}

	q := nameQuery(name, folderID)
	c.logger.Debug("drive lookup", "q", q)

	list, err := svc.Files.List().
		Q(q).
		Spaces("drive").
		PageSize(1).
		Fields("files(id, name, webViewLink)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, c.mapError(err)
	}
	if len(list.Files) == 0 {
		return nil, nil
	}
	return toRef(list.Files[0]), nil
}

// CreateObject uploads content as a new file
func (c *Client) CreateObject(ctx context.Context, content domain.ObjectContent) (domain.ObjectRef, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return domain.ObjectRef{}, err
	}

	meta := &drive.File{Name: content.Name, MimeType: content.MimeType}
	if content.FolderID != "" {
		meta.Parents = []string{content.FolderID}
	}

	f, err := svc.Files.Create(meta).
		Media(content.Body, googleapi.ContentType(content.MimeType)).
		Fields(fileFields).
		Context(ctx).
		Do()
	if err != nil {
		if content.FolderID != "" && isStatus(err, http.StatusNotFound) {
			return domain.ObjectRef{}, fmt.Errorf("%w: %s", domain.ErrFolderNotFound, content.FolderID)
		}
		return domain.ObjectRef{}, c.mapError(err)
	}
	return *toRef(f), nil
}

// UpdateObject replaces the content of an existing file
func (c *Client) UpdateObject(ctx context.Context, objectID string, content domain.ObjectContent) (domain.ObjectRef, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return domain.ObjectRef{}, err
	}

	f, err := svc.Files.Update(objectID, &drive.File{}).
		Media(content.Body, googleapi.ContentType(content.MimeType)).
		Fields(fileFields).
		Context(ctx).
		Do()
	if err != nil {
		return domain.ObjectRef{}, c.mapError(err)
	}
	return *toRef(f), nil
}

// ListFolders returns all non-trashed folders directly under parentID
func (c *Client) ListFolders(ctx context.Context, parentID string) ([]domain.RemoteFolder, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return nil, err
	}

	var folders []domain.RemoteFolder
	err = svc.Files.List().
		Q(folderQuery(parentID)).
		Spaces("drive").
		OrderBy("name").
		PageSize(listPageSize).
		Fields("nextPageToken, files(id, name)").
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				folders = append(folders, domain.RemoteFolder{
					ID:       f.Id,
					Name:     f.Name,
					ParentID: parentID,
				})
			}
			return nil
		})
	if err != nil {
		return nil, c.mapError(err)
	}
	return folders, nil
}

// HasSubfolders asks for a single child folder
func (c *Client) HasSubfolders(ctx context.Context, folderID string) (bool, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return false, err
	}

	list, err := svc.Files.List().
		Q(folderQuery(folderID)).
		Spaces("drive").
		PageSize(1).
		Fields("files(id)").
		Context(ctx).
		Do()
	if err != nil {
		return false, c.mapError(err)
	}
	return len(list.Files) > 0, nil
}

// CreateFolder creates a folder under parentID (root when empty)
func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (domain.RemoteFolder, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return domain.RemoteFolder{}, err
	}

	parent := parentID
	if parent == "" {
		parent = rootAlias
	}

	f, err := svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: FolderMimeType,
		Parents:  []string{parent},
	}).Fields("id, name").Context(ctx).Do()
	if err != nil {
		if parentID != "" && isStatus(err, http.StatusNotFound) {
			return domain.RemoteFolder{}, fmt.Errorf("%w: %s", domain.ErrFolderNotFound, parentID)
		}
		return domain.RemoteFolder{}, c.mapError(err)
	}
	return domain.RemoteFolder{ID: f.Id, Name: f.Name, ParentID: parentID}, nil
}

// AccountEmail returns the signed-in user's e-mail address
func (c *Client) AccountEmail(ctx context.Context) (string, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return "", err
	}

	about, err := svc.About.Get().Fields("user(emailAddress)").Context(ctx).Do()
	if err != nil {
		return "", c.mapError(err)
	}
	if about.User == nil {
		return "", nil
	}
	return about.User.EmailAddress, nil
}

// mapError turns credential rejections into domain.ErrAuthExpired
func (c *Client) mapError(err error) error {
	var rerr *oauth2.RetrieveError
	if isStatus(err, http.StatusUnauthorized) || errors.As(err, &rerr) {
		c.logger.Warn("drive rejected credential", "error", err)
		return fmt.Errorf("%w: %v", domain.ErrAuthExpired, err)
	}
	return err
}

func isStatus(err error, code int) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == code
}

func toRef(f *drive.File) *domain.ObjectRef {
	return &domain.ObjectRef{ID: f.Id, Name: f.Name, WebLink: f.WebViewLink}
}
