package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/mmcdole/shuttle/internal/domain"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// defaultProbeConcurrency bounds parallel child-folder probes in ListFolders
const defaultProbeConcurrency = 4

// Client is the remote store client used by the upload and folder services.
// It is stateless per call; the only shared state is the backend's cached
// authenticated handle.
type Client struct {
	backend    domain.Backend
	policy     RetryPolicy
	sleep      func(ctx context.Context, d time.Duration) error
	probeLimit int
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithRetryPolicy overrides the Create retry policy
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.policy = p }
}

// WithProbeConcurrency sets how many child-folder probes run at once
func WithProbeConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.probeLimit = n
		}
	}
}

// NewClient wraps a backend with the retry and lookup policy
func NewClient(backend domain.Backend, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		backend:    backend,
		policy:     DefaultRetryPolicy,
		sleep:      sleepContext,
		probeLimit: defaultProbeConcurrency,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Describe returns the backend label
func (c *Client) Describe() string {
	return c.backend.Describe()
}

// Invalidate tears down the backend's cached authenticated handle
func (c *Client) Invalidate() {
	c.backend.Invalidate()
}

// Exists looks up an object by exact name in folderID (or anywhere when empty).
//
// Backend failures are logged and reported as "not found": a failed lookup
// should not block the upload itself. Only cancellation is returned as an error.
func (c *Client) Exists(ctx context.Context, name, folderID string) (*domain.ObjectRef, error) {
	ref, err := c.backend.FindByName(ctx, name, folderID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.noteCredentialError(err)
		c.logger.Warn("existence check failed, assuming no conflict", "name", name, "folder", folderLabel(folderID), "error", err)
		return nil, nil
	}
	return ref, nil
}

// Create uploads path as a new object named after its base name.
// Failed attempts are retried per the client's RetryPolicy; cancellation
// at any point returns a Cancelled result.
func (c *Client) Create(ctx context.Context, path, folderID string, progress domain.ProgressFunc) domain.TransferResult {
	name := filepath.Base(path)
	report := monotonic(progress)

	c.logger.Info("starting upload", "file", name, "folder", folderLabel(folderID))

	for attempt := 1; ; attempt++ {
		ref, err := c.writeOnce(ctx, path, func(content domain.ObjectContent) (domain.ObjectRef, error) {
			content.FolderID = folderID
			return c.backend.CreateObject(ctx, content)
		}, report)

		switch c.policy.decide(classifyAttempt(ctx, err), attempt) {
		case actionReturnSuccess:
			c.logger.Info("upload complete", "file", name, "id", ref.ID, "attempt", attempt)
			return domain.Succeeded(ref)

		case actionReturnCancelled:
			c.logger.Info("upload cancelled", "file", name, "attempt", attempt)
			return domain.Cancelled()

		case actionReturnFailed:
			c.logger.Error("upload failed", "file", name, "attempts", attempt, "error", err)
			return domain.Failed(fmt.Sprintf("upload failed: %v", err))

		case actionBackoff:
			c.noteCredentialError(err)
			delay := c.policy.Delay(attempt)
			c.logger.Warn("upload attempt failed, retrying", "file", name, "attempt", attempt, "delay", delay, "error", err)
			if err := c.sleep(ctx, delay); err != nil {
				c.logger.Info("upload cancelled during backoff", "file", name)
				return domain.Cancelled()
			}
		}
	}
}

// Update replaces the content of objectID with the bytes of path.
// It makes a single attempt: a blind retry of an update can double-apply.
func (c *Client) Update(ctx context.Context, objectID, path string, progress domain.ProgressFunc) domain.TransferResult {
	name := filepath.Base(path)
	c.logger.Info("updating object", "file", name, "id", objectID)

	ref, err := c.writeOnce(ctx, path, func(content domain.ObjectContent) (domain.ObjectRef, error) {
		return c.backend.UpdateObject(ctx, objectID, content)
	}, progress)

	switch classifyAttempt(ctx, err) {
	case attemptSucceeded:
		c.logger.Info("update complete", "file", name, "id", ref.ID)
		return domain.Succeeded(ref)
	case attemptCancelled:
		return domain.Cancelled()
	default:
		c.noteCredentialError(err)
		c.logger.Error("update failed", "file", name, "id", objectID, "error", err)
		return domain.Failed(fmt.Sprintf("update failed: %v", err))
	}
}

// writeOnce opens path, builds the content and runs one backend write
func (c *Client) writeOnce(
	ctx context.Context,
	path string,
	write func(domain.ObjectContent) (domain.ObjectRef, error),
	progress domain.ProgressFunc,
) (domain.ObjectRef, error) {
	if err := ctx.Err(); err != nil {
		return domain.ObjectRef{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return domain.ObjectRef{}, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return domain.ObjectRef{}, fmt.Errorf("failed to stat %s: %w", filepath.Base(path), err)
	}

	return write(domain.ObjectContent{
		Name:     filepath.Base(path),
		MimeType: MimeType(path),
		Body:     newProgressReader(f, progress),
		Size:     info.Size(),
	})
}

// ListFolders returns the folder children of parentID ordered by name
// (case-insensitive), each annotated with a one-item child probe.
func (c *Client) ListFolders(ctx context.Context, parentID string) ([]domain.RemoteFolder, error) {
	folders, err := c.backend.ListFolders(ctx, parentID)
	if err != nil {
		c.noteCredentialError(err)
		c.logger.Error("failed to list folders", "parent", folderLabel(parentID), "error", err)
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.probeLimit)
	for i := range folders {
		g.Go(func() error {
			has, err := c.backend.HasSubfolders(gctx, folders[i].ID)
			if err != nil {
				return fmt.Errorf("failed to probe folder %s: %w", folders[i].Name, err)
			}
			folders[i].HasChildren = has
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.Error("failed to probe subfolders", "parent", folderLabel(parentID), "error", err)
		return nil, err
	}

	sortFolders(folders)
	return folders, nil
}

// CreateFolder creates a folder. It is user-triggered and not retried.
func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (domain.RemoteFolder, error) {
	folder, err := c.backend.CreateFolder(ctx, name, parentID)
	if err != nil {
		c.noteCredentialError(err)
		c.logger.Error("failed to create folder", "name", name, "parent", folderLabel(parentID), "error", err)
		return domain.RemoteFolder{}, fmt.Errorf("failed to create folder: %w", err)
	}
	c.logger.Info("created folder", "name", folder.Name, "id", folder.ID)
	return folder, nil
}

// noteCredentialError drops the cached handle when the backend rejected the credential
func (c *Client) noteCredentialError(err error) {
	if errors.Is(err, domain.ErrAuthExpired) {
		c.logger.Info("credential rejected, dropping cached client")
		c.backend.Invalidate()
	}
}

// sortFolders orders folders by display name, ignoring case
func sortFolders(folders []domain.RemoteFolder) {
	cl := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(folders, func(i, j int) bool {
		return cl.CompareString(folders[i].Name, folders[j].Name) < 0
	})
}

// monotonic drops samples lower than one already reported, so a retried
// transfer never moves progress backwards
func monotonic(progress domain.ProgressFunc) domain.ProgressFunc {
	if progress == nil {
		return nil
	}
	var high int64
	return func(sent int64) {
		if sent < high {
			return
		}
		high = sent
		progress(sent)
	}
}

func folderLabel(folderID string) string {
	if folderID == "" {
		return "root"
	}
	return folderID
}
