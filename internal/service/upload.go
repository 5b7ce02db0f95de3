package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/shuttle/internal/domain"
)

// keepBothLayout is the timestamp inserted before the extension of a kept copy
const keepBothLayout = "20060102_150405"

// RemoteStore is the remote client surface the orchestrator drives
type RemoteStore interface {
	Exists(ctx context.Context, name, folderID string) (*domain.ObjectRef, error)
	Create(ctx context.Context, path, folderID string, progress domain.ProgressFunc) domain.TransferResult
	Update(ctx context.Context, objectID, path string, progress domain.ProgressFunc) domain.TransferResult
}

// HistoryRecorder persists finished uploads
type HistoryRecorder interface {
	AppendUpload(rec domain.UploadRecord) error
}

// UploadService sequences one whole-file upload: existence check, conflict
// decision, create or update, then notifications. Every call returns exactly
// one TransferResult; errors never escape as Go errors or panics.
type UploadService struct {
	remote    RemoteStore
	settings  domain.SettingsProvider
	auth      domain.Authenticator
	notifier  domain.Notifier
	opener    domain.LinkOpener
	conflicts domain.ConflictPublisher
	observer  domain.ProgressObserver
	history   HistoryRecorder
	now       func() time.Time
	newID     func() string
	logger    *slog.Logger
}

// UploadOption configures an UploadService
type UploadOption func(*UploadService)

// WithAuthenticator checks (and if needed acquires) a credential before any remote call
func WithAuthenticator(a domain.Authenticator) UploadOption {
	return func(s *UploadService) { s.auth = a }
}

// WithNotifier sets the notification sink
func WithNotifier(n domain.Notifier) UploadOption {
	return func(s *UploadService) { s.notifier = n }
}

// WithLinkOpener sets how web links are opened after a successful upload
func WithLinkOpener(o domain.LinkOpener) UploadOption {
	return func(s *UploadService) { s.opener = o }
}

// WithConflictPublisher sets who decides name collisions.
// Without one, every collision resolves to Cancel.
func WithConflictPublisher(p domain.ConflictPublisher) UploadOption {
	return func(s *UploadService) { s.conflicts = p }
}

// WithProgressObserver sets the progress subscriber
func WithProgressObserver(o domain.ProgressObserver) UploadOption {
	return func(s *UploadService) { s.observer = o }
}

// WithHistory records every finished upload
func WithHistory(h HistoryRecorder) UploadOption {
	return func(s *UploadService) { s.history = h }
}

// WithClock overrides the time source used for keep-both names and history
func WithClock(now func() time.Time) UploadOption {
	return func(s *UploadService) { s.now = now }
}

// NewUploadService creates the orchestrator
func NewUploadService(remote RemoteStore, settings domain.SettingsProvider, logger *slog.Logger, opts ...UploadOption) *UploadService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &UploadService{
		remote:   remote,
		settings: settings,
		notifier: domain.NoOpNotifier{},
		observer: domain.NoOpObserver{},
		now:      time.Now,
		newID:    uuid.NewString,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload sends path to the default folder read from settings at call time
func (s *UploadService) Upload(ctx context.Context, path string) domain.TransferResult {
	return s.run(ctx, domain.TransferRequest{
		UploadID: s.newID(),
		Path:     path,
		FolderID: s.settings.UploadSettings().DefaultFolderID,
	})
}

// UploadTo sends path to an explicit folder (empty for the store root)
func (s *UploadService) UploadTo(ctx context.Context, path, folderID string) domain.TransferResult {
	return s.run(ctx, domain.TransferRequest{
		UploadID: s.newID(),
		Path:     path,
		FolderID: folderID,
	})
}

func (s *UploadService) run(ctx context.Context, req domain.TransferRequest) domain.TransferResult {
	logger := s.logger.With("upload_id", req.UploadID)
	name := filepath.Base(req.Path)

	info, err := os.Stat(req.Path)
	if err != nil || !info.Mode().IsRegular() {
		logger.Warn("source file missing", "path", req.Path)
		result := domain.Failed(fmt.Sprintf("%v: %s", domain.ErrFileNotFound, req.Path))
		s.record(logger, req, name, 0, result)
		return result
	}

	if ctx.Err() != nil {
		logger.Info("upload cancelled before start", "file", name)
		result := domain.Cancelled()
		s.record(logger, req, name, info.Size(), result)
		return result
	}

	settings := s.settings.UploadSettings()
	logger.Info("upload requested", "file", name, "size", info.Size(), "folder", req.FolderID)

	result := s.authenticate(ctx, logger)
	if result == nil {
		if settings.ShowProgress {
			s.notify(logger, func(n domain.Notifier) { n.UploadStarted(name) })
		}
		r := s.transfer(ctx, logger, req, name, info.Size())
		result = &r
	}

	s.finish(logger, settings, name, *result)
	s.record(logger, req, name, info.Size(), *result)
	return *result
}

// authenticate returns a terminal result when no credential can be obtained
func (s *UploadService) authenticate(ctx context.Context, logger *slog.Logger) *domain.TransferResult {
	if s.auth == nil || s.auth.IsAuthenticated(ctx) {
		return nil
	}

	logger.Info("not authenticated, starting sign-in")
	if err := s.auth.Authenticate(ctx); err != nil {
		if ctx.Err() != nil {
			r := domain.Cancelled()
			return &r
		}
		logger.Error("sign-in failed", "error", err)
		r := domain.Failed(fmt.Sprintf("%v: %v", domain.ErrUnauthenticated, err))
		return &r
	}
	return nil
}

// transfer runs the remote steps. A panic anywhere below is converted to Failed.
func (s *UploadService) transfer(ctx context.Context, logger *slog.Logger, req domain.TransferRequest, name string, size int64) (result domain.TransferResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("upload panicked", "panic", r, "stack", string(debug.Stack()))
			result = domain.Failed(fmt.Sprintf("upload failed: %v", r))
		}
	}()

	existing, err := s.remote.Exists(ctx, name, req.FolderID)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return domain.Cancelled()
		}
		return domain.Failed(err.Error())
	}

	if existing == nil {
		return s.remote.Create(ctx, req.Path, req.FolderID, s.progress(req.UploadID, name, size))
	}

	logger.Info("name conflict", "file", name, "existing_id", existing.ID)
	decision, err := s.resolveConflict(ctx, name, existing.ID)
	if err != nil {
		logger.Info("cancelled while waiting for conflict decision", "file", name)
		return domain.Cancelled()
	}
	logger.Info("conflict resolved", "file", name, "decision", decision)

	switch decision {
	case domain.DecisionReplace:
		r := s.remote.Update(ctx, existing.ID, req.Path, s.progress(req.UploadID, name, size))
		return r.WithResolution(domain.DecisionReplace)

	case domain.DecisionKeepBoth:
		r := s.keepBoth(ctx, logger, req, name, size)
		return r.WithResolution(domain.DecisionKeepBoth)

	default:
		return domain.Cancelled()
	}
}

// resolveConflict publishes a ConflictRequest and suspends until it is decided
// or ctx ends. Cancellation forces the request to Cancel so it never dangles.
func (s *UploadService) resolveConflict(ctx context.Context, name, existingID string) (domain.ConflictDecision, error) {
	req := domain.NewConflictRequest(name, existingID)
	if s.conflicts == nil {
		req.Resolve(domain.DecisionCancel)
	} else {
		s.conflicts.PublishConflict(req)
	}
	return req.Wait(ctx)
}

// keepBoth uploads a timestamped copy staged in a private temporary directory
func (s *UploadService) keepBoth(ctx context.Context, logger *slog.Logger, req domain.TransferRequest, name string, size int64) domain.TransferResult {
	stamped := KeepBothName(name, s.now())

	dir, err := os.MkdirTemp("", "shuttle-")
	if err != nil {
		return domain.Failed(fmt.Sprintf("failed to stage copy: %v", err))
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("failed to remove staged copy", "dir", dir, "error", err)
		}
	}()

	staged := filepath.Join(dir, stamped)
	if err := copyFile(req.Path, staged); err != nil {
		return domain.Failed(fmt.Sprintf("failed to stage copy: %v", err))
	}

	logger.Info("uploading copy", "file", name, "as", stamped)
	return s.remote.Create(ctx, staged, req.FolderID, s.progress(req.UploadID, stamped, size))
}

// KeepBothName inserts _yyyyMMdd_HHmmss before the extension of name
func KeepBothName(name string, at time.Time) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return stem + "_" + at.Format(keepBothLayout) + ext
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// progress wraps raw byte counts into samples for the observer
func (s *UploadService) progress(uploadID, name string, total int64) domain.ProgressFunc {
	return func(sent int64) {
		s.observer.OnProgress(domain.ProgressSample{
			UploadID:   uploadID,
			FileName:   name,
			BytesSent:  sent,
			TotalBytes: total,
		})
	}
}

// finish dispatches the post-upload side effects for result
func (s *UploadService) finish(logger *slog.Logger, settings domain.UploadSettings, name string, result domain.TransferResult) {
	switch result.Outcome {
	case domain.OutcomeSuccess:
		logger.Info("upload succeeded", "file", name, "id", result.ObjectID, "link", result.WebLink)
		if settings.NotifyOnComplete {
			display := result.Name
			if display == "" {
				display = name
			}
			s.notify(logger, func(n domain.Notifier) { n.UploadCompleted(display, result.WebLink) })
		}
		if settings.OpenInBrowserAfterUpload && result.WebLink != "" && s.opener != nil {
			if err := s.opener.Open(result.WebLink); err != nil {
				logger.Warn("failed to open link", "link", result.WebLink, "error", err)
			}
		}

	case domain.OutcomeFailed:
		logger.Error("upload failed", "file", name, "message", result.Message)
		s.notify(logger, func(n domain.Notifier) { n.UploadFailed(name, result.Message) })

	case domain.OutcomeCancelled:
		logger.Info("upload cancelled", "file", name)
	}
}

// notify calls the notifier, containing any panic it raises
func (s *UploadService) notify(logger *slog.Logger, fn func(domain.Notifier)) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("notifier panicked", "panic", r)
		}
	}()
	fn(s.notifier)
}

func (s *UploadService) record(logger *slog.Logger, req domain.TransferRequest, name string, size int64, result domain.TransferResult) {
	if s.history == nil {
		return
	}
	rec := domain.UploadRecord{
		UploadID: req.UploadID,
		FileName: name,
		Size:     size,
		ObjectID: result.ObjectID,
		WebLink:  result.WebLink,
		Outcome:  result.Outcome.String(),
		Message:  result.Message,
		At:       s.now(),
	}
	if result.Resolution != nil {
		rec.Resolution = result.Resolution.String()
	}
	if err := s.history.AppendUpload(rec); err != nil {
		logger.Warn("failed to record upload history", "error", err)
	}
}
