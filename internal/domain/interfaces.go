package domain

import "context"

// Notifier shows upload notifications. Calls are fire-and-forget:
// a notifier that fails logs and returns, it never fails the upload.
type Notifier interface {
	UploadStarted(fileName string)
	UploadCompleted(fileName, webLink string)
	UploadFailed(fileName, message string)
}

// LinkOpener opens a URL in the platform's default handler
type LinkOpener interface {
	Open(url string) error
}

// Authenticator guards access to the remote store.
// IsAuthenticated may silently refresh; Authenticate may run an interactive flow.
type Authenticator interface {
	IsAuthenticated(ctx context.Context) bool
	Authenticate(ctx context.Context) error
}

// ConflictPublisher hands a ConflictRequest to whoever decides it.
// PublishConflict must not block; the decision arrives through the request.
type ConflictPublisher interface {
	PublishConflict(req *ConflictRequest)
}

// SettingsProvider supplies upload settings at call time
type SettingsProvider interface {
	UploadSettings() UploadSettings
}

// NoOpNotifier discards notifications
type NoOpNotifier struct{}

func (NoOpNotifier) UploadStarted(string)           {}
func (NoOpNotifier) UploadCompleted(string, string) {}
func (NoOpNotifier) UploadFailed(string, string)    {}
