package adapter

import (
	"fmt"
	"log/slog"

	"github.com/gen2brain/beeep"
)

// notifyFunc shows one desktop notification
type notifyFunc func(title, body string) error

func desktopNotify(title, body string) error {
	return beeep.Notify(title, body, "")
}

// Notifier logs upload events and optionally shows desktop notifications.
// It implements domain.Notifier; a failed notification is logged and dropped.
type Notifier struct {
	desktop bool
	notify  notifyFunc
	logger  *slog.Logger
}

// NewNotifier creates a Notifier. desktop enables OS notifications.
func NewNotifier(desktop bool, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{desktop: desktop, notify: desktopNotify, logger: logger}
}

// UploadStarted announces the start of an upload
func (n *Notifier) UploadStarted(fileName string) {
	n.logger.Info("upload started", "file", fileName)
	n.show("Uploading", fileName)
}

// UploadCompleted announces a finished upload with its link
func (n *Notifier) UploadCompleted(fileName, webLink string) {
	n.logger.Info("upload completed", "file", fileName, "link", webLink)
	body := fileName
	if webLink != "" {
		body = fileName + "\n" + webLink
	}
	n.show("Upload complete", body)
}

// UploadFailed announces a failed upload
func (n *Notifier) UploadFailed(fileName, message string) {
	n.logger.Warn("upload failed", "file", fileName, "message", message)
	n.show("Upload failed", fmt.Sprintf("%s: %s", fileName, message))
}

func (n *Notifier) show(title, body string) {
	if !n.desktop {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			n.logger.Debug("desktop notification panicked", "panic", r)
		}
	}()
	if err := n.notify("shuttle: "+title, body); err != nil {
		n.logger.Debug("desktop notification unavailable", "error", err)
	}
}
