package tui

import (
	"github.com/mmcdole/shuttle/internal/domain"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// ProgressMsg carries one progress sample from the running upload
type ProgressMsg struct {
	Sample domain.ProgressSample
}

// ConflictMsg asks the user to decide a name collision
type ConflictMsg struct {
	Request *domain.ConflictRequest
}

// UploadDoneMsg carries the terminal result of the upload
type UploadDoneMsg struct {
	Result domain.TransferResult
}

// FoldersLoadedMsg signals that the children of a folder have been listed
type FoldersLoadedMsg struct {
	ParentID string
	Folders  []domain.RemoteFolder
}

// FolderCreatedMsg signals that a new folder exists under ParentID
type FolderCreatedMsg struct {
	Folder   domain.RemoteFolder
	ParentID string
}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}
