package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/shuttle/internal/domain"
)

// Uploader runs one upload to an explicit folder
type Uploader interface {
	UploadTo(ctx context.Context, path, folderID string) domain.TransferResult
}

// FolderSource lists and creates folders for the picker
type FolderSource interface {
	List(ctx context.Context, parentID string) ([]domain.RemoteFolder, error)
	Refresh(ctx context.Context, parentID string) ([]domain.RemoteFolder, error)
	Create(ctx context.Context, name, parentID string) (domain.RemoteFolder, error)
}

// Command factories for async operations

// StartUploadCmd runs the upload and closes the progress and conflict
// streams once it has returned
func StartUploadCmd(ctx context.Context, up Uploader, path, folderID string, observer *ChannelObserver, conflicts *ChannelConflictPublisher) tea.Cmd {
	return func() tea.Msg {
		result := up.UploadTo(ctx, path, folderID)
		observer.Close()
		conflicts.Close()
		return UploadDoneMsg{Result: result}
	}
}

// WaitForProgressCmd reads the next progress sample. It yields nil once the
// stream is closed, which ends the continuation.
func WaitForProgressCmd(ch <-chan domain.ProgressSample) tea.Cmd {
	return func() tea.Msg {
		sample, ok := <-ch
		if !ok {
			return nil
		}
		return ProgressMsg{Sample: sample}
	}
}

// WaitForConflictCmd reads the next conflict request
func WaitForConflictCmd(ch <-chan *domain.ConflictRequest) tea.Cmd {
	return func() tea.Msg {
		req, ok := <-ch
		if !ok {
			return nil
		}
		return ConflictMsg{Request: req}
	}
}

// LoadFoldersCmd lists the children of parentID, bypassing the cache when refresh is set
func LoadFoldersCmd(src FolderSource, parentID string, refresh bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var (
			folders []domain.RemoteFolder
			err     error
		)
		if refresh {
			folders, err = src.Refresh(ctx, parentID)
		} else {
			folders, err = src.List(ctx, parentID)
		}
		if err != nil {
			return ErrMsg{Err: err, Context: "loading folders"}
		}
		return FoldersLoadedMsg{ParentID: parentID, Folders: folders}
	}
}

// CreateFolderCmd creates a folder under parentID
func CreateFolderCmd(src FolderSource, name, parentID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		folder, err := src.Create(ctx, name, parentID)
		if err != nil {
			return ErrMsg{Err: err, Context: "creating folder"}
		}
		return FolderCreatedMsg{Folder: folder, ParentID: parentID}
	}
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
