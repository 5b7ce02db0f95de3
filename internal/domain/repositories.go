package domain

import (
	"context"
	"io"
)

// ObjectContent is the byte stream and metadata for one whole-file write
type ObjectContent struct {
	Name     string // remote display name
	FolderID string // parent folder, empty for the store root
	MimeType string
	Body     io.Reader
	Size     int64
}

// ObjectRepository is the transport a remote store backend implements.
// It performs single calls; retry, error suppression and ordering policy
// live in the client that wraps it.
type ObjectRepository interface {
	// FindByName returns the first non-trashed object with exactly this name,
	// inside folderID when set. Returns nil, nil when nothing matches.
	FindByName(ctx context.Context, name, folderID string) (*ObjectRef, error)

	// CreateObject uploads content as a new object
	CreateObject(ctx context.Context, content ObjectContent) (ObjectRef, error)

	// UpdateObject replaces the bytes of an existing object
	UpdateObject(ctx context.Context, objectID string, content ObjectContent) (ObjectRef, error)
}

// FolderRepository lists and creates remote folders
type FolderRepository interface {
	// ListFolders returns folder-typed, non-trashed children of parentID
	// (store root when empty). HasChildren is not populated.
	ListFolders(ctx context.Context, parentID string) ([]RemoteFolder, error)

	// HasSubfolders probes for at least one child folder
	HasSubfolders(ctx context.Context, folderID string) (bool, error)

	// CreateFolder creates a folder under parentID
	CreateFolder(ctx context.Context, name, parentID string) (RemoteFolder, error)
}

// Backend combines everything a remote store implementation provides
type Backend interface {
	ObjectRepository
	FolderRepository

	// Invalidate tears down any cached authenticated handle
	Invalidate()

	// Describe returns a short human label, e.g. "Google Drive" or "s3://bucket"
	Describe() string
}
