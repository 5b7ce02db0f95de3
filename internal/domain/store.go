package domain

// Store handles local persistence (BoltDB + memory).
// Folder listings are a cache keyed by parent id; tokens and history are durable.
type Store interface {
	// === Credentials ===
	LoadToken() ([]byte, bool)
	SaveToken(raw []byte) error
	DeleteToken() error

	// === Folder cache ===
	GetFolders(parentID string) ([]RemoteFolder, bool)
	SaveFolders(parentID string, folders []RemoteFolder) error
	CachedFolders() []RemoteFolder

	// === Invalidation ===
	InvalidateFolders(parentID string)
	InvalidateAll()

	// === History ===
	AppendUpload(rec UploadRecord) error
	RecentUploads(limit int) ([]UploadRecord, error)

	Close() error
}
