package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrFileNotFound indicates the local source file does not exist
	ErrFileNotFound = errors.New("file not found")

	// ErrUnauthenticated indicates no valid credential is available
	ErrUnauthenticated = errors.New("not authenticated with the remote store")

	// ErrAuthExpired indicates the stored credential was rejected by the backend
	ErrAuthExpired = errors.New("authentication token is expired or revoked")

	// ErrDeviceCodeExpired indicates the device login code expired before it was approved
	ErrDeviceCodeExpired = errors.New("login code expired")

	// ErrFolderNotFound indicates the requested remote folder does not exist
	ErrFolderNotFound = errors.New("remote folder not found")

	// ErrNotConfigured indicates the backend section of the config is incomplete
	ErrNotConfigured = errors.New("remote store is not configured")
)
