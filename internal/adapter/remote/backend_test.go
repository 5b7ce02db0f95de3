package remote

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mmcdole/shuttle/internal/adapter"
	"github.com/mmcdole/shuttle/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCredentials = `{"installed":{"client_id":"id.apps.googleusercontent.com","client_secret":"secret",` +
	`"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token",` +
	`"redirect_uris":["http://localhost"]}}`

func TestNewBackendGDrive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(testCredentials), 0o600))

	cfg := adapter.DefaultConfig()
	cfg.GDrive.CredentialsFile = path

	conn, err := NewBackend(cfg, BackendDeps{Logger: adapter.NullLogger()})
	require.NoError(t, err)
	assert.Equal(t, "Google Drive", conn.Backend.Describe())
	assert.NotNil(t, conn.Auth)
}

func TestNewBackendGDriveMissingCredentials(t *testing.T) {
	cfg := adapter.DefaultConfig()
	cfg.GDrive.CredentialsFile = filepath.Join(t.TempDir(), "nope.json")

	_, err := NewBackend(cfg, BackendDeps{Logger: adapter.NullLogger()})
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestNewBackendS3(t *testing.T) {
	cfg := adapter.DefaultConfig()
	cfg.Backend.Type = adapter.BackendS3
	cfg.S3.Bucket = "backups"
	cfg.S3.Prefix = "laptop"

	conn, err := NewBackend(cfg, BackendDeps{Logger: adapter.NullLogger()})
	require.NoError(t, err)
	assert.Equal(t, "s3://backups/laptop/", conn.Backend.Describe())
	assert.Nil(t, conn.Auth)
}

func TestNewBackendUnknownType(t *testing.T) {
	cfg := adapter.DefaultConfig()
	cfg.Backend.Type = "ftp"

	_, err := NewBackend(cfg, BackendDeps{})
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}
