package adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mmcdole/shuttle/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, BackendGDrive, cfg.Backend.Type)
	assert.Equal(t, RootFolderName, cfg.Upload.DefaultFolderName)
	assert.True(t, cfg.Upload.ShowProgress)
	assert.True(t, cfg.Upload.NotifyOnComplete)
	assert.True(t, cfg.Upload.OpenInBrowserAfterUpload)
	assert.Equal(t, "ask", cfg.Upload.OnConflict)
	assert.Equal(t, "INFO", cfg.Logging.Level)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
backend:
  type: s3
s3:
  bucket: backups
  use_path_style: true
upload:
  default_folder_id: reports/
  open_in_browser_after_upload: false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("SHUTTLE_UPLOAD_SHOW_PROGRESS", "false")
	t.Setenv("SHUTTLE_S3_REGION", "eu-west-1")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, BackendS3, cfg.Backend.Type)
	assert.Equal(t, "backups", cfg.S3.Bucket)
	assert.Equal(t, "eu-west-1", cfg.S3.Region)
	assert.True(t, cfg.S3.UsePathStyle)
	assert.Equal(t, "reports/", cfg.Upload.DefaultFolderID)
	assert.False(t, cfg.Upload.OpenInBrowserAfterUpload)
	assert.False(t, cfg.Upload.ShowProgress)
	assert.True(t, cfg.Upload.NotifyOnComplete)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend.Type = BackendS3
	assert.ErrorIs(t, cfg.Validate(), domain.ErrNotConfigured)

	cfg.Backend.Type = "ftp"
	assert.ErrorIs(t, cfg.Validate(), domain.ErrNotConfigured)
}

func TestAccountKeyDiffersByBackend(t *testing.T) {
	cfg := DefaultConfig()
	gdrive := cfg.AccountKey()

	cfg.Backend.Type = BackendS3
	cfg.S3.Bucket = "one"
	one := cfg.AccountKey()
	cfg.S3.Bucket = "two"

	assert.NotEqual(t, gdrive, one)
	assert.NotEqual(t, one, cfg.AccountKey())
}

func TestSettingsPersistChanges(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	s := NewSettings(cfg, dir)

	require.NoError(t, s.SetDefaultFolder("abc123", "Reports"))
	require.NoError(t, s.SetAccount("me@example.com", true))

	got := s.UploadSettings()
	assert.Equal(t, "abc123", got.DefaultFolderID)
	assert.Equal(t, "Reports", got.DefaultFolderName)

	reloaded, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "abc123", reloaded.Upload.DefaultFolderID)
	assert.Equal(t, "me@example.com", reloaded.Account.Email)
	assert.True(t, reloaded.Account.Connected)
}

func TestSettingsResetToRoot(t *testing.T) {
	dir := t.TempDir()
	s := NewSettings(DefaultConfig(), dir)
	require.NoError(t, s.SetDefaultFolder("abc", "Reports"))

	require.NoError(t, s.SetDefaultFolder("", ""))
	got := s.UploadSettings()
	assert.Empty(t, got.DefaultFolderID)
	assert.Equal(t, RootFolderName, got.DefaultFolderName)
}
