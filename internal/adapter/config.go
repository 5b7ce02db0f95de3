package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/mmcdole/shuttle/internal/domain"
	"github.com/spf13/viper"
)

// BackendType identifies the remote store
type BackendType string

const (
	BackendGDrive BackendType = "gdrive"
	BackendS3     BackendType = "s3"
)

// RootFolderName is shown for the store root when no default folder is set
const RootFolderName = "My Drive"

// Config holds all application configuration
type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	GDrive  GDriveConfig  `mapstructure:"gdrive"`
	S3      S3Config      `mapstructure:"s3"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Account AccountConfig `mapstructure:"account"`
	Opener  OpenerConfig  `mapstructure:"opener"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// BackendConfig selects the remote store
type BackendConfig struct {
	Type BackendType `mapstructure:"type"` // "gdrive" or "s3"
}

// GDriveConfig holds Google Drive settings
type GDriveConfig struct {
	CredentialsFile     string `mapstructure:"credentials_file"` // OAuth client secrets (credentials.json)
	OpenBrowserForLogin bool   `mapstructure:"open_browser_for_login"`
}

// S3Config holds S3-compatible bucket settings
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"` // custom endpoint, e.g. MinIO
	Prefix          string `mapstructure:"prefix"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

// UploadConfig holds upload behaviour
type UploadConfig struct {
	DefaultFolderID          string `mapstructure:"default_folder_id"`
	DefaultFolderName        string `mapstructure:"default_folder_name"`
	ShowProgress             bool   `mapstructure:"show_progress"`
	NotifyOnComplete         bool   `mapstructure:"notify_on_complete"`
	OpenInBrowserAfterUpload bool   `mapstructure:"open_in_browser_after_upload"`
	OnConflict               string `mapstructure:"on_conflict"` // ask, replace, keep-both, cancel
}

// AccountConfig records the signed-in account for display
type AccountConfig struct {
	Email     string `mapstructure:"email"`
	Connected bool   `mapstructure:"connected"`
}

// OpenerConfig holds the link opener command
type OpenerConfig struct {
	Command string `mapstructure:"command"` // empty for the system default
}

// NotifyConfig holds notification settings
type NotifyConfig struct {
	Desktop bool `mapstructure:"desktop"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{Type: BackendGDrive},
		GDrive: GDriveConfig{
			CredentialsFile:     filepath.Join(defaultConfigPath(), "credentials.json"),
			OpenBrowserForLogin: true,
		},
		S3: S3Config{
			Region: "us-east-1",
		},
		Upload: UploadConfig{
			DefaultFolderName:        RootFolderName,
			ShowProgress:             true,
			NotifyOnComplete:         true,
			OpenInBrowserAfterUpload: true,
			OnConflict:               "ask",
		},
		Notify: NotifyConfig{Desktop: true},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// values flattens cfg into viper keys. It is the single list of keys
// used both for defaults and for writing the file.
func (c *Config) values() map[string]any {
	return map[string]any{
		"backend.type": string(c.Backend.Type),

		"gdrive.credentials_file":       c.GDrive.CredentialsFile,
		"gdrive.open_browser_for_login": c.GDrive.OpenBrowserForLogin,

		"s3.bucket":            c.S3.Bucket,
		"s3.region":            c.S3.Region,
		"s3.endpoint":          c.S3.Endpoint,
		"s3.prefix":            c.S3.Prefix,
		"s3.access_key_id":     c.S3.AccessKeyID,
		"s3.secret_access_key": c.S3.SecretAccessKey,
		"s3.use_path_style":    c.S3.UsePathStyle,

		"upload.default_folder_id":            c.Upload.DefaultFolderID,
		"upload.default_folder_name":          c.Upload.DefaultFolderName,
		"upload.show_progress":                c.Upload.ShowProgress,
		"upload.notify_on_complete":           c.Upload.NotifyOnComplete,
		"upload.open_in_browser_after_upload": c.Upload.OpenInBrowserAfterUpload,
		"upload.on_conflict":                  c.Upload.OnConflict,

		"account.email":     c.Account.Email,
		"account.connected": c.Account.Connected,

		"opener.command": c.Opener.Command,
		"notify.desktop": c.Notify.Desktop,

		"logging.file":  c.Logging.File,
		"logging.level": c.Logging.Level,
	}
}

// dataDir returns the per-user data directory for the current OS
func dataDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "shuttle")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "shuttle")
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	return filepath.Join(dataDir(), "shuttle.log")
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "shuttle")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "shuttle")
	}
}

// StorePath returns the directory holding the local database
func StorePath() string {
	return filepath.Join(dataDir(), "store")
}

func newViper(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	// Environment variable overrides, e.g. SHUTTLE_UPLOAD_SHOW_PROGRESS=false
	v.SetEnvPrefix("SHUTTLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig loads configuration from dir (the default location when empty)
// and the environment
func LoadConfig(dir string) (*Config, error) {
	if dir == "" {
		dir = defaultConfigPath()
	}

	cfg := DefaultConfig()
	v := newViper(dir)
	for key, val := range cfg.values() {
		v.SetDefault(key, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	cfg.GDrive.CredentialsFile = expandHome(cfg.GDrive.CredentialsFile)
	cfg.Logging.File = expandHome(cfg.Logging.File)
	return cfg, nil
}

// SaveConfig writes cfg to dir (the default location when empty)
func SaveConfig(dir string, cfg *Config) error {
	if dir == "" {
		dir = defaultConfigPath()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// A fresh instance so environment overrides are not written back
	v := viper.New()
	v.SetConfigType("yaml")
	for key, val := range cfg.values() {
		v.Set(key, val)
	}

	configFile := filepath.Join(dir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate reports whether the selected backend has what it needs
func (c *Config) Validate() error {
	switch c.Backend.Type {
	case BackendGDrive:
		if c.GDrive.CredentialsFile == "" {
			return fmt.Errorf("%w: gdrive.credentials_file is empty", domain.ErrNotConfigured)
		}
	case BackendS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("%w: s3.bucket is empty", domain.ErrNotConfigured)
		}
	default:
		return fmt.Errorf("%w: unknown backend type %q", domain.ErrNotConfigured, c.Backend.Type)
	}
	return nil
}

// AccountKey identifies the remote account; local state is partitioned by it
func (c *Config) AccountKey() string {
	switch c.Backend.Type {
	case BackendS3:
		return fmt.Sprintf("s3|%s|%s|%s", c.S3.Endpoint, c.S3.Bucket, c.S3.Prefix)
	default:
		return "gdrive|" + c.GDrive.CredentialsFile
	}
}

// expandHome expands a leading ~ in path
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// Settings is the live configuration shared by commands and services.
// Reads are served at call time; setters persist the whole file.
type Settings struct {
	mu  sync.RWMutex
	cfg Config
	dir string
}

// NewSettings wraps a loaded config that is saved back to dir
func NewSettings(cfg *Config, dir string) *Settings {
	return &Settings{cfg: *cfg, dir: dir}
}

// Config returns a copy of the current configuration
func (s *Settings) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// UploadSettings implements domain.SettingsProvider
func (s *Settings) UploadSettings() domain.UploadSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name := s.cfg.Upload.DefaultFolderName
	if s.cfg.Upload.DefaultFolderID == "" && name == "" {
		name = RootFolderName
	}
	return domain.UploadSettings{
		DefaultFolderID:          s.cfg.Upload.DefaultFolderID,
		DefaultFolderName:        name,
		ShowProgress:             s.cfg.Upload.ShowProgress,
		NotifyOnComplete:         s.cfg.Upload.NotifyOnComplete,
		OpenInBrowserAfterUpload: s.cfg.Upload.OpenInBrowserAfterUpload,
	}
}

// SetDefaultFolder changes the upload target folder and saves the config
func (s *Settings) SetDefaultFolder(id, name string) error {
	return s.update(func(c *Config) {
		if id == "" && name == "" {
			name = RootFolderName
		}
		c.Upload.DefaultFolderID = id
		c.Upload.DefaultFolderName = name
	})
}

// SetAccount records the signed-in account and saves the config
func (s *Settings) SetAccount(email string, connected bool) error {
	return s.update(func(c *Config) {
		c.Account.Email = email
		c.Account.Connected = connected
	})
}

// Account returns the recorded account e-mail and connection state
func (s *Settings) Account() (email string, connected bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Account.Email, s.cfg.Account.Connected
}

func (s *Settings) update(fn func(*Config)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg
	fn(&next)
	if err := SaveConfig(s.dir, &next); err != nil {
		return err
	}
	s.cfg = next
	return nil
}
