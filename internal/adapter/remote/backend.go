package remote

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/mmcdole/shuttle/internal/adapter"
	"github.com/mmcdole/shuttle/internal/adapter/remote/gdrive"
	"github.com/mmcdole/shuttle/internal/adapter/remote/s3"
	"github.com/mmcdole/shuttle/internal/domain"
)

// Authenticator is a domain.Authenticator that can also forget its credential
type Authenticator interface {
	domain.Authenticator
	SignOut() error
}

// Connection is a configured backend and, when the backend needs an
// interactive sign-in, its authenticator
type Connection struct {
	Backend domain.Backend
	Auth    Authenticator // nil when credentials come from config
}

// BackendDeps are the collaborators a backend may need
type BackendDeps struct {
	Tokens gdrive.TokenStore
	Opener domain.LinkOpener
	Prompt io.Writer // where sign-in instructions are printed
	Logger *slog.Logger
}

// NewBackend creates the backend selected by cfg.Backend.Type.
// This factory function abstracts away the specific store implementation.
func NewBackend(cfg *adapter.Config, deps BackendDeps) (*Connection, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Backend.Type {
	case adapter.BackendGDrive:
		oauthCfg, err := gdrive.LoadOAuthConfig(cfg.GDrive.CredentialsFile)
		if err != nil {
			return nil, err
		}
		auth := gdrive.NewAuth(oauthCfg, deps.Tokens, deps.Opener, cfg.GDrive.OpenBrowserForLogin, deps.Prompt, logger.With("component", "gdrive-auth"))
		backend := gdrive.NewClient(gdrive.NewServiceFactory(auth), logger.With("component", "gdrive"))
		return &Connection{Backend: backend, Auth: auth}, nil

	case adapter.BackendS3:
		backend, err := s3.NewClient(s3.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			Prefix:          cfg.S3.Prefix,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
		}, logger.With("component", "s3"))
		if err != nil {
			return nil, err
		}
		return &Connection{Backend: backend}, nil

	default:
		return nil, fmt.Errorf("unknown backend type: %s", cfg.Backend.Type)
	}
}
