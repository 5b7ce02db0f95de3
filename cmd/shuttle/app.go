package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mmcdole/shuttle/internal/adapter"
	"github.com/mmcdole/shuttle/internal/adapter/remote"
	"github.com/mmcdole/shuttle/internal/service"
	"github.com/mmcdole/shuttle/internal/store"
	"golang.org/x/term"
)

// app holds the wired components for one command invocation
type app struct {
	cfg      *adapter.Config
	settings *adapter.Settings
	logger   *slog.Logger
	logFile  io.Closer
	store    *store.LocalStore
	conn     *remote.Connection
	client   *remote.Client
	opener   *adapter.Opener
	notifier *adapter.Notifier

	folders *service.FolderService
	session *service.SessionService
}

// newApp loads configuration and wires the backend and services.
// Sign-in instructions are written to prompt.
func newApp(opts *rootOptions, prompt io.Writer) (*app, error) {
	cfg, err := adapter.LoadConfig(opts.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, logFile, err := adapter.SetupLogger(cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger, logFile = adapter.NullLogger(), io.NopCloser(nil)
	}
	slog.SetDefault(logger)
	logger.Info("starting shuttle", "version", Version, "backend", cfg.Backend.Type)

	st, err := store.NewLocalStore(adapter.StorePath(), cfg.AccountKey())
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	settings := adapter.NewSettings(cfg, opts.configDir)
	opener := adapter.NewOpener(cfg.Opener.Command, logger.With("component", "opener"))

	conn, err := remote.NewBackend(cfg, remote.BackendDeps{
		Tokens: st,
		Opener: opener,
		Prompt: prompt,
		Logger: logger,
	})
	if err != nil {
		st.Close()
		logFile.Close()
		return nil, err
	}

	client := remote.NewClient(conn.Backend, logger.With("component", "remote"))

	var auth service.SessionAuth
	if conn.Auth != nil {
		auth = conn.Auth
	}

	return &app{
		cfg:      cfg,
		settings: settings,
		logger:   logger,
		logFile:  logFile,
		store:    st,
		conn:     conn,
		client:   client,
		opener:   opener,
		notifier: adapter.NewNotifier(cfg.Notify.Desktop, logger.With("component", "notifier")),
		folders:  service.NewFolderService(client, st, settings, logger.With("component", "folders")),
		session:  service.NewSessionService(conn.Backend, auth, settings, st, logger.With("component", "session")),
	}, nil
}

// uploadService builds the orchestrator with the app's collaborators plus opts
func (a *app) uploadService(opts ...service.UploadOption) *service.UploadService {
	base := []service.UploadOption{
		service.WithNotifier(a.notifier),
		service.WithLinkOpener(a.opener),
		service.WithHistory(a.store),
	}
	if a.conn.Auth != nil {
		base = append(base, service.WithAuthenticator(a.conn.Auth))
	}
	return service.NewUploadService(a.client, a.settings, a.logger.With("component", "upload"), append(base, opts...)...)
}

// ensureSignedIn runs the sign-in flow before a full-screen UI takes the terminal
func (a *app) ensureSignedIn(ctx context.Context) error {
	if a.conn.Auth == nil || a.conn.Auth.IsAuthenticated(ctx) {
		return nil
	}
	_, err := a.session.Login(ctx)
	return err
}

// rootLabel is the display name of the store root
func (a *app) rootLabel() string {
	if a.cfg.Backend.Type == adapter.BackendS3 {
		return a.conn.Backend.Describe()
	}
	return adapter.RootFolderName
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close store", "error", err)
	}
	a.logger.Info("shutting down")
	a.logFile.Close()
}

// interactive reports whether both ends of the terminal are attached
func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
