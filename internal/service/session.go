package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmcdole/shuttle/internal/domain"
)

// SessionAuth signs in to and out of the remote store
type SessionAuth interface {
	domain.Authenticator
	SignOut() error
}

// AccountLookup is implemented by backends that can name the signed-in user
type AccountLookup interface {
	AccountEmail(ctx context.Context) (string, error)
}

// AccountSettings persists which account is connected
type AccountSettings interface {
	Account() (email string, connected bool)
	SetAccount(email string, connected bool) error
}

// CacheClearer drops cached remote state
type CacheClearer interface {
	InvalidateAll()
}

// SessionStatus describes the current connection
type SessionStatus struct {
	Backend       string
	Interactive   bool // the backend signs in through a browser flow
	Authenticated bool
	Email         string
}

// SessionService manages user session operations
type SessionService struct {
	backend  domain.Backend
	auth     SessionAuth // nil when credentials come from config
	settings AccountSettings
	cache    CacheClearer
	logger   *slog.Logger
}

// NewSessionService creates a new SessionService. auth may be nil.
func NewSessionService(backend domain.Backend, auth SessionAuth, settings AccountSettings, cache CacheClearer, logger *slog.Logger) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		backend:  backend,
		auth:     auth,
		settings: settings,
		cache:    cache,
		logger:   logger,
	}
}

// Login runs the sign-in flow if needed and records the account
func (s *SessionService) Login(ctx context.Context) (SessionStatus, error) {
	if s.auth == nil {
		return s.Status(ctx), nil
	}

	if !s.auth.IsAuthenticated(ctx) {
		if err := s.auth.Authenticate(ctx); err != nil {
			return SessionStatus{}, fmt.Errorf("sign-in failed: %w", err)
		}
	}
	s.backend.Invalidate()

	email := s.lookupEmail(ctx)
	if err := s.settings.SetAccount(email, true); err != nil {
		s.logger.Warn("failed to save account", "error", err)
	}
	s.logger.Info("signed in", "backend", s.backend.Describe(), "email", email)

	return SessionStatus{
		Backend:       s.backend.Describe(),
		Interactive:   true,
		Authenticated: true,
		Email:         email,
	}, nil
}

// Logout forgets the credential and cached data
func (s *SessionService) Logout() error {
	var errs []error
	if s.auth != nil {
		if err := s.auth.SignOut(); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove token: %w", err))
		}
	}

	s.backend.Invalidate()
	if s.cache != nil {
		s.cache.InvalidateAll()
	}

	if err := s.settings.SetAccount("", false); err != nil {
		errs = append(errs, fmt.Errorf("failed to save account: %w", err))
	}

	s.logger.Info("signed out", "backend", s.backend.Describe())
	return errors.Join(errs...)
}

// Status reports the connection without starting a sign-in
func (s *SessionService) Status(ctx context.Context) SessionStatus {
	email, _ := s.settings.Account()
	status := SessionStatus{
		Backend: s.backend.Describe(),
		Email:   email,
	}

	if s.auth == nil {
		status.Authenticated = true
		return status
	}

	status.Interactive = true
	status.Authenticated = s.auth.IsAuthenticated(ctx)
	if !status.Authenticated {
		status.Email = ""
	}
	return status
}

func (s *SessionService) lookupEmail(ctx context.Context) string {
	lookup, ok := s.backend.(AccountLookup)
	if !ok {
		return ""
	}
	email, err := lookup.AccountEmail(ctx)
	if err != nil {
		s.logger.Warn("failed to look up account", "error", err)
		return ""
	}
	return email
}
