package gdrive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/mmcdole/shuttle/internal/domain"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
)

// Scopes requested at sign-in: files created by this app, plus folder browsing
var Scopes = []string{drive.DriveFileScope, drive.DriveMetadataReadonlyScope}

// TokenStore persists the serialized OAuth token
type TokenStore interface {
	LoadToken() ([]byte, bool)
	SaveToken(raw []byte) error
	DeleteToken() error
}

// Auth runs the OAuth device flow and serves a persisting token source
type Auth struct {
	config      *oauth2.Config
	store       TokenStore
	opener      domain.LinkOpener // optional, opens the verification page
	openBrowser bool
	prompt      io.Writer
	logger      *slog.Logger

	mu    sync.Mutex
	token *oauth2.Token
}

// LoadOAuthConfig reads a Google client secrets file
func LoadOAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	raw, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read credentials file: %v", domain.ErrNotConfigured, err)
	}
	cfg, err := google.ConfigFromJSON(raw, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	if cfg.Endpoint.DeviceAuthURL == "" {
		cfg.Endpoint.DeviceAuthURL = google.Endpoint.DeviceAuthURL
	}
	return cfg, nil
}

// NewAuth creates an authenticator. prompt receives the login instructions
// (stderr when nil); opener may be nil.
func NewAuth(cfg *oauth2.Config, store TokenStore, opener domain.LinkOpener, openBrowser bool, prompt io.Writer, logger *slog.Logger) *Auth {
	if logger == nil {
		logger = slog.Default()
	}
	if prompt == nil {
		prompt = os.Stderr
	}
	return &Auth{
		config:      cfg,
		store:       store,
		opener:      opener,
		openBrowser: openBrowser,
		prompt:      prompt,
		logger:      logger,
	}
}

// IsAuthenticated reports whether a usable token exists, refreshing it if needed
func (a *Auth) IsAuthenticated(ctx context.Context) bool {
	tok := a.current()
	if tok == nil {
		return false
	}
	if tok.Valid() {
		return true
	}
	if tok.RefreshToken == "" {
		return false
	}

	ts, err := a.TokenSource()
	if err != nil {
		return false
	}
	if _, err := ts.Token(); err != nil {
		a.logger.Warn("token refresh failed", "error", err)
		return false
	}
	return true
}

// Authenticate runs the device authorization flow and stores the token
func (a *Auth) Authenticate(ctx context.Context) error {
	resp, err := a.config.DeviceAuth(ctx)
	if err != nil {
		return fmt.Errorf("failed to start device login: %w", err)
	}

	fmt.Fprintf(a.prompt, "To sign in, visit %s and enter code %s\n", resp.VerificationURI, resp.UserCode)
	a.logger.Info("device login started", "verification_uri", resp.VerificationURI, "expires", resp.Expiry)

	if a.openBrowser && a.opener != nil {
		link := resp.VerificationURIComplete
		if link == "" {
			link = resp.VerificationURI
		}
		if err := a.opener.Open(link); err != nil {
			a.logger.Warn("failed to open verification page", "error", err)
		}
	}

	tok, err := a.config.DeviceAccessToken(ctx, resp)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.ErrorCode == "expired_token" {
			return domain.ErrDeviceCodeExpired
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("device login failed: %w", err)
	}

	if err := a.save(tok); err != nil {
		return err
	}
	a.logger.Info("device login complete")
	return nil
}

// TokenSource returns a token source that writes refreshed tokens back to the store
func (a *Auth) TokenSource() (oauth2.TokenSource, error) {
	tok := a.current()
	if tok == nil {
		return nil, domain.ErrUnauthenticated
	}
	// Refreshes outlive any single call, so they are not tied to a caller's context.
	base := a.config.TokenSource(context.Background(), tok)
	return oauth2.ReuseTokenSource(tok, &persistingSource{auth: a, base: base}), nil
}

// SignOut forgets the stored token
func (a *Auth) SignOut() error {
	a.mu.Lock()
	a.token = nil
	a.mu.Unlock()
	if err := a.store.DeleteToken(); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	a.logger.Info("signed out")
	return nil
}

// current returns the in-memory token, loading it from the store on first use
func (a *Auth) current() *oauth2.Token {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token != nil {
		return a.token
	}

	raw, ok := a.store.LoadToken()
	if !ok {
		return nil
	}
	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		a.logger.Warn("discarding unreadable stored token", "error", err)
		return nil
	}
	a.token = &tok
	return a.token
}

// save keeps tok in memory and persists it
func (a *Auth) save(tok *oauth2.Token) error {
	raw, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	a.mu.Lock()
	a.token = tok
	a.mu.Unlock()

	if err := a.store.SaveToken(raw); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// persistingSource stores every token it hands out that differs from the last one
type persistingSource struct {
	auth *Auth
	base oauth2.TokenSource

	mu   sync.Mutex
	last string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	changed := tok.AccessToken != p.last
	p.last = tok.AccessToken
	p.mu.Unlock()

	if changed {
		if err := p.auth.save(tok); err != nil {
			p.auth.logger.Warn("failed to persist refreshed token", "error", err)
		}
	}
	return tok, nil
}
