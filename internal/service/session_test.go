package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mmcdole/shuttle/internal/adapter"
	"github.com/mmcdole/shuttle/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionBackend struct {
	domain.Backend
	email       string
	emailErr    error
	invalidated int
}

func (b *sessionBackend) Invalidate()      { b.invalidated++ }
func (b *sessionBackend) Describe() string { return "Google Drive" }
func (b *sessionBackend) AccountEmail(context.Context) (string, error) {
	return b.email, b.emailErr
}

type plainBackend struct {
	domain.Backend
}

func (plainBackend) Invalidate()      {}
func (plainBackend) Describe() string { return "s3://backups/" }

type signingAuth struct {
	fakeAuth
	signOutErr error
	signedOut  bool
}

func (a *signingAuth) SignOut() error {
	a.signedOut = true
	a.authenticated = false
	return a.signOutErr
}

type memAccount struct {
	email     string
	connected bool
	saves     int
}

func (m *memAccount) Account() (string, bool) { return m.email, m.connected }
func (m *memAccount) SetAccount(email string, connected bool) error {
	m.saves++
	m.email, m.connected = email, connected
	return nil
}

type countingCache struct{ cleared int }

func (c *countingCache) InvalidateAll() { c.cleared++ }

func TestSessionLoginRecordsAccount(t *testing.T) {
	backend := &sessionBackend{email: "me@example.com"}
	auth := &signingAuth{}
	account := &memAccount{}
	svc := NewSessionService(backend, auth, account, &countingCache{}, adapter.NullLogger())

	status, err := svc.Login(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, auth.calls)
	assert.True(t, status.Authenticated)
	assert.Equal(t, "me@example.com", status.Email)
	assert.Equal(t, "me@example.com", account.email)
	assert.True(t, account.connected)
	assert.Equal(t, 1, backend.invalidated)
}

func TestSessionLoginSkipsFlowWhenAuthenticated(t *testing.T) {
	auth := &signingAuth{fakeAuth: fakeAuth{authenticated: true}}
	svc := NewSessionService(&sessionBackend{}, auth, &memAccount{}, nil, adapter.NullLogger())

	_, err := svc.Login(context.Background())
	require.NoError(t, err)
	assert.Zero(t, auth.calls)
}

func TestSessionLoginFailure(t *testing.T) {
	auth := &signingAuth{fakeAuth: fakeAuth{err: domain.ErrDeviceCodeExpired}}
	account := &memAccount{}
	svc := NewSessionService(&sessionBackend{}, auth, account, nil, adapter.NullLogger())

	_, err := svc.Login(context.Background())
	assert.ErrorIs(t, err, domain.ErrDeviceCodeExpired)
	assert.Zero(t, account.saves)
}

func TestSessionLoginToleratesEmailLookupFailure(t *testing.T) {
	backend := &sessionBackend{emailErr: errors.New("forbidden")}
	account := &memAccount{}
	svc := NewSessionService(backend, &signingAuth{}, account, nil, adapter.NullLogger())

	status, err := svc.Login(context.Background())
	require.NoError(t, err)
	assert.Empty(t, status.Email)
	assert.True(t, account.connected)
}

func TestSessionLoginWithoutInteractiveAuth(t *testing.T) {
	account := &memAccount{}
	svc := NewSessionService(plainBackend{}, nil, account, nil, adapter.NullLogger())

	status, err := svc.Login(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Authenticated)
	assert.False(t, status.Interactive)
	assert.Equal(t, "s3://backups/", status.Backend)
	assert.Zero(t, account.saves)
}

func TestSessionLogoutClearsEverything(t *testing.T) {
	backend := &sessionBackend{}
	auth := &signingAuth{fakeAuth: fakeAuth{authenticated: true}}
	account := &memAccount{email: "me@example.com", connected: true}
	cache := &countingCache{}
	svc := NewSessionService(backend, auth, account, cache, adapter.NullLogger())

	require.NoError(t, svc.Logout())

	assert.True(t, auth.signedOut)
	assert.Equal(t, 1, backend.invalidated)
	assert.Equal(t, 1, cache.cleared)
	assert.Empty(t, account.email)
	assert.False(t, account.connected)
}

func TestSessionLogoutReportsTokenError(t *testing.T) {
	auth := &signingAuth{signOutErr: errors.New("disk full")}
	account := &memAccount{connected: true}
	cache := &countingCache{}
	svc := NewSessionService(&sessionBackend{}, auth, account, cache, adapter.NullLogger())

	err := svc.Logout()
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, cache.cleared)
	assert.False(t, account.connected)
}

func TestSessionStatus(t *testing.T) {
	auth := &signingAuth{fakeAuth: fakeAuth{authenticated: true}}
	account := &memAccount{email: "me@example.com", connected: true}
	svc := NewSessionService(&sessionBackend{}, auth, account, nil, adapter.NullLogger())

	status := svc.Status(context.Background())
	assert.Equal(t, SessionStatus{
		Backend:       "Google Drive",
		Interactive:   true,
		Authenticated: true,
		Email:         "me@example.com",
	}, status)

	auth.authenticated = false
	status = svc.Status(context.Background())
	assert.False(t, status.Authenticated)
	assert.Empty(t, status.Email)
}
