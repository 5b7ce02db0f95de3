package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mmcdole/shuttle/internal/adapter"
	"github.com/mmcdole/shuttle/internal/domain"
	"github.com/mmcdole/shuttle/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFolders struct {
	mu       sync.Mutex
	children map[string][]domain.RemoteFolder
	lists    map[string]int
	listErr  error
	created  []string
}

func newFakeFolders() *fakeFolders {
	return &fakeFolders{
		children: map[string][]domain.RemoteFolder{
			"": {
				{ID: "f-docs", Name: "Documents", HasChildren: true},
				{ID: "f-pics", Name: "Pictures"},
			},
			"f-docs": {
				{ID: "f-tax", Name: "Taxes 2023", ParentID: "f-docs"},
				{ID: "f-inv", Name: "Invoices", ParentID: "f-docs"},
			},
		},
		lists: map[string]int{},
	}
}

func (f *fakeFolders) ListFolders(_ context.Context, parentID string) ([]domain.RemoteFolder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[parentID]++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.children[parentID], nil
}

func (f *fakeFolders) CreateFolder(_ context.Context, name, parentID string) (domain.RemoteFolder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, name)
	folder := domain.RemoteFolder{ID: "new-" + name, Name: name, ParentID: parentID}
	f.children[parentID] = append(f.children[parentID], folder)
	return folder, nil
}

type memDefaults struct {
	staticSettings
	id, name string
	err      error
}

func (m *memDefaults) SetDefaultFolder(id, name string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id, m.name = id, name
	m.s.DefaultFolderID = id
	m.s.DefaultFolderName = name
	return nil
}

func newFolderHarness(t *testing.T) (*FolderService, *fakeFolders, *memDefaults) {
	t.Helper()
	remote := newFakeFolders()
	cache, err := store.NewLocalStore("", "")
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	defaults := &memDefaults{}
	return NewFolderService(remote, cache, defaults, adapter.NullLogger()), remote, defaults
}

func TestFolderListUsesCache(t *testing.T) {
	svc, remote, _ := newFolderHarness(t)
	ctx := context.Background()

	first, err := svc.List(ctx, "")
	require.NoError(t, err)
	second, err := svc.List(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
	assert.Equal(t, 1, remote.lists[""])
}

func TestFolderRefreshBypassesCache(t *testing.T) {
	svc, remote, _ := newFolderHarness(t)
	ctx := context.Background()

	_, err := svc.List(ctx, "")
	require.NoError(t, err)
	_, err = svc.Refresh(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, 2, remote.lists[""])
}

func TestFolderListError(t *testing.T) {
	svc, remote, _ := newFolderHarness(t)
	remote.listErr = domain.ErrAuthExpired

	_, err := svc.List(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrAuthExpired)
}

func TestFolderCreateInvalidatesParent(t *testing.T) {
	svc, remote, _ := newFolderHarness(t)
	ctx := context.Background()

	_, err := svc.List(ctx, "f-docs")
	require.NoError(t, err)

	folder, err := svc.Create(ctx, "  Receipts ", "f-docs")
	require.NoError(t, err)
	assert.Equal(t, "Receipts", folder.Name)

	listed, err := svc.List(ctx, "f-docs")
	require.NoError(t, err)
	assert.Len(t, listed, 3)
	assert.Equal(t, 2, remote.lists["f-docs"])
}

func TestFolderCreateRejectsEmptyName(t *testing.T) {
	svc, remote, _ := newFolderHarness(t)

	_, err := svc.Create(context.Background(), "   ", "")
	assert.Error(t, err)
	assert.Empty(t, remote.created)
}

func TestFolderSetDefault(t *testing.T) {
	svc, _, defaults := newFolderHarness(t)

	require.NoError(t, svc.SetDefault(domain.RemoteFolder{ID: "f-docs", Name: "Documents"}))
	id, name := svc.Default()
	assert.Equal(t, "f-docs", id)
	assert.Equal(t, "Documents", name)

	defaults.err = errors.New("read-only")
	assert.Error(t, svc.SetDefault(domain.RemoteFolder{}))
}

func TestFolderCrawlAndSearch(t *testing.T) {
	svc, remote, _ := newFolderHarness(t)

	require.NoError(t, svc.Crawl(context.Background(), 3))
	assert.Equal(t, 1, remote.lists[""])
	assert.Equal(t, 1, remote.lists["f-docs"])
	assert.Zero(t, remote.lists["f-pics"])

	matches := svc.Search("tax")
	require.NotEmpty(t, matches)
	assert.Equal(t, "f-tax", matches[0].Folder.ID)
	assert.Equal(t, "/Documents/Taxes 2023", matches[0].Path)

	assert.Empty(t, svc.Search("  "))
	assert.Empty(t, svc.Search("zzz"))
}

func TestFolderCrawlStopsOnCancel(t *testing.T) {
	svc, remote, _ := newFolderHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, svc.Crawl(ctx, 2), context.Canceled)
	assert.Zero(t, remote.lists[""])
}

func TestFolderSearchRanksCloserNamesFirst(t *testing.T) {
	svc, _, _ := newFolderHarness(t)
	require.NoError(t, svc.Crawl(context.Background(), 2))

	matches := svc.Search("doc")
	require.NotEmpty(t, matches)
	assert.Equal(t, "Documents", matches[0].Folder.Name)
	assert.Equal(t, "/Documents", matches[0].Path)
}
