package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/shuttle/internal/domain"
)

// FolderRemote lists and creates remote folders
type FolderRemote interface {
	ListFolders(ctx context.Context, parentID string) ([]domain.RemoteFolder, error)
	CreateFolder(ctx context.Context, name, parentID string) (domain.RemoteFolder, error)
}

// FolderCache is the subset of domain.Store that holds folder listings
type FolderCache interface {
	GetFolders(parentID string) ([]domain.RemoteFolder, bool)
	SaveFolders(parentID string, folders []domain.RemoteFolder) error
	CachedFolders() []domain.RemoteFolder
	InvalidateFolders(parentID string)
	InvalidateAll()
}

// DefaultFolderStore reads and changes the default upload folder
type DefaultFolderStore interface {
	domain.SettingsProvider
	SetDefaultFolder(id, name string) error
}

// FolderMatch is a search hit with its display path
type FolderMatch struct {
	Folder domain.RemoteFolder
	Path   string
}

// FolderService browses remote folders with a local listing cache
type FolderService struct {
	remote   FolderRemote
	cache    FolderCache
	settings DefaultFolderStore
	logger   *slog.Logger
}

// NewFolderService creates a new folder service
func NewFolderService(remote FolderRemote, cache FolderCache, settings DefaultFolderStore, logger *slog.Logger) *FolderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FolderService{remote: remote, cache: cache, settings: settings, logger: logger}
}

// List returns the children of parentID, from cache when fresh
func (s *FolderService) List(ctx context.Context, parentID string) ([]domain.RemoteFolder, error) {
	if folders, ok := s.cache.GetFolders(parentID); ok {
		s.logger.Debug("folder cache hit", "parent", parentID, "count", len(folders))
		return folders, nil
	}
	return s.Refresh(ctx, parentID)
}

// Refresh lists parentID from the remote store and updates the cache
func (s *FolderService) Refresh(ctx context.Context, parentID string) ([]domain.RemoteFolder, error) {
	folders, err := s.remote.ListFolders(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SaveFolders(parentID, folders); err != nil {
		s.logger.Warn("failed to cache folder listing", "parent", parentID, "error", err)
	}
	return folders, nil
}

// Create makes a folder under parentID and drops the parent's cached listing
func (s *FolderService) Create(ctx context.Context, name, parentID string) (domain.RemoteFolder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.RemoteFolder{}, fmt.Errorf("folder name is empty")
	}

	folder, err := s.remote.CreateFolder(ctx, name, parentID)
	if err != nil {
		return domain.RemoteFolder{}, err
	}
	s.cache.InvalidateFolders(parentID)
	return folder, nil
}

// Default returns the configured upload folder
func (s *FolderService) Default() (id, name string) {
	settings := s.settings.UploadSettings()
	return settings.DefaultFolderID, settings.DefaultFolderName
}

// SetDefault makes folder the upload target. An empty id selects the root.
func (s *FolderService) SetDefault(folder domain.RemoteFolder) error {
	if err := s.settings.SetDefaultFolder(folder.ID, folder.Name); err != nil {
		return fmt.Errorf("failed to save default folder: %w", err)
	}
	s.logger.Info("default folder changed", "id", folder.ID, "name", folder.Name)
	return nil
}

// Crawl lists folders breadth-first down to maxDepth levels so Search has
// something to match against. Listings already cached are reused.
func (s *FolderService) Crawl(ctx context.Context, maxDepth int) error {
	level := []string{""}
	for depth := 0; depth < maxDepth && len(level) > 0; depth++ {
		var next []string
		for _, parentID := range level {
			if err := ctx.Err(); err != nil {
				return err
			}
			folders, err := s.List(ctx, parentID)
			if err != nil {
				return err
			}
			for _, f := range folders {
				if f.HasChildren {
					next = append(next, f.ID)
				}
			}
		}
		level = next
	}
	return nil
}

// Search fuzzy-matches query against every cached folder name, best first
func (s *FolderService) Search(query string) []FolderMatch {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	folders := s.cache.CachedFolders()
	names := make([]string, len(folders))
	byID := make(map[string]domain.RemoteFolder, len(folders))
	for i, f := range folders {
		names[i] = f.Name
		byID[f.ID] = f
	}

	ranks := fuzzy.RankFindFold(query, names)
	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].Distance < ranks[j].Distance
	})

	matches := make([]FolderMatch, 0, len(ranks))
	for _, r := range ranks {
		f := folders[r.OriginalIndex]
		matches = append(matches, FolderMatch{Folder: f, Path: folderPath(f, byID)})
	}
	return matches
}

// folderPath joins the names from the root down to f
func folderPath(f domain.RemoteFolder, byID map[string]domain.RemoteFolder) string {
	parts := []string{f.Name}
	seen := map[string]bool{f.ID: true}
	for parent := f.ParentID; parent != ""; {
		p, ok := byID[parent]
		if !ok || seen[p.ID] {
			break
		}
		seen[p.ID] = true
		parts = append(parts, p.Name)
		parent = p.ParentID
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return "/" + strings.Join(parts, "/")
}

// ClearCache drops every cached listing
func (s *FolderService) ClearCache() {
	s.cache.InvalidateAll()
}
