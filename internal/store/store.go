package store

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/shuttle/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketCredentials = []byte("credentials")
	bucketFolders     = []byte("folders")
	bucketUploads     = []byte("uploads")
)

const (
	tokenKey = "token"

	// DefaultFolderTTL bounds how long a folder listing is served from cache
	DefaultFolderTTL = 10 * time.Minute

	// MaxHistory is the number of upload records kept
	MaxHistory = 100
)

// folderEntry is the cached listing of one parent folder
type folderEntry struct {
	SavedAt time.Time             `json:"saved_at"`
	Folders []domain.RemoteFolder `json:"folders"`
}

// LocalStore implements domain.Store using BoltDB.
type LocalStore struct {
	db  *bolt.DB
	ttl time.Duration
	now func() time.Time

	mu    sync.RWMutex      // Protects memory cache and history
	cache map[string][]byte // In-memory cache for hot-path reads (promoted on access)

	// history is only used in memory-only mode
	history []domain.UploadRecord
}

// NewLocalStore opens (or creates) the store for one backend account.
// An empty baseDir gives a memory-only store.
func NewLocalStore(baseDir, accountKey string) (*LocalStore, error) {
	s := &LocalStore{
		ttl:   DefaultFolderTTL,
		now:   time.Now,
		cache: make(map[string][]byte),
	}
	if baseDir == "" {
		return s, nil
	}

	dir := baseDir
	if accountKey != "" {
		dir = filepath.Join(baseDir, hashAccountKey(accountKey))
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "shuttle.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketCredentials, bucketFolders, bucketUploads} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s.db = db
	return s, nil
}

// SetFolderTTL overrides how long folder listings stay fresh
func (s *LocalStore) SetFolderTTL(ttl time.Duration) {
	s.ttl = ttl
}

func hashAccountKey(key string) string {
	normalized := strings.TrimRight(strings.ToLower(key), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *LocalStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *LocalStore) getRaw(bucket []byte, key string) ([]byte, bool) {
	cacheKey := string(bucket) + ":" + key

	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return data, true
	}
	s.mu.RUnlock()

	if s.db == nil {
		return nil, false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if data == nil {
		return nil, false
	}

	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return data, true
}

func (s *LocalStore) get(bucket []byte, key string, dest interface{}) bool {
	data, ok := s.getRaw(bucket, key)
	if !ok {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (s *LocalStore) setRaw(bucket []byte, key string, data []byte) error {
	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
}

func (s *LocalStore) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.setRaw(bucket, key, data)
}

func (s *LocalStore) delete(bucket []byte, key string) error {
	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	delete(s.cache, cacheKey)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

func (s *LocalStore) clearBucket(bucket []byte) {
	s.mu.Lock()
	prefix := string(bucket) + ":"
	for k := range s.cache {
		if strings.HasPrefix(k, prefix) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucket); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(bucket)
		return err
	})
}

// === Credentials ===

// LoadToken returns the raw serialized OAuth token, if any
func (s *LocalStore) LoadToken() ([]byte, bool) {
	return s.getRaw(bucketCredentials, tokenKey)
}

func (s *LocalStore) SaveToken(raw []byte) error {
	return s.setRaw(bucketCredentials, tokenKey, raw)
}

func (s *LocalStore) DeleteToken() error {
	return s.delete(bucketCredentials, tokenKey)
}

// === Folder cache (key: parent:{parentID}, root is "parent:") ===

func folderKey(parentID string) string {
	return "parent:" + parentID
}

// GetFolders returns a cached listing if it is still fresh
func (s *LocalStore) GetFolders(parentID string) ([]domain.RemoteFolder, bool) {
	var entry folderEntry
	if !s.get(bucketFolders, folderKey(parentID), &entry) {
		return nil, false
	}
	if s.ttl > 0 && s.now().Sub(entry.SavedAt) > s.ttl {
		return nil, false
	}
	return entry.Folders, true
}

func (s *LocalStore) SaveFolders(parentID string, folders []domain.RemoteFolder) error {
	return s.set(bucketFolders, folderKey(parentID), folderEntry{
		SavedAt: s.now(),
		Folders: folders,
	})
}

// CachedFolders returns every cached folder regardless of freshness, deduplicated by id
func (s *LocalStore) CachedFolders() []domain.RemoteFolder {
	var entries []folderEntry

	if s.db == nil {
		s.mu.RLock()
		prefix := string(bucketFolders) + ":"
		for k, data := range s.cache {
			if !strings.HasPrefix(k, prefix) {
				continue
			}
			var entry folderEntry
			if json.Unmarshal(data, &entry) == nil {
				entries = append(entries, entry)
			}
		}
		s.mu.RUnlock()
	} else {
		s.db.View(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucketFolders)
			if b == nil {
				return nil
			}
			return b.ForEach(func(_, v []byte) error {
				var entry folderEntry
				if json.Unmarshal(v, &entry) == nil {
					entries = append(entries, entry)
				}
				return nil
			})
		})
	}

	seen := make(map[string]bool)
	var folders []domain.RemoteFolder
	for _, entry := range entries {
		for _, f := range entry.Folders {
			if seen[f.ID] {
				continue
			}
			seen[f.ID] = true
			folders = append(folders, f)
		}
	}
	return folders
}

// InvalidateFolders drops the cached listing of one parent
func (s *LocalStore) InvalidateFolders(parentID string) {
	s.delete(bucketFolders, folderKey(parentID))
}

// InvalidateAll drops every cached folder listing. Tokens and history are kept.
func (s *LocalStore) InvalidateAll() {
	s.clearBucket(bucketFolders)
}

// === History (key: big-endian unix nanos + upload id, oldest first) ===

func historyKey(rec domain.UploadRecord) []byte {
	key := make([]byte, 8, 8+len(rec.UploadID))
	binary.BigEndian.PutUint64(key, uint64(rec.At.UnixNano()))
	return append(key, rec.UploadID...)
}

// AppendUpload records a finished upload, trimming the oldest beyond MaxHistory
func (s *LocalStore) AppendUpload(rec domain.UploadRecord) error {
	if rec.At.IsZero() {
		rec.At = s.now()
	}

	if s.db == nil {
		s.mu.Lock()
		s.history = append(s.history, rec)
		if len(s.history) > MaxHistory {
			s.history = s.history[len(s.history)-MaxHistory:]
		}
		s.mu.Unlock()
		return nil
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketUploads)
		if err := b.Put(historyKey(rec), data); err != nil {
			return err
		}

		count := 0
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			count++
		}

		excess := count - MaxHistory
		for k, _ := c.First(); k != nil && excess > 0; k, _ = c.First() {
			if err := b.Delete(k); err != nil {
				return err
			}
			excess--
		}
		return nil
	})
}

// RecentUploads returns up to limit records, newest first
func (s *LocalStore) RecentUploads(limit int) ([]domain.UploadRecord, error) {
	if limit <= 0 || limit > MaxHistory {
		limit = MaxHistory
	}

	if s.db == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		out := make([]domain.UploadRecord, 0, limit)
		for i := len(s.history) - 1; i >= 0 && len(out) < limit; i-- {
			out = append(out, s.history[i])
		}
		return out, nil
	}

	var out []domain.UploadRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketUploads).Cursor()
		for k, v := c.Last(); k != nil && len(out) < limit; k, v = c.Prev() {
			var rec domain.UploadRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("corrupt upload record: %w", err)
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}
