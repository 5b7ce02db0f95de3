package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/mmcdole/shuttle/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(t.TempDir(), "gdrive:me@example.com")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFolderCacheExpires(t *testing.T) {
	s := openStore(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return now }

	folders := []domain.RemoteFolder{{ID: "a", Name: "Alpha"}}
	require.NoError(t, s.SaveFolders("", folders))

	got, ok := s.GetFolders("")
	require.True(t, ok)
	assert.Equal(t, folders, got)

	now = now.Add(DefaultFolderTTL + time.Second)
	_, ok = s.GetFolders("")
	assert.False(t, ok, "stale listing must not be served")
}

func TestInvalidateFoldersKeepsToken(t *testing.T) {
	s := openStore(t)

	require.NoError(t, s.SaveToken([]byte(`{"access_token":"x"}`)))
	require.NoError(t, s.SaveFolders("", []domain.RemoteFolder{{ID: "a"}}))
	require.NoError(t, s.SaveFolders("a", []domain.RemoteFolder{{ID: "b", ParentID: "a"}}))

	s.InvalidateFolders("a")
	_, ok := s.GetFolders("a")
	assert.False(t, ok)
	_, ok = s.GetFolders("")
	assert.True(t, ok)

	s.InvalidateAll()
	_, ok = s.GetFolders("")
	assert.False(t, ok)

	raw, ok := s.LoadToken()
	require.True(t, ok)
	assert.JSONEq(t, `{"access_token":"x"}`, string(raw))
}

func TestDeleteToken(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.SaveToken([]byte("t")))
	require.NoError(t, s.DeleteToken())

	_, ok := s.LoadToken()
	assert.False(t, ok)
}

func TestCachedFoldersDeduplicates(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.SaveFolders("", []domain.RemoteFolder{{ID: "a", Name: "Alpha"}, {ID: "b", Name: "Beta"}}))
	require.NoError(t, s.SaveFolders("x", []domain.RemoteFolder{{ID: "a", Name: "Alpha"}}))

	assert.Len(t, s.CachedFolders(), 2)
}

func TestRecentUploadsNewestFirstAndCapped(t *testing.T) {
	for _, dir := range []string{"", "disk"} {
		t.Run(fmt.Sprintf("dir=%q", dir), func(t *testing.T) {
			base := ""
			if dir != "" {
				base = t.TempDir()
			}
			s, err := NewLocalStore(base, "")
			require.NoError(t, err)
			defer s.Close()

			start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
			for i := 0; i < MaxHistory+5; i++ {
				require.NoError(t, s.AppendUpload(domain.UploadRecord{
					UploadID: fmt.Sprintf("u%03d", i),
					FileName: "f.txt",
					Outcome:  domain.OutcomeSuccess.String(),
					At:       start.Add(time.Duration(i) * time.Second),
				}))
			}

			recs, err := s.RecentUploads(3)
			require.NoError(t, err)
			require.Len(t, recs, 3)
			assert.Equal(t, fmt.Sprintf("u%03d", MaxHistory+4), recs[0].UploadID)
			assert.Equal(t, fmt.Sprintf("u%03d", MaxHistory+2), recs[2].UploadID)

			all, err := s.RecentUploads(0)
			require.NoError(t, err)
			assert.Len(t, all, MaxHistory)
			assert.Equal(t, "u005", all[len(all)-1].UploadID)
		})
	}
}
