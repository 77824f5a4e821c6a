package repoindex

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheLoadMissing(t *testing.T) {
	cache := NewCache(t.TempDir())

	idx, err := cache.Load("owner/repo")
	require.NoError(t, err)
	assert.Nil(t, idx)
}

func TestCacheStoreLoadRoundTrip(t *testing.T) {
	cache := NewCache(filepath.Join(t.TempDir(), "index"))

	stored := &Index{
		Repository: "owner/repo",
		Entries: []Entry{
			{ID: "clock", Name: "Clock", Version: "1.0", SourceURL: "https://x/clock.py"},
		},
		FetchedAt: time.Now().UTC().Truncate(time.Second),
		Source:    SourceNetwork,
	}
	require.NoError(t, cache.Store(stored))

	loaded, err := cache.Load("owner/repo")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, stored.Entries, loaded.Entries)
	assert.Equal(t, stored.FetchedAt, loaded.FetchedAt)
}

func TestCacheStoreReplacesWholesale(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(dir)

	first := &Index{
		Repository: "owner/repo",
		Entries:    []Entry{{ID: "a", Name: "A", SourceURL: "https://x/a"}},
		FetchedAt:  time.Now().UTC(),
	}
	require.NoError(t, cache.Store(first))

	second := &Index{
		Repository: "owner/repo",
		Entries:    []Entry{{ID: "b", Name: "B", SourceURL: "https://x/b"}},
		FetchedAt:  time.Now().UTC(),
	}
	require.NoError(t, cache.Store(second))

	loaded, err := cache.Load("owner/repo")
	require.NoError(t, err)
	require.Len(t, loaded.Entries, 1)
	assert.Equal(t, "b", loaded.Entries[0].ID)

	// No temp files are left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, slug("owner/repo")+".json", entries[0].Name())
}

func TestSlugDistinguishesRepos(t *testing.T) {
	assert.NotEqual(t, slug("owner/repo"), slug("owner-repo/x"))
	assert.NotContains(t, slug("https://example.com/idx.json"), "/")
}
