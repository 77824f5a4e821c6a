package repoindex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validIndexBody = `{
	"version": 1,
	"entries": [
		{"id": "clock", "name": "Clock", "version": "1.0", "description": "A clock plugin", "source_url": "plugins/clock.py"}
	]
}`

// indexServer serves a switchable index body
type indexServer struct {
	mu   sync.Mutex
	body string
	code int
	down bool
	srv  *httptest.Server
}

func newIndexServer(body string) *indexServer {
	s := &indexServer{body: body, code: http.StatusOK}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.down {
			panic(http.ErrAbortHandler)
		}
		w.WriteHeader(s.code)
		w.Write([]byte(s.body))
	}))
	return s
}

func (s *indexServer) set(body string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.body = body
	s.code = code
}

func (s *indexServer) setDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

func (s *indexServer) repo() string {
	return s.srv.URL + "/index.json"
}

func newTestFetcher(t *testing.T, maxAge time.Duration) (*Fetcher, *Cache) {
	t.Helper()
	cache := NewCache(t.TempDir())
	fetcher := NewFetcher(&http.Client{Timeout: 2 * time.Second}, cache, maxAge, zerolog.Nop())
	return fetcher, cache
}

func TestFetchParsesAndCaches(t *testing.T) {
	server := newIndexServer(validIndexBody)
	defer server.srv.Close()

	fetcher, cache := newTestFetcher(t, time.Hour)

	idx, err := fetcher.Fetch(context.Background(), server.repo())
	require.NoError(t, err)

	assert.Equal(t, SourceNetwork, idx.Source)
	require.Len(t, idx.Entries, 1)
	assert.Equal(t, "clock", idx.Entries[0].ID)
	assert.Equal(t, "Clock", idx.Entries[0].Name)
	// Relative source_url resolves against the index URL
	assert.Equal(t, server.srv.URL+"/plugins/clock.py", idx.Entries[0].SourceURL)
	assert.WithinDuration(t, time.Now(), idx.FetchedAt, 5*time.Second)

	cached, err := cache.Load(server.repo())
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, idx.Entries, cached.Entries)
}

func TestFetchFallsBackToCache(t *testing.T) {
	server := newIndexServer(validIndexBody)
	defer server.srv.Close()

	fetcher, _ := newTestFetcher(t, time.Hour)

	_, err := fetcher.Fetch(context.Background(), server.repo())
	require.NoError(t, err)

	server.setDown(true)

	idx, err := fetcher.Fetch(context.Background(), server.repo())
	require.NoError(t, err)
	assert.Equal(t, SourceCache, idx.Source)
	require.Len(t, idx.Entries, 1)
	assert.Equal(t, "clock", idx.Entries[0].ID)
}

func TestFetchNoCacheUnavailable(t *testing.T) {
	server := newIndexServer(validIndexBody)
	repo := server.repo()
	server.srv.Close()

	fetcher, _ := newTestFetcher(t, time.Hour)

	_, err := fetcher.Fetch(context.Background(), repo)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFetchNon2xxFallsBack(t *testing.T) {
	server := newIndexServer(validIndexBody)
	defer server.srv.Close()

	fetcher, _ := newTestFetcher(t, time.Hour)

	_, err := fetcher.Fetch(context.Background(), server.repo())
	require.NoError(t, err)

	server.set("gone", http.StatusInternalServerError)

	idx, err := fetcher.Fetch(context.Background(), server.repo())
	require.NoError(t, err)
	assert.Equal(t, SourceCache, idx.Source)
}

func TestFetchMalformedFailsClosedWithoutTouchingCache(t *testing.T) {
	server := newIndexServer(validIndexBody)
	defer server.srv.Close()

	fetcher, cache := newTestFetcher(t, time.Hour)

	_, err := fetcher.Fetch(context.Background(), server.repo())
	require.NoError(t, err)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"version": 1, "entries": [`},
		{"entry missing id", `{"version":1,"entries":[{"name":"X","source_url":"x.py"}]}`},
		{"entry missing name", `{"version":1,"entries":[{"id":"x","source_url":"x.py"}]}`},
		{"entry missing source_url", `{"version":1,"entries":[{"id":"x","name":"X"}]}`},
		{"entry id traverses paths", `{"version":1,"entries":[{"id":"../evil","name":"X","source_url":"x.py"}]}`},
		{"entry id with separator", `{"version":1,"entries":[{"id":"a/b","name":"X","source_url":"x.py"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server.set(tt.body, http.StatusOK)

			_, err := fetcher.Fetch(context.Background(), server.repo())
			assert.ErrorIs(t, err, ErrParse)

			// The prior valid snapshot must survive
			cached, err := cache.Load(server.repo())
			require.NoError(t, err)
			require.NotNil(t, cached)
			assert.Equal(t, "clock", cached.Entries[0].ID)
		})
	}
}

func TestFetchStaleCacheRefused(t *testing.T) {
	server := newIndexServer(validIndexBody)
	repo := server.repo()
	defer server.srv.Close()

	fetcher, cache := newTestFetcher(t, time.Hour)

	// Plant an expired snapshot
	err := cache.Store(&Index{
		Repository: repo,
		Entries:    []Entry{{ID: "clock", Name: "Clock", SourceURL: "x"}},
		FetchedAt:  time.Now().Add(-2 * time.Hour),
		Source:     SourceNetwork,
	})
	require.NoError(t, err)

	server.setDown(true)

	_, err = fetcher.Fetch(context.Background(), repo)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestIndexURL(t *testing.T) {
	assert.Equal(t,
		"https://raw.githubusercontent.com/markhedleyjones/menu-kit-plugins/main/index.json",
		IndexURL("markhedleyjones/menu-kit-plugins"))
	assert.Equal(t, "https://example.com/index.json", IndexURL("https://example.com/index.json"))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Official", DisplayName("markhedleyjones/menu-kit-plugins"))
	assert.Equal(t, "someone/other-repo", DisplayName("someone/other-repo"))
}
