package repoindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrUnavailable means the repository could not be reached and no
	// usable cached snapshot exists
	ErrUnavailable = errors.New("repository unavailable")
	// ErrParse means the repository responded with a malformed catalog
	ErrParse = errors.New("malformed repository index")
)

// Fetcher retrieves repository indexes over HTTPS, falling back to the
// local cache when the network fails. A single attempt per call; retrying
// is the caller's decision.
type Fetcher struct {
	client *http.Client
	cache  *Cache
	maxAge time.Duration
	logger zerolog.Logger
}

// NewFetcher creates a fetcher backed by cache. maxAge bounds how stale a
// cached snapshot may be before fallback refuses to serve it.
func NewFetcher(client *http.Client, cache *Cache, maxAge time.Duration, logger zerolog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Fetcher{
		client: client,
		cache:  cache,
		maxAge: maxAge,
		logger: logger,
	}
}

// Fetch retrieves the index of repo. On network failure it serves the last
// cached snapshot (Source = cache) if one exists within the staleness
// bound, otherwise fails with ErrUnavailable. A reachable but malformed
// document fails with ErrParse and leaves the cache untouched.
func (f *Fetcher) Fetch(ctx context.Context, repo string) (*Index, error) {
	indexURL := IndexURL(repo)

	body, err := f.get(ctx, indexURL)
	if err != nil {
		f.logger.Warn().Str("repository", repo).Err(err).Msg("index fetch failed, trying cache")
		return f.fallback(repo, err)
	}

	idx, err := parse(repo, indexURL, body)
	if err != nil {
		// Do not fall back: the repository is reachable but broken.
		// Failing loudly beats silently hiding a malformed catalog.
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, repo, err)
	}

	if err := f.cache.Store(idx); err != nil {
		f.logger.Warn().Str("repository", repo).Err(err).Msg("failed to cache index snapshot")
	}

	f.logger.Debug().Str("repository", repo).Int("entries", len(idx.Entries)).Msg("index fetched")
	return idx, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return io.ReadAll(resp.Body)
}

func (f *Fetcher) fallback(repo string, cause error) (*Index, error) {
	cached, err := f.cache.Load(repo)
	if err != nil || cached == nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, repo, cause)
	}

	if age := cached.Age(time.Now()); age > f.maxAge {
		f.logger.Warn().Str("repository", repo).Dur("age", age).Msg("cached index too stale to serve")
		return nil, fmt.Errorf("%w: %s: cached index is %s old: %v", ErrUnavailable, repo, age.Round(time.Minute), cause)
	}

	cached.Source = SourceCache
	return cached, nil
}

func parse(repo, indexURL string, body []byte) (*Index, error) {
	var doc indexDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}

	entries := make([]Entry, len(doc.Entries))
	for i, e := range doc.Entries {
		resolved, err := resolveSourceURL(indexURL, e.SourceURL)
		if err != nil {
			return nil, err
		}
		e.SourceURL = resolved
		entries[i] = e
	}

	return &Index{
		Repository: repo,
		Entries:    entries,
		FetchedAt:  time.Now().UTC(),
		Source:     SourceNetwork,
	}, nil
}
