package repoindex

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/markhedleyjones/menu-kit/internal/config"
	"github.com/markhedleyjones/menu-kit/internal/plugindir"
)

// Source indicates where an Index was obtained from
type Source string

const (
	// SourceNetwork means the index came from a live fetch
	SourceNetwork Source = "network"
	// SourceCache means the index was served from the local snapshot
	SourceCache Source = "cache"
)

// Entry is one catalog record describing a single installable plugin
type Entry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`
	SourceURL   string `json:"source_url"`
	ContentHash string `json:"content_hash,omitempty"` // sha256 hex, optionally "sha256:" prefixed
}

// Index is the catalog of one plugin repository
type Index struct {
	Repository string    `json:"repository"`
	Entries    []Entry   `json:"entries"`
	FetchedAt  time.Time `json:"fetched_at"`
	Source     Source    `json:"source"`
}

// Find returns the entry with the given id, or nil
func (idx *Index) Find(id string) *Entry {
	for i := range idx.Entries {
		if idx.Entries[i].ID == id {
			return &idx.Entries[i]
		}
	}
	return nil
}

// Age returns how long ago the index was fetched
func (idx *Index) Age(now time.Time) time.Duration {
	return now.Sub(idx.FetchedAt)
}

// indexDocument is the wire format of a remote index.json
type indexDocument struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

// validate checks the document fail-closed: any entry missing a required
// field invalidates the whole catalog.
func (d *indexDocument) validate() error {
	for i, e := range d.Entries {
		switch {
		case e.ID == "":
			return fmt.Errorf("entry %d: missing id", i)
		case !plugindir.ValidID(e.ID):
			// An id is used as a file name; separators or dot references
			// would escape the plugin directory.
			return fmt.Errorf("entry %d: invalid id %q", i, e.ID)
		case e.Name == "":
			return fmt.Errorf("entry %q: missing name", e.ID)
		case e.SourceURL == "":
			return fmt.Errorf("entry %q: missing source_url", e.ID)
		}
	}
	return nil
}

// IndexURL resolves a repository reference to its index.json URL.
// "owner/repo" shorthand points at the repository's raw index on GitHub;
// anything with a scheme is used verbatim.
func IndexURL(repo string) string {
	if strings.Contains(repo, "://") {
		return repo
	}
	return fmt.Sprintf("https://raw.githubusercontent.com/%s/main/index.json", repo)
}

// DisplayName returns the human-facing name for a repository reference
func DisplayName(repo string) string {
	if repo == config.OfficialRepository {
		return "Official"
	}
	return repo
}

// resolveSourceURL resolves a possibly-relative entry source_url against
// the index URL it was listed in.
func resolveSourceURL(indexURL, sourceURL string) (string, error) {
	ref, err := url.Parse(sourceURL)
	if err != nil {
		return "", fmt.Errorf("entry source_url %q: %w", sourceURL, err)
	}
	if ref.IsAbs() {
		return sourceURL, nil
	}
	base, err := url.Parse(indexURL)
	if err != nil {
		return "", fmt.Errorf("index url %q: %w", indexURL, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// slug converts a repository reference into a filesystem-safe cache key
func slug(repo string) string {
	r := strings.NewReplacer("://", "-", "/", "-", ":", "-")
	return r.Replace(repo)
}
