package repoindex

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Cache persists the last successfully fetched index per repository so
// browse keeps working when the network is down. Snapshots survive process
// restarts and are replaced wholesale, never merged.
type Cache struct {
	dir string
}

// NewCache creates a cache rooted at dir
func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

func (c *Cache) path(repo string) string {
	return filepath.Join(c.dir, slug(repo)+".json")
}

// Load returns the cached snapshot for repo, or nil if none exists
func (c *Cache) Load(repo string) (*Index, error) {
	data, err := os.ReadFile(c.path(repo))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("corrupt index snapshot for %s: %w", repo, err)
	}

	return &idx, nil
}

// Store atomically replaces the snapshot for idx.Repository. The snapshot
// is written to a temporary file and renamed into place so a concurrent
// reader never observes a half-written index.
func (c *Cache) Store(idx *Index) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.dir, ".index-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), c.path(idx.Repository))
}
