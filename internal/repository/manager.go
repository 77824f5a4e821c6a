// Package repository is the public façade of the plugin repository
// manager: browse the configured repositories, install and uninstall
// plugins, and keep the plugin directory and the item store consistent
// with each other across partial failures.
package repository

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/markhedleyjones/menu-kit/internal/installer"
	"github.com/markhedleyjones/menu-kit/internal/itemstore"
	"github.com/markhedleyjones/menu-kit/internal/plugindir"
	"github.com/markhedleyjones/menu-kit/internal/repoindex"
)

// Config wires a Manager's collaborators and policies
type Config struct {
	Repositories    []string
	PluginsDir      string
	IndexCacheDir   string
	DatabasePath    string
	RegistryPath    string
	FetchTimeout    time.Duration
	DownloadTimeout time.Duration
	MaxCacheAge     time.Duration
	Logger          zerolog.Logger
}

// CatalogEntry is a catalog record decorated with local install state
type CatalogEntry struct {
	repoindex.Entry
	Repository string
	Installed  bool
}

// Catalog is the aggregated result of browsing all configured repositories
type Catalog struct {
	Entries []CatalogEntry
	Indexes []*repoindex.Index
	// Warnings holds per-repository fetch failures when at least one
	// repository still produced a catalog
	Warnings []error
}

// Stale reports whether any part of the catalog was served from cache
func (c *Catalog) Stale() bool {
	for _, idx := range c.Indexes {
		if idx.Source == repoindex.SourceCache {
			return true
		}
	}
	return false
}

// Find returns the first catalog entry with the given id, or nil
func (c *Catalog) Find(id string) *CatalogEntry {
	for i := range c.Entries {
		if c.Entries[i].ID == id {
			return &c.Entries[i]
		}
	}
	return nil
}

// InstalledInfo describes one locally installed plugin
type InstalledInfo struct {
	ID     string
	Record *installer.InstalledPlugin // nil when installed.json has no entry
	Items  []itemstore.Item
}

// UninstallOptions controls uninstall behavior
type UninstallOptions struct {
	// MustExist makes uninstalling an absent plugin an error instead of a
	// no-op
	MustExist bool
}

// Manager sequences the fetcher, installer, and uninstaller, and owns the
// per-plugin serialization and consistency policy.
type Manager struct {
	repos       []string
	fetcher     *repoindex.Fetcher
	dir         *plugindir.Directory
	store       *itemstore.Store
	installer   *installer.Installer
	uninstaller *installer.Uninstaller
	registry    *Registry
	logger      zerolog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// New builds a Manager from cfg, opening the item database
func New(cfg Config) (*Manager, error) {
	store, err := itemstore.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	dir := plugindir.New(cfg.PluginsDir)
	cache := repoindex.NewCache(cfg.IndexCacheDir)

	fetchClient := &http.Client{Timeout: cfg.FetchTimeout}
	downloadClient := &http.Client{Timeout: cfg.DownloadTimeout}

	return &Manager{
		repos:       cfg.Repositories,
		fetcher:     repoindex.NewFetcher(fetchClient, cache, cfg.MaxCacheAge, cfg.Logger),
		dir:         dir,
		store:       store,
		installer:   installer.NewInstaller(downloadClient, dir, store, cfg.Logger),
		uninstaller: installer.NewUninstaller(dir, store, cfg.Logger),
		registry:    NewRegistry(cfg.RegistryPath),
		logger:      cfg.Logger,
		inflight:    make(map[string]struct{}),
	}, nil
}

// Close releases the item database
func (m *Manager) Close() error {
	return m.store.Close()
}

// acquire claims the in-flight token for a plugin id. A second operation
// on the same id while the token is held fails with ErrConflict; distinct
// ids proceed independently.
func (m *Manager) acquire(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, busy := m.inflight[id]; busy {
		return fmt.Errorf("%w: %s", ErrConflict, id)
	}
	m.inflight[id] = struct{}{}
	return nil
}

func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inflight, id)
}

// IsInstalled derives the plugin's install state from the filesystem.
// Transient states are never persisted, so after a crash this is the only
// trustworthy answer.
func (m *Manager) IsInstalled(id string) bool {
	return m.dir.Exists(id)
}

// Browse fetches the catalogs of all configured repositories and marks
// each entry's install state. Apart from refreshing the index cache it has
// no side effects. It fails only when no repository produced a catalog.
func (m *Manager) Browse(ctx context.Context) (*Catalog, error) {
	catalog := &Catalog{}

	var lastErr error
	for _, repo := range m.repos {
		idx, err := m.fetcher.Fetch(ctx, repo)
		if err != nil {
			lastErr = err
			catalog.Warnings = append(catalog.Warnings, err)
			continue
		}

		catalog.Indexes = append(catalog.Indexes, idx)
		for _, entry := range idx.Entries {
			catalog.Entries = append(catalog.Entries, CatalogEntry{
				Entry:      entry,
				Repository: repo,
				Installed:  m.IsInstalled(entry.ID),
			})
		}
	}

	if len(catalog.Indexes) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, fmt.Errorf("%w: no repositories configured", repoindex.ErrUnavailable)
	}

	return catalog, nil
}

// Install resolves id across the configured repositories in order and
// installs the first matching entry. A failed install leaves local state
// exactly as before the call.
func (m *Manager) Install(ctx context.Context, id string, opts installer.InstallOptions) (*installer.InstalledPlugin, error) {
	if err := m.acquire(id); err != nil {
		return nil, err
	}
	defer m.release(id)

	entry, err := m.resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	record, err := m.installer.Install(ctx, *entry, opts)
	if err != nil {
		return nil, err
	}

	if err := m.registry.Add(*record); err != nil {
		// The install itself is complete and consistent; the registry is
		// display metadata and gets reconciled on the next listing.
		m.logger.Warn().Str("plugin", id).Err(err).Msg("failed to record install metadata")
	}

	return record, nil
}

// resolve finds the catalog entry for id, fetching each repository in
// configuration order.
func (m *Manager) resolve(ctx context.Context, id string) (*repoindex.Entry, error) {
	var lastErr error
	fetched := false

	for _, repo := range m.repos {
		idx, err := m.fetcher.Fetch(ctx, repo)
		if err != nil {
			lastErr = err
			continue
		}
		fetched = true
		if entry := idx.Find(id); entry != nil {
			return entry, nil
		}
	}

	if !fetched && lastErr != nil {
		return nil, lastErr
	}
	if lastErr != nil {
		// The id may live in the repository that could not be reached
		return nil, fmt.Errorf("%w: %s (some repositories were unavailable: %v)", ErrUnknownPlugin, id, lastErr)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownPlugin, id)
}

// Uninstall removes the plugin's items and code. Without opts.MustExist,
// uninstalling an absent plugin succeeds as a no-op; the result reports
// what was actually removed. Calling it twice in a row never errors.
func (m *Manager) Uninstall(ctx context.Context, id string, opts UninstallOptions) (installer.UninstallResult, error) {
	if err := m.acquire(id); err != nil {
		return installer.UninstallResult{}, err
	}
	defer m.release(id)

	if opts.MustExist && !m.IsInstalled(id) {
		return installer.UninstallResult{}, fmt.Errorf("%w: %s", ErrNotInstalled, id)
	}

	result, err := m.uninstaller.Uninstall(ctx, id)
	if err != nil {
		return result, err
	}

	if err := m.registry.Remove(id); err != nil {
		m.logger.Warn().Str("plugin", id).Err(err).Msg("failed to drop install metadata")
	}

	return result, nil
}

// Installed lists locally installed plugins, derived from the plugin
// directory and decorated with registry metadata and registered items.
// Registry records whose code is gone are ignored; plugin files with no
// record still show up.
func (m *Manager) Installed() ([]InstalledInfo, error) {
	ids, err := m.dir.List()
	if err != nil {
		return nil, err
	}

	records, err := m.registry.List()
	if err != nil {
		m.logger.Warn().Err(err).Msg("failed to read install metadata")
		records = nil
	}

	infos := make([]InstalledInfo, 0, len(ids))
	for _, id := range ids {
		info := InstalledInfo{ID: id}
		if record, ok := records[id]; ok {
			info.Record = &record
		}
		items, err := m.store.ListItems(id)
		if err != nil {
			return nil, err
		}
		info.Items = items
		infos = append(infos, info)
	}

	return infos, nil
}
