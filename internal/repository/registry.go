package repository

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/markhedleyjones/menu-kit/internal/installer"
)

// installedFile is the installed.json structure
type installedFile struct {
	Version int                                   `json:"version"`
	Plugins map[string]installer.InstalledPlugin `json:"plugins"`
}

func newInstalledFile() *installedFile {
	return &installedFile{
		Version: 1,
		Plugins: make(map[string]installer.InstalledPlugin),
	}
}

// Registry persists install metadata (version, install time) for display.
// It is bookkeeping only: install-state truth is always re-derived from
// the plugin directory and the item store, never from this file.
type Registry struct {
	mu   sync.RWMutex
	path string
}

// NewRegistry creates a registry persisted at path
func NewRegistry(path string) *Registry {
	return &Registry{path: path}
}

func (r *Registry) load() (*installedFile, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return newInstalledFile(), nil
		}
		return nil, err
	}

	var file installedFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	if file.Plugins == nil {
		file.Plugins = make(map[string]installer.InstalledPlugin)
	}

	return &file, nil
}

func (r *Registry) save(file *installedFile) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".installed-*.tmp")
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

	return os.Rename(tmp.Name(), r.path)
}

// Add records a successful install
func (r *Registry) Add(record installer.InstalledPlugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.load()
	if err != nil {
		return err
	}

	file.Plugins[record.ID] = record
	return r.save(file)
}

// Remove drops the record for a plugin id; removing an unknown id is a
// no-op
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.load()
	if err != nil {
		return err
	}

	delete(file.Plugins, id)
	return r.save(file)
}

// Get returns the record for a plugin id, or nil when none exists
func (r *Registry) Get(id string) (*installer.InstalledPlugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.load()
	if err != nil {
		return nil, err
	}

	record, ok := file.Plugins[id]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

// List returns all recorded installs keyed by plugin id
func (r *Registry) List() (map[string]installer.InstalledPlugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.load()
	if err != nil {
		return nil, err
	}
	return file.Plugins, nil
}
