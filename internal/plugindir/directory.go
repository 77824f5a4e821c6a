// Package plugindir manages the on-disk location of installed plugin code.
// All writes go through a temporary file and an atomic rename, so a
// partially written plugin is never observable at its final path.
package plugindir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidID rejects plugin ids that would resolve outside the
// directory root
var ErrInvalidID = errors.New("invalid plugin id")

// ValidID reports whether id is a plain file name: non-empty, no path
// separators, and not a dot reference.
func ValidID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}

// Directory is the local filesystem home of plugin code artifacts
type Directory struct {
	root string
}

// New creates a Directory rooted at root
func New(root string) *Directory {
	return &Directory{root: root}
}

// Root returns the directory's base path
func (d *Directory) Root() string {
	return d.root
}

// Path returns the install path for a plugin id
func (d *Directory) Path(id string) string {
	return filepath.Join(d.root, id)
}

// Exists reports whether plugin id has code installed
func (d *Directory) Exists(id string) bool {
	if !ValidID(id) {
		return false
	}
	_, err := os.Stat(d.Path(id))
	return err == nil
}

// Write stores content at the plugin's install path. The content goes to a
// temporary file first, the byte count is verified, and the temp file is
// renamed over any existing target. A failed write discards the temp file.
func (d *Directory) Write(id string, content []byte) (string, error) {
	if !ValidID(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if err := os.MkdirAll(d.root, 0755); err != nil {
		return "", fmt.Errorf("create plugin directory: %w", err)
	}

	tmp, err := os.CreateTemp(d.root, "."+id+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file for %s: %w", id, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	n, err := tmp.Write(content)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("write plugin %s: %w", id, err)
	}
	if n != len(content) {
		tmp.Close()
		return "", fmt.Errorf("write plugin %s: short write (%d of %d bytes)", id, n, len(content))
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("sync plugin %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close plugin %s: %w", id, err)
	}

	target := d.Path(id)
	if err := os.Rename(tmpName, target); err != nil {
		return "", fmt.Errorf("install plugin %s: %w", id, err)
	}

	return target, nil
}

// List returns the ids of all installed plugin files, skipping temp files
func (d *Directory) List() ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		ids = append(ids, e.Name())
	}
	return ids, nil
}

// Remove deletes the plugin's installed file. Removing an absent plugin is
// a no-op; the return value reports whether anything was actually removed.
func (d *Directory) Remove(id string) (bool, error) {
	if !ValidID(id) {
		return false, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	err := os.Remove(d.Path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("remove plugin %s: %w", id, err)
	}
	return true, nil
}
