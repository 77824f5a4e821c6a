package installer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/markhedleyjones/menu-kit/internal/itemstore"
	"github.com/markhedleyjones/menu-kit/internal/manifest"
	"github.com/markhedleyjones/menu-kit/internal/plugindir"
	"github.com/markhedleyjones/menu-kit/internal/repoindex"
)

var (
	// ErrAlreadyInstalled means the plugin's code is already present and
	// reinstall was not requested
	ErrAlreadyInstalled = errors.New("plugin already installed")
	// ErrDownload means fetching the plugin artifact failed
	ErrDownload = errors.New("plugin download failed")
	// ErrIntegrity means the downloaded bytes did not match the catalog's
	// content hash
	ErrIntegrity = errors.New("plugin content hash mismatch")
)

// InstalledPlugin records a successful install
type InstalledPlugin struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	InstallPath string    `json:"installPath"`
	InstalledAt time.Time `json:"installedAt"`
	ItemCount   int       `json:"itemCount"`
}

// InstallOptions controls install behavior
type InstallOptions struct {
	// Reinstall allows overwriting an already-installed plugin
	Reinstall bool
}

// Installer materializes a catalog entry locally: download, verify, write
// the code atomically, and register the plugin's declared items.
type Installer struct {
	client *http.Client
	dir    *plugindir.Directory
	store  *itemstore.Store
	logger zerolog.Logger
}

// NewInstaller creates an installer over dir and store
func NewInstaller(client *http.Client, dir *plugindir.Directory, store *itemstore.Store, logger zerolog.Logger) *Installer {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Installer{
		client: client,
		dir:    dir,
		store:  store,
		logger: logger,
	}
}

// Install installs the plugin described by entry. The downloaded content
// is verified and its item header parsed before anything touches disk, so
// a bad artifact fails with local state exactly as it was. If item
// registration fails after the code file was written, the previous file is
// restored (reinstall) or the new file removed (fresh install) before the
// error propagates, so code is never present without its items.
func (in *Installer) Install(ctx context.Context, entry repoindex.Entry, opts InstallOptions) (*InstalledPlugin, error) {
	wasInstalled := in.dir.Exists(entry.ID)
	if wasInstalled && !opts.Reinstall {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyInstalled, entry.ID)
	}

	content, err := in.download(ctx, entry.SourceURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDownload, entry.ID, err)
	}

	if entry.ContentHash != "" {
		if err := verifyDigest(content, entry.ContentHash); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrIntegrity, entry.ID, err)
		}
	}

	items, err := manifest.ExtractItems(content)
	if err != nil {
		return nil, fmt.Errorf("extract items for %s: %w", entry.ID, err)
	}

	// A reinstall overwrites the existing code; keep it so a failure
	// after the write can put it back.
	var previous []byte
	if wasInstalled {
		previous, err = os.ReadFile(in.dir.Path(entry.ID))
		if err != nil {
			return nil, fmt.Errorf("read installed plugin %s: %w", entry.ID, err)
		}
	}

	path, err := in.dir.Write(entry.ID, content)
	if err != nil {
		return nil, err
	}

	if err := in.store.PutItems(entry.ID, items); err != nil {
		in.rollback(entry.ID, previous)
		return nil, fmt.Errorf("register items for %s: %w", entry.ID, err)
	}

	in.logger.Info().Str("plugin", entry.ID).Str("version", entry.Version).Int("items", len(items)).Msg("plugin installed")

	return &InstalledPlugin{
		ID:          entry.ID,
		Name:        entry.Name,
		Version:     entry.Version,
		InstallPath: path,
		InstalledAt: time.Now().UTC(),
		ItemCount:   len(items),
	}, nil
}

// rollback undoes a code write whose item registration failed. The item
// store transaction already rolled back, so the previous items (if any)
// are intact; the file must match them again.
func (in *Installer) rollback(id string, previous []byte) {
	if previous != nil {
		if _, err := in.dir.Write(id, previous); err != nil {
			in.logger.Error().Str("plugin", id).Err(err).Msg("rollback failed, previous plugin code not restored")
		}
		return
	}
	if _, err := in.dir.Remove(id); err != nil {
		in.logger.Error().Str("plugin", id).Err(err).Msg("rollback failed, orphaned plugin file left behind")
	}
}

func (in *Installer) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := in.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return io.ReadAll(resp.Body)
}

// verifyDigest checks content against an expected sha256 digest, given as
// bare hex or with a "sha256:" prefix.
func verifyDigest(content []byte, expected string) error {
	expected = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(expected)), "sha256:")

	sum := sha256.Sum256(content)
	actual := hex.EncodeToString(sum[:])

	if actual != expected {
		return fmt.Errorf("got sha256 %s, want %s", actual, expected)
	}
	return nil
}
