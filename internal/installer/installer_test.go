package installer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markhedleyjones/menu-kit/internal/itemstore"
	"github.com/markhedleyjones/menu-kit/internal/plugindir"
	"github.com/markhedleyjones/menu-kit/internal/repoindex"
)

const clockArtifact = `#:item clock {"title": "Clock"}

def create_plugin():
    pass
`

func digest(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

type fixture struct {
	dir       *plugindir.Directory
	store     *itemstore.Store
	installer *Installer
	server    *httptest.Server
}

func newFixture(t *testing.T, handler http.Handler) *fixture {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	dir := plugindir.New(filepath.Join(t.TempDir(), "plugins"))
	store, err := itemstore.Open(filepath.Join(t.TempDir(), "items.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	client := &http.Client{Timeout: 2 * time.Second}
	return &fixture{
		dir:       dir,
		store:     store,
		installer: NewInstaller(client, dir, store, zerolog.Nop()),
		server:    server,
	}
}

func artifactHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})
}

func (f *fixture) entry(id string) repoindex.Entry {
	return repoindex.Entry{
		ID:        id,
		Name:      "Clock",
		Version:   "1.0",
		SourceURL: f.server.URL + "/" + id + ".py",
	}
}

func TestInstall(t *testing.T) {
	f := newFixture(t, artifactHandler(clockArtifact))

	record, err := f.installer.Install(context.Background(), f.entry("clock"), InstallOptions{})
	require.NoError(t, err)

	assert.Equal(t, "clock", record.ID)
	assert.Equal(t, "1.0", record.Version)
	assert.Equal(t, f.dir.Path("clock"), record.InstallPath)
	assert.Equal(t, 1, record.ItemCount)
	assert.WithinDuration(t, time.Now(), record.InstalledAt, 5*time.Second)

	assert.True(t, f.dir.Exists("clock"))

	items, err := f.store.ListItems("clock")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "clock", items[0].Key)
}

func TestInstallAlreadyInstalled(t *testing.T) {
	f := newFixture(t, artifactHandler(clockArtifact))

	_, err := f.installer.Install(context.Background(), f.entry("clock"), InstallOptions{})
	require.NoError(t, err)

	_, err = f.installer.Install(context.Background(), f.entry("clock"), InstallOptions{})
	assert.ErrorIs(t, err, ErrAlreadyInstalled)

	// Reinstall overwrites instead
	_, err = f.installer.Install(context.Background(), f.entry("clock"), InstallOptions{Reinstall: true})
	assert.NoError(t, err)
}

func TestInstallDownloadError(t *testing.T) {
	f := newFixture(t, http.NotFoundHandler())

	_, err := f.installer.Install(context.Background(), f.entry("clock"), InstallOptions{})
	assert.ErrorIs(t, err, ErrDownload)
	assert.False(t, f.dir.Exists("clock"))
}

func TestInstallIntegrityMismatch(t *testing.T) {
	f := newFixture(t, artifactHandler(clockArtifact))

	entry := f.entry("clock")
	entry.ContentHash = digest("something else entirely")

	_, err := f.installer.Install(context.Background(), entry, InstallOptions{})
	assert.ErrorIs(t, err, ErrIntegrity)

	// Nothing was written and no items were registered
	assert.False(t, f.dir.Exists("clock"))
	items, err := f.store.ListItems("clock")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestInstallIntegrityMatch(t *testing.T) {
	f := newFixture(t, artifactHandler(clockArtifact))

	for _, hash := range []string{digest(clockArtifact), "sha256:" + digest(clockArtifact)} {
		entry := f.entry("clock")
		entry.ContentHash = hash

		_, err := f.installer.Install(context.Background(), entry, InstallOptions{Reinstall: true})
		assert.NoError(t, err)
	}
}

func TestInstallRollsBackOnExtractionFailure(t *testing.T) {
	// Malformed item directive: extraction fails before anything is written
	f := newFixture(t, artifactHandler("#:item\n"))

	_, err := f.installer.Install(context.Background(), f.entry("clock"), InstallOptions{})
	require.Error(t, err)

	// No file and no items, exactly as before the call
	assert.False(t, f.dir.Exists("clock"))
	items, err := f.store.ListItems("clock")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFailedReinstallKeepsPreviousInstall(t *testing.T) {
	var mu sync.Mutex
	body := clockArtifact
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		w.Write([]byte(body))
	}))

	_, err := f.installer.Install(context.Background(), f.entry("clock"), InstallOptions{})
	require.NoError(t, err)

	// The repository now serves a broken artifact; the reinstall fails
	mu.Lock()
	body = "#:item\n"
	mu.Unlock()

	_, err = f.installer.Install(context.Background(), f.entry("clock"), InstallOptions{Reinstall: true})
	require.Error(t, err)

	// The previous install survives intact: old code and old items
	assert.True(t, f.dir.Exists("clock"))
	content, err := os.ReadFile(f.dir.Path("clock"))
	require.NoError(t, err)
	assert.Equal(t, clockArtifact, string(content))

	items, err := f.store.ListItems("clock")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "clock", items[0].Key)
}

func TestInstallCancelled(t *testing.T) {
	f := newFixture(t, artifactHandler(clockArtifact))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.installer.Install(ctx, f.entry("clock"), InstallOptions{})
	assert.ErrorIs(t, err, ErrDownload)
	assert.False(t, f.dir.Exists("clock"))
}
