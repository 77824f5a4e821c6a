package config

import (
	"os"
	"path/filepath"
)

var (
	homeDir string
)

func init() {
	var err error
	homeDir, err = os.UserHomeDir()
	if err != nil {
		homeDir = "~"
	}
}

// ConfigDir returns the menu-kit config directory path
// ~/.config/menu-kit/
func ConfigDir() string {
	return filepath.Join(homeDir, ".config", "menu-kit")
}

// ConfigPath returns the config.json file path
// ~/.config/menu-kit/config.json
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// CacheDir returns the cache directory path
// ~/.cache/menu-kit/
func CacheDir() string {
	return filepath.Join(homeDir, ".cache", "menu-kit")
}

// IndexCacheDir returns the directory holding cached repository indexes
// ~/.cache/menu-kit/index/
func IndexCacheDir() string {
	return filepath.Join(CacheDir(), "index")
}

// DataDir returns the data directory path
// ~/.local/share/menu-kit/
func DataDir() string {
	return filepath.Join(homeDir, ".local", "share", "menu-kit")
}

// PluginsDir returns the directory where plugin code is installed
// ~/.local/share/menu-kit/plugins/
func PluginsDir() string {
	return filepath.Join(DataDir(), "plugins")
}

// DatabasePath returns the item database file path
// ~/.local/share/menu-kit/menu-kit.db
func DatabasePath() string {
	return filepath.Join(DataDir(), "menu-kit.db")
}

// InstalledPath returns the installed.json file path
// ~/.local/share/menu-kit/installed.json
func InstalledPath() string {
	return filepath.Join(DataDir(), "installed.json")
}

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
