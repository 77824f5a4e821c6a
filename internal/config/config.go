package config

import (
	"encoding/json"
	"os"
	"sync"
)

// OfficialRepository is the default plugin repository shipped with menu-kit
const OfficialRepository = "markhedleyjones/menu-kit-plugins"

// RepositoryConfig contains plugin repository settings
type RepositoryConfig struct {
	Repositories           []string `json:"repositories"`           // "owner/repo" shorthand or full index URL
	FetchTimeoutSeconds    int      `json:"fetchTimeoutSeconds"`    // per index fetch (default: 10)
	DownloadTimeoutSeconds int      `json:"downloadTimeoutSeconds"` // per artifact download (default: 60)
	MaxCacheAgeHours       int      `json:"maxCacheAgeHours"`       // cached index older than this is refused (default: 168)
}

// Config represents the main configuration file structure
type Config struct {
	Locale     string           `json:"locale"` // "auto" or ISO format (e.g., "en-US")
	Repository RepositoryConfig `json:"repository"`
}

var (
	cfg     *Config
	cfgOnce sync.Once
	cfgMu   sync.RWMutex
)

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Locale: "auto",
		Repository: RepositoryConfig{
			Repositories:           []string{OfficialRepository},
			FetchTimeoutSeconds:    10,
			DownloadTimeoutSeconds: 60,
			MaxCacheAgeHours:       168,
		},
	}
}

// Load loads the configuration from file
func Load() (*Config, error) {
	cfgMu.RLock()
	defer cfgMu.RUnlock()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return NewConfig(), nil
		}
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	applyDefaults(&config)

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Locale == "" {
		config.Locale = "auto"
	}
	if len(config.Repository.Repositories) == 0 {
		config.Repository.Repositories = []string{OfficialRepository}
	}
	if config.Repository.FetchTimeoutSeconds <= 0 {
		config.Repository.FetchTimeoutSeconds = 10
	}
	if config.Repository.DownloadTimeoutSeconds <= 0 {
		config.Repository.DownloadTimeoutSeconds = 60
	}
	if config.Repository.MaxCacheAgeHours <= 0 {
		config.Repository.MaxCacheAgeHours = 168
	}
}

// Save saves the configuration to file
func Save(config *Config) error {
	cfgMu.Lock()
	defer cfgMu.Unlock()

	if err := EnsureDir(ConfigDir()); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(ConfigPath(), data, 0644)
}

// Get returns the current configuration (singleton)
func Get() *Config {
	cfgOnce.Do(func() {
		var err error
		cfg, err = Load()
		if err != nil {
			cfg = NewConfig()
		}
	})
	return cfg
}

// GetLocale returns the configured locale
func GetLocale() string {
	return Get().Locale
}

// SetLocale sets the locale and saves
func SetLocale(locale string) error {
	config := Get()
	config.Locale = locale
	return Save(config)
}
