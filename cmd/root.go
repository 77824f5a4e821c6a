package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/markhedleyjones/menu-kit/internal/config"
	"github.com/markhedleyjones/menu-kit/internal/repository"
)

var (
	verbose bool
	logger  zerolog.Logger

	rootCmd = &cobra.Command{
		Use:           "menu-kit",
		Short:         "Plugin repository manager for the menu-kit launcher",
		SilenceErrors: true,
		SilenceUsage:  true,
		Long: `menu-kit manages optional plugins for the menu-kit launcher.

Plugins are distributed as single-file modules from versioned plugin
repositories. Installing a plugin downloads its code and registers the
menu items it contributes; uninstalling removes both again.

Commands:
  browse       Show the plugin catalog of the configured repositories
  install      Install a plugin by id
  uninstall    Remove an installed plugin
  list         Show installed plugins
  search       Fuzzy-search the plugin catalog`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.WarnLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				With().Timestamp().Logger().Level(level)
		},
	}
)

// newManager builds the repository manager from the user configuration
func newManager() (*repository.Manager, error) {
	cfg := config.Get()

	if err := config.EnsureDir(config.DataDir()); err != nil {
		return nil, err
	}

	return repository.New(repository.Config{
		Repositories:    cfg.Repository.Repositories,
		PluginsDir:      config.PluginsDir(),
		IndexCacheDir:   config.IndexCacheDir(),
		DatabasePath:    config.DatabasePath(),
		RegistryPath:    config.InstalledPath(),
		FetchTimeout:    time.Duration(cfg.Repository.FetchTimeoutSeconds) * time.Second,
		DownloadTimeout: time.Duration(cfg.Repository.DownloadTimeoutSeconds) * time.Second,
		MaxCacheAge:     time.Duration(cfg.Repository.MaxCacheAgeHours) * time.Hour,
		Logger:          logger,
	})
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
}
