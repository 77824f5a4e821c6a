package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/markhedleyjones/menu-kit/internal/i18n"
	"github.com/markhedleyjones/menu-kit/internal/installer"
	"github.com/markhedleyjones/menu-kit/internal/repoindex"
	"github.com/markhedleyjones/menu-kit/internal/repository"
	"github.com/markhedleyjones/menu-kit/internal/tui"
)

var (
	browseInteractive bool
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the plugin catalog",
	Long: `Browse the plugin catalogs of the configured repositories.

When the network is unreachable the last cached catalog is shown,
marked as cached.

Example:
  menu-kit browse
  menu-kit browse -i   # interactive picker`,
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().BoolVarP(&browseInteractive, "interactive", "i", false, "interactive catalog picker")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	mgr, err := newManager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	catalog, err := mgr.Browse(cmd.Context())
	if err != nil {
		return err
	}

	for _, warn := range catalog.Warnings {
		fmt.Println(i18n.T("BrowseWarning", map[string]any{"Error": warn.Error()}))
	}

	if browseInteractive {
		return runBrowseInteractive(cmd, mgr, catalog)
	}

	for _, idx := range catalog.Indexes {
		header := repoindex.DisplayName(idx.Repository)
		if idx.Source == repoindex.SourceCache {
			header += " " + i18n.T("CachedIndicator", map[string]any{
				"Age": idx.Age(time.Now()).Round(time.Minute).String(),
			})
		}
		fmt.Println(header)
		fmt.Println(strings.Repeat("-", 40))

		if len(idx.Entries) == 0 {
			fmt.Println(i18n.T("NoPluginsAvailable", nil))
		}

		for _, entry := range idx.Entries {
			marker := " "
			if mgr.IsInstalled(entry.ID) {
				marker = "*"
			}
			version := entry.Version
			if version == "" {
				version = "latest"
			}
			fmt.Printf("%s %s (v%s)\n", marker, entry.ID, version)
			if entry.Description != "" {
				fmt.Printf("    %s\n", entry.Description)
			}
		}
		fmt.Println()
	}

	return nil
}

func runBrowseInteractive(cmd *cobra.Command, mgr *repository.Manager, catalog *repository.Catalog) error {
	result, err := tui.RunPicker(catalog)
	if err != nil {
		return err
	}
	if result.Cancelled {
		return nil
	}

	for _, item := range result.ToInstall {
		record, err := mgr.Install(cmd.Context(), item.Entry.ID, installer.InstallOptions{})
		if err != nil {
			return err
		}
		fmt.Println(i18n.T("InstallSuccess", map[string]any{
			"Plugin":  record.ID,
			"Version": record.Version,
			"Items":   record.ItemCount,
		}))
	}

	for _, item := range result.ToUninstall {
		if _, err := mgr.Uninstall(cmd.Context(), item.Entry.ID, repository.UninstallOptions{}); err != nil {
			return err
		}
		fmt.Println(i18n.T("UninstallSuccess", map[string]any{"Plugin": item.Entry.ID}))
	}

	return nil
}
