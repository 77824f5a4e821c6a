package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/markhedleyjones/menu-kit/internal/i18n"
	"github.com/markhedleyjones/menu-kit/internal/installer"
)

var (
	installReinstall bool
)

var installCmd = &cobra.Command{
	Use:   "install <plugin>",
	Short: "Install a plugin from a repository",
	Long: `Install a plugin by id from the configured repositories.

The plugin's code is downloaded, verified against the catalog's content
hash when one is published, written to the plugin directory, and the menu
items it declares are registered.

Example:
  menu-kit install clock
  menu-kit install clock --reinstall`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().BoolVarP(&installReinstall, "reinstall", "r", false, "reinstall even if already installed")
}

func runInstall(cmd *cobra.Command, args []string) error {
	pluginID := args[0]

	mgr, err := newManager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	fmt.Println(i18n.T("Installing", map[string]any{"Plugin": pluginID}))

	record, err := mgr.Install(cmd.Context(), pluginID, installer.InstallOptions{
		Reinstall: installReinstall,
	})
	if err != nil {
		return err
	}

	fmt.Println(i18n.T("InstallSuccess", map[string]any{
		"Plugin":  record.ID,
		"Version": record.Version,
		"Items":   record.ItemCount,
	}))
	fmt.Printf("  Location: %s\n", record.InstallPath)

	return nil
}
