package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/markhedleyjones/menu-kit/internal/i18n"
	"github.com/markhedleyjones/menu-kit/internal/repository"
)

var (
	uninstallStrict bool
)

var uninstallCmd = &cobra.Command{
	Use:     "uninstall <plugin>",
	Aliases: []string{"remove", "rm"},
	Short:   "Remove an installed plugin",
	Long: `Remove an installed plugin: its registered menu items are cleared
first, then its code file is deleted.

Uninstalling a plugin that is not installed is a no-op unless --strict
is given.

Example:
  menu-kit uninstall clock`,
	Args: cobra.ExactArgs(1),
	RunE: runUninstall,
}

func init() {
	uninstallCmd.Flags().BoolVar(&uninstallStrict, "strict", false, "fail when the plugin is not installed")
}

func runUninstall(cmd *cobra.Command, args []string) error {
	pluginID := args[0]

	mgr, err := newManager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	result, err := mgr.Uninstall(cmd.Context(), pluginID, repository.UninstallOptions{
		MustExist: uninstallStrict,
	})
	if err != nil {
		return err
	}

	if !result.WasInstalled && result.ItemsRemoved == 0 {
		fmt.Println(i18n.T("AlreadyAbsent", map[string]any{"Plugin": pluginID}))
		return nil
	}

	fmt.Println(i18n.T("UninstallSuccess", map[string]any{"Plugin": pluginID}))
	if result.ItemsRemoved > 0 {
		fmt.Printf("  Items removed: %d\n", result.ItemsRemoved)
	}

	return nil
}
