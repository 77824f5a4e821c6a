package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/markhedleyjones/menu-kit/internal/i18n"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed plugins",
	Long: `List all installed plugins with their registered menu items.

Example:
  menu-kit list`,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	mgr, err := newManager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	installed, err := mgr.Installed()
	if err != nil {
		return err
	}

	fmt.Println(i18n.T("ListPluginsHeader", nil))
	fmt.Println(strings.Repeat("-", 40))

	if len(installed) == 0 {
		fmt.Println(i18n.T("NoPluginsInstalled", nil))
		return nil
	}

	for _, info := range installed {
		if info.Record != nil {
			fmt.Printf("  %s (v%s)\n", info.ID, info.Record.Version)
			fmt.Printf("    Installed: %s\n", info.Record.InstalledAt.Format("2006-01-02 15:04"))
		} else {
			fmt.Printf("  %s\n", info.ID)
		}
		if len(info.Items) > 0 {
			fmt.Printf("    Items:\n")
			for _, item := range info.Items {
				fmt.Printf("      - %s\n", item.Key)
			}
		}
		fmt.Println()
	}

	return nil
}
