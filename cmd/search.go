package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/markhedleyjones/menu-kit/internal/i18n"
	"github.com/markhedleyjones/menu-kit/internal/repoindex"
	"github.com/markhedleyjones/menu-kit/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search for plugins across all repositories",
	Long: `Search for plugins using fuzzy matching across the configured
repositories.

The search looks through plugin ids, names, and descriptions.

Example:
  menu-kit search clock
  menu-kit search network`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	keyword := args[0]

	mgr, err := newManager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	catalog, err := mgr.Browse(cmd.Context())
	if err != nil {
		return err
	}

	results := search.FuzzySearch(catalog, keyword)

	if len(results) == 0 {
		fmt.Println(i18n.T("NoResults", map[string]any{"Keyword": keyword}))
		return nil
	}

	fmt.Println(i18n.T("SearchResults", map[string]any{"Count": len(results)}, len(results)))
	fmt.Println()

	for _, r := range results {
		version := r.Entry.Version
		if version == "" {
			version = "latest"
		}

		marker := " "
		if r.Entry.Installed {
			marker = "*"
		}

		fmt.Printf("%s %s (v%s) [%s]\n", marker, r.Entry.ID, version, repoindex.DisplayName(r.Entry.Repository))

		if r.Entry.Description != "" {
			fmt.Printf("    %s\n", r.Entry.Description)
		}

		fmt.Println()
	}

	return nil
}
