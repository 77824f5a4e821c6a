package search

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/markhedleyjones/menu-kit/internal/repository"
)

// Result represents a search result
type Result struct {
	Entry repository.CatalogEntry
	Score int // Higher is better
}

// catalogSearchable wraps catalog entries for fuzzy searching
type catalogSearchable struct {
	entries []repository.CatalogEntry
}

// String returns the searchable string for an entry
func (c catalogSearchable) String(i int) string {
	entry := c.entries[i]
	parts := []string{entry.ID, entry.Name}

	if entry.Description != "" {
		parts = append(parts, entry.Description)
	}

	return strings.ToLower(strings.Join(parts, " "))
}

// Len returns the number of entries
func (c catalogSearchable) Len() int {
	return len(c.entries)
}

// FuzzySearch performs a fuzzy search across the catalog
func FuzzySearch(catalog *repository.Catalog, query string) []Result {
	if catalog == nil || len(catalog.Entries) == 0 {
		return nil
	}

	searchable := catalogSearchable{entries: catalog.Entries}
	matches := fuzzy.FindFrom(strings.ToLower(query), searchable)

	results := make([]Result, 0, len(matches))
	for _, match := range matches {
		results = append(results, Result{
			Entry: catalog.Entries[match.Index],
			Score: match.Score,
		})
	}

	// Sort by score (descending)
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results
}
