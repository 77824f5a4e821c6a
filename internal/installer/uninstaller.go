package installer

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/markhedleyjones/menu-kit/internal/itemstore"
	"github.com/markhedleyjones/menu-kit/internal/plugindir"
)

// UninstallResult reports what an uninstall actually removed
type UninstallResult struct {
	// WasInstalled is true when the plugin's code was present beforehand
	WasInstalled bool
	// CodeRemoved is true when a code file was deleted
	CodeRemoved bool
	// ItemsRemoved is the number of items cleared from the store
	ItemsRemoved int64
}

// Uninstaller removes a plugin's items and code. Uninstalling an absent
// plugin is a successful no-op.
type Uninstaller struct {
	dir    *plugindir.Directory
	store  *itemstore.Store
	logger zerolog.Logger
}

// NewUninstaller creates an uninstaller over dir and store
func NewUninstaller(dir *plugindir.Directory, store *itemstore.Store, logger zerolog.Logger) *Uninstaller {
	return &Uninstaller{
		dir:    dir,
		store:  store,
		logger: logger,
	}
}

// Uninstall clears the plugin's items first and removes its code second.
// That order keeps "items present implies code present" true even if the
// process dies in between: a leftover code file with no items is inert
// garbage, while items with no code would be broken menu entries.
func (un *Uninstaller) Uninstall(ctx context.Context, id string) (UninstallResult, error) {
	result := UninstallResult{
		WasInstalled: un.dir.Exists(id),
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	removed, err := un.store.ClearItems(id)
	if err != nil {
		return result, err
	}
	result.ItemsRemoved = removed

	codeRemoved, err := un.dir.Remove(id)
	if err != nil {
		return result, err
	}
	result.CodeRemoved = codeRemoved

	un.logger.Info().
		Str("plugin", id).
		Bool("wasInstalled", result.WasInstalled).
		Int64("itemsRemoved", result.ItemsRemoved).
		Msg("plugin uninstalled")

	return result, nil
}
