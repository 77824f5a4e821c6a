package repository

import "errors"

var (
	// ErrConflict means another install or uninstall for the same plugin
	// id is already in flight
	ErrConflict = errors.New("operation already in progress for plugin")
	// ErrNotInstalled means the plugin was required to be present but is
	// not installed
	ErrNotInstalled = errors.New("plugin not installed")
	// ErrUnknownPlugin means no configured repository lists the plugin id
	ErrUnknownPlugin = errors.New("plugin not found in any repository")
)
