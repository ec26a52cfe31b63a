// Package config registers the ledger's configuration keys on viper and
// assembles the settings of each collaborator from them.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}

	return os.ExpandEnv(path)
}

// ConfigDir is where the config file and saved tokens live.
func ConfigDir() string {
	return ExpandPath("~/.config/ledger")
}

// DefaultDatabasePath is the ledger database location when none is configured.
func DefaultDatabasePath() string {
	return ExpandPath("~/.local/share/ledger/ledger.db")
}
