// Package config loads the client's configuration from flags, environment,
// an optional .env file and the config file.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

const appDir = "amo"

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// Dir is the directory holding config.yaml, ~/.config/amo unless
// XDG_CONFIG_HOME says otherwise.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir)
	}
	return ExpandPath(filepath.Join("~", ".config", appDir))
}

// DataDir is where local stores live, ~/.local/share/amo unless
// XDG_DATA_HOME says otherwise.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir)
	}
	return ExpandPath(filepath.Join("~", ".local", "share", appDir))
}
