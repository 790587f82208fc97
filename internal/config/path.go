package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolvePath returns explicit when set, else config.jsonc under the XDG
// config dir.
func ResolvePath(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}
	return xdgFile("XDG_CONFIG_HOME", ".config", "config.jsonc")
}

// DefaultSQLitePath is the settings database under the XDG data dir.
func DefaultSQLitePath() (string, error) {
	return xdgFile("XDG_DATA_HOME", filepath.Join(".local", "share"), "settings.db")
}

// xdgFile resolves $env/assist/name, or ~/home/assist/name when env is unset.
func xdgFile(env, home, name string) (string, error) {
	if base := strings.TrimSpace(os.Getenv(env)); base != "" {
		return filepath.Join(base, "assist", name), nil
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home for %s: %w", name, err)
	}
	return filepath.Join(dir, home, "assist", name), nil
}
