package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Load resolves, reads, and parses the config file, then layers .env files
// and ASSIST_* environment overrides on top before validating.
func Load(explicitPath string) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	loaded := Loaded{Path: resolvedPath, Config: Default()}

	content, err := os.ReadFile(resolvedPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		loaded.Warnings = append(loaded.Warnings, Warning{
			Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
		})
	case err != nil:
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	default:
		cfg, warnings, err := Parse(string(content), loaded.Config)
		if err != nil {
			return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, err)
		}
		loaded.Config = cfg
		loaded.Warnings = append(loaded.Warnings, warnings...)
		loaded.Exists = true
	}

	if err := loadDotEnv(filepath.Join(filepath.Dir(resolvedPath), ".env"), ".env"); err != nil {
		return Loaded{}, err
	}
	if err := env.Parse(&loaded.Config); err != nil {
		return Loaded{}, fmt.Errorf("apply environment overrides: %w", err)
	}
	if raw := os.Getenv("ASSIST_OUTPUT_CLIPBOARD_CMD"); raw != "" {
		argv, err := ParseCommand(raw)
		if err != nil {
			return Loaded{}, fmt.Errorf("ASSIST_OUTPUT_CLIPBOARD_CMD: %w", err)
		}
		loaded.Config.Output.Clipboard = CommandConfig{Raw: raw, Argv: argv}
	}

	// Overrides can invalidate a file that parsed cleanly.
	if _, err := Validate(loaded.Config); err != nil {
		return Loaded{}, fmt.Errorf("validate config: %w", err)
	}
	return loaded, nil
}

// loadDotEnv reads each existing file without overriding variables that are
// already set in the process environment.
func loadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}
