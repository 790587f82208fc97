// Package output exports transcript entries to the clipboard and, when
// asked, pastes them into the focused window.
package output

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rbright/assist/internal/config"
	"github.com/rbright/assist/internal/logging"
)

const (
	commandTimeout  = 2 * time.Second
	shortcutTimeout = 1200 * time.Millisecond
)

var errNothingToCopy = errors.New("nothing to copy")

// Exporter writes entry text to the configured clipboard command.
type Exporter struct {
	cfg    config.OutputConfig
	logger *slog.Logger

	pasteFocused func(ctx context.Context, shortcut string) error
}

// NewExporter constructs an exporter from the output config section.
func NewExporter(cfg config.OutputConfig, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Exporter{cfg: cfg, logger: logger, pasteFocused: pasteFocused}
}

// Copy puts text on the clipboard. A paste follows when paste is true or
// output.paste_enable is set. Only the clipboard write can fail the copy;
// a failed paste is logged and the clipboard keeps the text.
func (e *Exporter) Copy(ctx context.Context, text string, paste bool) error {
	if strings.TrimSpace(text) == "" {
		return errNothingToCopy
	}

	clipCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	err := pipeTo(clipCtx, e.cfg.Clipboard.Argv, text)
	cancel()
	if err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}

	if !paste && !e.cfg.Paste.Enable {
		return nil
	}
	if err := e.paste(ctx); err != nil {
		e.logger.Error("paste dispatch failed; clipboard remains set", "error", err.Error())
	}
	return nil
}

// paste prefers an explicit paste_cmd over the compositor shortcut.
func (e *Exporter) paste(ctx context.Context) error {
	if argv := e.cfg.PasteCmd.Argv; len(argv) > 0 {
		pasteCtx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()
		return pipeTo(pasteCtx, argv, "")
	}
	pasteCtx, cancel := context.WithTimeout(ctx, shortcutTimeout)
	defer cancel()
	return e.pasteFocused(pasteCtx, e.cfg.Paste.Shortcut)
}
