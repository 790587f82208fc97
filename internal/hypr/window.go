package hypr

import (
	"context"
	"errors"
	"strings"
)

// Window is the subset of `hyprctl -j activewindow` used to target a paste.
type Window struct {
	Address string `json:"address"`
	Class   string `json:"class"`
	Title   string `json:"title"`
}

// FocusedWindow returns the window holding keyboard focus. A reply without
// an address means nothing is focused and is reported as an error.
func FocusedWindow(ctx context.Context) (Window, error) {
	var w Window
	if err := query(ctx, "activewindow", &w); err != nil {
		return Window{}, err
	}
	w = Window{
		Address: strings.TrimSpace(w.Address),
		Class:   strings.TrimSpace(w.Class),
		Title:   strings.TrimSpace(w.Title),
	}
	if w.Address == "" {
		return Window{}, errors.New("hyprctl activewindow returned empty address")
	}
	return w, nil
}

// ShortcutTarget builds the sendshortcut argument that delivers shortcut
// ("CTRL,V", "SUPER,V") to w.
func ShortcutTarget(shortcut string, w Window) (string, error) {
	shortcut = strings.TrimSpace(shortcut)
	if shortcut == "" {
		return "", errors.New("paste shortcut cannot be empty")
	}
	address := strings.TrimSpace(w.Address)
	if address == "" {
		return "", errors.New("target window has no address")
	}
	return shortcut + ",address:" + address, nil
}

// SendShortcut dispatches a sendshortcut argument built by ShortcutTarget.
func SendShortcut(ctx context.Context, target string) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return errors.New("sendshortcut requires a non-empty payload")
	}
	return dispatch(ctx, "sendshortcut", target)
}
