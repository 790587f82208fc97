package hypr

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeHyprctl puts a hyprctl on PATH that answers `-j <topic>` from
// replies, fails when failOn is part of the call and records every other
// invocation. It returns a reader for the recorded calls.
func fakeHyprctl(t *testing.T, replies map[string]string, failOn string) func() []string {
	t.Helper()

	dir := t.TempDir()
	calls := filepath.Join(dir, "calls.log")
	for topic, body := range replies {
		require.NoError(t, os.WriteFile(filepath.Join(dir, topic+".json"), []byte(body), 0o600))
	}

	var script strings.Builder
	script.WriteString("#!/usr/bin/env bash\nset -euo pipefail\n")
	script.WriteString(`if [[ "${1:-}" == "-j" ]]; then cat "` + dir + `/$2.json"; exit 0; fi` + "\n")
	if failOn != "" {
		script.WriteString(`if [[ "$*" == *"` + failOn + `"* ]]; then echo "` + failOn + ` rejected" >&2; exit 1; fi` + "\n")
	}
	script.WriteString(`printf '%s\n' "$*" >> "` + calls + `"` + "\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hyprctl"), []byte(script.String()), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))

	return func() []string {
		data, err := os.ReadFile(calls)
		if os.IsNotExist(err) {
			return nil
		}
		require.NoError(t, err)
		return strings.Split(strings.TrimSpace(string(data)), "\n")
	}
}

func TestFocusedWindowTrimsFields(t *testing.T) {
	fakeHyprctl(t, map[string]string{
		"activewindow": `{"address":" 0xabc ","class":" kitty ","title":" assist chat "}`,
	}, "")

	w, err := FocusedWindow(context.Background())
	require.NoError(t, err)
	require.Equal(t, Window{Address: "0xabc", Class: "kitty", Title: "assist chat"}, w)
}

func TestFocusedWindowErrors(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{name: "no address", reply: `{"address":"","class":"brave"}`, want: "empty address"},
		{name: "not json", reply: `Invalid`, want: "decode hyprctl activewindow reply"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fakeHyprctl(t, map[string]string{"activewindow": tc.reply}, "")
			_, err := FocusedWindow(context.Background())
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestShortcutTarget(t *testing.T) {
	got, err := ShortcutTarget(" SUPER,V ", Window{Address: "0xabc"})
	require.NoError(t, err)
	require.Equal(t, "SUPER,V,address:0xabc", got)

	_, err = ShortcutTarget("", Window{Address: "0xabc"})
	require.ErrorContains(t, err, "shortcut cannot be empty")

	_, err = ShortcutTarget("CTRL,V", Window{})
	require.ErrorContains(t, err, "no address")
}

func TestSendShortcut(t *testing.T) {
	calls := fakeHyprctl(t, nil, "")

	require.ErrorContains(t, SendShortcut(context.Background(), " "), "non-empty payload")
	require.NoError(t, SendShortcut(context.Background(), "CTRL,V,address:0xabc"))
	require.Equal(t, []string{"--quiet dispatch sendshortcut CTRL,V,address:0xabc"}, calls())
}

func TestSendShortcutReportsHyprctlOutput(t *testing.T) {
	fakeHyprctl(t, nil, "sendshortcut")

	err := SendShortcut(context.Background(), "CTRL,V,address:0xabc")
	require.ErrorContains(t, err, "sendshortcut rejected")
}

func TestNotifyAndDismiss(t *testing.T) {
	calls := fakeHyprctl(t, nil, "")

	require.NoError(t, Notify(context.Background(), 3, 1200, "", "SPEECH NOT RECOGNIZED"))
	require.NoError(t, Notify(context.Background(), 1, 500, ColorError, "oops"))
	require.NoError(t, DismissNotify(context.Background()))

	require.Equal(t, []string{
		"--quiet dispatch notify 3 1200 rgb(89b4fa) SPEECH NOT RECOGNIZED",
		"--quiet dispatch notify 1 500 rgb(f38ba8) oops",
		"--quiet dispatch dismissnotify",
	}, calls())
}

func TestVersion(t *testing.T) {
	fakeHyprctl(t, map[string]string{"version": `{"tag":" v0.45.2 ","commit":"abc123"}`}, "")
	tag, err := Version(context.Background())
	require.NoError(t, err)
	require.Equal(t, "v0.45.2", tag)

	fakeHyprctl(t, map[string]string{"version": `{"tag":"","commit":" abc123 "}`}, "")
	tag, err = Version(context.Background())
	require.NoError(t, err)
	require.Equal(t, "abc123", tag)
}

func TestRunningRequiresInstanceSignature(t *testing.T) {
	fakeHyprctl(t, nil, "")

	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "")
	require.False(t, Running())

	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "abc_123")
	require.True(t, Running())
}
