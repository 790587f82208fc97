package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr string
	}{
		{name: "empty", input: "   ", want: nil},
		{name: "plain words", input: "wl-copy --trim-newline", want: []string{"wl-copy", "--trim-newline"}},
		{name: "double quotes", input: `xclip -selection "clip board"`, want: []string{"xclip", "-selection", "clip board"}},
		{name: "single quotes keep backslash literal", input: `sh -c 'a\b'`, want: []string{"sh", "-c", `a\b`}},
		{name: "escaped space", input: `copy my\ file`, want: []string{"copy", "my file"}},
		{name: "empty quoted arg", input: `cmd ""`, want: []string{"cmd", ""}},
		{name: "unterminated quote", input: `cmd "oops`, wantErr: "unterminated quote"},
		{name: "dangling escape", input: `cmd \`, wantErr: "dangling escape"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseCommand(tc.input)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}
