package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func stampVersion(t *testing.T, version, commit, date string) {
	t.Helper()
	originalVersion := Version
	originalCommit := Commit
	originalDate := Date
	t.Cleanup(func() {
		Version = originalVersion
		Commit = originalCommit
		Date = originalDate
	})

	Version = version
	Commit = commit
	Date = date
}

func TestStringIncludesBuildMetadata(t *testing.T) {
	stampVersion(t, "1.2.3", "abc123", "2026-02-18")

	got := String()
	require.Contains(t, got, "assist 1.2.3")
	require.Contains(t, got, "commit=abc123")
	require.Contains(t, got, "date=2026-02-18")
	require.Contains(t, got, "go=")
}

func TestUserAgentCarriesVersionAndPlatform(t *testing.T) {
	stampVersion(t, "0.4.0", "none", "unknown")

	got := UserAgent()
	require.Equal(t, "assist/0.4.0 ("+runtime.GOOS+"; "+runtime.GOARCH+")", got)
}
