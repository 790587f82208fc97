// Package version exposes build metadata stamped at link time.
package version

import "runtime"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the human-readable version line printed by `assist version`.
func String() string {
	return "assist " + Version + " (commit=" + Commit + ", date=" + Date + ", go=" + runtime.Version() + ")"
}

// UserAgent is sent with outbound speech and chat requests.
func UserAgent() string {
	return "assist/" + Version + " (" + runtime.GOOS + "; " + runtime.GOARCH + ")"
}
