// Package version reports build metadata stamped in by the linker.
package version

import "fmt"

// Set via -ldflags "-X github.com/example/rota/internal/version.Commit=...".
var (
	Commit    = "unknown"
	BuildTime = "unknown"
)

// String returns the human readable version line.
func String() string {
	return fmt.Sprintf("rota (commit %s, built %s)", Short(), BuildTime)
}

// Short returns the abbreviated commit hash.
func Short() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}
	return Commit
}
