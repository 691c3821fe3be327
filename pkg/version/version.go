// Package version provides build version information for the client.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the client release version (set by build flags)
	Version = "dev"

	// GitCommit is the git commit hash (set by build flags)
	GitCommit = "unknown"

	// BuildDate is the build timestamp (set by build flags)
	BuildDate = "unknown"

	// GoVersion is the Go version used to build
	GoVersion = runtime.Version()
)

// String returns a single-line version description.
func String() string {
	return fmt.Sprintf("sentinel-go %s (%s, built %s, %s)", Version, GitCommit, BuildDate, GoVersion)
}
