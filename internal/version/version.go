// Package version carries build metadata set through ldflags:
//
//	go build -ldflags "-X git.home.luguber.info/inful/contentbuilder/internal/version.Version=v1.2.0"
package version

import "fmt"

// Version is the release version.
var Version = "unknown"

// Build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats all build metadata on one line.
func String() string {
	return fmt.Sprintf("contentbuilder %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
