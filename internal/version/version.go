// Package version holds build metadata injected with ldflags:
//
//	go build -ldflags "-X git.home.luguber.info/inful/farmworlds/internal/version.Version=v1.0.0"
package version

import "fmt"

var Version = "unknown"

var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String is the --version output.
func String() string {
	return fmt.Sprintf("farmworlds %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
