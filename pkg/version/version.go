// Package version holds build metadata injected at link time:
//
//	go build -ldflags "-X github.com/Sumatoshi-tech/memtree/pkg/version.Version=v1.0.0"
package version

import (
	"fmt"
	"runtime"
)

// Build metadata, overridden via -ldflags.
var (
	Version = "dev"
	Commit  = "<unknown>"
	Date    = "<unknown>"
)

// String returns a one-line description of the running binary.
func String() string {
	return fmt.Sprintf("memtree %s (commit %s, built %s, %s)", Version, Commit, Date, runtime.Version())
}
