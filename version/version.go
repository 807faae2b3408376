// Package version carries build metadata injected via -ldflags.
package version

import "fmt"

var (
	Version  = "dev"
	Revision = "unknown"
	Built    = "unknown"
)

// String returns a multi-line version report.
func String() string {
	return fmt.Sprintf("cloudagent %s\nrevision: %s\nbuilt: %s\n", Version, Revision, Built)
}
