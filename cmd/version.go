// Package cmd holds the build metadata injected through -ldflags, e.g.
//
//	-X github.com/thoreinstein/mcpsync/cmd.Version=v1.2.0
package cmd

var (
	// Version is the semantic version of the build.
	Version = "dev"
	// Commit is the git commit SHA of the build.
	Commit = "none"
	// Date is the build date.
	Date = "unknown"
)

// BuildInfo is the build metadata in one value.
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info returns the build metadata of the running binary.
func Info() BuildInfo {
	return BuildInfo{Version: Version, Commit: Commit, Date: Date}
}
