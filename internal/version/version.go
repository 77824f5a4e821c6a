// Package version holds build-time version information, injected via
// -ldflags at release time.
package version

var (
	// Version is the semantic version of this build
	Version = "dev"
	// GitCommit is the commit hash this binary was built from
	GitCommit = ""
	// BuildDate is the build timestamp
	BuildDate = ""
)
