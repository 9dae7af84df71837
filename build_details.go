package rac

import (
	"fmt"
	"runtime"
)

// Set via ldflags at release time.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Version returns the compiled version or "dev" when run from source.
func Version() string { return version }

// Commit returns the git commit the binary was built from.
func Commit() string { return commit }

// BuildTime returns the RFC3339 build timestamp.
func BuildTime() string { return buildTime }

// GoVersion returns the Go runtime version.
func GoVersion() string { return runtime.Version() }

// UserAgent returns the User-Agent string for outbound identification.
func UserAgent() string {
	return fmt.Sprintf("rac/%s", version)
}

// BuildInfo returns the build metadata as a multi-line string.
func BuildInfo() string {
	return fmt.Sprintf("Version: %s\nCommit: %s\nBuild Time: %s\nGo Version: %s",
		version, commit, buildTime, GoVersion())
}
