// Package version reports the build's version, set with ldflags:
//
//	go build -ldflags "-X github.com/abdullathedruid/devhub/internal/version.GitSHA=$(git rev-parse --short HEAD)"
package version

import "fmt"

var (
	// Version is the release, empty for development builds.
	Version = ""
	// GitSHA is the git commit SHA (short form) at build time.
	GitSHA = "dev"
)

// Short returns a short version string suitable for display.
func Short() string {
	if Version != "" {
		return Version
	}
	return GitSHA
}

// String is the line printed by "devhub version".
func String() string {
	if Version == "" {
		return "devhub " + GitSHA
	}
	return fmt.Sprintf("devhub %s (%s)", Version, GitSHA)
}
