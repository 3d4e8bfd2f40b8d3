// Package buildinfo provides build-time version information.
//
// Variables are set via ldflags during build:
//
//	go build -ldflags "-X github.com/matzehuels/sexpfmt/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/sexpfmt/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/sexpfmt/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/sexpfmt
package buildinfo

import "fmt"

var (
	// Version is the semantic version (e.g., "v1.2.3"). The server reports
	// it from /healthz.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// String returns the formatted build information.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Template returns the version template string for cobra.
func Template() string {
	return "{{.Name}} " + String() + "\n"
}
