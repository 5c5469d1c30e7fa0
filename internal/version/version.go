// Package version carries the build version stamped in at link time.
package version

// version is overridden via -ldflags "-X deepcheck/internal/version.version=...".
var version = "dev"

// Version returns the build version string.
func Version() string {
	return version
}
