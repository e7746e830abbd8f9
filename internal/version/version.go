// Package version exposes the build version stamped into agora binaries.
package version

// Stamped at build time via
// -ldflags "-X agora/internal/version.version=... -X agora/internal/version.commit=...".
var (
	version = "dev" //nolint:gochecknoglobals // ldflags requires package-level var
	commit  = ""    //nolint:gochecknoglobals // ldflags requires package-level var
)

// String returns the release version, with the commit hash when stamped.
func String() string {
	if commit == "" {
		return version
	}
	return version + " (" + commit + ")"
}
