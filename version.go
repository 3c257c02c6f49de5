package webtoolkit

// Version information. Overridden at build time via -ldflags for release
// builds; the defaults identify a development build.
var (
	// Version is the semantic version of the toolkit.
	Version = "dev"

	// Commit is the git commit hash the binary was built from.
	Commit = "unknown"

	// BuildDate is the build timestamp in RFC 3339 format.
	BuildDate = "unknown"
)

// VersionInfo returns a human readable version string.
func VersionInfo() string {
	return "webtoolkit " + Version + " (" + Commit + ", " + BuildDate + ")"
}
