/*
Package version provides build information for faculty-advisor.

Values are set via ldflags during build:

	go build -ldflags "-X github.com/tusur-bots/faculty-advisor/internal/version.Version=v1.2.0 \
	  -X github.com/tusur-bots/faculty-advisor/internal/version.Commit=$(git rev-parse --short HEAD) \
	  -X github.com/tusur-bots/faculty-advisor/internal/version.Date=$(date -u +%F)"

Without ldflags the build reports itself as "dev".
*/
package version

var (
	// Version is the release tag, e.g. v1.2.0.
	Version = "dev"
	// Commit is the short git commit hash.
	Commit = "none"
	// Date is the build date in UTC (YYYY-MM-DD).
	Date = "unknown"
)

// GetVersion returns version information as a display string.
func GetVersion() string {
	return FormatVersion(Version, Commit, Date)
}

// FormatVersion formats version components into a display string.
func FormatVersion(version, commit, date string) string {
	if version == "dev" {
		return version + " (development build)"
	}
	return version + " (commit: " + commit + ", built: " + date + ")"
}

// GetVersionComponents returns individual version components.
func GetVersionComponents() (version, commit, date string) {
	return Version, Commit, Date
}
