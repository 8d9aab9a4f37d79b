// Package versions holds build information and client version checks.
package versions

import (
	"fmt"
	"runtime"

	"github.com/Masterminds/semver/v3"
)

// Build information, set with -ldflags at release time
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// MinClientVersion is the oldest "version" header the LibreLinkUp service still accepts
const MinClientVersion = "4.7.0"

// Info describes the running binary
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetVersionInfo returns the build information of the running binary
func GetVersionInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// CheckClientVersion rejects client versions the service no longer accepts
func CheckClientVersion(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("client version %q is not a semantic version: %w", version, err)
	}
	if v.LessThan(semver.MustParse(MinClientVersion)) {
		return fmt.Errorf("client version %s is older than the minimum %s", version, MinClientVersion)
	}
	return nil
}
