// SPDX-License-Identifier: MIT
//
// Package build exposes the build metadata embedded at compile time through
// linker flags, for example:
//
//	go build -ldflags "-X audioscope/pkg/build.buildName=audioscope \
//	  -X audioscope/pkg/build.buildVersion=0.3.0 ..."
//
// Development builds carry no flags at all and fall back to defaults.
package build

import "fmt"

const (
	defaultName        = "audioscope"
	defaultDescription = "Live microphone oscilloscope and spectrum analyzer"
	unknown            = "dev"
)

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// Package-level variables for build information, populated by -ldflags.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:        defaultName,
		Description: defaultDescription,
		Time:        unknown,
		Commit:      unknown,
		Version:     unknown,
	}
)

// Initialize copies the ldflags variables into the build information. A build
// without any flags keeps the development defaults; a release build that only
// sets some of them is rejected so half-stamped binaries do not ship.
func Initialize() error {
	if buildName == "" && buildTime == "" && buildCommit == "" && buildVersion == "" {
		return nil
	}
	if buildName == "" {
		return fmt.Errorf("BuildName is required")
	}
	if buildTime == "" {
		return fmt.Errorf("BuildTime is required")
	}
	if buildCommit == "" {
		return fmt.Errorf("BuildCommit is required")
	}
	if buildVersion == "" {
		return fmt.Errorf("BuildVersion is required")
	}

	buildFlags.Name = buildName
	buildFlags.Time = buildTime
	buildFlags.Commit = buildCommit
	buildFlags.Version = buildVersion

	return nil
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}

// VersionString formats the version line printed by --version.
func (f *ldFlags) VersionString() string {
	return fmt.Sprintf("%s (commit %s, built %s)", f.Version, f.Commit, f.Time)
}
