package main

import (
	"fmt"
	"runtime/debug"

	"github.com/unicitynetwork/unicity-mining-core/internal/semver"
)

// Version follows the semantic versioning 2.0.0 spec (https://semver.org/).
// It is a variable so it can be overridden at build time with
// '-ldflags "-X main.Version=fullsemver"'.
var Version = "0.1.0-pre"

var (
	Major         uint32
	Minor         uint32
	Patch         uint32
	PreRelease    string
	BuildMetadata string
)

func init() {
	parsed, err := semver.Parse(Version)
	if err != nil {
		panic(err)
	}
	Major = parsed.Major
	Minor = parsed.Minor
	Patch = parsed.Patch
	PreRelease = parsed.PreRelease
	BuildMetadata = parsed.BuildMetadata
	if BuildMetadata == "" {
		if commit := vcsCommitID(); commit != "" {
			Version = fmt.Sprintf("%d.%d.%d", Major, Minor, Patch)
			if PreRelease != "" {
				Version += "-" + PreRelease
			}
			Version += "+" + commit
			BuildMetadata = commit
		}
	}
}

// vcsCommitID returns the short VCS revision embedded in the binary by the
// Go toolchain, or the empty string when unavailable (e.g. a build outside
// of a VCS checkout).
func vcsCommitID() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			if len(s.Value) >= 9 {
				return s.Value[:9]
			}
			return s.Value
		}
	}
	return ""
}
