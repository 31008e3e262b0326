package race

import "golang.org/x/mod/semver"

// Version information for the syncprim tracer.
const (
	// Version is the current version, in semver form.
	Version = "v0.3.0"

	// VersionMajor is the major version number.
	VersionMajor = 0

	// VersionMinor is the minor version number.
	VersionMinor = 3

	// VersionPatch is the patch version number.
	VersionPatch = 0
)

// Info provides runtime information about the tracer.
type Info struct {
	// Version is the runtime version string.
	Version string

	// Algorithm is the race detection algorithm used.
	Algorithm string
}

// GetInfo returns information about the tracer.
//
// Example:
//
//	info := race.GetInfo()
//	fmt.Printf("syncprim tracer %s (%s)\n", info.Version, info.Algorithm)
func GetInfo() Info {
	return Info{
		Version:   Version,
		Algorithm: "FastTrack (PLDI 2009)",
	}
}

// Compatible reports whether data recorded by version v can be read by this
// version: v must be valid semver with the same major version and must not
// be newer.
func Compatible(v string) bool {
	if !semver.IsValid(v) {
		return false
	}
	return semver.Major(v) == semver.Major(Version) && semver.Compare(v, Version) <= 0
}
