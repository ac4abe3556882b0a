package main

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// version is this build's release tag; set at build time via
// `-ldflags -X main.version=vX.Y.Z`, mirroring own
// version-stamping convention (interp/interp.go's use of the Go
// toolchain's own module version). It must be a valid semver tag: the
// VERSION option below refuses to print an invalid one rather than lie
// about the build.
var version = "v0.0.0-dev"

// printVersion implements the CLI's VERSION option (§6), validating the
// build's own version string with the same comparator the Go toolchain
// uses for module versions rather than hand-rolling a dot-split parse.
func printVersion() {
	if !semver.IsValid(version) {
		fmt.Println("a68g: development build (invalid version string)")
		return
	}
	fmt.Printf("a68g %s\n", version)
}

// newerThan reports whether candidate postdates this build's version,
// the comparison a `.progrc`/`PROG_OPTIONS` file declaring a minimum
// required interpreter version would need (§6 "Persisted state").
func newerThan(candidate string) bool {
	if !semver.IsValid(candidate) {
		return false
	}
	return semver.Compare(candidate, version) > 0
}
