// Package update coordinates a dependency version bump across a cargo workspace.
//
// The Service locates every member manifest, patches the pinned version in each one,
// and asks cargo to pin the lock file to the new version. CommandBuilder exposes the
// workflow as the cargo-update-dep command and its plan subcommand.
package update
