// Package cargo wraps the cargo executable for the two queries cargo-update-dep
// depends on: listing workspace members through cargo metadata and pinning a
// lockfile entry through cargo update --precise.
package cargo
