// Package manifest finds the Cargo.toml files of a workspace and rewrites
// pinned dependency versions inside them.
//
// Patching is a line-oriented text transform: a line is a candidate when it
// declares the dependency directly (name = ...) or through a rename
// (package = "name"), and only the quoted old version on candidate lines is
// replaced. Every other byte of the file is kept, except that a rewritten file
// always ends with exactly one newline. Section boundaries are not tracked, so
// a matching name in any table is patched.
package manifest
