// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with logging and timeouts via ShellExecutor, exposes
// OSCommandRunner for default process execution, and defines the CommandRunner
// abstraction used throughout cargo-update-dep to run cargo in a testable manner.
package execshell
