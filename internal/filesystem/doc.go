// Package filesystem adapts operating system file access to the narrow
// interfaces consumed by the manifest locator and patcher.
package filesystem
