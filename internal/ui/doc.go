// Package ui turns command lifecycle events into console messages.
//
// Console output reads as sentences such as "Pinning serde:1.0.100 to 1.0.101 in the
// lockfile of /workspace" while the structured fields keep flowing through zap.
package ui
