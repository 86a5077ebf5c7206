// Package cli builds the cargo-update-dep command-line application.
//
// The update-dep command is the Cobra root. The application layers the
// config.yaml loader, CARGOUPDATEDEP_* environment overrides and the zap
// logger on top of it, and accepts the leading "update-dep" argument cargo
// passes to external subcommands.
package cli
