// Package utils holds the configuration and logging plumbing shared by the CLI.
//
// ConfigurationLoader layers the embedded defaults, config.yaml and
// prefixed environment variables through Viper. LoggerFactory builds the zap
// logger, optionally writing to a rotating log file.
package utils
