package update

import (
	"strings"
	"time"
)

const (
	defaultCargoBinaryConstant        = "cargo"
	defaultCommandTimeoutConstant     = 2 * time.Minute
	cargoBinaryConfigurationKey       = "cargo_binary"
	timeoutConfigurationKey           = "timeout"
	manifestPathConfigurationKey      = "manifest_path"
	excludeConfigurationKey           = "exclude"
	skipLockConfigurationKey          = "skip_lock"
	continueOnErrorConfigurationKey   = "continue_on_error"
	configurationKeySeparatorConstant = "."
)

// CommandConfiguration captures configuration values for the update command.
type CommandConfiguration struct {
	CargoBinary     string        `mapstructure:"cargo_binary"`
	Timeout         time.Duration `mapstructure:"timeout"`
	ManifestPath    string        `mapstructure:"manifest_path"`
	Exclude         []string      `mapstructure:"exclude"`
	SkipLock        bool          `mapstructure:"skip_lock"`
	ContinueOnError bool          `mapstructure:"continue_on_error"`
}

// DefaultCommandConfiguration provides baseline configuration values for the update command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		CargoBinary:     defaultCargoBinaryConstant,
		Timeout:         defaultCommandTimeoutConstant,
		ManifestPath:    "",
		Exclude:         nil,
		SkipLock:        false,
		ContinueOnError: false,
	}
}

// DefaultConfigurationValues returns the defaults keyed for the configuration loader under prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		prefix + configurationKeySeparatorConstant + cargoBinaryConfigurationKey:     defaults.CargoBinary,
		prefix + configurationKeySeparatorConstant + timeoutConfigurationKey:         defaults.Timeout.String(),
		prefix + configurationKeySeparatorConstant + manifestPathConfigurationKey:    defaults.ManifestPath,
		prefix + configurationKeySeparatorConstant + excludeConfigurationKey:         []string{},
		prefix + configurationKeySeparatorConstant + skipLockConfigurationKey:        defaults.SkipLock,
		prefix + configurationKeySeparatorConstant + continueOnErrorConfigurationKey: defaults.ContinueOnError,
	}
}

// Sanitize trims configured values and restores defaults for blank or non-positive settings.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.CargoBinary = strings.TrimSpace(configuration.CargoBinary)
	if len(sanitized.CargoBinary) == 0 {
		sanitized.CargoBinary = defaultCargoBinaryConstant
	}
	if sanitized.Timeout <= 0 {
		sanitized.Timeout = defaultCommandTimeoutConstant
	}
	sanitized.ManifestPath = strings.TrimSpace(configuration.ManifestPath)
	sanitized.Exclude = sanitizePatterns(configuration.Exclude)

	return sanitized
}

func sanitizePatterns(raw []string) []string {
	sanitized := make([]string, 0, len(raw))
	for _, candidate := range raw {
		trimmed := strings.TrimSpace(candidate)
		if len(trimmed) == 0 {
			continue
		}
		sanitized = append(sanitized, trimmed)
	}
	return sanitized
}
