package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/cargo-update-dep/internal/execshell"
	"github.com/temirov/cargo-update-dep/internal/update"
	"github.com/temirov/cargo-update-dep/internal/utils"
	flagutils "github.com/temirov/cargo-update-dep/internal/utils/flags"
)

const (
	applicationNameConstant                 = "cargo-update-dep"
	applicationShortDescriptionConstant     = "Bump a pinned dependency across every manifest of a cargo workspace"
	applicationLongDescriptionConstant      = "cargo-update-dep rewrites a dependency pinned at one exact version to another in every workspace member manifest, then pins Cargo.lock with cargo update --precise. Run it directly or as the cargo subcommand \"cargo update-dep\"."
	cargoSubcommandArgumentConstant         = "update-dep"
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format."
	logFileFlagNameConstant                 = "log-file"
	logFileFlagUsageConstant                = "Write logs to a rotating file instead of standard error."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	commonLogFileConfigKeyConstant          = commonConfigurationKeyConstant + ".log_file"
	toolsConfigurationKeyConstant           = "tools"
	updateConfigurationKeyConstant          = toolsConfigurationKeyConstant + ".update"
	environmentPrefixConstant               = "CARGOUPDATEDEP"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	defaultConfigurationSearchPathConstant  = "."
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	commandBuildErrorTemplateConstant       = "unable to build command: %w"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Tools  ApplicationToolsConfiguration  `mapstructure:"tools"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`
}

// ApplicationToolsConfiguration holds per-command configuration.
type ApplicationToolsConfiguration struct {
	Update update.CommandConfiguration `mapstructure:"update"`
}

// ApplicationOption customizes an Application during construction.
type ApplicationOption func(*Application)

// WithCommandRunner replaces the process runner used to invoke cargo.
func WithCommandRunner(commandRunner execshell.CommandRunner) ApplicationOption {
	return func(application *Application) {
		application.commandRunner = commandRunner
	}
}

// WithConfigurationSearchPaths replaces the directories searched for config.yaml.
func WithConfigurationSearchPaths(searchPaths ...string) ApplicationOption {
	return func(application *Application) {
		application.searchPaths = append([]string(nil), searchPaths...)
	}
}

// WithOutput redirects the JSON report and the diagnostics stream.
func WithOutput(standardOutput io.Writer, standardError io.Writer) ApplicationOption {
	return func(application *Application) {
		application.standardOutput = standardOutput
		application.standardError = standardError
	}
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	buildError            error
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
	logFileFlagValue      string
	commandRunner         execshell.CommandRunner
	searchPaths           []string
	standardOutput        io.Writer
	standardError         io.Writer
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication(options ...ApplicationOption) *Application {
	application := &Application{
		loggerFactory: utils.NewLoggerFactory(),
		logger:        zap.NewNop(),
		searchPaths:   defaultConfigurationSearchPaths(),
	}
	for _, option := range options {
		if option != nil {
			option(application)
		}
	}

	application.configurationLoader = utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		application.searchPaths,
	)
	application.configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	updateBuilder := update.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConfigurationProvider: func() update.CommandConfiguration {
			return application.configuration.Tools.Update
		},
		HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
		CommandRunner:                application.commandRunner,
	}
	rootCommand, buildError := updateBuilder.Build()
	if buildError != nil {
		application.buildError = fmt.Errorf(commandBuildErrorTemplateConstant, buildError)
		return application
	}

	rootCommand.Use = applicationNameConstant
	rootCommand.Short = applicationShortDescriptionConstant
	rootCommand.Long = applicationLongDescriptionConstant
	rootCommand.SilenceUsage = true
	rootCommand.SilenceErrors = true
	rootCommand.PersistentPreRunE = func(command *cobra.Command, arguments []string) error {
		return application.initializeConfiguration(command)
	}

	rootCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	rootCommand.PersistentFlags().StringVar(
		&application.logLevelFlagValue,
		logLevelFlagNameConstant,
		"",
		flagutils.FormatChoiceUsage(string(utils.LogLevelInfo), supportedLogLevels(), logLevelFlagUsageConstant),
	)
	rootCommand.PersistentFlags().StringVar(
		&application.logFormatFlagValue,
		logFormatFlagNameConstant,
		"",
		flagutils.FormatChoiceUsage(string(utils.LogFormatStructured), supportedLogFormats(), logFormatFlagUsageConstant),
	)
	rootCommand.PersistentFlags().StringVar(&application.logFileFlagValue, logFileFlagNameConstant, "", logFileFlagUsageConstant)

	if application.standardOutput != nil {
		rootCommand.SetOut(application.standardOutput)
	}
	if application.standardError != nil {
		rootCommand.SetErr(application.standardError)
	}

	application.rootCommand = rootCommand

	return application
}

// Execute runs the command hierarchy against the process arguments and ensures logger flushing.
func (application *Application) Execute() error {
	return application.ExecuteWithArguments(context.Background(), os.Args[1:])
}

// ExecuteWithArguments runs the command hierarchy against the provided arguments.
// Interrupt and termination signals cancel the context handed to cargo invocations.
func (application *Application) ExecuteWithArguments(executionContext context.Context, arguments []string) error {
	if application.buildError != nil {
		return application.buildError
	}

	signalContext, stopSignals := signal.NotifyContext(executionContext, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	application.rootCommand.SetArgs(prepareArguments(arguments))
	executionError := application.rootCommand.ExecuteContext(signalContext)
	if syncError := application.flushLogger(); syncError != nil {
		return errors.Join(executionError, fmt.Errorf(loggerSyncErrorTemplateConstant, syncError))
	}
	return executionError
}

// Configuration returns the configuration resolved by the last execution.
func (application *Application) Configuration() ApplicationConfiguration {
	return application.configuration
}

// Execute builds a fresh application instance and executes it against the process arguments.
func Execute() error {
	return NewApplication().Execute()
}

// prepareArguments drops the subcommand name cargo inserts when invoked as "cargo update-dep".
func prepareArguments(arguments []string) []string {
	if len(arguments) > 0 && arguments[0] == cargoSubcommandArgumentConstant {
		arguments = arguments[1:]
	}
	normalized := flagutils.NormalizeToggleArguments(arguments)
	if normalized == nil {
		return []string{}
	}
	return normalized
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatStructured),
		commonLogFileConfigKeyConstant:   "",
	}
	for configurationKey, configurationValue := range update.DefaultConfigurationValues(updateConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}
	if application.persistentFlagChanged(command, logFileFlagNameConstant) {
		application.configuration.Common.LogFile = application.logFileFlagValue
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
		strings.TrimSpace(application.configuration.Common.LogFile),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = logger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	return nil
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) flushLogger() error {
	if syncError := application.syncLoggerInstance(application.logger); syncError != nil {
		return syncError
	}
	return nil
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}

func defaultConfigurationSearchPaths() []string {
	searchPaths := []string{defaultConfigurationSearchPathConstant}
	if userConfigurationDirectory, directoryError := os.UserConfigDir(); directoryError == nil {
		searchPaths = append(searchPaths, filepath.Join(userConfigurationDirectory, applicationNameConstant))
	}
	return searchPaths
}

func supportedLogLevels() []string {
	return []string{
		string(utils.LogLevelDebug),
		string(utils.LogLevelInfo),
		string(utils.LogLevelWarn),
		string(utils.LogLevelError),
	}
}

func supportedLogFormats() []string {
	return []string{
		string(utils.LogFormatStructured),
		string(utils.LogFormatConsole),
	}
}
