package update

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/temirov/cargo-update-dep/internal/cargo"
	"github.com/temirov/cargo-update-dep/internal/execshell"
	"github.com/temirov/cargo-update-dep/internal/filesystem"
	"github.com/temirov/cargo-update-dep/internal/manifest"
	"github.com/temirov/cargo-update-dep/internal/ui"
	flagutils "github.com/temirov/cargo-update-dep/internal/utils/flags"
	pathutils "github.com/temirov/cargo-update-dep/internal/utils/path"
)

const (
	commandUseConstant                     = "update-dep"
	commandShortDescriptionConstant        = "Bump a pinned dependency version across a cargo workspace"
	commandLongDescriptionConstant         = "update-dep rewrites the version of a dependency in every workspace manifest that pins it, then pins Cargo.lock with cargo update --precise. The updated manifests are printed as JSON."
	planCommandUseConstant                 = "plan"
	planCommandShortDescriptionConstant    = "Apply several dependency bumps listed in a YAML file"
	planCommandLongDescriptionConstant     = "plan applies each bump of a YAML plan in order against the same workspace and prints one JSON entry per bump."
	subcommandArgumentConstant             = "update-dep"
	unexpectedArgumentsTemplateConstant    = "unexpected positional arguments: %s"
	planArgumentsMessageConstant           = "plan does not accept positional arguments"
	commandExecutionErrorTemplateConstant  = "dependency update failed: %w"
	planExecutionErrorTemplateConstant     = "dependency plan failed: %w"
	planReadErrorTemplateConstant          = "unable to read plan %s: %w"
	reportWriteErrorTemplateConstant       = "unable to write report: %w"
	flagCurrentVersionNameConstant         = "version"
	flagCurrentVersionShorthandConstant    = "v"
	flagCurrentVersionDescriptionConstant  = "Version currently pinned in the manifests"
	flagNewVersionNameConstant             = "new-version"
	flagNewVersionShorthandConstant        = "n"
	flagNewVersionDescriptionConstant      = "Version to pin instead"
	flagDependencyNameConstant             = "dependency-name"
	flagDependencyShorthandConstant        = "p"
	flagDependencyDescriptionConstant      = "Package name of the dependency"
	flagManifestPathNameConstant           = "manifest-path"
	flagManifestPathShorthandConstant      = "m"
	flagManifestPathDescriptionConstant    = "Workspace Cargo.toml or directory (defaults to the current directory)"
	flagDryRunNameConstant                 = "dry-run"
	flagDryRunDescriptionConstant          = "Print manifest diffs to stderr without writing files or touching Cargo.lock"
	flagSkipLockNameConstant               = "skip-lock"
	flagSkipLockDescriptionConstant        = "Do not run cargo update after patching manifests"
	flagContinueOnErrorNameConstant        = "continue-on-error"
	flagContinueOnErrorDescriptionConstant = "Keep patching remaining manifests when one fails"
	flagExcludeNameConstant                = "exclude"
	flagExcludeDescriptionConstant         = "Gitignore-style pattern of member directories to leave untouched (repeatable)"
	flagTimeoutNameConstant                = "timeout"
	flagTimeoutDescriptionConstant         = "Maximum duration of each cargo invocation"
	flagCargoBinaryNameConstant            = "cargo"
	flagCargoBinaryDescriptionConstant     = "Cargo executable to run"
	flagPlanFileNameConstant               = "file"
	flagPlanFileShorthandConstant          = "f"
	flagPlanFileDescriptionConstant        = "YAML file listing the updates to apply"
	planFileFieldNameConstant              = "file"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current update configuration.
type ConfigurationProvider func() CommandConfiguration

// TerminalDetector reports whether a writer is an interactive terminal.
type TerminalDetector func(writer io.Writer) bool

// CommandBuilder assembles the update-dep command and its plan subcommand.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        ConfigurationProvider
	HumanReadableLoggingProvider func() bool
	CommandRunner                execshell.CommandRunner
	FileSystem                   manifest.FileSystem
	WorkspaceRootResolver        *pathutils.WorkspaceRootResolver
	TerminalDetector             TerminalDetector
}

// Build constructs the update-dep command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  validateUpdateArguments,
		RunE:  builder.run,
	}

	command.Flags().StringP(flagCurrentVersionNameConstant, flagCurrentVersionShorthandConstant, "", flagCurrentVersionDescriptionConstant)
	command.Flags().StringP(flagNewVersionNameConstant, flagNewVersionShorthandConstant, "", flagNewVersionDescriptionConstant)
	command.Flags().StringP(flagDependencyNameConstant, flagDependencyShorthandConstant, "", flagDependencyDescriptionConstant)

	command.PersistentFlags().StringP(flagManifestPathNameConstant, flagManifestPathShorthandConstant, "", flagManifestPathDescriptionConstant)
	flagutils.AddToggleFlag(command.PersistentFlags(), nil, flagDryRunNameConstant, "", false, flagDryRunDescriptionConstant)
	flagutils.AddToggleFlag(command.PersistentFlags(), nil, flagSkipLockNameConstant, "", false, flagSkipLockDescriptionConstant)
	flagutils.AddToggleFlag(command.PersistentFlags(), nil, flagContinueOnErrorNameConstant, "", false, flagContinueOnErrorDescriptionConstant)
	command.PersistentFlags().StringArray(flagExcludeNameConstant, nil, flagExcludeDescriptionConstant)
	command.PersistentFlags().Duration(flagTimeoutNameConstant, 0, flagTimeoutDescriptionConstant)
	command.PersistentFlags().String(flagCargoBinaryNameConstant, "", flagCargoBinaryDescriptionConstant)

	planCommand := &cobra.Command{
		Use:   planCommandUseConstant,
		Short: planCommandShortDescriptionConstant,
		Long:  planCommandLongDescriptionConstant,
		RunE:  builder.runPlan,
	}
	planCommand.Flags().StringP(flagPlanFileNameConstant, flagPlanFileShorthandConstant, "", flagPlanFileDescriptionConstant)
	command.AddCommand(planCommand)

	return command, nil
}

// validateUpdateArguments accepts the subcommand name cargo passes when invoked as "cargo update-dep".
func validateUpdateArguments(command *cobra.Command, arguments []string) error {
	remaining := make([]string, 0, len(arguments))
	for argumentIndex, argument := range arguments {
		if argumentIndex == 0 && argument == subcommandArgumentConstant {
			continue
		}
		remaining = append(remaining, argument)
	}
	if len(remaining) > 0 {
		return fmt.Errorf(unexpectedArgumentsTemplateConstant, strings.Join(remaining, " "))
	}
	return nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()

	request, requestError := builder.parseRequest(command, configuration)
	if requestError != nil {
		return requestError
	}
	request.PackageName, _ = command.Flags().GetString(flagDependencyNameConstant)
	request.CurrentVersion, _ = command.Flags().GetString(flagCurrentVersionNameConstant)
	request.NewVersion, _ = command.Flags().GetString(flagNewVersionNameConstant)

	service, serviceError := builder.buildService(command, configuration, request)
	if serviceError != nil {
		return serviceError
	}

	report, runError := service.Run(command.Context(), request)
	if runError != nil && !request.ContinueOnError {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, runError)
	}

	if writeError := builder.reportWriter(command).WriteReport(report); writeError != nil {
		return fmt.Errorf(reportWriteErrorTemplateConstant, writeError)
	}

	if runError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, runError)
	}
	return nil
}

func (builder *CommandBuilder) runPlan(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(planArgumentsMessageConstant)
	}

	configuration := builder.resolveConfiguration()
	planFilePath, _ := command.Flags().GetString(flagPlanFileNameConstant)
	planFilePath = strings.TrimSpace(planFilePath)
	if len(planFilePath) == 0 {
		return InvalidInputError{FieldName: planFileFieldNameConstant, Message: requiredValueMessageConstant}
	}

	planContent, readError := builder.resolveFileSystem().ReadFile(planFilePath)
	if readError != nil {
		return fmt.Errorf(planReadErrorTemplateConstant, planFilePath, readError)
	}
	plan, parseError := ParsePlan(planContent)
	if parseError != nil {
		return parseError
	}

	template, templateError := builder.parseRequest(command, configuration)
	if templateError != nil {
		return templateError
	}

	service, serviceError := builder.buildService(command, configuration, template)
	if serviceError != nil {
		return serviceError
	}

	planReport, runError := service.RunPlan(command.Context(), plan, template)
	if runError != nil {
		return fmt.Errorf(planExecutionErrorTemplateConstant, runError)
	}

	if writeError := builder.reportWriter(command).WritePlanReport(planReport); writeError != nil {
		return fmt.Errorf(reportWriteErrorTemplateConstant, writeError)
	}
	return nil
}

// parseRequest resolves the workspace root and toggles shared by update-dep and plan.
func (builder *CommandBuilder) parseRequest(command *cobra.Command, configuration CommandConfiguration) (Request, error) {
	manifestPathFlagValue, _ := command.Flags().GetString(flagManifestPathNameConstant)
	manifestPath := selectStringValue(manifestPathFlagValue, configuration.ManifestPath)

	workspaceRoot, resolveError := builder.resolveWorkspaceRootResolver().Resolve(manifestPath)
	if resolveError != nil {
		return Request{}, resolveError
	}

	dryRun, _ := command.Flags().GetBool(flagDryRunNameConstant)

	return Request{
		WorkspaceRoot:   workspaceRoot,
		DryRun:          dryRun,
		SkipLockUpdate:  selectBoolValue(command, flagSkipLockNameConstant, configuration.SkipLock),
		ContinueOnError: selectBoolValue(command, flagContinueOnErrorNameConstant, configuration.ContinueOnError),
	}, nil
}

func (builder *CommandBuilder) buildService(command *cobra.Command, configuration CommandConfiguration, request Request) (*Service, error) {
	logger := builder.resolveLogger()

	executor, executorError := builder.buildExecutor(command, configuration, logger)
	if executorError != nil {
		return nil, executorError
	}

	cargoClient, clientError := cargo.NewClient(executor)
	if clientError != nil {
		return nil, clientError
	}

	exclusionPatterns := configuration.Exclude
	if command.Flags().Changed(flagExcludeNameConstant) {
		flagPatterns, _ := command.Flags().GetStringArray(flagExcludeNameConstant)
		exclusionPatterns = sanitizePatterns(flagPatterns)
	}

	locator, locatorError := manifest.NewLocator(cargoClient, logger, manifest.WithExclusionPatterns(exclusionPatterns))
	if locatorError != nil {
		return nil, locatorError
	}

	patcher, patcherError := manifest.NewPatcher(builder.resolveFileSystem(), logger)
	if patcherError != nil {
		return nil, patcherError
	}

	return NewService(ServiceDependencies{
		Logger:            logger,
		Locator:           locator,
		Patcher:           patcher,
		LockUpdater:       cargoClient,
		DiagnosticsWriter: command.ErrOrStderr(),
	})
}

func (builder *CommandBuilder) buildExecutor(command *cobra.Command, configuration CommandConfiguration, logger *zap.Logger) (*execshell.ShellExecutor, error) {
	timeout := configuration.Timeout
	if command.Flags().Changed(flagTimeoutNameConstant) {
		flagTimeout, _ := command.Flags().GetDuration(flagTimeoutNameConstant)
		timeout = flagTimeout
	}

	cargoBinaryFlagValue, _ := command.Flags().GetString(flagCargoBinaryNameConstant)
	cargoBinary := selectStringValue(cargoBinaryFlagValue, configuration.CargoBinary)

	executorOptions := []execshell.ExecutorOption{
		execshell.WithTimeout(timeout),
		execshell.WithExecutableOverride(execshell.CommandCargo, cargoBinary),
	}
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		executorOptions = append(executorOptions, execshell.WithCommandEventObserver(ui.NewConsoleCommandEventLogger(logger)))
	}

	commandRunner := builder.CommandRunner
	if commandRunner == nil {
		commandRunner = execshell.NewOSCommandRunner()
	}

	return execshell.NewShellExecutor(logger, commandRunner, executorOptions...)
}

func (builder *CommandBuilder) reportWriter(command *cobra.Command) *ReportWriter {
	outputWriter := command.OutOrStdout()
	detector := builder.TerminalDetector
	if detector == nil {
		detector = isTerminal
	}
	return NewReportWriter(outputWriter, detector(outputWriter))
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}
	return configuration.Sanitize()
}

func (builder *CommandBuilder) resolveFileSystem() manifest.FileSystem {
	if builder.FileSystem != nil {
		return builder.FileSystem
	}
	return filesystem.OSFileSystem{}
}

func (builder *CommandBuilder) resolveWorkspaceRootResolver() *pathutils.WorkspaceRootResolver {
	if builder.WorkspaceRootResolver != nil {
		return builder.WorkspaceRootResolver
	}
	return pathutils.NewWorkspaceRootResolver()
}

func isTerminal(writer io.Writer) bool {
	file, isFile := writer.(*os.File)
	if !isFile {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func selectStringValue(flagValue string, configurationValue string) string {
	trimmedFlagValue := strings.TrimSpace(flagValue)
	if len(trimmedFlagValue) > 0 {
		return trimmedFlagValue
	}

	return strings.TrimSpace(configurationValue)
}

func selectBoolValue(command *cobra.Command, flagName string, configurationValue bool) bool {
	if !command.Flags().Changed(flagName) {
		return configurationValue
	}
	flagValue, flagError := command.Flags().GetBool(flagName)
	if flagError != nil {
		return configurationValue
	}
	return flagValue
}
