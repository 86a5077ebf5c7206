package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	commandCargoStringConstant                = "cargo"
	loggerNotConfiguredMessageConstant        = "shell executor logger not configured"
	commandRunnerNotConfiguredMessageConstant = "shell executor command runner not configured"
	commandFailedTemplateConstant             = "%s exited with code %d"
	commandFailedWithStandardErrorTemplate    = "%s exited with code %d: %s"
	commandExecutionFailedTemplateConstant    = "%s could not be executed: %v"
	commandTimeoutTemplateConstant            = "%s did not finish within %s"
	commandArgumentsSeparatorConstant         = " "
	logFieldCommandNameConstant               = "command_name"
	logFieldCommandArgumentsConstant          = "command_arguments"
	logFieldWorkingDirectoryConstant          = "working_directory"
	logFieldExitCodeConstant                  = "exit_code"
	logFieldStandardErrorConstant             = "standard_error"
	logFieldTimeoutConstant                   = "timeout"
)

// CommandName identifies an executable supported by the shell executor.
type CommandName string

// Supported command names.
const (
	CommandCargo CommandName = CommandName(commandCargoStringConstant)
)

// CommandDetails describes the arguments and environment of a single invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
}

// ShellCommand couples an executable with its invocation details.
type ShellCommand struct {
	Name       CommandName
	Executable string
	Details    CommandDetails
}

// ExecutablePath returns the program to launch, falling back to the command name.
func (command ShellCommand) ExecutablePath() string {
	trimmedExecutable := strings.TrimSpace(command.Executable)
	if len(trimmedExecutable) > 0 {
		return trimmedExecutable
	}
	return string(command.Name)
}

// ExecutionResult captures the observable results of a finished process.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner runs a shell command and reports its exit status and output.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

var (
	// ErrLoggerNotConfigured indicates the executor was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)

	// ErrCommandRunnerNotConfigured indicates the executor was constructed without a runner.
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
)

// CommandFailedError reports a command that ran to completion with a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command.
func (failedError CommandFailedError) Error() string {
	commandLabel := describeCommand(failedError.Command)
	trimmedStandardError := strings.TrimSpace(failedError.Result.StandardError)
	if len(trimmedStandardError) == 0 {
		return fmt.Sprintf(commandFailedTemplateConstant, commandLabel, failedError.Result.ExitCode)
	}
	return fmt.Sprintf(commandFailedWithStandardErrorTemplate, commandLabel, failedError.Result.ExitCode, trimmedStandardError)
}

// CommandExecutionError reports a command that could not be started or waited on.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (executionError CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionFailedTemplateConstant, describeCommand(executionError.Command), executionError.Cause)
}

// Unwrap exposes the underlying failure.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}

// CommandTimeoutError reports a command that exceeded the executor timeout.
type CommandTimeoutError struct {
	Command ShellCommand
	Timeout time.Duration
}

// Error describes the timeout.
func (timeoutError CommandTimeoutError) Error() string {
	return fmt.Sprintf(commandTimeoutTemplateConstant, describeCommand(timeoutError.Command), timeoutError.Timeout)
}

// Unwrap exposes context.DeadlineExceeded so callers can rely on errors.Is.
func (timeoutError CommandTimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// ExecutorOption customizes a ShellExecutor.
type ExecutorOption func(executor *ShellExecutor)

// WithTimeout bounds every command run by the executor. Non-positive values disable the bound.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(executor *ShellExecutor) {
		executor.timeout = timeout
	}
}

// WithCommandEventObserver registers an observer notified about command lifecycle events.
func WithCommandEventObserver(observer CommandEventObserver) ExecutorOption {
	return func(executor *ShellExecutor) {
		if observer == nil {
			observer = noopCommandEventObserver{}
		}
		executor.observer = observer
	}
}

// WithExecutableOverride runs the named command through a different executable path.
func WithExecutableOverride(commandName CommandName, executable string) ExecutorOption {
	return func(executor *ShellExecutor) {
		trimmedExecutable := strings.TrimSpace(executable)
		if len(trimmedExecutable) == 0 {
			return
		}
		executor.executableOverrides[commandName] = trimmedExecutable
	}
}

// ShellExecutor runs commands through a CommandRunner with logging and timeouts.
type ShellExecutor struct {
	logger              *zap.Logger
	runner              CommandRunner
	timeout             time.Duration
	observer            CommandEventObserver
	executableOverrides map[CommandName]string
}

// NewShellExecutor constructs a ShellExecutor.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner, options ...ExecutorOption) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	executor := &ShellExecutor{
		logger:              logger,
		runner:              runner,
		observer:            noopCommandEventObserver{},
		executableOverrides: map[CommandName]string{},
	}
	for _, option := range options {
		if option != nil {
			option(executor)
		}
	}

	return executor, nil
}

// ExecuteCargo runs cargo with the provided details.
func (executor *ShellExecutor) ExecuteCargo(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandCargo, Details: details})
}

// Execute runs an arbitrary command. A non-zero exit code yields CommandFailedError alongside the result.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if executionContext == nil {
		executionContext = context.Background()
	}

	command = executor.resolveExecutable(command)

	boundedContext := executionContext
	cancel := func() {}
	if executor.timeout > 0 {
		boundedContext, cancel = context.WithTimeout(executionContext, executor.timeout)
	}
	defer cancel()

	commandFields := []zap.Field{
		zap.String(logFieldCommandNameConstant, string(command.Name)),
		zap.Strings(logFieldCommandArgumentsConstant, command.Details.Arguments),
		zap.String(logFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
	}

	executor.logger.Debug(describeCommand(command), commandFields...)
	executor.observer.CommandStarted(command)

	executionResult, runError := executor.runner.Run(boundedContext, command)
	if executor.timedOut(executionContext, boundedContext) {
		failure := CommandTimeoutError{Command: command, Timeout: executor.timeout}
		executor.logger.Warn(failure.Error(), append(commandFields, zap.Duration(logFieldTimeoutConstant, executor.timeout))...)
		executor.observer.CommandExecutionFailed(command, failure)
		return ExecutionResult{}, failure
	}
	if runError != nil {
		failure := CommandExecutionError{Command: command, Cause: runError}
		executor.logger.Warn(failure.Error(), append(commandFields, zap.Error(runError))...)
		executor.observer.CommandExecutionFailed(command, failure)
		return ExecutionResult{}, failure
	}

	executor.observer.CommandCompleted(command, executionResult)

	if executionResult.ExitCode != 0 {
		failure := CommandFailedError{Command: command, Result: executionResult}
		executor.logger.Warn(failure.Error(), append(commandFields,
			zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
			zap.String(logFieldStandardErrorConstant, strings.TrimSpace(executionResult.StandardError)),
		)...)
		return executionResult, failure
	}

	executor.logger.Debug(describeCommand(command), append(commandFields, zap.Int(logFieldExitCodeConstant, executionResult.ExitCode))...)
	return executionResult, nil
}

func (executor *ShellExecutor) resolveExecutable(command ShellCommand) ShellCommand {
	if len(strings.TrimSpace(command.Executable)) > 0 {
		return command
	}
	if override, overrideExists := executor.executableOverrides[command.Name]; overrideExists {
		command.Executable = override
	}
	return command
}

func (executor *ShellExecutor) timedOut(parentContext context.Context, boundedContext context.Context) bool {
	if executor.timeout <= 0 {
		return false
	}
	if parentContext.Err() != nil {
		return false
	}
	return errors.Is(boundedContext.Err(), context.DeadlineExceeded)
}

func describeCommand(command ShellCommand) string {
	commandParts := []string{string(command.Name)}
	commandParts = append(commandParts, command.Details.Arguments...)
	return strings.Join(commandParts, commandArgumentsSeparatorConstant)
}
