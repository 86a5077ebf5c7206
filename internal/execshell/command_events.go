package execshell

// CommandEventObserver is notified around every command the executor runs.
type CommandEventObserver interface {
	CommandStarted(command ShellCommand)
	// CommandCompleted receives the result of a command that ran to completion, whatever its exit code.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed receives failures that produced no result, such as a missing binary or a timeout.
	CommandExecutionFailed(command ShellCommand, failure error)
}

type noopCommandEventObserver struct{}

func (noopCommandEventObserver) CommandStarted(ShellCommand) {}

func (noopCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}

func (noopCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}
