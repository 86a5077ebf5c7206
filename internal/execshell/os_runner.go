package execshell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
)

// OSCommandRunner launches commands as child processes.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs a runner backed by os/exec.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run starts the command and waits for it. A non-zero exit code is reported through the result, not the error;
// the error is reserved for processes that could not be started or were killed by the context.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	process := exec.CommandContext(executionContext, command.ExecutablePath(), command.Details.Arguments...)
	process.Dir = command.Details.WorkingDirectory
	if len(command.Details.EnvironmentVariables) > 0 {
		process.Env = os.Environ()
		for variableName, variableValue := range command.Details.EnvironmentVariables {
			process.Env = append(process.Env, variableName+"="+variableValue)
		}
	}

	var standardOutput, standardError bytes.Buffer
	process.Stdout = &standardOutput
	process.Stderr = &standardError

	result := ExecutionResult{}
	runError := process.Run()
	result.StandardOutput = standardOutput.String()
	result.StandardError = standardError.String()

	var exitError *exec.ExitError
	switch {
	case runError == nil:
		return result, nil
	case executionContext.Err() != nil:
		return ExecutionResult{}, executionContext.Err()
	case errors.As(runError, &exitError):
		result.ExitCode = exitError.ExitCode()
		return result, nil
	default:
		return ExecutionResult{}, runError
	}
}
