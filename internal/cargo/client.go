package cargo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/cargo-update-dep/internal/execshell"
)

const (
	metadataSubcommandConstant             = "metadata"
	formatVersionFlagConstant              = "--format-version"
	formatVersionValueConstant             = "1"
	noDependenciesFlagConstant             = "--no-deps"
	updateSubcommandConstant               = "update"
	packageFlagConstant                    = "-p"
	preciseFlagConstant                    = "--precise"
	packageIdentifierTemplateConstant      = "%s:%s"
	executorNotConfiguredMessageConstant   = "cargo executor not configured"
	requiredValueMessageConstant           = "value required"
	workspaceMembersMissingMessageConstant = "workspace_members list missing from cargo metadata output"
	metadataUnavailableTemplateConstant    = "cargo metadata unavailable in %s: %v"
	invalidInputErrorTemplateConstant      = "%s: %s"
	workspaceRootFieldNameConstant         = "workspace_root"
	packageNameFieldNameConstant           = "package_name"
	currentVersionFieldNameConstant        = "current_version"
	targetVersionFieldNameConstant         = "target_version"
	lockUpdateFailedTemplateConstant       = "cargo update for %s failed: %v"
	terminalColorVariableConstant          = "CARGO_TERM_COLOR"
	terminalColorDisabledConstant          = "never"
)

// CommandExecutor is the minimal interface required from execshell.ShellExecutor.
type CommandExecutor interface {
	ExecuteCargo(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

var (
	// ErrExecutorNotConfigured indicates the client was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

	errWorkspaceMembersMissing = errors.New(workspaceMembersMissingMessageConstant)
)

// InvalidInputError surfaces validation issues for client inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// MetadataUnavailableError reports that cargo metadata failed or produced output that could not be decoded.
type MetadataUnavailableError struct {
	WorkspaceRoot string
	Cause         error
}

// Error describes the metadata failure.
func (metadataError MetadataUnavailableError) Error() string {
	return fmt.Sprintf(metadataUnavailableTemplateConstant, metadataError.WorkspaceRoot, metadataError.Cause)
}

// Unwrap exposes the underlying cause.
func (metadataError MetadataUnavailableError) Unwrap() error {
	return metadataError.Cause
}

// LockUpdateError reports a failed cargo update invocation together with its captured output.
type LockUpdateError struct {
	PackageIdentifier string
	Result            execshell.ExecutionResult
	Cause             error
}

// Error describes the lock update failure.
func (lockError LockUpdateError) Error() string {
	return fmt.Sprintf(lockUpdateFailedTemplateConstant, lockError.PackageIdentifier, lockError.Cause)
}

// Unwrap exposes the underlying cause.
func (lockError LockUpdateError) Unwrap() error {
	return lockError.Cause
}

type workspaceMetadata struct {
	WorkspaceMembers *[]string `json:"workspace_members"`
}

// Client coordinates cargo invocations through execshell.
type Client struct {
	executor CommandExecutor
}

// NewClient constructs a cargo client.
func NewClient(executor CommandExecutor) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &Client{executor: executor}, nil
}

// WorkspaceMembers runs cargo metadata in workspaceRoot and returns the raw member descriptors in reported order.
func (client *Client) WorkspaceMembers(executionContext context.Context, workspaceRoot string) ([]string, error) {
	trimmedRoot := strings.TrimSpace(workspaceRoot)
	if len(trimmedRoot) == 0 {
		return nil, InvalidInputError{FieldName: workspaceRootFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			metadataSubcommandConstant,
			formatVersionFlagConstant,
			formatVersionValueConstant,
			noDependenciesFlagConstant,
		},
		WorkingDirectory:     trimmedRoot,
		EnvironmentVariables: plainOutputEnvironment(),
	}

	executionResult, executionError := client.executor.ExecuteCargo(executionContext, commandDetails)
	if executionError != nil {
		return nil, MetadataUnavailableError{WorkspaceRoot: trimmedRoot, Cause: executionError}
	}

	var metadata workspaceMetadata
	if decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &metadata); decodingError != nil {
		return nil, MetadataUnavailableError{WorkspaceRoot: trimmedRoot, Cause: decodingError}
	}
	if metadata.WorkspaceMembers == nil {
		return nil, MetadataUnavailableError{WorkspaceRoot: trimmedRoot, Cause: errWorkspaceMembersMissing}
	}

	members := make([]string, len(*metadata.WorkspaceMembers))
	copy(members, *metadata.WorkspaceMembers)
	return members, nil
}

// PackageIdentifier builds the name:version package ID cargo update expects for -p.
func PackageIdentifier(packageName string, currentVersion string) string {
	return fmt.Sprintf(packageIdentifierTemplateConstant, packageName, currentVersion)
}

// UpdatePrecise runs cargo update -p <name>:<current> --precise <target> in workspaceRoot.
// The captured output is returned for diagnostics whether or not the command succeeded.
func (client *Client) UpdatePrecise(executionContext context.Context, workspaceRoot string, packageName string, currentVersion string, targetVersion string) (execshell.ExecutionResult, error) {
	requiredValues := []struct {
		fieldName string
		value     string
	}{
		{fieldName: workspaceRootFieldNameConstant, value: workspaceRoot},
		{fieldName: packageNameFieldNameConstant, value: packageName},
		{fieldName: currentVersionFieldNameConstant, value: currentVersion},
		{fieldName: targetVersionFieldNameConstant, value: targetVersion},
	}
	for _, requiredValue := range requiredValues {
		if len(strings.TrimSpace(requiredValue.value)) == 0 {
			return execshell.ExecutionResult{}, InvalidInputError{FieldName: requiredValue.fieldName, Message: requiredValueMessageConstant}
		}
	}

	packageIdentifier := PackageIdentifier(packageName, currentVersion)
	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			updateSubcommandConstant,
			packageFlagConstant,
			packageIdentifier,
			preciseFlagConstant,
			targetVersion,
		},
		WorkingDirectory:     workspaceRoot,
		EnvironmentVariables: plainOutputEnvironment(),
	}

	executionResult, executionError := client.executor.ExecuteCargo(executionContext, commandDetails)
	if executionError != nil {
		return executionResult, LockUpdateError{PackageIdentifier: packageIdentifier, Result: executionResult, Cause: executionError}
	}

	return executionResult, nil
}

// plainOutputEnvironment keeps ANSI color codes out of captured cargo diagnostics.
func plainOutputEnvironment() map[string]string {
	return map[string]string{terminalColorVariableConstant: terminalColorDisabledConstant}
}
