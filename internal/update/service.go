package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/cargo-update-dep/internal/execshell"
	"github.com/temirov/cargo-update-dep/internal/manifest"
)

const (
	locatorMissingMessageConstant      = "manifest locator not configured"
	patcherMissingMessageConstant      = "manifest patcher not configured"
	lockUpdaterMissingMessageConstant  = "lock updater not configured"
	invalidInputErrorTemplateConstant  = "%s: %s"
	requiredValueMessageConstant       = "value required"
	packageNameFieldNameConstant       = "package_name"
	currentVersionFieldNameConstant    = "current_version"
	newVersionFieldNameConstant        = "new_version"
	workspaceRootFieldNameConstant     = "workspace_root"
	locateErrorTemplateConstant        = "unable to locate workspace manifests: %w"
	updateStartedMessageConstant       = "Updating dependency across workspace"
	updateCompletedMessageConstant     = "Dependency update completed"
	manifestFailedMessageConstant      = "Manifest update failed"
	manifestWouldChangeMessageConstant = "Manifest would be updated"
	lockUpdateSkippedMessageConstant   = "Lock file update skipped"
	lockUpdateSucceededMessageConstant = "Lock file pinned to new version"
	lockUpdateFailedMessageConstant    = "Lock file update failed; manifest changes were kept"
	logFieldWorkspaceRootConstant      = "workspace_root"
	logFieldPackageNameConstant        = "package_name"
	logFieldCurrentVersionConstant     = "current_version"
	logFieldNewVersionConstant         = "new_version"
	logFieldManifestPathConstant       = "manifest_path"
	logFieldUpdatedManifestsConstant   = "updated_manifests"
	logFieldDryRunConstant             = "dry_run"
	logFieldReasonConstant             = "reason"
	logFieldStandardOutputConstant     = "stdout"
	logFieldStandardErrorConstant      = "stderr"
	logFieldExitCodeConstant           = "exit_code"
	lockSkippedDryRunReasonConstant    = "dry run"
	lockSkippedByRequestReasonConstant = "skip requested"
)

var (
	// ErrLocatorNotConfigured indicates the service was constructed without a manifest locator.
	ErrLocatorNotConfigured = errors.New(locatorMissingMessageConstant)

	// ErrPatcherNotConfigured indicates the service was constructed without a manifest patcher.
	ErrPatcherNotConfigured = errors.New(patcherMissingMessageConstant)

	// ErrLockUpdaterNotConfigured indicates the service was constructed without a lock updater.
	ErrLockUpdaterNotConfigured = errors.New(lockUpdaterMissingMessageConstant)
)

// ManifestLocator lists the manifests of a workspace.
type ManifestLocator interface {
	Locate(executionContext context.Context, workspaceRoot string) ([]string, error)
}

// ManifestPatcher rewrites or previews a single manifest.
type ManifestPatcher interface {
	Patch(request manifest.PatchRequest) (bool, error)
	Preview(request manifest.PatchRequest) (manifest.PatchPreview, error)
}

// LockUpdater pins a package to a precise version in the workspace lock file.
type LockUpdater interface {
	UpdatePrecise(executionContext context.Context, workspaceRoot string, packageName string, currentVersion string, targetVersion string) (execshell.ExecutionResult, error)
}

// ServiceDependencies enumerates collaborators required by Service.
type ServiceDependencies struct {
	Logger            *zap.Logger
	Locator           ManifestLocator
	Patcher           ManifestPatcher
	LockUpdater       LockUpdater
	DiagnosticsWriter io.Writer
}

// Request describes one dependency bump.
type Request struct {
	WorkspaceRoot   string
	PackageName     string
	CurrentVersion  string
	NewVersion      string
	DryRun          bool
	SkipLockUpdate  bool
	ContinueOnError bool
}

// InvalidInputError reports a request field that failed validation.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid field.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// Service runs the locate, patch, and lock steps of a dependency bump.
type Service struct {
	logger            *zap.Logger
	locator           ManifestLocator
	patcher           ManifestPatcher
	lockUpdater       LockUpdater
	diagnosticsWriter io.Writer
}

// NewService validates dependencies and constructs a Service.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Locator == nil {
		return nil, ErrLocatorNotConfigured
	}
	if dependencies.Patcher == nil {
		return nil, ErrPatcherNotConfigured
	}
	if dependencies.LockUpdater == nil {
		return nil, ErrLockUpdaterNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	diagnosticsWriter := dependencies.DiagnosticsWriter
	if diagnosticsWriter == nil {
		diagnosticsWriter = io.Discard
	}

	return &Service{
		logger:            logger,
		locator:           dependencies.Locator,
		patcher:           dependencies.Patcher,
		lockUpdater:       dependencies.LockUpdater,
		diagnosticsWriter: diagnosticsWriter,
	}, nil
}

// Run bumps the dependency in every workspace manifest and then pins the lock file.
// Lock file failures are logged and never fail the run. When a manifest fails the
// returned report still lists the manifests already rewritten.
func (service *Service) Run(executionContext context.Context, request Request) (Report, error) {
	normalizedRequest, validationError := normalizeRequest(request)
	if validationError != nil {
		return NewReport(nil), validationError
	}

	requestFields := []zap.Field{
		zap.String(logFieldWorkspaceRootConstant, normalizedRequest.WorkspaceRoot),
		zap.String(logFieldPackageNameConstant, normalizedRequest.PackageName),
		zap.String(logFieldCurrentVersionConstant, normalizedRequest.CurrentVersion),
		zap.String(logFieldNewVersionConstant, normalizedRequest.NewVersion),
	}
	service.logger.Info(updateStartedMessageConstant, append(requestFields, zap.Bool(logFieldDryRunConstant, normalizedRequest.DryRun))...)

	manifestPaths, locateError := service.locator.Locate(executionContext, normalizedRequest.WorkspaceRoot)
	if locateError != nil {
		return NewReport(nil), fmt.Errorf(locateErrorTemplateConstant, locateError)
	}

	updatedManifests := make([]string, 0, len(manifestPaths))
	var manifestFailures []error
	for _, manifestPath := range manifestPaths {
		patchRequest := manifest.PatchRequest{
			ManifestPath:   manifestPath,
			PackageName:    normalizedRequest.PackageName,
			CurrentVersion: normalizedRequest.CurrentVersion,
			NewVersion:     normalizedRequest.NewVersion,
		}

		changed, patchError := service.applyPatch(patchRequest, normalizedRequest.DryRun)
		if patchError != nil {
			if !normalizedRequest.ContinueOnError {
				return NewReport(updatedManifests), patchError
			}
			service.logger.Warn(manifestFailedMessageConstant, zap.String(logFieldManifestPathConstant, manifestPath), zap.Error(patchError))
			manifestFailures = append(manifestFailures, patchError)
			continue
		}
		if changed {
			updatedManifests = append(updatedManifests, manifestPath)
		}
	}

	service.updateLockFile(executionContext, normalizedRequest, requestFields)

	report := NewReport(updatedManifests)
	service.logger.Info(updateCompletedMessageConstant, append(requestFields, zap.Strings(logFieldUpdatedManifestsConstant, report.UpdatedManifests))...)

	return report, errors.Join(manifestFailures...)
}

func (service *Service) applyPatch(patchRequest manifest.PatchRequest, dryRun bool) (bool, error) {
	if !dryRun {
		return service.patcher.Patch(patchRequest)
	}

	preview, previewError := service.patcher.Preview(patchRequest)
	if previewError != nil {
		return false, previewError
	}
	if !preview.Changed() {
		return false, nil
	}

	service.logger.Info(manifestWouldChangeMessageConstant, zap.String(logFieldManifestPathConstant, patchRequest.ManifestPath))
	if _, writeError := io.WriteString(service.diagnosticsWriter, RenderPreview(preview)); writeError != nil {
		service.logger.Debug(manifestWouldChangeMessageConstant, zap.Error(writeError))
	}
	return true, nil
}

func (service *Service) updateLockFile(executionContext context.Context, request Request, requestFields []zap.Field) {
	if request.DryRun {
		service.logger.Info(lockUpdateSkippedMessageConstant, append(requestFields, zap.String(logFieldReasonConstant, lockSkippedDryRunReasonConstant))...)
		return
	}
	if request.SkipLockUpdate {
		service.logger.Info(lockUpdateSkippedMessageConstant, append(requestFields, zap.String(logFieldReasonConstant, lockSkippedByRequestReasonConstant))...)
		return
	}

	executionResult, lockError := service.lockUpdater.UpdatePrecise(
		executionContext,
		request.WorkspaceRoot,
		request.PackageName,
		request.CurrentVersion,
		request.NewVersion,
	)

	resultFields := append(
		requestFields,
		zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
		zap.String(logFieldStandardOutputConstant, executionResult.StandardOutput),
		zap.String(logFieldStandardErrorConstant, executionResult.StandardError),
	)
	if lockError != nil {
		service.logger.Warn(lockUpdateFailedMessageConstant, append(resultFields, zap.Error(lockError))...)
		return
	}

	service.logger.Info(lockUpdateSucceededMessageConstant, resultFields...)
}

func normalizeRequest(request Request) (Request, error) {
	normalized := request
	normalized.WorkspaceRoot = strings.TrimSpace(request.WorkspaceRoot)
	normalized.PackageName = strings.TrimSpace(request.PackageName)
	normalized.CurrentVersion = strings.TrimSpace(request.CurrentVersion)
	normalized.NewVersion = strings.TrimSpace(request.NewVersion)

	requiredValues := []struct {
		fieldName string
		value     string
	}{
		{fieldName: workspaceRootFieldNameConstant, value: normalized.WorkspaceRoot},
		{fieldName: packageNameFieldNameConstant, value: normalized.PackageName},
		{fieldName: currentVersionFieldNameConstant, value: normalized.CurrentVersion},
		{fieldName: newVersionFieldNameConstant, value: normalized.NewVersion},
	}
	for _, requiredValue := range requiredValues {
		if len(requiredValue.value) == 0 {
			return Request{}, InvalidInputError{FieldName: requiredValue.fieldName, Message: requiredValueMessageConstant}
		}
	}

	return normalized, nil
}
