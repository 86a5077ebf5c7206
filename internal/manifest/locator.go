package manifest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"go.uber.org/zap"
)

const (
	// FileName is the manifest file appended to every workspace member directory.
	FileName = "Cargo.toml"

	memberLocationPatternConstant           = `file://(.*)\)`
	metadataProviderMissingMessageConstant  = "metadata provider not configured"
	metadataLookupErrorTemplateConstant     = "unable to list workspace members of %s: %w"
	malformedMemberLocationTemplateConstant = "workspace member location %q does not contain a file://<path>) segment"
	parentDirectoryPrefixConstant           = ".."
	locatedManifestsMessageConstant         = "Located workspace manifests"
	excludedManifestMessageConstant         = "Excluded workspace manifest"
	logFieldWorkspaceRootConstant           = "workspace_root"
	logFieldManifestPathsConstant           = "manifest_paths"
	logFieldManifestPathConstant            = "manifest_path"
	logFieldExclusionPatternsConstant       = "exclusion_patterns"
)

var (
	memberLocationPattern = regexp.MustCompile(memberLocationPatternConstant)

	// ErrMetadataProviderNotConfigured indicates the locator was constructed without a provider.
	ErrMetadataProviderNotConfigured = errors.New(metadataProviderMissingMessageConstant)
)

// MetadataProvider lists the raw member location descriptors of a workspace.
type MetadataProvider interface {
	WorkspaceMembers(executionContext context.Context, workspaceRoot string) ([]string, error)
}

// MalformedMemberLocationError reports a member descriptor without an extractable filesystem path.
type MalformedMemberLocationError struct {
	Location string
}

// Error describes the malformed descriptor.
func (locationError MalformedMemberLocationError) Error() string {
	return fmt.Sprintf(malformedMemberLocationTemplateConstant, locationError.Location)
}

// LocatorOption customizes a Locator.
type LocatorOption func(locator *Locator)

// WithExclusionPatterns drops members whose directory, relative to the workspace root, matches any gitignore-style pattern.
func WithExclusionPatterns(patterns []string) LocatorOption {
	return func(locator *Locator) {
		sanitizedPatterns := make([]string, 0, len(patterns))
		for _, pattern := range patterns {
			trimmedPattern := strings.TrimSpace(pattern)
			if len(trimmedPattern) == 0 {
				continue
			}
			sanitizedPatterns = append(sanitizedPatterns, trimmedPattern)
		}
		if len(sanitizedPatterns) == 0 {
			locator.exclusions = nil
			locator.exclusionPatterns = nil
			return
		}
		locator.exclusionPatterns = sanitizedPatterns
		locator.exclusions = ignore.CompileIgnoreLines(sanitizedPatterns...)
	}
}

// Locator derives manifest paths from workspace metadata.
type Locator struct {
	provider          MetadataProvider
	logger            *zap.Logger
	exclusions        *ignore.GitIgnore
	exclusionPatterns []string
}

// NewLocator constructs a Locator backed by the provided metadata provider.
func NewLocator(provider MetadataProvider, logger *zap.Logger, options ...LocatorOption) (*Locator, error) {
	if provider == nil {
		return nil, ErrMetadataProviderNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	locator := &Locator{provider: provider, logger: logger}
	for _, option := range options {
		if option != nil {
			option(locator)
		}
	}
	return locator, nil
}

// Locate returns one manifest path per workspace member, in the order reported by the provider.
// A single member descriptor that cannot be parsed fails the whole lookup.
func (locator *Locator) Locate(executionContext context.Context, workspaceRoot string) ([]string, error) {
	memberLocations, lookupError := locator.provider.WorkspaceMembers(executionContext, workspaceRoot)
	if lookupError != nil {
		return nil, fmt.Errorf(metadataLookupErrorTemplateConstant, workspaceRoot, lookupError)
	}

	manifestPaths := make([]string, 0, len(memberLocations))
	for _, memberLocation := range memberLocations {
		manifestPath, extractionError := ManifestPathFromMemberLocation(memberLocation)
		if extractionError != nil {
			return nil, extractionError
		}
		if locator.excluded(workspaceRoot, manifestPath) {
			locator.logger.Info(
				excludedManifestMessageConstant,
				zap.String(logFieldManifestPathConstant, manifestPath),
				zap.Strings(logFieldExclusionPatternsConstant, locator.exclusionPatterns),
			)
			continue
		}
		manifestPaths = append(manifestPaths, manifestPath)
	}

	locator.logger.Info(
		locatedManifestsMessageConstant,
		zap.String(logFieldWorkspaceRootConstant, workspaceRoot),
		zap.Strings(logFieldManifestPathsConstant, manifestPaths),
	)

	return manifestPaths, nil
}

// ManifestPathFromMemberLocation extracts the member directory from a descriptor such as
// "crate 0.1.0 (path+file:///workspace/crate)" and appends the manifest file name.
func ManifestPathFromMemberLocation(memberLocation string) (string, error) {
	submatches := memberLocationPattern.FindStringSubmatch(memberLocation)
	if len(submatches) < 2 {
		return "", MalformedMemberLocationError{Location: memberLocation}
	}
	return filepath.Join(submatches[1], FileName), nil
}

func (locator *Locator) excluded(workspaceRoot string, manifestPath string) bool {
	if locator.exclusions == nil {
		return false
	}

	memberDirectory := filepath.Dir(manifestPath)
	relativeDirectory, inside := relativeToRoot(workspaceRoot, memberDirectory)
	if !inside {
		// cargo reports canonical paths, so retry against the symlink-resolved root.
		resolvedRoot, resolveError := filepath.EvalSymlinks(workspaceRoot)
		if resolveError != nil {
			return false
		}
		relativeDirectory, inside = relativeToRoot(resolvedRoot, memberDirectory)
		if !inside {
			return false
		}
	}

	return locator.exclusions.MatchesPath(relativeDirectory)
}

func relativeToRoot(workspaceRoot string, memberDirectory string) (string, bool) {
	relativeDirectory, relativeError := filepath.Rel(workspaceRoot, memberDirectory)
	if relativeError != nil {
		return "", false
	}
	relativeDirectory = filepath.ToSlash(relativeDirectory)
	if relativeDirectory == parentDirectoryPrefixConstant || strings.HasPrefix(relativeDirectory, parentDirectoryPrefixConstant+"/") {
		return "", false
	}
	return relativeDirectory, true
}
