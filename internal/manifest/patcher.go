package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

const (
	directDeclarationPatternTemplateConstant  = `^\s*%s\s*=`
	renamedDeclarationPatternTemplateConstant = `package\s*=\s*"%s"`
	quotedVersionTemplateConstant             = `"%s"`
	lineSeparatorConstant                     = "\n"
	fileSystemMissingMessageConstant          = "manifest file system not configured"
	manifestUnreadableTemplateConstant        = "unable to read manifest %s: %v"
	manifestUnwritableTemplateConstant        = "unable to write manifest %s: %v"
	manifestUpdatedMessageConstant            = "Updated manifest"
	manifestUnchangedMessageConstant          = "Manifest unchanged"
	logFieldPackageNameConstant               = "package_name"
	logFieldCurrentVersionConstant            = "current_version"
	logFieldNewVersionConstant                = "new_version"
	logFieldChangedLinesConstant              = "changed_lines"
)

// ErrFileSystemNotConfigured indicates the patcher was constructed without a file system.
var ErrFileSystemNotConfigured = errors.New(fileSystemMissingMessageConstant)

// FileSystem is the file access required by Patcher.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, permissions fs.FileMode) error
}

// PatchRequest describes one version substitution in one manifest.
type PatchRequest struct {
	ManifestPath   string
	PackageName    string
	CurrentVersion string
	NewVersion     string
}

// PatchPreview holds the current and proposed content of a manifest.
type PatchPreview struct {
	ManifestPath    string
	OriginalContent string
	UpdatedContent  string
	ChangedLines    int
}

// Changed reports whether applying the patch would rewrite the manifest.
func (preview PatchPreview) Changed() bool {
	return preview.ChangedLines > 0
}

// ManifestUnreadableError reports a manifest that could not be inspected or read.
type ManifestUnreadableError struct {
	Path  string
	Cause error
}

// Error describes the read failure.
func (readError ManifestUnreadableError) Error() string {
	return fmt.Sprintf(manifestUnreadableTemplateConstant, readError.Path, readError.Cause)
}

// Unwrap exposes the underlying cause.
func (readError ManifestUnreadableError) Unwrap() error {
	return readError.Cause
}

// ManifestUnwritableError reports a manifest whose rewritten content could not be stored.
type ManifestUnwritableError struct {
	Path  string
	Cause error
}

// Error describes the write failure.
func (writeError ManifestUnwritableError) Error() string {
	return fmt.Sprintf(manifestUnwritableTemplateConstant, writeError.Path, writeError.Cause)
}

// Unwrap exposes the underlying cause.
func (writeError ManifestUnwritableError) Unwrap() error {
	return writeError.Cause
}

// DeclarationMatcher recognizes the lines declaring a dependency.
type DeclarationMatcher struct {
	directPattern  *regexp.Regexp
	renamedPattern *regexp.Regexp
}

// NewDeclarationMatcher builds a matcher for the exact package name.
func NewDeclarationMatcher(packageName string) DeclarationMatcher {
	quotedName := regexp.QuoteMeta(packageName)
	return DeclarationMatcher{
		directPattern:  regexp.MustCompile(fmt.Sprintf(directDeclarationPatternTemplateConstant, quotedName)),
		renamedPattern: regexp.MustCompile(fmt.Sprintf(renamedDeclarationPatternTemplateConstant, quotedName)),
	}
}

// Matches reports whether the line is a direct (name = ...) or renamed (package = "name") declaration.
func (matcher DeclarationMatcher) Matches(line string) bool {
	return matcher.directPattern.MatchString(line) || matcher.renamedPattern.MatchString(line)
}

// SplitLines splits content on newlines. The empty segment after a final newline is not a line.
func SplitLines(content string) []string {
	if len(content) == 0 {
		return []string{}
	}
	lines := strings.Split(content, lineSeparatorConstant)
	if strings.HasSuffix(content, lineSeparatorConstant) {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// JoinLines joins lines with newlines and terminates the result with exactly one newline.
func JoinLines(lines []string) string {
	return strings.Join(lines, lineSeparatorConstant) + lineSeparatorConstant
}

// PatchLines replaces the quoted current version with the quoted new version on every declaration line
// of the package. It returns a new slice and the number of lines whose content changed; the input is not modified.
func PatchLines(lines []string, packageName string, currentVersion string, newVersion string) ([]string, int) {
	matcher := NewDeclarationMatcher(packageName)
	quotedCurrentVersion := fmt.Sprintf(quotedVersionTemplateConstant, currentVersion)
	quotedNewVersion := fmt.Sprintf(quotedVersionTemplateConstant, newVersion)

	patchedLines := make([]string, len(lines))
	changedLines := 0
	for lineIndex, line := range lines {
		patchedLines[lineIndex] = line
		if !matcher.Matches(line) {
			continue
		}
		replacedLine := strings.ReplaceAll(line, quotedCurrentVersion, quotedNewVersion)
		if replacedLine != line {
			patchedLines[lineIndex] = replacedLine
			changedLines++
		}
	}

	return patchedLines, changedLines
}

// Patcher applies PatchRequests to manifest files.
type Patcher struct {
	fileSystem FileSystem
	logger     *zap.Logger
}

// NewPatcher constructs a Patcher.
func NewPatcher(fileSystem FileSystem, logger *zap.Logger) (*Patcher, error) {
	if fileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Patcher{fileSystem: fileSystem, logger: logger}, nil
}

// Preview computes the patched content of a manifest without writing it.
func (patcher *Patcher) Preview(request PatchRequest) (PatchPreview, error) {
	originalContent, readError := patcher.fileSystem.ReadFile(request.ManifestPath)
	if readError != nil {
		return PatchPreview{}, ManifestUnreadableError{Path: request.ManifestPath, Cause: readError}
	}

	preview := PatchPreview{
		ManifestPath:    request.ManifestPath,
		OriginalContent: string(originalContent),
		UpdatedContent:  string(originalContent),
	}

	patchedLines, changedLines := PatchLines(SplitLines(preview.OriginalContent), request.PackageName, request.CurrentVersion, request.NewVersion)
	if changedLines == 0 {
		return preview, nil
	}

	preview.UpdatedContent = JoinLines(patchedLines)
	preview.ChangedLines = changedLines
	return preview, nil
}

// Patch rewrites the manifest when at least one declaration line changes and reports whether it did.
func (patcher *Patcher) Patch(request PatchRequest) (bool, error) {
	fileInfo, statError := patcher.fileSystem.Stat(request.ManifestPath)
	if statError != nil {
		return false, ManifestUnreadableError{Path: request.ManifestPath, Cause: statError}
	}

	preview, previewError := patcher.Preview(request)
	if previewError != nil {
		return false, previewError
	}

	requestFields := []zap.Field{
		zap.String(logFieldManifestPathConstant, request.ManifestPath),
		zap.String(logFieldPackageNameConstant, request.PackageName),
		zap.String(logFieldCurrentVersionConstant, request.CurrentVersion),
		zap.String(logFieldNewVersionConstant, request.NewVersion),
	}

	if !preview.Changed() {
		patcher.logger.Debug(manifestUnchangedMessageConstant, requestFields...)
		return false, nil
	}

	writeError := patcher.fileSystem.WriteFile(request.ManifestPath, []byte(preview.UpdatedContent), fileInfo.Mode().Perm())
	if writeError != nil {
		return false, ManifestUnwritableError{Path: request.ManifestPath, Cause: writeError}
	}

	patcher.logger.Info(manifestUpdatedMessageConstant, append(requestFields, zap.Int(logFieldChangedLinesConstant, preview.ChangedLines))...)
	return true, nil
}
