package pathutils

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	manifestFileNameConstant              = "Cargo.toml"
	workingDirectoryErrorTemplateConstant = "unable to determine working directory: %w"
	absolutePathErrorTemplateConstant     = "unable to resolve workspace root %s: %w"
)

// WorkingDirectoryProvider returns the directory the process runs in.
type WorkingDirectoryProvider func() (string, error)

// FileInspector reports metadata and absolute forms of paths.
type FileInspector interface {
	Stat(path string) (fs.FileInfo, error)
	Abs(path string) (string, error)
}

type osFileInspector struct{}

func (osFileInspector) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

func (osFileInspector) Abs(path string) (string, error) {
	return filepath.Abs(path)
}

// WorkspaceRootResolver turns a manifest path argument into the workspace directory cargo runs in.
type WorkspaceRootResolver struct {
	homeExpander             *HomeExpander
	fileInspector            FileInspector
	workingDirectoryProvider WorkingDirectoryProvider
}

// NewWorkspaceRootResolver constructs a resolver backed by the operating system.
func NewWorkspaceRootResolver() *WorkspaceRootResolver {
	return NewWorkspaceRootResolverWithDependencies(nil, nil, nil)
}

// NewWorkspaceRootResolverWithDependencies constructs a resolver; nil dependencies fall back to the operating system.
func NewWorkspaceRootResolverWithDependencies(homeExpander *HomeExpander, fileInspector FileInspector, workingDirectoryProvider WorkingDirectoryProvider) *WorkspaceRootResolver {
	if homeExpander == nil {
		homeExpander = NewHomeExpander()
	}
	if fileInspector == nil {
		fileInspector = osFileInspector{}
	}
	if workingDirectoryProvider == nil {
		workingDirectoryProvider = os.Getwd
	}
	return &WorkspaceRootResolver{
		homeExpander:             homeExpander,
		fileInspector:            fileInspector,
		workingDirectoryProvider: workingDirectoryProvider,
	}
}

// Resolve returns the absolute workspace root for the candidate path.
// An empty candidate means the working directory. A path naming Cargo.toml or any other
// regular file resolves to its directory; everything else is taken as the directory itself.
func (resolver *WorkspaceRootResolver) Resolve(candidatePath string) (string, error) {
	trimmedCandidate := strings.TrimSpace(candidatePath)
	if len(trimmedCandidate) == 0 {
		workingDirectory, workingDirectoryError := resolver.workingDirectoryProvider()
		if workingDirectoryError != nil {
			return "", fmt.Errorf(workingDirectoryErrorTemplateConstant, workingDirectoryError)
		}
		trimmedCandidate = workingDirectory
	}

	workspaceRoot := resolver.homeExpander.Expand(trimmedCandidate)
	if resolver.namesFile(workspaceRoot) {
		workspaceRoot = filepath.Dir(workspaceRoot)
	}

	absoluteRoot, absoluteError := resolver.fileInspector.Abs(workspaceRoot)
	if absoluteError != nil {
		return "", fmt.Errorf(absolutePathErrorTemplateConstant, workspaceRoot, absoluteError)
	}
	return filepath.Clean(absoluteRoot), nil
}

func (resolver *WorkspaceRootResolver) namesFile(candidatePath string) bool {
	if filepath.Base(candidatePath) == manifestFileNameConstant {
		return true
	}
	fileInfo, statError := resolver.fileInspector.Stat(candidatePath)
	if statError != nil {
		return false
	}
	return fileInfo.Mode().IsRegular()
}
