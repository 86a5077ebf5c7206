package filesystem_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/cargo-update-dep/internal/filesystem"
)

func TestOSFileSystemRoundTripKeepsPermissions(testInstance *testing.T) {
	temporaryDirectory := testInstance.TempDir()
	filePath := filepath.Join(temporaryDirectory, "Cargo.toml")
	require.NoError(testInstance, os.WriteFile(filePath, []byte("[package]\n"), 0o640))

	fileSystem := filesystem.OSFileSystem{}

	fileInfo, statError := fileSystem.Stat(filePath)
	require.NoError(testInstance, statError)

	require.NoError(testInstance, fileSystem.WriteFile(filePath, []byte("[workspace]\n"), fileInfo.Mode().Perm()))

	content, readError := fileSystem.ReadFile(filePath)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "[workspace]\n", string(content))

	updatedInfo, updatedStatError := fileSystem.Stat(filePath)
	require.NoError(testInstance, updatedStatError)
	require.Equal(testInstance, fileInfo.Mode().Perm(), updatedInfo.Mode().Perm())

	absolutePath, absError := fileSystem.Abs(filePath)
	require.NoError(testInstance, absError)
	require.True(testInstance, filepath.IsAbs(absolutePath))
}
