package update_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/cargo-update-dep/internal/filesystem"
	"github.com/temirov/cargo-update-dep/internal/update"
)

func TestParsePlan(testInstance *testing.T) {
	testCases := []struct {
		name          string
		content       string
		expectedPlan  update.Plan
		expectedField string
		expectError   bool
	}{
		{
			name:    "valid_plan",
			content: "updates:\n  - package: serde\n    version: 1.0.100\n    new_version: \" 1.0.101 \"\n  - package: foo\n    version: \"1.2.3\"\n    new_version: 1.2.4\n",
			expectedPlan: update.Plan{Updates: []update.PlanEntry{
				{PackageName: "serde", CurrentVersion: "1.0.100", NewVersion: "1.0.101"},
				{PackageName: "foo", CurrentVersion: "1.2.3", NewVersion: "1.2.4"},
			}},
		},
		{
			name:          "empty_plan",
			content:       "updates: []\n",
			expectedField: "updates",
		},
		{
			name:          "missing_new_version",
			content:       "updates:\n  - package: serde\n    version: 1.0.100\n",
			expectedField: "updates[0].new_version",
		},
		{
			name:        "malformed_yaml",
			content:     "updates: [\n",
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			plan, parseError := update.ParsePlan([]byte(testCase.content))
			switch {
			case testCase.expectError:
				require.Error(testInstance, parseError)
			case len(testCase.expectedField) > 0:
				var inputError update.InvalidInputError
				require.ErrorAs(testInstance, parseError, &inputError)
				require.Equal(testInstance, testCase.expectedField, inputError.FieldName)
			default:
				require.NoError(testInstance, parseError)
				require.Equal(testInstance, testCase.expectedPlan, plan)
			}
		})
	}
}

func TestServiceRunPlanAppliesEntriesInOrder(testInstance *testing.T) {
	fixture := newWorkspaceFixture(testInstance, "[dependencies]\nfoo = \"1.2.3\"\nserde = \"1.0.100\"\n", "[dependencies]\nserde = \"1.0.100\"\n")
	lockUpdater := &recordingLockUpdater{}
	service := newTestService(testInstance, zap.NewNop(), &stubLocator{manifestPaths: fixture.manifestPaths}, filesystem.OSFileSystem{}, lockUpdater, &bytes.Buffer{})

	plan := update.Plan{Updates: []update.PlanEntry{
		{PackageName: "foo", CurrentVersion: "1.2.3", NewVersion: "1.2.4"},
		{PackageName: "serde", CurrentVersion: "1.0.100", NewVersion: "1.0.101"},
	}}

	planReport, runError := service.RunPlan(context.Background(), plan, update.Request{WorkspaceRoot: fixture.root})
	require.NoError(testInstance, runError)
	require.Equal(testInstance, update.PlanReport{Updates: []update.PlanReportEntry{
		{PackageName: "foo", UpdatedManifests: []string{fixture.manifestPaths[0]}},
		{PackageName: "serde", UpdatedManifests: fixture.manifestPaths},
	}}, planReport)

	require.Equal(testInstance, "[dependencies]\nfoo = \"1.2.4\"\nserde = \"1.0.101\"\n", readFile(testInstance, fixture.manifestPaths[0]))
	require.Len(testInstance, lockUpdater.calls, 2)
	require.Equal(testInstance, "serde", lockUpdater.calls[1].packageName)
}

func TestServiceRunPlanStopsAtFirstFailure(testInstance *testing.T) {
	fixture := newWorkspaceFixture(testInstance, "[dependencies]\nfoo = \"1.2.3\"\n")
	service := newTestService(testInstance, zap.NewNop(), &stubLocator{manifestPaths: fixture.manifestPaths}, filesystem.OSFileSystem{}, &recordingLockUpdater{}, &bytes.Buffer{})

	plan := update.Plan{Updates: []update.PlanEntry{
		{PackageName: "foo", CurrentVersion: "1.2.3", NewVersion: "1.2.4"},
		{PackageName: "", CurrentVersion: "1.0.0", NewVersion: "1.0.1"},
		{PackageName: "foo", CurrentVersion: "1.2.4", NewVersion: "1.2.5"},
	}}

	planReport, runError := service.RunPlan(context.Background(), plan, update.Request{WorkspaceRoot: fixture.root})

	var inputError update.InvalidInputError
	require.ErrorAs(testInstance, runError, &inputError)
	require.Len(testInstance, planReport.Updates, 1)
	require.Equal(testInstance, "[dependencies]\nfoo = \"1.2.4\"\n", readFile(testInstance, fixture.manifestPaths[0]))
}
