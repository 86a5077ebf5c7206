package flags

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const (
	testToggleNameConstant      = "skip-lock"
	testToggleShorthandConstant = "k"
)

func TestAddToggleFlagParsesValues(testInstance *testing.T) {
	testCases := []struct {
		name            string
		arguments       []string
		expectedValue   bool
		expectedChanged bool
	}{
		{name: "default_false", arguments: []string{}, expectedValue: false, expectedChanged: false},
		{name: "implicit_true", arguments: []string{"--skip-lock"}, expectedValue: true, expectedChanged: true},
		{name: "separate_yes", arguments: []string{"--skip-lock", "yes"}, expectedValue: true, expectedChanged: true},
		{name: "separate_uppercase_true", arguments: []string{"--skip-lock", "TRUE"}, expectedValue: true, expectedChanged: true},
		{name: "separate_no", arguments: []string{"--skip-lock", "no"}, expectedValue: false, expectedChanged: true},
		{name: "inline_off", arguments: []string{"--skip-lock=off"}, expectedValue: false, expectedChanged: true},
		{name: "shorthand_no", arguments: []string{"-k", "no"}, expectedValue: false, expectedChanged: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			command := &cobra.Command{}

			var toggleValue bool
			AddToggleFlag(command.Flags(), &toggleValue, testToggleNameConstant, testToggleShorthandConstant, false, "Skip the lock step")

			require.NoError(testInstance, command.ParseFlags(NormalizeToggleArguments(testCase.arguments)))
			require.Equal(testInstance, testCase.expectedValue, toggleValue)

			flagValue, flagError := command.Flags().GetBool(testToggleNameConstant)
			require.NoError(testInstance, flagError)
			require.Equal(testInstance, testCase.expectedValue, flagValue)
			require.Equal(testInstance, testCase.expectedChanged, command.Flags().Changed(testToggleNameConstant))
		})
	}
}

func TestAddToggleFlagRejectsInvalidValues(testInstance *testing.T) {
	command := &cobra.Command{}

	var toggleValue bool
	AddToggleFlag(command.Flags(), &toggleValue, testToggleNameConstant, "", false, "Skip the lock step")

	require.Error(testInstance, command.ParseFlags([]string{"--skip-lock=maybe"}))
	require.False(testInstance, toggleValue)
	require.False(testInstance, command.Flags().Changed(testToggleNameConstant))
}

func TestNormalizeToggleArgumentsLeavesOtherArgumentsAlone(testInstance *testing.T) {
	command := &cobra.Command{}
	AddToggleFlag(command.Flags(), nil, testToggleNameConstant, testToggleShorthandConstant, false, "Skip the lock step")

	testCases := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "empty", input: nil, expected: nil},
		{name: "subcommand_after_toggle", input: []string{"--skip-lock", "plan"}, expected: []string{"--skip-lock", "plan"}},
		{name: "flag_after_toggle", input: []string{"--skip-lock", "-p", "serde"}, expected: []string{"--skip-lock", "-p", "serde"}},
		{name: "joined_literal", input: []string{"--skip-lock", "no", "-p", "serde"}, expected: []string{"--skip-lock=no", "-p", "serde"}},
		{name: "unregistered_flag", input: []string{"--dry-run", "no"}, expected: []string{"--dry-run", "no"}},
		{name: "terminator", input: []string{"--", "--skip-lock", "no"}, expected: []string{"--", "--skip-lock", "no"}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, NormalizeToggleArguments(testCase.input))
		})
	}
}

func TestAddToggleFlagUsageShowsDefault(testInstance *testing.T) {
	command := &cobra.Command{}
	AddToggleFlag(command.Flags(), nil, "continue-on-error", "", true, "Keep going")

	flag := command.Flags().Lookup("continue-on-error")
	require.NotNil(testInstance, flag)
	require.Equal(testInstance, "`<YES|no>` Keep going", flag.Usage)
}
