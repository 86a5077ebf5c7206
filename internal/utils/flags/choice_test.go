package flags

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatChoiceUsage(testInstance *testing.T) {
	testCases := []struct {
		name           string
		defaultChoice  string
		choices        []string
		description    string
		expectedOutput string
	}{
		{
			name:           "default_first",
			defaultChoice:  "structured",
			choices:        []string{"structured", "console"},
			description:    "Log output format.",
			expectedOutput: "`<STRUCTURED|console>` Log output format.",
		},
		{
			name:           "default_in_middle",
			defaultChoice:  "info",
			choices:        []string{"debug", "info", "warn", "error"},
			description:    "Minimum log level.",
			expectedOutput: "`<debug|INFO|warn|error>` Minimum log level.",
		},
		{
			name:           "empty_description",
			defaultChoice:  "console",
			choices:        []string{"structured", "console"},
			expectedOutput: "`<structured|CONSOLE>`",
		},
		{
			name:           "duplicates_and_blanks_dropped",
			defaultChoice:  "debug",
			choices:        []string{"debug", " ", "DEBUG", "info"},
			description:    "Minimum log level.",
			expectedOutput: "`<DEBUG|info>` Minimum log level.",
		},
		{
			name:           "whitespace_trimmed",
			defaultChoice:  " info ",
			choices:        []string{" info ", " warn "},
			description:    "  Minimum log level.  ",
			expectedOutput: "`<INFO|warn>` Minimum log level.",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedOutput, FormatChoiceUsage(testCase.defaultChoice, testCase.choices, testCase.description))
		})
	}
}
