package flags

import (
	"fmt"
	"strings"
)

const (
	choicePlaceholderTemplateConstant     = "<%s>"
	choiceSeparatorConstant               = "|"
	choiceUsageWithoutDescriptionConstant = "`%s`"
	choiceUsageWithDescriptionConstant    = "`%s` %s"
)

// FormatChoiceUsage renders flag usage listing the accepted values with the default one upper-cased, e.g. "`<INFO|debug>` Log level".
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	placeholder := fmt.Sprintf(choicePlaceholderTemplateConstant, strings.Join(highlightDefaultChoice(defaultChoice, choices), choiceSeparatorConstant))
	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) == 0 {
		return fmt.Sprintf(choiceUsageWithoutDescriptionConstant, placeholder)
	}
	return fmt.Sprintf(choiceUsageWithDescriptionConstant, placeholder, trimmedDescription)
}

func highlightDefaultChoice(defaultChoice string, choices []string) []string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))
	highlighted := make([]string, 0, len(choices))
	seen := make(map[string]struct{}, len(choices))

	for _, choice := range choices {
		trimmedChoice := strings.TrimSpace(choice)
		normalizedChoice := strings.ToLower(trimmedChoice)
		if len(normalizedChoice) == 0 {
			continue
		}
		if _, duplicate := seen[normalizedChoice]; duplicate {
			continue
		}
		seen[normalizedChoice] = struct{}{}

		if normalizedChoice == normalizedDefault {
			trimmedChoice = strings.ToUpper(trimmedChoice)
		}
		highlighted = append(highlighted, trimmedChoice)
	}

	return highlighted
}
