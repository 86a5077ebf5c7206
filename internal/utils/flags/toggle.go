package flags

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/pflag"
)

const (
	toggleTrueCanonicalValueConstant      = "true"
	toggleFalseCanonicalValueConstant     = "false"
	toggleTypeNameConstant                = "bool"
	toggleParseErrorTemplateConstant      = "invalid toggle value %q"
	toggleTruePlaceholderConstant         = "<YES|no>"
	toggleFalsePlaceholderConstant        = "<yes|NO>"
	toggleUsageWithoutDescriptionConstant = "`%s`"
	toggleUsageWithDescriptionConstant    = "`%s` %s"
	longFlagPrefixConstant                = "--"
	shortFlagPrefixConstant               = "-"
	flagValueSeparatorConstant            = "="
	argumentTerminatorConstant            = "--"
)

var (
	toggleLiterals = map[string]bool{
		"true":  true,
		"yes":   true,
		"on":    true,
		"1":     true,
		"t":     true,
		"y":     true,
		"false": false,
		"no":    false,
		"off":   false,
		"0":     false,
		"f":     false,
		"n":     false,
	}

	toggleRegistryMutex  sync.RWMutex
	toggleNames      = map[string]struct{}{}
	toggleShorthands = map[string]struct{}{}
)

// AddToggleFlag registers a boolean flag that also accepts yes/no style values, either as "--flag=no" or "--flag no".
func AddToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, shorthand string, defaultValue bool, usage string) {
	if flagSet == nil || len(name) == 0 {
		return
	}

	value := newToggleValue(defaultValue, target)
	flagSet.VarP(value, name, shorthand, formatToggleUsage(usage, defaultValue))

	flag := flagSet.Lookup(name)
	if flag == nil {
		return
	}
	flag.NoOptDefVal = toggleTrueCanonicalValueConstant

	toggleRegistryMutex.Lock()
	defer toggleRegistryMutex.Unlock()
	toggleNames[name] = struct{}{}
	if len(shorthand) > 0 {
		toggleShorthands[shorthand] = struct{}{}
	}
}

// NormalizeToggleArguments joins a registered toggle with a following yes/no literal so pflag parses "--flag no" as "--flag=no".
// Any other following argument is left alone, so positional arguments and subcommands after a bare toggle survive.
func NormalizeToggleArguments(arguments []string) []string {
	if len(arguments) == 0 {
		return nil
	}

	normalized := make([]string, 0, len(arguments))
	for argumentIndex := 0; argumentIndex < len(arguments); argumentIndex++ {
		current := arguments[argumentIndex]
		if current == argumentTerminatorConstant {
			normalized = append(normalized, arguments[argumentIndex:]...)
			break
		}

		if argumentIndex+1 < len(arguments) && isBareToggle(current) && isToggleLiteral(arguments[argumentIndex+1]) {
			normalized = append(normalized, current+flagValueSeparatorConstant+arguments[argumentIndex+1])
			argumentIndex++
			continue
		}

		normalized = append(normalized, current)
	}

	return normalized
}

type toggleValue struct {
	currentValue bool
	target       *bool
}

func newToggleValue(defaultValue bool, target *bool) *toggleValue {
	if target != nil {
		*target = defaultValue
	}
	return &toggleValue{currentValue: defaultValue, target: target}
}

func (value *toggleValue) Set(rawValue string) error {
	parsedValue, parseError := parseToggleValue(rawValue)
	if parseError != nil {
		return parseError
	}

	value.currentValue = parsedValue
	if value.target != nil {
		*value.target = parsedValue
	}
	return nil
}

func (value *toggleValue) String() string {
	if value == nil || !value.currentValue {
		return toggleFalseCanonicalValueConstant
	}
	return toggleTrueCanonicalValueConstant
}

// Type reports "bool" so pflag's GetBool reads toggles like plain boolean flags.
func (value *toggleValue) Type() string {
	return toggleTypeNameConstant
}

func parseToggleValue(rawValue string) (bool, error) {
	normalizedValue := strings.ToLower(strings.TrimSpace(rawValue))
	if len(normalizedValue) == 0 {
		return true, nil
	}

	parsedValue, known := toggleLiterals[normalizedValue]
	if !known {
		return false, fmt.Errorf(toggleParseErrorTemplateConstant, rawValue)
	}
	return parsedValue, nil
}

func formatToggleUsage(description string, defaultValue bool) string {
	placeholder := toggleFalsePlaceholderConstant
	if defaultValue {
		placeholder = toggleTruePlaceholderConstant
	}
	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) == 0 {
		return fmt.Sprintf(toggleUsageWithoutDescriptionConstant, placeholder)
	}
	return fmt.Sprintf(toggleUsageWithDescriptionConstant, placeholder, trimmedDescription)
}

func isToggleLiteral(argument string) bool {
	_, known := toggleLiterals[strings.ToLower(strings.TrimSpace(argument))]
	return known
}

func isBareToggle(argument string) bool {
	if strings.Contains(argument, flagValueSeparatorConstant) {
		return false
	}

	toggleRegistryMutex.RLock()
	defer toggleRegistryMutex.RUnlock()

	if strings.HasPrefix(argument, longFlagPrefixConstant) {
		_, registered := toggleNames[strings.TrimPrefix(argument, longFlagPrefixConstant)]
		return registered
	}
	if strings.HasPrefix(argument, shortFlagPrefixConstant) {
		shorthand := strings.TrimPrefix(argument, shortFlagPrefixConstant)
		if len(shorthand) != 1 {
			return false
		}
		_, registered := toggleShorthands[shorthand]
		return registered
	}
	return false
}
