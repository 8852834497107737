package request

import "errors"

// Validation failures surfaced by the parser. All of them terminate the
// invocation with the usage text; none are recoverable.
var (
	ErrUnknownStage      = errors.New("unknown stage")
	ErrUnknownConfigKey  = errors.New("unknown configuration key")
	ErrEmptyConfigValue  = errors.New("empty configuration value")
	ErrUnknownModel      = errors.New("unknown model")
	ErrInvalidDateFormat = errors.New("invalid date format, expected YYYY-MM")
	ErrInvalidSwitch     = errors.New("switch must start with '+' or '-'")
	ErrUnknownConfig     = errors.New("unknown configuration switch")
	ErrMissingModel      = errors.New("model is not set and no previous model is recorded")
)

var parseErrors = []error{
	ErrUnknownStage,
	ErrUnknownConfigKey,
	ErrEmptyConfigValue,
	ErrUnknownModel,
	ErrInvalidDateFormat,
	ErrInvalidSwitch,
	ErrUnknownConfig,
	ErrMissingModel,
}

// IsParseError reports whether err is one of the parser's validation
// failures, for which the caller should print usage and exit 1.
func IsParseError(err error) bool {
	for _, sentinel := range parseErrors {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
