// Package validation checks user-facing settings and payment plans before
// they reach the engines.
package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/iwvelando/offplan-forecast/pkg/constants"
)

// OutputFormats are the report formats the CLI can write.
var OutputFormats = []string{constants.OutputFormatPretty, constants.OutputFormatCSV}

// ValidateOutputFormat checks that format is exactly one of OutputFormats.
func ValidateOutputFormat(format string) error {
	if !slices.Contains(OutputFormats, format) {
		return fmt.Errorf("expected output format of %s, got %q", strings.Join(OutputFormats, " or "), format)
	}
	return nil
}

// ParseOutputFormat normalizes case and surrounding space before
// validating. An empty value selects the pretty report.
func ParseOutputFormat(value string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(value))
	if format == "" {
		return constants.OutputFormatPretty, nil
	}
	if err := ValidateOutputFormat(format); err != nil {
		return "", err
	}
	return format, nil
}
