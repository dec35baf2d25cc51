// Package validation provides common validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/installment-adjust/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	switch format {
	case constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON:
		return nil
	}
	return fmt.Errorf("expected output format of %s, %s or %s, got %s",
		constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON, format)
}

// ValidateMode checks if the engine mode is one of the supported modes.
func ValidateMode(mode string) error {
	if mode != constants.ModeWaterfall && mode != constants.ModePerInstallment {
		return fmt.Errorf("expected engine mode of %s or %s, got %s",
			constants.ModeWaterfall, constants.ModePerInstallment, mode)
	}
	return nil
}
