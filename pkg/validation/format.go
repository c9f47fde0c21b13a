package validation

import (
	"fmt"

	"github.com/iwvelando/credit-calculator/pkg/constants"
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

// ValidateScheduleMethod checks if the schedule method is supported.
func ValidateScheduleMethod(method string) error {
	if method != constants.MethodDayCount && method != constants.MethodClosedForm {
		return fmt.Errorf("expected schedule method of %s or %s, got %s",
			constants.MethodDayCount, constants.MethodClosedForm, method)
	}
	return nil
}
