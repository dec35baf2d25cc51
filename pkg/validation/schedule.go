package validation

import (
	"fmt"
	"sort"

	"github.com/iwvelando/installment-adjust/pkg/interest"
)

// ValidatePayCodes checks that a schedule's pay codes are unique and dense
// from 1. The engine tolerates both problems, so they are warnings.
func ValidatePayCodes(contractID string, codes []int) []string {
	var warnings []string

	seen := make(map[int]bool, len(codes))
	unique := make([]int, 0, len(codes))
	for _, code := range codes {
		if seen[code] {
			warnings = append(warnings, fmt.Sprintf("Contract '%s' repeats pay code %d", contractID, code))
			continue
		}
		seen[code] = true
		unique = append(unique, code)
	}

	sort.Ints(unique)
	for i, code := range unique {
		if code != i+1 {
			warnings = append(warnings, fmt.Sprintf("Contract '%s' pay codes are not dense from 1 (found %d at position %d)",
				contractID, code, i+1))
			break
		}
	}
	return warnings
}

// ValidatePaymentLink returns a warning when a receipt is booked against a
// pay code the schedule does not contain.
func ValidatePaymentLink(contractID, paymentID string, payCode *int, codes []int) string {
	if payCode == nil {
		return ""
	}
	for _, code := range codes {
		if code == *payCode {
			return ""
		}
	}
	return fmt.Sprintf("Contract '%s' payment '%s' is linked to unknown pay code %d", contractID, paymentID, *payCode)
}

// ValidateRateTable returns a warning when a bracket table is malformed.
func ValidateRateTable(name string, table interest.Table) string {
	if err := table.Validate(); err != nil {
		return fmt.Sprintf("Rate table '%s' is invalid: %v", name, err)
	}
	return ""
}
