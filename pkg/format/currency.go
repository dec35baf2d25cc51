// Package format renders won amounts for human-readable output.
package format

import (
	"strconv"
	"strings"
)

// Won returns an amount with the won sign and thousands separators (e.g., "-₩1,234").
func Won(amount int64) string {
	if amount < 0 {
		return "-₩" + groupDigits(magnitude(amount))
	}
	return "₩" + groupDigits(magnitude(amount))
}

// magnitude returns the decimal digits of |amount|, including for the minimum int64.
func magnitude(amount int64) string {
	digits := strconv.FormatInt(amount, 10)
	return strings.TrimPrefix(digits, "-")
}

func groupDigits(intPart string) string {
	if len(intPart) <= 3 {
		return intPart
	}
	var builder strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			builder.WriteByte(',')
		}
		builder.WriteRune(digit)
	}
	return builder.String()
}
