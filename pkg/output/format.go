// Package output provides utilities for formatting and displaying adjustment results.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/installment-adjust/pkg/adjustment"
	"github.com/iwvelando/installment-adjust/pkg/datetime"
	"github.com/iwvelando/installment-adjust/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, results []adjustment.Result) {
	p := message.NewPrinter(language.English)
	for n, result := range results {
		fmt.Fprintf(w, "--- Adjustments for contract %s as of %s (%s) ---\n",
			result.ContractID, datetime.Format(result.AsOf), result.Mode)
		fmt.Fprintf(w, "Code | Category | Due date   | Promised | Paid | Status | Discount | Penalty\n")
		fmt.Fprintf(w, "____ | ________ | __________ | ________ | ____ | ______ | ________ | _______\n")
		for _, inst := range result.Installments {
			_, _ = p.Fprintf(w, "%d | %s | %s | ₩%d | ₩%d | %s | ₩%d (%d days) | ₩%d (%d days)\n",
				inst.PayCode, orDash(inst.Category), inst.DueDate, inst.Promised, inst.Paid,
				inst.Status, inst.Discount, inst.DiscountDays, inst.Penalty, inst.LateDays)
		}

		totals := result.Totals
		_, _ = p.Fprintf(w, "Total promised ₩%d, paid ₩%d, remaining ₩%d\n",
			totals.Promised, totals.Paid, totals.Remaining)
		// Net is signed, Won puts the minus ahead of the currency sign.
		_, _ = p.Fprintf(w, "Total discount ₩%d, penalty ₩%d, net %s\n",
			totals.Discount, totals.Penalty, format.Won(totals.Net))
		_, _ = p.Fprintf(w, "Installments %d: %d paid, %d overdue, %d undetermined; received ₩%d, surplus ₩%d\n",
			totals.Installments, totals.FullyPaid, totals.Overdue, totals.Undetermined,
			result.Received, result.Surplus)
		for _, diag := range result.Diagnostics {
			fmt.Fprintf(w, "! %s: %s\n", diag.Code, diag.Message)
		}
		if n < len(results)-1 {
			fmt.Fprintf(w, "\n")
		}
	}
}

// CsvFormat outputs one row per installment in comma-separated value format.
func CsvFormat(w io.Writer, results []adjustment.Result) {
	fmt.Fprintf(w, `"contract","payCode","category","dueDate","fullPaymentDate","status","promised","paid","remaining",`+
		`"discountDays","discount","lateDays","penalty"`+"\n")
	for _, result := range results {
		for _, inst := range result.Installments {
			fmt.Fprintf(w, `"%s","%d","%s","%s","%s","%s","%d","%d","%d","%d","%d","%d","%d"`+"\n",
				quote(result.ContractID), inst.PayCode, quote(inst.Category), dateCell(inst.DueDate.Valid, inst.DueDate.String()),
				dateCell(inst.FullPaymentDate.Valid, inst.FullPaymentDate.String()), inst.Status,
				inst.Promised, inst.Paid, inst.Remaining, inst.DiscountDays, inst.Discount, inst.LateDays, inst.Penalty)
		}
	}
}

// JSONFormat outputs the results as an indented JSON array.
func JSONFormat(w io.Writer, results []adjustment.Result) error {
	if results == nil {
		results = []adjustment.Result{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func dateCell(valid bool, s string) string {
	if !valid {
		return ""
	}
	return s
}

// quote escapes embedded quotes for a CSV cell.
func quote(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}
