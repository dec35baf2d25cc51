// Package installment evaluates a single installment against the receipts
// linked to it: paid status, prepayment discount and per-receipt late penalty.
package installment

import (
	"github.com/iwvelando/installment-adjust/pkg/mathutil"
	"github.com/iwvelando/installment-adjust/pkg/schedule"
)

// Status is the paid state of one installment.
type Status struct {
	Promised        int64
	Paid            int64
	Remaining       int64
	FullPaymentDate schedule.OptionalDate
	Count           int
	NotApplicable   bool
}

// FullyPaid reports whether the promised amount has been covered.
func (s Status) FullyPaid() bool {
	return !s.NotApplicable && s.FullPaymentDate.Valid
}

// EvaluateStatus sums the payments of one installment in date order. The
// full-payment date is the earliest date on which the cumulative paid amount
// reaches the promised amount.
func EvaluateStatus(promised int64, payments []schedule.Payment) Status {
	sorted, _ := schedule.SortedPayments(payments)

	status := Status{Promised: promised}
	if promised <= 0 {
		status.NotApplicable = true
	}

	for _, p := range sorted {
		if p.Amount <= 0 {
			continue
		}
		status.Paid += p.Amount
		status.Count++
		if !status.NotApplicable && !status.FullPaymentDate.Valid && status.Paid >= promised {
			status.FullPaymentDate = schedule.Some(p.Date)
		}
	}

	if !status.NotApplicable {
		status.Remaining = mathutil.Max(0, promised-status.Paid)
	}
	return status
}
