// Package adjustment composes due-date resolution, receipt allocation and
// interest pricing into per-installment and per-contract adjustment results.
package adjustment

import (
	"time"

	"github.com/iwvelando/installment-adjust/pkg/schedule"
)

// Status is the classification of one installment at the as-of date.
type Status string

const (
	StatusPaid          Status = "paid"
	StatusOverdue       Status = "overdue"
	StatusNotDue        Status = "not-due"
	StatusUndetermined  Status = "undetermined"
	StatusNotApplicable Status = "not-applicable"
)

// Code identifies a diagnostic.
type Code string

const (
	CodeUnresolvedDueDate Code = "unresolved-due-date"
	CodeNoBracket         Code = "no-bracket"
	CodeZeroPromised      Code = "zero-promised"
	CodePaymentsReordered Code = "payments-reordered"
	CodeInvalidPayment    Code = "invalid-payment"
	CodeUnlinkedPayment   Code = "unlinked-payment"
	CodeDeferredPayment   Code = "deferred-payment"
	CodeDuplicatePayCode  Code = "duplicate-pay-code"
	CodeSurplus           Code = "surplus"
)

// Diagnostic is a recoverable data problem surfaced for operator review.
type Diagnostic struct {
	Code      Code   `json:"code"`
	PayCode   int    `json:"payCode,omitempty"`
	PaymentID string `json:"paymentId,omitempty"`
	Message   string `json:"message"`
}

// Segment is one priced slice of an installment: a receipt applied early, on
// time or late, or an unpaid remainder accruing to the as-of date.
type Segment struct {
	Kind     string    `json:"kind"`
	Date     time.Time `json:"date"`
	Amount   int64     `json:"amount"`
	Receipts int       `json:"receipts"`
	Days     int       `json:"days"`
	Interest int64     `json:"interest"`
}

// InstallmentResult is the adjustment of one installment.
type InstallmentResult struct {
	PayCode         int                   `json:"payCode"`
	Category        string                `json:"category,omitempty"`
	Promised        int64                 `json:"promised"`
	Paid            int64                 `json:"paid"`
	Remaining       int64                 `json:"remaining"`
	DueDate         schedule.OptionalDate `json:"dueDate"`
	FullPaymentDate schedule.OptionalDate `json:"fullPaymentDate"`
	Status          Status                `json:"status"`
	Discount        int64                 `json:"discount"`
	Penalty         int64                 `json:"penalty"`
	DiscountDays    int                   `json:"discountDays"`
	LateDays        int                   `json:"lateDays"`
	Segments        []Segment             `json:"segments,omitempty"`
}

// Undetermined reports whether the due date could not be resolved.
func (r InstallmentResult) Undetermined() bool {
	return r.Status == StatusUndetermined
}

// Totals are the contract-level sums.
type Totals struct {
	Promised     int64 `json:"promised"`
	Paid         int64 `json:"paid"`
	Remaining    int64 `json:"remaining"`
	Discount     int64 `json:"discount"`
	Penalty      int64 `json:"penalty"`
	Net          int64 `json:"net"`
	Installments int   `json:"installments"`
	FullyPaid    int   `json:"fullyPaid"`
	Overdue      int   `json:"overdue"`
	Undetermined int   `json:"undetermined"`
}

// Result is the adjustment of one contract.
type Result struct {
	ContractID   string              `json:"contractId"`
	AsOf         time.Time           `json:"asOf"`
	Mode         string              `json:"mode"`
	Installments []InstallmentResult `json:"installments"`
	Totals       Totals              `json:"totals"`
	Received     int64               `json:"received"`
	Surplus      int64               `json:"surplus"`
	PaidThrough  int                 `json:"paidThrough"`
	Diagnostics  []Diagnostic        `json:"diagnostics,omitempty"`
}

// Find returns the result of the given pay code.
func (r Result) Find(payCode int) (InstallmentResult, bool) {
	for _, inst := range r.Installments {
		if inst.PayCode == payCode {
			return inst, true
		}
	}
	return InstallmentResult{}, false
}

// Aggregate rolls installment results up into contract totals.
func Aggregate(installments []InstallmentResult) Totals {
	var totals Totals
	for _, inst := range installments {
		totals.Installments++
		totals.Promised += inst.Promised
		totals.Paid += inst.Paid
		totals.Remaining += inst.Remaining
		totals.Discount += inst.Discount
		totals.Penalty += inst.Penalty
		switch inst.Status {
		case StatusPaid:
			totals.FullyPaid++
		case StatusOverdue:
			totals.Overdue++
		case StatusUndetermined:
			totals.Undetermined++
		}
	}
	totals.Net = totals.Discount - totals.Penalty
	return totals
}

func classify(promised int64, due, fullPayment schedule.OptionalDate, asOf time.Time) Status {
	switch {
	case promised <= 0:
		return StatusNotApplicable
	case fullPayment.Valid:
		return StatusPaid
	case !due.Valid:
		return StatusUndetermined
	case due.Time.Before(asOf):
		return StatusOverdue
	default:
		return StatusNotDue
	}
}
