// Package schedule defines the contract, installment and payment records the
// adjustment engine consumes, and resolves installment due dates.
package schedule

import (
	"time"

	"github.com/iwvelando/installment-adjust/pkg/datetime"
	"github.com/iwvelando/installment-adjust/pkg/mathutil"
)

// OptionalDate is a calendar date that may be absent.
type OptionalDate struct {
	Time  time.Time
	Valid bool
}

// Some wraps a present date.
func Some(t time.Time) OptionalDate {
	return OptionalDate{Time: datetime.Truncate(t), Valid: true}
}

// None is the absent date.
func None() OptionalDate {
	return OptionalDate{}
}

// Or returns d when present, otherwise fallback.
func (d OptionalDate) Or(fallback OptionalDate) OptionalDate {
	if d.Valid {
		return d
	}
	return fallback
}

// String renders the date, or "undetermined" when absent.
func (d OptionalDate) String() string {
	if !d.Valid {
		return "undetermined"
	}
	return d.Time.Format(datetime.DateLayout)
}

// Price is the contract total price breakdown.
type Price struct {
	Land     int64
	Building int64
	VAT      int64
}

// Total returns the sum of the breakdown.
func (p Price) Total() int64 {
	return p.Land + p.Building + p.VAT
}

// Contract carries the contract-level metadata the engine needs.
type Contract struct {
	ID                string
	ContractDate      time.Time
	SupplementaryDate OptionalDate
	Price             Price
	UseSpecialRules   bool
}

// ReferenceDate is the date schedules are computed from. A supplementary
// contract date replaces the nominal contract date.
func (c Contract) ReferenceDate() time.Time {
	if c.SupplementaryDate.Valid {
		return c.SupplementaryDate.Time
	}
	return datetime.Truncate(c.ContractDate)
}

// Installment is one scheduled payment milestone. PayCode is the unique
// ordering key within a schedule.
type Installment struct {
	PayCode  int
	Category string

	// Amount is the promised amount in won; when zero, Ratio of the contract
	// total is used instead.
	Amount int64
	Ratio  float64

	FixedDueDate     OptionalDate
	DaysFromPrevious *int
	OverrideDueDate  OptionalDate

	DiscountEnabled       bool
	DiscountRate          float64 // annual percent
	DiscountReferenceDate OptionalDate

	PenaltyEnabled         bool
	PenaltyRate            float64 // annual percent
	PenaltyOverrideDueDate OptionalDate
}

// Promised returns the installment's promised amount for the given contract.
func (i Installment) Promised(c Contract) int64 {
	if i.Amount != 0 {
		return i.Amount
	}
	if i.Ratio > 0 {
		return mathutil.ApplyRatio(c.Price.Total(), i.Ratio)
	}
	return 0
}

// Payment is one cash receipt. PayCode links it to an installment when the
// receipt was booked against one.
type Payment struct {
	ID      string
	Amount  int64
	Date    time.Time
	PayCode *int
}

// Linked reports whether the payment is linked to the given pay code.
func (p Payment) Linked(payCode int) bool {
	return p.PayCode != nil && *p.PayCode == payCode
}

// Days returns a pointer to n, for building DaysFromPrevious literally.
func Days(n int) *int {
	return &n
}

// PayCode returns a pointer to code, for linking payments literally.
func PayCode(code int) *int {
	return &code
}

// MarshalJSON renders the date as "YYYY-MM-DD", or null when absent.
func (d OptionalDate) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Time.Format(datetime.DateLayout) + `"`), nil
}
