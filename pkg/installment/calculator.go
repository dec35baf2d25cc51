package installment

import (
	"sort"
	"time"

	"github.com/iwvelando/installment-adjust/pkg/datetime"
	"github.com/iwvelando/installment-adjust/pkg/interest"
	"github.com/iwvelando/installment-adjust/pkg/schedule"
	"go.uber.org/zap"
)

// Skip explains why no discount or penalty was computed.
type Skip string

const (
	SkipNone          Skip = ""
	SkipDisabled      Skip = "disabled"
	SkipZeroRate      Skip = "zero-rate"
	SkipNotFullyPaid  Skip = "not-fully-paid"
	SkipNoReference   Skip = "no-reference-date"
	SkipNotEarly      Skip = "not-early"
	SkipNotApplicable Skip = "not-applicable"
	SkipNoBracket     Skip = "no-bracket"
)

// Rules holds the rate tables used for adjustments. An empty table means each
// installment's own annual rate is applied as a flat rate.
type Rules struct {
	Discount interest.Table
	Penalty  interest.Table
}

// DiscountTable returns the table used to discount the given installment.
func (r Rules) DiscountTable(inst schedule.Installment) interest.Table {
	if len(r.Discount) > 0 {
		return r.Discount
	}
	return interest.Flat(inst.DiscountRate)
}

// PenaltyTable returns the table used to penalise the given installment.
func (r Rules) PenaltyTable(inst schedule.Installment) interest.Table {
	if len(r.Penalty) > 0 {
		return r.Penalty
	}
	return interest.Flat(inst.PenaltyRate)
}

// Discount is the prepayment discount of one installment.
type Discount struct {
	Amount        int64
	Days          int
	ReferenceDate schedule.OptionalDate
	Skip          Skip
}

// PenaltyLine is the penalty for the receipts of one installment landing on
// the same date.
type PenaltyLine struct {
	Date     time.Time
	Amount   int64
	Receipts int
	LateDays int
	Penalty  int64
}

// Penalty is the late-payment penalty of one installment.
type Penalty struct {
	Amount  int64
	DueDate schedule.OptionalDate
	Lines   []PenaltyLine
	Skip    Skip
}

// MaxLateDays returns the largest lateness among the penalised receipts.
func (p Penalty) MaxLateDays() int {
	days := 0
	for _, line := range p.Lines {
		if line.LateDays > days {
			days = line.LateDays
		}
	}
	return days
}

// Calculator computes discounts and penalties for single installments.
type Calculator struct {
	logger *zap.Logger
	rules  Rules
}

// NewCalculator creates a calculator with the given rate tables.
// If logger is nil, it will use a no-op logger to prevent panics.
func NewCalculator(logger *zap.Logger, rules Rules) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{logger: logger, rules: rules}
}

// DiscountReferenceDate returns the date a prepayment is measured against.
func DiscountReferenceDate(inst schedule.Installment, resolvedDue schedule.OptionalDate) schedule.OptionalDate {
	return inst.DiscountReferenceDate.Or(inst.FixedDueDate).Or(resolvedDue)
}

// PenaltyDueDate returns the date lateness is measured against.
func PenaltyDueDate(inst schedule.Installment, resolvedDue schedule.OptionalDate) schedule.OptionalDate {
	return inst.PenaltyOverrideDueDate.Or(inst.FixedDueDate).Or(resolvedDue)
}

// Discount computes the prepayment discount for an installment paid off
// strictly before its reference date.
func (c *Calculator) Discount(inst schedule.Installment, status Status, resolvedDue schedule.OptionalDate) Discount {
	ref := DiscountReferenceDate(inst, resolvedDue)
	result := Discount{ReferenceDate: ref}

	switch {
	case status.NotApplicable:
		result.Skip = SkipNotApplicable
	case !inst.DiscountEnabled:
		result.Skip = SkipDisabled
	case inst.DiscountRate <= 0:
		result.Skip = SkipZeroRate
	case !status.FullyPaid():
		result.Skip = SkipNotFullyPaid
	case !ref.Valid:
		result.Skip = SkipNoReference
	case !status.FullPaymentDate.Time.Before(ref.Time):
		result.Skip = SkipNotEarly
	}
	if result.Skip != SkipNone {
		return result
	}

	result.Days = datetime.DaysBetween(status.FullPaymentDate.Time, ref.Time)
	calc := interest.CalculateEarly(status.Promised, result.Days, c.rules.DiscountTable(inst))
	if !calc.Matched() {
		c.logger.Warn("no discount bracket matched",
			zap.String("op", "installment.Discount"),
			zap.Int("pay_code", inst.PayCode),
			zap.Int("days", result.Days),
			zap.String("reason", string(calc.Reason)),
		)
		result.Skip = SkipNoBracket
		return result
	}
	result.Amount = calc.Amount

	c.logger.Debug("prepayment discount",
		zap.String("op", "installment.Discount"),
		zap.Int("pay_code", inst.PayCode),
		zap.Int64("promised", status.Promised),
		zap.Int("days", result.Days),
		zap.Int64("discount", result.Amount),
	)
	return result
}

// Penalties computes the late penalty of each receipt using that receipt's
// own lateness. Receipts on the same date share a lateness and are summed
// before truncation.
func (c *Calculator) Penalties(inst schedule.Installment, payments []schedule.Payment, resolvedDue schedule.OptionalDate) Penalty {
	due := PenaltyDueDate(inst, resolvedDue)
	result := Penalty{DueDate: due}

	switch {
	case !inst.PenaltyEnabled:
		result.Skip = SkipDisabled
		return result
	case inst.PenaltyRate <= 0:
		result.Skip = SkipZeroRate
		return result
	case !due.Valid:
		result.Skip = SkipNoReference
		return result
	}

	byDate := make(map[time.Time]*PenaltyLine)
	for _, p := range payments {
		if p.Amount <= 0 {
			continue
		}
		late := datetime.DaysBetween(due.Time, p.Date)
		if late <= 0 {
			continue
		}
		day := datetime.Truncate(p.Date)
		line, ok := byDate[day]
		if !ok {
			line = &PenaltyLine{Date: day, LateDays: late}
			byDate[day] = line
		}
		line.Amount += p.Amount
		line.Receipts++
	}

	table := c.rules.PenaltyTable(inst)
	for _, line := range byDate {
		calc := interest.Calculate(line.Amount, line.LateDays, table)
		if !calc.Matched() {
			c.logger.Warn("no penalty bracket matched",
				zap.String("op", "installment.Penalties"),
				zap.Int("pay_code", inst.PayCode),
				zap.Int("late_days", line.LateDays),
				zap.String("reason", string(calc.Reason)),
			)
			result.Skip = SkipNoBracket
			continue
		}
		line.Penalty = calc.Amount
		result.Amount += calc.Amount
		result.Lines = append(result.Lines, *line)
	}

	sort.Slice(result.Lines, func(i, j int) bool {
		return result.Lines[i].Date.Before(result.Lines[j].Date)
	})
	return result
}

// Accrued computes the penalty running on an unpaid remainder up to asOf. It
// returns false when nothing is overdue.
func (c *Calculator) Accrued(inst schedule.Installment, remaining int64, resolvedDue schedule.OptionalDate, asOf time.Time) (PenaltyLine, bool) {
	due := PenaltyDueDate(inst, resolvedDue)
	if !inst.PenaltyEnabled || inst.PenaltyRate <= 0 || !due.Valid || remaining <= 0 {
		return PenaltyLine{}, false
	}
	late := datetime.DaysBetween(due.Time, asOf)
	if late <= 0 {
		return PenaltyLine{}, false
	}

	calc := interest.Calculate(remaining, late, c.rules.PenaltyTable(inst))
	if !calc.Matched() {
		c.logger.Warn("no penalty bracket matched for outstanding amount",
			zap.String("op", "installment.Accrued"),
			zap.Int("pay_code", inst.PayCode),
			zap.Int("late_days", late),
		)
		return PenaltyLine{}, false
	}
	return PenaltyLine{
		Date:     datetime.Truncate(asOf),
		Amount:   remaining,
		LateDays: late,
		Penalty:  calc.Amount,
	}, true
}
