// Package interest provides the tiered annual-rate calculator used for both
// prepayment discounts and late-payment penalties.
package interest

import (
	"fmt"
	"sort"

	"github.com/iwvelando/installment-adjust/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Bracket is one day-count range of a rate table. A nil Start covers the
// "at or before due date" case; a nil End is the open tail.
type Bracket struct {
	Start *int
	End   *int
	Rate  float64 // annual percent
}

// Table is an ordered list of brackets.
type Table []Bracket

// Reason explains why a calculation produced no amount.
type Reason string

const (
	// ReasonNone means a bracket matched and the amount is authoritative.
	ReasonNone Reason = ""
	// ReasonNoBracket means no bracket in the table covered the day-count.
	ReasonNoBracket Reason = "no-bracket"
	// ReasonEmptyTable means the table had no brackets at all.
	ReasonEmptyTable Reason = "empty-table"
)

// Segment records how many days of a calculation fell into one bracket.
type Segment struct {
	Days int
	Rate float64
}

// Result is the outcome of a tiered calculation.
type Result struct {
	Amount   int64
	Reason   Reason
	Segments []Segment
}

// Matched reports whether any bracket applied.
func (r Result) Matched() bool {
	return r.Reason == ReasonNone
}

// Bound returns a pointer to n for building brackets literally.
func Bound(n int) *int {
	return &n
}

// Flat returns a single unbounded bracket at the given annual rate.
func Flat(rate float64) Table {
	return Table{{Rate: rate}}
}

// IsFlat reports whether the table is a single unbounded bracket.
func (t Table) IsFlat() bool {
	return len(t) == 1 && t[0].Start == nil && t[0].End == nil
}

// Calculate evaluates principal over days against the table the way tax
// brackets are evaluated: each bracket contributes its own days at its own rate.
// The amount is truncated toward zero to whole won.
func Calculate(principal int64, days int, table Table) Result {
	if len(table) == 0 {
		return Result{Reason: ReasonEmptyTable}
	}

	if table.IsFlat() {
		return flatResult(principal, days, table[0].Rate)
	}

	// A start-less bracket only covers non-positive lateness.
	if days <= 0 {
		for _, b := range table {
			if b.Start == nil && b.End != nil && days <= *b.End {
				return flatResult(principal, days, b.Rate)
			}
		}
		if days == 0 {
			return Result{}
		}
		return Result{Reason: ReasonNoBracket}
	}

	ranged := sortedRanges(table)
	if len(ranged) == 0 {
		return Result{Reason: ReasonNoBracket}
	}

	total := decimal.Zero
	consumed := 0
	var segments []Segment
	for _, b := range ranged {
		if start := *b.Start - 1; start > consumed {
			if days <= start {
				break
			}
			consumed = start
		}
		if b.End == nil || days <= *b.End {
			span := days - consumed
			total = total.Add(mathutil.DailyInterest(principal, span, b.Rate))
			segments = append(segments, Segment{Days: span, Rate: b.Rate})
			consumed = days
			break
		}
		span := *b.End - consumed
		if span > 0 {
			total = total.Add(mathutil.DailyInterest(principal, span, b.Rate))
			segments = append(segments, Segment{Days: span, Rate: b.Rate})
		}
		consumed = *b.End
	}

	if len(segments) == 0 {
		return Result{Reason: ReasonNoBracket}
	}
	return Result{Amount: mathutil.Truncate(total), Segments: segments}
}

// CalculateEarly prices principal paid daysEarly days ahead of its due date.
// A table with a start-less bracket is evaluated at the negated day-count so
// that bracket prices the prepayment; any other table is evaluated as is.
// Amount and segment days are returned as magnitudes.
func CalculateEarly(principal int64, daysEarly int, table Table) Result {
	if !table.hasStartless() {
		return Calculate(principal, daysEarly, table)
	}
	result := Calculate(principal, -daysEarly, table)
	result.Amount = mathutil.Abs(result.Amount)
	for i := range result.Segments {
		result.Segments[i].Days = int(mathutil.Abs(int64(result.Segments[i].Days)))
	}
	return result
}

func (t Table) hasStartless() bool {
	for _, b := range t {
		if b.Start == nil && b.End != nil {
			return true
		}
	}
	return false
}

func flatResult(principal int64, days int, rate float64) Result {
	return Result{
		Amount:   mathutil.Truncate(mathutil.DailyInterest(principal, days, rate)),
		Segments: []Segment{{Days: days, Rate: rate}},
	}
}

// sortedRanges returns the brackets that have a start bound, ascending.
func sortedRanges(table Table) []Bracket {
	var ranged []Bracket
	for _, b := range table {
		if b.Start != nil {
			ranged = append(ranged, b)
		}
	}
	sort.SliceStable(ranged, func(i, j int) bool {
		return *ranged[i].Start < *ranged[j].Start
	})
	return ranged
}

// Validate checks the structural invariants of a table.
func (t Table) Validate() error {
	openStart, openEnd := 0, 0
	for i, b := range t {
		if b.Rate < 0 {
			return fmt.Errorf("bracket %d: negative rate %.4f", i, b.Rate)
		}
		if b.Start == nil {
			openStart++
		}
		if b.End == nil {
			openEnd++
		}
		if b.Start == nil && b.End == nil && len(t) > 1 {
			return fmt.Errorf("bracket %d: unbounded bracket cannot be combined with other brackets", i)
		}
		if b.Start != nil && b.End != nil && *b.Start > *b.End {
			return fmt.Errorf("bracket %d: start %d is after end %d", i, *b.Start, *b.End)
		}
	}
	if openStart > 1 {
		return fmt.Errorf("table has %d brackets without a start bound, at most one is allowed", openStart)
	}
	if openEnd > 1 {
		return fmt.Errorf("table has %d brackets without an end bound, at most one is allowed", openEnd)
	}

	ranged := sortedRanges(t)
	for i := 1; i < len(ranged); i++ {
		prev, cur := ranged[i-1], ranged[i]
		if prev.End == nil {
			return fmt.Errorf("open-ended bracket starting at day %d is followed by bracket starting at day %d",
				*prev.Start, *cur.Start)
		}
		if *cur.Start <= *prev.End {
			return fmt.Errorf("bracket starting at day %d overlaps bracket ending at day %d", *cur.Start, *prev.End)
		}
	}
	return nil
}

// String renders the table compactly for logs and diagnostics.
func (t Table) String() string {
	out := "["
	for i, b := range t {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("(%s,%s]@%.2f%%", bound(b.Start), bound(b.End), b.Rate)
	}
	return out + "]"
}

func bound(n *int) string {
	if n == nil {
		return "_"
	}
	return fmt.Sprintf("%d", *n)
}
