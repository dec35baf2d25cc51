package schedule

import (
	"sort"
	"time"

	"github.com/iwvelando/installment-adjust/pkg/datetime"
)

// ResolveDueDate returns the legal due date of an installment.
//
// The first installment is due on the reference date. Later installments use
// the reference date plus their own day offset, then the override due date,
// then the fixed due date. From the third installment on, the date is never
// earlier than the reference date plus the offsets of all prior installments.
func ResolveDueDate(ref time.Time, inst Installment, all []Installment) OptionalDate {
	ref = datetime.Truncate(ref)
	if inst.PayCode <= 1 {
		return Some(ref)
	}

	var candidate OptionalDate
	switch {
	case inst.DaysFromPrevious != nil:
		candidate = Some(datetime.AddDays(ref, *inst.DaysFromPrevious))
	case inst.OverrideDueDate.Valid:
		candidate = inst.OverrideDueDate
	case inst.FixedDueDate.Valid:
		candidate = inst.FixedDueDate
	default:
		return None()
	}

	if inst.PayCode < 3 {
		return candidate
	}

	offset := 0
	for _, prior := range all {
		if prior.PayCode < inst.PayCode && prior.DaysFromPrevious != nil {
			offset += *prior.DaysFromPrevious
		}
	}
	floor := datetime.AddDays(ref, offset)
	return Some(datetime.Later(candidate.Time, floor))
}

// ResolveAll resolves every installment of a schedule keyed by pay code.
func ResolveAll(ref time.Time, all []Installment) map[int]OptionalDate {
	resolved := make(map[int]OptionalDate, len(all))
	for _, inst := range all {
		resolved[inst.PayCode] = ResolveDueDate(ref, inst, all)
	}
	return resolved
}

// SortedInstallments returns a copy of the schedule ordered by pay code.
func SortedInstallments(all []Installment) []Installment {
	sorted := make([]Installment, len(all))
	copy(sorted, all)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PayCode < sorted[j].PayCode
	})
	return sorted
}

// SortedPayments returns a copy of the payments ordered by date, keeping the
// recorded order for receipts on the same date. The second return value
// reports whether the input was out of order.
func SortedPayments(payments []Payment) ([]Payment, bool) {
	sorted := make([]Payment, len(payments))
	copy(sorted, payments)
	reordered := false
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Date.Before(sorted[i-1].Date) {
			reordered = true
			break
		}
	}
	if reordered {
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Date.Before(sorted[j].Date)
		})
	}
	return sorted, reordered
}
