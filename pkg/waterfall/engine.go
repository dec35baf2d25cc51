// Package waterfall allocates raw receipts against an ordered schedule in date
// order and prices each allocation as a prepayment discount or a late penalty.
package waterfall

import (
	"sort"
	"time"

	"github.com/iwvelando/installment-adjust/pkg/datetime"
	"github.com/iwvelando/installment-adjust/pkg/interest"
	"github.com/iwvelando/installment-adjust/pkg/mathutil"
	"github.com/iwvelando/installment-adjust/pkg/schedule"
	"go.uber.org/zap"
)

// Obligation is one installment as seen by the waterfall.
type Obligation struct {
	PayCode  int
	Category string
	Amount   int64
	DueDate  schedule.OptionalDate

	DiscountEnabled bool
	DiscountTable   interest.Table
	PenaltyEnabled  bool
	PenaltyTable    interest.Table
}

// Receipt is one raw cash receipt.
type Receipt struct {
	ID     string
	Amount int64
	Date   time.Time
}

// Input is everything one waterfall run needs.
type Input struct {
	Obligations []Obligation
	Receipts    []Receipt
	AsOf        time.Time
	GraceDays   int
}

// Kind classifies an allocation.
type Kind string

const (
	KindPrepaid Kind = "prepaid"
	KindOnTime  Kind = "on-time"
	KindLate    Kind = "late"
	// KindAccrued is an unpaid remainder still overdue at the as-of date. Its
	// amount is owed, not received.
	KindAccrued Kind = "accrued"
)

// Allocation is a slice of money applied to one obligation.
type Allocation struct {
	PayCode     int
	ReceiptIDs  []string
	ReceiptDate time.Time
	Amount      int64
	Kind        Kind
	Days        int
	Interest    int64
	// Credited marks a prepayment that counted toward a discount streak.
	Credited bool
	Reason   interest.Reason
}

// Ledger is the waterfall result of one obligation.
type Ledger struct {
	PayCode         int
	Category        string
	Committed       int64
	Allocated       int64
	Outstanding     int64
	DueDate         schedule.OptionalDate
	FullPaymentDate schedule.OptionalDate
	Discount        int64
	Penalty         int64
	Allocations     []Allocation
	Undetermined    bool
	NotApplicable   bool
}

// Miss records a calculation for which no bracket matched.
type Miss struct {
	PayCode int
	Kind    Kind
	Days    int
	Reason  interest.Reason
}

// Outcome is the result of one waterfall run.
type Outcome struct {
	Ledgers  []Ledger
	Received int64
	Surplus  int64
	// PaidThrough is the highest pay code up to which every obligation is
	// fully covered.
	PaidThrough int
	// Deferred holds receipts dated after the as-of date.
	Deferred []Receipt
	Misses   []Miss
}

type eventKind int

// Due events sort ahead of payments on the same date.
const (
	dueEvent eventKind = iota
	paymentEvent
)

type event struct {
	date  time.Time
	kind  eventKind
	seq   int
	index int
}

type chunk struct {
	receiptID string
	date      time.Time
	amount    int64
}

type openDue struct {
	ledger    int
	remaining int64
}

type state struct {
	cumulativePaid      int64
	cumulativeCommitted int64
	firstInStreak       bool
	previousDue         schedule.OptionalDate
	pool                []chunk
	open                []openDue
}

// Engine runs the waterfall reconciliation.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a waterfall engine with the given logger.
// If logger is nil, it will use a no-op logger to prevent panics.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Run merges due events and receipts into one chronological stream and walks
// it once. Obligations without a resolved due date are left out of the stream
// and marked undetermined.
func (e *Engine) Run(in Input) Outcome {
	grace := in.GraceDays
	if grace < 0 {
		grace = 0
	}

	obligations := make([]Obligation, len(in.Obligations))
	copy(obligations, in.Obligations)
	sort.SliceStable(obligations, func(i, j int) bool {
		return obligations[i].PayCode < obligations[j].PayCode
	})

	out := Outcome{Ledgers: make([]Ledger, len(obligations))}
	var events []event
	for i, o := range obligations {
		out.Ledgers[i] = Ledger{
			PayCode:   o.PayCode,
			Category:  o.Category,
			Committed: o.Amount,
			DueDate:   o.DueDate,
		}
		switch {
		case o.Amount <= 0:
			out.Ledgers[i].NotApplicable = true
		case !o.DueDate.Valid:
			out.Ledgers[i].Undetermined = true
			e.logger.Warn("excluding obligation with undetermined due date",
				zap.String("op", "waterfall.Run"),
				zap.Int("pay_code", o.PayCode),
			)
		default:
			events = append(events, event{date: o.DueDate.Time, kind: dueEvent, seq: i, index: i})
		}
	}

	for i, r := range in.Receipts {
		if r.Amount <= 0 {
			continue
		}
		if !in.AsOf.IsZero() && datetime.Truncate(r.Date).After(datetime.Truncate(in.AsOf)) {
			out.Deferred = append(out.Deferred, r)
			continue
		}
		out.Received += r.Amount
		events = append(events, event{date: datetime.Truncate(r.Date), kind: paymentEvent, seq: i, index: i})
	}

	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.date.Equal(b.date) {
			return a.date.Before(b.date)
		}
		if a.kind != b.kind {
			return a.kind < b.kind
		}
		return a.seq < b.seq
	})

	st := &state{firstInStreak: true}
	for _, ev := range events {
		switch ev.kind {
		case dueEvent:
			e.onDue(st, &out, obligations, ev.index, grace)
		case paymentEvent:
			e.onPayment(st, &out, obligations, in.Receipts[ev.index])
		}
	}

	e.finish(st, &out, obligations, in.AsOf)
	return out
}

func (e *Engine) onDue(st *state, out *Outcome, obligations []Obligation, idx, grace int) {
	o := obligations[idx]
	ledger := &out.Ledgers[idx]
	due := o.DueDate.Time

	st.cumulativeCommitted += o.Amount
	remaining := o.Amount
	credited := false

	for remaining > 0 && len(st.pool) > 0 {
		ch := &st.pool[0]
		take := mathutil.Min(ch.amount, remaining)

		var days int
		genuine := false
		if st.firstInStreak {
			days = datetime.DaysBetween(ch.date, due)
			genuine = days > grace
		} else {
			boundary := ch.date
			if st.previousDue.Valid && st.previousDue.Time.After(boundary) {
				boundary = st.previousDue.Time
			}
			days = datetime.DaysBetween(boundary, due)
			genuine = days > 0
		}

		alloc := Allocation{
			PayCode:     o.PayCode,
			ReceiptIDs:  []string{ch.receiptID},
			ReceiptDate: ch.date,
			Amount:      take,
			Kind:        KindPrepaid,
			Days:        days,
			Credited:    genuine,
		}
		if days <= 0 {
			alloc.Kind = KindOnTime
		}
		if genuine {
			credited = true
		}
		var table interest.Table
		if genuine && o.DiscountEnabled {
			table = o.DiscountTable
		}
		e.record(ledger, alloc, table)

		ledger.Allocated += take
		remaining -= take
		ch.amount -= take
		if remaining == 0 {
			ledger.FullPaymentDate = schedule.Some(ch.date)
		}
		if ch.amount == 0 {
			st.pool = st.pool[1:]
		}
	}

	if credited {
		st.firstInStreak = false
	}
	if remaining > 0 {
		st.open = append(st.open, openDue{ledger: idx, remaining: remaining})
		st.firstInStreak = true
	}
	st.previousDue = o.DueDate

	e.logger.Debug("due event",
		zap.String("op", "waterfall.onDue"),
		zap.Int("pay_code", o.PayCode),
		zap.String("due_date", o.DueDate.String()),
		zap.Int64("cumulative_paid", st.cumulativePaid),
		zap.Int64("cumulative_committed", st.cumulativeCommitted),
		zap.Bool("first_in_streak", st.firstInStreak),
	)
}

func (e *Engine) onPayment(st *state, out *Outcome, obligations []Obligation, r Receipt) {
	st.cumulativePaid += r.Amount
	remaining := r.Amount
	date := datetime.Truncate(r.Date)

	for remaining > 0 && len(st.open) > 0 {
		od := &st.open[0]
		o := obligations[od.ledger]
		ledger := &out.Ledgers[od.ledger]
		take := mathutil.Min(od.remaining, remaining)

		late := datetime.DaysBetween(o.DueDate.Time, date)
		alloc := Allocation{
			PayCode:     o.PayCode,
			ReceiptIDs:  []string{r.ID},
			ReceiptDate: date,
			Amount:      take,
			Kind:        KindOnTime,
		}
		var table interest.Table
		if late > 0 {
			alloc.Kind = KindLate
			alloc.Days = late
			if o.PenaltyEnabled {
				table = o.PenaltyTable
			}
		}
		e.record(ledger, alloc, table)

		ledger.Allocated += take
		remaining -= take
		od.remaining -= take
		if od.remaining == 0 {
			ledger.FullPaymentDate = schedule.Some(date)
			st.open = st.open[1:]
		}
	}

	if remaining > 0 {
		st.pool = append(st.pool, chunk{receiptID: r.ID, date: date, amount: remaining})
	}
}

// finish prices what is still owed at the as-of date and settles the pool.
func (e *Engine) finish(st *state, out *Outcome, obligations []Obligation, asOf time.Time) {
	for _, od := range st.open {
		o := obligations[od.ledger]
		ledger := &out.Ledgers[od.ledger]
		ledger.Outstanding = od.remaining
		if asOf.IsZero() {
			continue
		}
		late := datetime.DaysBetween(o.DueDate.Time, asOf)
		if late <= 0 {
			continue
		}
		var table interest.Table
		if o.PenaltyEnabled {
			table = o.PenaltyTable
		}
		e.record(ledger, Allocation{
			PayCode:     o.PayCode,
			ReceiptDate: datetime.Truncate(asOf),
			Amount:      od.remaining,
			Kind:        KindAccrued,
			Days:        late,
		}, table)
	}

	for _, ch := range st.pool {
		out.Surplus += ch.amount
	}

	for _, ledger := range out.Ledgers {
		if ledger.NotApplicable || ledger.Undetermined {
			continue
		}
		if !ledger.FullPaymentDate.Valid {
			break
		}
		out.PaidThrough = ledger.PayCode
	}

	for _, ledger := range out.Ledgers {
		for _, alloc := range ledger.Allocations {
			if alloc.Reason != interest.ReasonNone {
				out.Misses = append(out.Misses, Miss{PayCode: alloc.PayCode, Kind: alloc.Kind, Days: alloc.Days, Reason: alloc.Reason})
			}
		}
	}
}

// record prices an allocation against table and appends it to the ledger.
// Allocations of the same kind, date and day-count are merged before pricing
// so that splitting a receipt never changes the result.
func (e *Engine) record(ledger *Ledger, alloc Allocation, table interest.Table) {
	if n := len(ledger.Allocations); n > 0 {
		last := &ledger.Allocations[n-1]
		if last.Kind == alloc.Kind && last.Days == alloc.Days && last.Credited == alloc.Credited &&
			last.ReceiptDate.Equal(alloc.ReceiptDate) {
			e.unprice(ledger, last)
			last.Amount += alloc.Amount
			last.ReceiptIDs = append(last.ReceiptIDs, alloc.ReceiptIDs...)
			e.price(ledger, last, table)
			return
		}
	}
	ledger.Allocations = append(ledger.Allocations, alloc)
	e.price(ledger, &ledger.Allocations[len(ledger.Allocations)-1], table)
}

func (e *Engine) price(ledger *Ledger, alloc *Allocation, table interest.Table) {
	alloc.Interest = 0
	alloc.Reason = interest.ReasonNone
	if table == nil || alloc.Days <= 0 {
		return
	}
	var calc interest.Result
	if alloc.Kind == KindPrepaid {
		calc = interest.CalculateEarly(alloc.Amount, alloc.Days, table)
	} else {
		calc = interest.Calculate(alloc.Amount, alloc.Days, table)
	}
	if !calc.Matched() {
		alloc.Reason = calc.Reason
		e.logger.Warn("no bracket matched, treating adjustment as zero",
			zap.String("op", "waterfall.price"),
			zap.Int("pay_code", alloc.PayCode),
			zap.String("kind", string(alloc.Kind)),
			zap.Int("days", alloc.Days),
			zap.String("reason", string(calc.Reason)),
		)
		return
	}
	alloc.Interest = calc.Amount
	if alloc.Kind == KindPrepaid {
		ledger.Discount += calc.Amount
	} else {
		ledger.Penalty += calc.Amount
	}
}

func (e *Engine) unprice(ledger *Ledger, alloc *Allocation) {
	if alloc.Kind == KindPrepaid {
		ledger.Discount -= alloc.Interest
	} else {
		ledger.Penalty -= alloc.Interest
	}
}
