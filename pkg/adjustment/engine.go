package adjustment

import (
	"fmt"
	"time"

	"github.com/iwvelando/installment-adjust/pkg/constants"
	"github.com/iwvelando/installment-adjust/pkg/datetime"
	"github.com/iwvelando/installment-adjust/pkg/installment"
	"github.com/iwvelando/installment-adjust/pkg/interest"
	"github.com/iwvelando/installment-adjust/pkg/schedule"
	"github.com/iwvelando/installment-adjust/pkg/waterfall"
	"go.uber.org/zap"
)

// Rules are the rate tables of a project. Empty tables fall back to each
// installment's own annual rate.
type Rules struct {
	Penalty        interest.Table
	SpecialPenalty interest.Table
	Discount       interest.Table
}

// PenaltyFor returns the penalty table for a contract. Contracts flagged for
// the special rule set use it when one is configured.
func (r Rules) PenaltyFor(c schedule.Contract) interest.Table {
	if c.UseSpecialRules && len(r.SpecialPenalty) > 0 {
		return r.SpecialPenalty
	}
	return r.Penalty
}

// Options configure an Engine.
type Options struct {
	Mode      string
	GraceDays int
	Rules     Rules
}

// DefaultOptions returns the waterfall mode with the standard grace buffer.
func DefaultOptions() Options {
	return Options{Mode: constants.ModeWaterfall, GraceDays: constants.DefaultGraceDays}
}

// Engine computes contract adjustments. It holds no state between calls and
// is safe for concurrent use.
type Engine struct {
	logger *zap.Logger
	opts   Options
}

// NewEngine creates an engine with the given logger and options.
// If logger is nil, it will use a no-op logger to prevent panics.
func NewEngine(logger *zap.Logger, opts Options) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Mode == "" {
		opts.Mode = constants.ModeWaterfall
	}
	return &Engine{logger: logger, opts: opts}
}

// ResolveDueDate returns the legal due date of one installment.
func ResolveDueDate(contractRef time.Time, inst schedule.Installment, all []schedule.Installment) schedule.OptionalDate {
	return schedule.ResolveDueDate(contractRef, inst, all)
}

// ComputeInstallmentStatus evaluates one installment against its payments.
func ComputeInstallmentStatus(promised int64, payments []schedule.Payment) installment.Status {
	return installment.EvaluateStatus(promised, payments)
}

// ComputeAdjustments reconciles a contract's schedule against its receipts as
// of the given date.
func (e *Engine) ComputeAdjustments(c schedule.Contract, installments []schedule.Installment,
	payments []schedule.Payment, asOf time.Time) Result {
	asOf = datetime.Truncate(asOf)
	result := Result{ContractID: c.ID, AsOf: asOf, Mode: e.opts.Mode}
	diag := &diagnostics{logger: e.logger.With(zap.String("contract", c.ID))}

	sorted := uniqueInstallments(schedule.SortedInstallments(installments), diag)
	ordered, reordered := schedule.SortedPayments(payments)
	if reordered {
		diag.add(Diagnostic{Code: CodePaymentsReordered, Message: "payments were not in date order and have been re-sorted"})
	}
	var accepted []schedule.Payment
	for _, p := range ordered {
		if p.Amount <= 0 {
			diag.add(Diagnostic{Code: CodeInvalidPayment, PaymentID: p.ID,
				Message: fmt.Sprintf("ignoring non-positive payment amount %d", p.Amount)})
			continue
		}
		accepted = append(accepted, p)
	}

	resolved := schedule.ResolveAll(c.ReferenceDate(), sorted)
	for _, inst := range sorted {
		if inst.Promised(c) <= 0 {
			diag.add(Diagnostic{Code: CodeZeroPromised, PayCode: inst.PayCode, Message: "installment has no promised amount"})
			continue
		}
		if !resolved[inst.PayCode].Valid {
			diag.add(Diagnostic{Code: CodeUnresolvedDueDate, PayCode: inst.PayCode,
				Message: "due date cannot be resolved; installment excluded from classification"})
		}
	}

	switch e.opts.Mode {
	case constants.ModePerInstallment:
		result.Installments = e.perInstallment(c, sorted, accepted, resolved, asOf, diag)
		for _, p := range accepted {
			if !p.Date.After(asOf) {
				result.Received += p.Amount
			}
		}
	default:
		outcome := e.waterfall(c, sorted, accepted, resolved, asOf, diag)
		result.Installments = outcome.installments
		result.Received = outcome.received
		result.Surplus = outcome.surplus
		result.PaidThrough = outcome.paidThrough
	}

	result.Totals = Aggregate(result.Installments)
	result.Diagnostics = diag.list

	e.logger.Debug("computed contract adjustments",
		zap.String("op", "adjustment.ComputeAdjustments"),
		zap.String("contract", c.ID),
		zap.String("mode", result.Mode),
		zap.Int64("discount", result.Totals.Discount),
		zap.Int64("penalty", result.Totals.Penalty),
		zap.Int("diagnostics", len(result.Diagnostics)),
	)
	return result
}

type waterfallSummary struct {
	installments []InstallmentResult
	received     int64
	surplus      int64
	paidThrough  int
}

func (e *Engine) waterfall(c schedule.Contract, sorted []schedule.Installment, payments []schedule.Payment,
	resolved map[int]schedule.OptionalDate, asOf time.Time, diag *diagnostics) waterfallSummary {
	rules := installment.Rules{Discount: e.opts.Rules.Discount, Penalty: e.opts.Rules.PenaltyFor(c)}

	in := waterfall.Input{AsOf: asOf, GraceDays: e.opts.GraceDays}
	for _, inst := range sorted {
		in.Obligations = append(in.Obligations, waterfall.Obligation{
			PayCode:         inst.PayCode,
			Category:        inst.Category,
			Amount:          inst.Promised(c),
			DueDate:         resolved[inst.PayCode],
			DiscountEnabled: inst.DiscountEnabled && inst.DiscountRate > 0,
			DiscountTable:   rules.DiscountTable(inst),
			PenaltyEnabled:  inst.PenaltyEnabled && inst.PenaltyRate > 0,
			PenaltyTable:    rules.PenaltyTable(inst),
		})
	}
	for _, p := range payments {
		in.Receipts = append(in.Receipts, waterfall.Receipt{ID: p.ID, Amount: p.Amount, Date: p.Date})
	}

	outcome := waterfall.NewEngine(e.logger).Run(in)

	for _, r := range outcome.Deferred {
		diag.add(Diagnostic{Code: CodeDeferredPayment, PaymentID: r.ID,
			Message: fmt.Sprintf("payment dated %s is after the as-of date", datetime.Format(r.Date))})
	}
	for _, miss := range outcome.Misses {
		diag.add(Diagnostic{Code: CodeNoBracket, PayCode: miss.PayCode,
			Message: fmt.Sprintf("no %s bracket covers %d days (%s); adjustment treated as zero", miss.Kind, miss.Days, miss.Reason)})
	}
	if outcome.Surplus > 0 {
		diag.add(Diagnostic{Code: CodeSurplus,
			Message: fmt.Sprintf("receipts exceed the resolved schedule by %d", outcome.Surplus)})
	}

	summary := waterfallSummary{received: outcome.Received, surplus: outcome.Surplus, paidThrough: outcome.PaidThrough}
	for _, ledger := range outcome.Ledgers {
		r := InstallmentResult{
			PayCode:         ledger.PayCode,
			Category:        ledger.Category,
			Promised:        ledger.Committed,
			Paid:            ledger.Allocated,
			DueDate:         ledger.DueDate,
			FullPaymentDate: ledger.FullPaymentDate,
			Discount:        ledger.Discount,
			Penalty:         ledger.Penalty,
		}
		if r.Promised > 0 {
			r.Remaining = r.Promised - r.Paid
		}
		for _, alloc := range ledger.Allocations {
			r.Segments = append(r.Segments, Segment{
				Kind:     string(alloc.Kind),
				Date:     alloc.ReceiptDate,
				Amount:   alloc.Amount,
				Receipts: len(alloc.ReceiptIDs),
				Days:     alloc.Days,
				Interest: alloc.Interest,
			})
			switch alloc.Kind {
			case waterfall.KindPrepaid:
				if alloc.Credited && alloc.Days > r.DiscountDays {
					r.DiscountDays = alloc.Days
				}
			case waterfall.KindLate, waterfall.KindAccrued:
				if alloc.Days > r.LateDays {
					r.LateDays = alloc.Days
				}
			}
		}
		r.Status = classify(r.Promised, r.DueDate, r.FullPaymentDate, asOf)
		summary.installments = append(summary.installments, r)
	}
	return summary
}

func (e *Engine) perInstallment(c schedule.Contract, sorted []schedule.Installment, payments []schedule.Payment,
	resolved map[int]schedule.OptionalDate, asOf time.Time, diag *diagnostics) []InstallmentResult {
	rules := installment.Rules{Discount: e.opts.Rules.Discount, Penalty: e.opts.Rules.PenaltyFor(c)}
	calc := installment.NewCalculator(e.logger, rules)

	known := make(map[int]bool, len(sorted))
	for _, inst := range sorted {
		known[inst.PayCode] = true
	}
	linked := make(map[int][]schedule.Payment)
	for _, p := range payments {
		if p.Date.After(asOf) {
			diag.add(Diagnostic{Code: CodeDeferredPayment, PaymentID: p.ID,
				Message: fmt.Sprintf("payment dated %s is after the as-of date", datetime.Format(p.Date))})
			continue
		}
		if p.PayCode == nil || !known[*p.PayCode] {
			diag.add(Diagnostic{Code: CodeUnlinkedPayment, PaymentID: p.ID,
				Message: "payment is not linked to an installment of this schedule"})
			continue
		}
		linked[*p.PayCode] = append(linked[*p.PayCode], p)
	}

	var results []InstallmentResult
	for _, inst := range sorted {
		due := resolved[inst.PayCode]
		status := installment.EvaluateStatus(inst.Promised(c), linked[inst.PayCode])
		r := InstallmentResult{
			PayCode:         inst.PayCode,
			Category:        inst.Category,
			Promised:        status.Promised,
			Paid:            status.Paid,
			Remaining:       status.Remaining,
			DueDate:         due,
			FullPaymentDate: status.FullPaymentDate,
		}
		r.Status = classify(r.Promised, due, r.FullPaymentDate, asOf)
		if status.NotApplicable {
			results = append(results, r)
			continue
		}

		discount := calc.Discount(inst, status, due)
		r.Discount = discount.Amount
		r.DiscountDays = discount.Days
		if discount.Skip == installment.SkipNoBracket {
			diag.add(Diagnostic{Code: CodeNoBracket, PayCode: inst.PayCode,
				Message: fmt.Sprintf("no discount bracket covers %d days; adjustment treated as zero", discount.Days)})
		}
		if discount.Amount > 0 {
			r.Segments = append(r.Segments, Segment{
				Kind:     string(waterfall.KindPrepaid),
				Date:     status.FullPaymentDate.Time,
				Amount:   status.Promised,
				Receipts: status.Count,
				Days:     discount.Days,
				Interest: discount.Amount,
			})
		}

		penalty := calc.Penalties(inst, linked[inst.PayCode], due)
		if penalty.Skip == installment.SkipNoBracket {
			diag.add(Diagnostic{Code: CodeNoBracket, PayCode: inst.PayCode,
				Message: "no penalty bracket covers a late receipt; adjustment treated as zero"})
		}
		r.Penalty = penalty.Amount
		r.LateDays = penalty.MaxLateDays()
		for _, line := range penalty.Lines {
			r.Segments = append(r.Segments, Segment{
				Kind:     string(waterfall.KindLate),
				Date:     line.Date,
				Amount:   line.Amount,
				Receipts: line.Receipts,
				Days:     line.LateDays,
				Interest: line.Penalty,
			})
		}
		if line, ok := calc.Accrued(inst, status.Remaining, due, asOf); ok {
			r.Penalty += line.Penalty
			if line.LateDays > r.LateDays {
				r.LateDays = line.LateDays
			}
			r.Segments = append(r.Segments, Segment{
				Kind:     string(waterfall.KindAccrued),
				Date:     line.Date,
				Amount:   line.Amount,
				Days:     line.LateDays,
				Interest: line.Penalty,
			})
		}
		results = append(results, r)
	}
	return results
}

func uniqueInstallments(sorted []schedule.Installment, diag *diagnostics) []schedule.Installment {
	unique := make([]schedule.Installment, 0, len(sorted))
	seen := make(map[int]bool, len(sorted))
	for _, inst := range sorted {
		if seen[inst.PayCode] {
			diag.add(Diagnostic{Code: CodeDuplicatePayCode, PayCode: inst.PayCode,
				Message: "duplicate pay code ignored"})
			continue
		}
		seen[inst.PayCode] = true
		unique = append(unique, inst)
	}
	return unique
}

type diagnostics struct {
	logger *zap.Logger
	list   []Diagnostic
}

func (d *diagnostics) add(item Diagnostic) {
	d.list = append(d.list, item)
	d.logger.Warn(item.Message,
		zap.String("op", "adjustment.ComputeAdjustments"),
		zap.String("code", string(item.Code)),
		zap.Int("pay_code", item.PayCode),
		zap.String("payment_id", item.PaymentID),
	)
}
