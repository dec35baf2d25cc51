package config

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/installment-adjust/pkg/adjustment"
	"github.com/iwvelando/installment-adjust/pkg/constants"
	"github.com/iwvelando/installment-adjust/pkg/datetime"
	"github.com/iwvelando/installment-adjust/pkg/interest"
	"github.com/iwvelando/installment-adjust/pkg/schedule"
	"github.com/iwvelando/installment-adjust/pkg/validation"
)

// Snapshot is one contract converted into engine records.
type Snapshot struct {
	Contract     schedule.Contract
	Installments []schedule.Installment
	Payments     []schedule.Payment
}

// AsOfDate parses the configured as-of date. It is required: the engine
// never reads the wall clock.
func (c *Configuration) AsOfDate() (time.Time, error) {
	asOf, ok, err := datetime.ParseDate(c.AsOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("asOf: %w", err)
	}
	if !ok {
		return time.Time{}, fmt.Errorf("asOf is required")
	}
	return asOf, nil
}

// EngineOptions converts the engine section and rate tables into adjustment
// options, filling defaults for unset values.
func (c *Configuration) EngineOptions() (adjustment.Options, error) {
	opts := adjustment.DefaultOptions()
	if c.Engine.Mode != "" {
		opts.Mode = c.Engine.Mode
	}
	if err := validation.ValidateMode(opts.Mode); err != nil {
		return adjustment.Options{}, err
	}
	if c.Engine.GraceDays != nil {
		opts.GraceDays = *c.Engine.GraceDays
	}
	if opts.GraceDays < 0 {
		return adjustment.Options{}, fmt.Errorf("engine graceDays must not be negative, got %d", opts.GraceDays)
	}

	opts.Rules = adjustment.Rules{
		Penalty:        toTable(c.RateTables.Normal),
		SpecialPenalty: toTable(c.RateTables.Special),
		Discount:       toTable(c.RateTables.Discount),
	}
	for _, named := range []struct {
		name  string
		table interest.Table
	}{
		{"normal", opts.Rules.Penalty},
		{"special", opts.Rules.SpecialPenalty},
		{"discount", opts.Rules.Discount},
	} {
		if err := named.table.Validate(); err != nil {
			return adjustment.Options{}, fmt.Errorf("rate table %s: %w", named.name, err)
		}
	}
	return opts, nil
}

// Workers returns the configured batch concurrency.
func (c *Configuration) Workers() int {
	if c.Engine.Workers <= 0 {
		return constants.DefaultWorkers
	}
	return c.Engine.Workers
}

// Snapshots converts every configured contract.
func (c *Configuration) Snapshots() ([]Snapshot, error) {
	snapshots := make([]Snapshot, 0, len(c.Contracts))
	for _, contract := range c.Contracts {
		snapshot, err := contract.ToSnapshot()
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}

// ToSnapshot converts a configured contract into engine records. Only
// malformed dates are errors; data problems such as zero amounts are left
// for the engine to diagnose.
func (contract Contract) ToSnapshot() (Snapshot, error) {
	contractDate, ok, err := datetime.ParseDate(contract.ContractDate)
	if err != nil {
		return Snapshot{}, fmt.Errorf("contract %s contractDate: %w", contract.ID, err)
	}
	if !ok {
		return Snapshot{}, fmt.Errorf("contract %s: contractDate is required", contract.ID)
	}
	supplementary, err := optionalDate(contract.SupplementaryDate)
	if err != nil {
		return Snapshot{}, fmt.Errorf("contract %s supplementaryDate: %w", contract.ID, err)
	}

	snapshot := Snapshot{
		Contract: schedule.Contract{
			ID:                contract.ID,
			ContractDate:      contractDate,
			SupplementaryDate: supplementary,
			Price: schedule.Price{
				Land:     contract.Price.Land,
				Building: contract.Price.Building,
				VAT:      contract.Price.VAT,
			},
			UseSpecialRules: contract.UseSpecialRules,
		},
	}

	for _, inst := range contract.Installments {
		converted, err := inst.toSchedule()
		if err != nil {
			return Snapshot{}, fmt.Errorf("contract %s installment %d: %w", contract.ID, inst.PayCode, err)
		}
		snapshot.Installments = append(snapshot.Installments, converted)
	}

	for i, payment := range contract.Payments {
		date, ok, err := datetime.ParseDate(payment.Date)
		if err != nil {
			return Snapshot{}, fmt.Errorf("contract %s payment %s: %w", contract.ID, payment.ID, err)
		}
		if !ok {
			return Snapshot{}, fmt.Errorf("contract %s payment %s: date is required", contract.ID, payment.ID)
		}
		converted := schedule.Payment{ID: payment.ID, Amount: payment.Amount, Date: date}
		if converted.ID == "" {
			converted.ID = PaymentID(contract.ID, i, payment)
		}
		if payment.PayCode != nil {
			converted.PayCode = schedule.PayCode(*payment.PayCode)
		}
		snapshot.Payments = append(snapshot.Payments, converted)
	}

	return snapshot, nil
}

// PaymentID derives a stable identifier for a receipt configured without
// one, so diagnostics can point at it across runs.
func PaymentID(contractID string, index int, payment Payment) string {
	name := fmt.Sprintf("%s/%d/%s/%d", contractID, index, payment.Date, payment.Amount)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

func (inst Installment) toSchedule() (schedule.Installment, error) {
	converted := schedule.Installment{
		PayCode:         inst.PayCode,
		Category:        inst.Category,
		Amount:          inst.Amount,
		Ratio:           inst.Ratio,
		DiscountEnabled: inst.Discount.Enabled,
		DiscountRate:    inst.Discount.Rate,
		PenaltyEnabled:  inst.Penalty.Enabled,
		PenaltyRate:     inst.Penalty.Rate,
	}
	if inst.DaysFromPrevious != nil {
		converted.DaysFromPrevious = schedule.Days(*inst.DaysFromPrevious)
	}

	var err error
	if converted.FixedDueDate, err = optionalDate(inst.DueDate); err != nil {
		return schedule.Installment{}, fmt.Errorf("dueDate: %w", err)
	}
	if converted.OverrideDueDate, err = optionalDate(inst.OverrideDueDate); err != nil {
		return schedule.Installment{}, fmt.Errorf("overrideDueDate: %w", err)
	}
	if converted.DiscountReferenceDate, err = optionalDate(inst.Discount.ReferenceDate); err != nil {
		return schedule.Installment{}, fmt.Errorf("discount.referenceDate: %w", err)
	}
	if converted.PenaltyOverrideDueDate, err = optionalDate(inst.Penalty.OverrideDueDate); err != nil {
		return schedule.Installment{}, fmt.Errorf("penalty.overrideDueDate: %w", err)
	}
	return converted, nil
}

func optionalDate(value string) (schedule.OptionalDate, error) {
	t, ok, err := datetime.ParseDate(value)
	if err != nil {
		return schedule.OptionalDate{}, err
	}
	if !ok {
		return schedule.None(), nil
	}
	return schedule.Some(t), nil
}

func toTable(brackets []Bracket) interest.Table {
	if len(brackets) == 0 {
		return nil
	}
	table := make(interest.Table, 0, len(brackets))
	for _, b := range brackets {
		converted := interest.Bracket{Rate: b.Rate}
		if b.Start != nil {
			converted.Start = interest.Bound(*b.Start)
		}
		if b.End != nil {
			converted.End = interest.Bound(*b.End)
		}
		table = append(table, converted)
	}
	return table
}

func (c *Configuration) validateEngine() []string {
	var warnings []string
	if c.Engine.Mode != "" {
		if err := validation.ValidateMode(c.Engine.Mode); err != nil {
			warnings = append(warnings, fmt.Sprintf("Engine configuration is invalid: %v", err))
		}
	}
	if c.Engine.GraceDays != nil && *c.Engine.GraceDays < 0 {
		warnings = append(warnings, fmt.Sprintf("Engine graceDays is negative (%d)", *c.Engine.GraceDays))
	}
	if c.AsOf == "" {
		warnings = append(warnings, "No asOf date configured; one must be given on the command line")
	}
	return warnings
}

// validate reports schedule shapes the engine tolerates but an operator
// should look at.
func (contract Contract) validate() []string {
	codes := make([]int, 0, len(contract.Installments))
	for _, inst := range contract.Installments {
		codes = append(codes, inst.PayCode)
	}
	warnings := validation.ValidatePayCodes(contract.ID, codes)

	for _, payment := range contract.Payments {
		if warning := validation.ValidatePaymentLink(contract.ID, payment.ID, payment.PayCode, codes); warning != "" {
			warnings = append(warnings, warning)
		}
	}

	if _, err := contract.ToSnapshot(); err != nil {
		warnings = append(warnings, fmt.Sprintf("Contract '%s' cannot be converted: %v", contract.ID, err))
	}
	return warnings
}
