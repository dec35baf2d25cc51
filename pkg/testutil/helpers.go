// Package testutil provides common utility functions for testing.
package testutil

import (
	"fmt"

	"github.com/iwvelando/installment-adjust/pkg/adjustment"
	"github.com/iwvelando/installment-adjust/pkg/datetime"
	"github.com/iwvelando/installment-adjust/pkg/schedule"
)

// FindContract finds a contract result by ID in the results slice.
// Returns a pointer to the result if found, nil otherwise.
func FindContract(results []adjustment.Result, id string) *adjustment.Result {
	for i := range results {
		if results[i].ContractID == id {
			return &results[i]
		}
	}
	return nil
}

// Snapshot bundles the engine inputs of one contract.
type Snapshot struct {
	Contract     schedule.Contract
	Installments []schedule.Installment
	Payments     []schedule.Payment
}

// LateScenario is a single 65,188,000 won installment due on 2024-06-14 and
// settled late: six 10,000,000 receipts on 2024-09-05 and 5,188,000 on
// 2024-09-27, penalised at a flat 10% a year.
func LateScenario(id string) Snapshot {
	s := Snapshot{
		Contract: schedule.Contract{ID: id, ContractDate: datetime.MustDate("2024-06-14")},
		Installments: []schedule.Installment{{
			PayCode:        1,
			Category:       "down",
			Amount:         65_188_000,
			PenaltyEnabled: true,
			PenaltyRate:    10,
		}},
	}
	for i := 0; i < 6; i++ {
		s.Payments = append(s.Payments, schedule.Payment{
			ID:      fmt.Sprintf("%s-P%d", id, i+1),
			Amount:  10_000_000,
			Date:    datetime.MustDate("2024-09-05"),
			PayCode: schedule.PayCode(1),
		})
	}
	s.Payments = append(s.Payments, schedule.Payment{
		ID:      fmt.Sprintf("%s-P7", id),
		Amount:  5_188_000,
		Date:    datetime.MustDate("2024-09-27"),
		PayCode: schedule.PayCode(1),
	})
	return s
}

// LateScenarioPenalty is the penalty of LateScenario: 60,000,000 won 83 days
// late plus 5,188,000 won 105 days late at 10%.
const LateScenarioPenalty int64 = 1_513_626

// Compute runs the engine over a snapshot.
func Compute(engine *adjustment.Engine, s Snapshot, asOf string) adjustment.Result {
	return engine.ComputeAdjustments(s.Contract, s.Installments, s.Payments, datetime.MustDate(asOf))
}
