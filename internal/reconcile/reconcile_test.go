package reconcile

import (
	"context"
	"fmt"
	"testing"

	"github.com/iwvelando/installment-adjust/internal/config"
	"github.com/iwvelando/installment-adjust/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func lateContract(id string) config.Contract {
	code := 1
	contract := config.Contract{
		ID:           id,
		ContractDate: "2024-06-14",
		Installments: []config.Installment{{
			PayCode: 1,
			Amount:  65_188_000,
			Penalty: config.PenaltyTerms{Enabled: true, Rate: 10},
		}},
	}
	for i := 0; i < 6; i++ {
		contract.Payments = append(contract.Payments, config.Payment{
			ID: fmt.Sprintf("%s-%d", id, i), Amount: 10_000_000, Date: "2024-09-05", PayCode: &code,
		})
	}
	contract.Payments = append(contract.Payments, config.Payment{
		ID: id + "-6", Amount: 5_188_000, Date: "2024-09-27", PayCode: &code,
	})
	return contract
}

func TestRun(t *testing.T) {
	for _, mode := range []string{constants.ModeWaterfall, constants.ModePerInstallment} {
		t.Run(mode, func(t *testing.T) {
			conf := &config.Configuration{
				AsOf:      "2024-10-01",
				Engine:    config.EngineConfig{Mode: mode, Workers: 3},
				Contracts: []config.Contract{lateContract("C-1")},
			}

			results, err := Run(context.Background(), zap.NewNop(), conf)
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, "C-1", results[0].ContractID)
			assert.Equal(t, mode, results[0].Mode)
			assert.Equal(t, int64(1_513_626), results[0].Totals.Penalty)
			assert.Equal(t, int64(65_188_000), results[0].Received)
		})
	}
}

func TestRunPreservesOrder(t *testing.T) {
	conf := &config.Configuration{AsOf: "2024-10-01", Engine: config.EngineConfig{Workers: 4}}
	for i := 0; i < 25; i++ {
		conf.Contracts = append(conf.Contracts, lateContract(fmt.Sprintf("C-%02d", i)))
	}

	results, err := Run(context.Background(), nil, conf)
	require.NoError(t, err)
	require.Len(t, results, 25)
	for i, result := range results {
		assert.Equal(t, fmt.Sprintf("C-%02d", i), result.ContractID)
		assert.Equal(t, int64(1_513_626), result.Totals.Penalty)
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		conf config.Configuration
	}{
		{
			name: "missing asOf",
			conf: config.Configuration{Contracts: []config.Contract{lateContract("C-1")}},
		},
		{
			name: "unknown mode",
			conf: config.Configuration{AsOf: "2024-10-01", Engine: config.EngineConfig{Mode: "fifo"}},
		},
		{
			name: "malformed payment date",
			conf: config.Configuration{AsOf: "2024-10-01", Contracts: []config.Contract{{
				ID: "C-1", ContractDate: "2024-01-01",
				Payments: []config.Payment{{ID: "P-1", Amount: 1, Date: "01/02/2024"}},
			}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(context.Background(), zap.NewNop(), &tt.conf)
			assert.Error(t, err)
		})
	}
}

func TestRunCancelled(t *testing.T) {
	conf := &config.Configuration{AsOf: "2024-10-01", Contracts: []config.Contract{lateContract("C-1")}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, zap.NewNop(), conf)
	assert.ErrorIs(t, err, context.Canceled)
}
