// Package reconcile runs the adjustment engine over a batch of contracts.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/iwvelando/installment-adjust/internal/config"
	"github.com/iwvelando/installment-adjust/pkg/adjustment"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Run computes the adjustments of every configured contract. Results are in
// configuration order regardless of which worker finished first.
func Run(ctx context.Context, logger *zap.Logger, conf *config.Configuration) ([]adjustment.Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts, err := conf.EngineOptions()
	if err != nil {
		return nil, fmt.Errorf("invalid engine configuration: %w", err)
	}
	asOf, err := conf.AsOfDate()
	if err != nil {
		return nil, err
	}
	snapshots, err := conf.Snapshots()
	if err != nil {
		return nil, fmt.Errorf("invalid contract configuration: %w", err)
	}

	logger.Info("reconciling contracts",
		zap.String("op", "reconcile.Run"),
		zap.Int("contracts", len(snapshots)),
		zap.String("mode", opts.Mode),
		zap.Time("asOf", asOf),
	)

	return RunSnapshots(ctx, adjustment.NewEngine(logger, opts), snapshots, asOf, conf.Workers())
}

// RunSnapshots computes the adjustments of already converted contracts with
// at most workers contracts in flight.
func RunSnapshots(ctx context.Context, engine *adjustment.Engine, snapshots []config.Snapshot,
	asOf time.Time, workers int) ([]adjustment.Result, error) {
	results := make([]adjustment.Result, len(snapshots))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i := range snapshots {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s := snapshots[i]
			results[i] = engine.ComputeAdjustments(s.Contract, s.Installments, s.Payments, asOf)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
