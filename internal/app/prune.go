package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"funcfleet/internal/types"
)

func (s Service) HistoryPrune(ctx context.Context, req HistoryPruneRequest) (HistoryPruneResult, error) {
	ledger, err := s.historyLedger(ctx, req.DatabaseURL, req.SecretsBackend, req.Project)
	if err != nil {
		return HistoryPruneResult{}, err
	}
	records, err := ledger.ListAllDeploys(ctx)
	if err != nil {
		return HistoryPruneResult{}, err
	}
	policy := types.DeployRetentionPolicy{
		KeepLast:         req.KeepLast,
		KeepDays:         req.KeepDays,
		ProtectFunctions: req.ProtectFunctions,
		DryRun:           !req.Apply,
	}
	plan := BuildDeployPrunePlan(records, policy, timeNow(s.Clock))
	if policy.DryRun {
		return HistoryPruneResult{
			KeepCount:   len(plan.Keep),
			DeleteCount: len(plan.Delete),
			DryRun:      true,
		}, nil
	}
	ids := make([]int64, 0, len(plan.Delete))
	for _, record := range plan.Delete {
		ids = append(ids, record.ID)
	}
	deleted, err := ledger.DeleteDeploys(ctx, ids)
	if err != nil {
		return HistoryPruneResult{}, err
	}
	log.Ctx(ctx).Info().
		Int("kept", len(plan.Keep)).
		Int("deleted", deleted).
		Msg("deploy history pruned")
	return HistoryPruneResult{
		KeepCount:   len(plan.Keep),
		DeleteCount: deleted,
		DryRun:      false,
	}, nil
}
