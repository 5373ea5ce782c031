package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"funcfleet/internal/core"
	"funcfleet/internal/policies"
	"funcfleet/internal/types"
)

func (s Service) Plan(ctx context.Context, req PlanRequest) (PlanResult, error) {
	fleet, err := s.composeFleet(ctx, req.FleetPath, req.OverlayPaths)
	if err != nil {
		return PlanResult{}, err
	}

	changed := req.Changed
	if gitRange := strings.TrimSpace(req.GitRange); gitRange != "" {
		if len(changed) > 0 {
			return PlanResult{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("use either --changed or --git-range, not both")
		}
		repoDir := strings.TrimSpace(req.RepoDir)
		if repoDir == "" {
			repoDir = "."
		}
		changed, err = s.Changes.ChangedPaths(ctx, repoDir, gitRange)
		if err != nil {
			return PlanResult{}, err
		}
	}

	hashes, err := s.sourceHashes(fleet, req.RepoDir)
	if err != nil {
		return PlanResult{}, err
	}

	planner := core.NewPlannerCore(policies.NewRolloutPolicy(fleet.Rollout))
	plan, err := planner.Plan(ctx, core.PlanInput{
		Fleet:        fleet,
		ChangedPaths: changed,
		SourceHashes: hashes,
		Force:        req.Force,
		All:          req.All,
	})
	if err != nil {
		return PlanResult{}, err
	}

	if outputDir := strings.TrimSpace(req.OutputDir); outputDir != "" {
		if err := s.output(outputDir).WritePlan(plan); err != nil {
			return PlanResult{}, err
		}
	}
	log.Ctx(ctx).Debug().
		Str("fleet", plan.Fleet).
		Str("fingerprint", plan.Fingerprint).
		Int("functions", len(plan.Entries)).
		Msg("deploy plan computed")
	return PlanResult{Plan: plan}, nil
}

// sourceHashes scans every function's source tree once. A function
// whose source directory is absent gets an empty digest so the plan
// still fingerprints deterministically.
func (s Service) sourceHashes(fleet types.FleetSpec, repoDir string) (map[string]string, error) {
	hashes := map[string]string{}
	for _, fn := range fleet.Functions {
		tree, err := s.Source.ScanSource(sourcePath(repoDir, fn.SourceDir))
		if err != nil {
			hashes[fn.Name] = ""
			continue
		}
		hashes[fn.Name] = tree.Digest
	}
	return hashes, nil
}
