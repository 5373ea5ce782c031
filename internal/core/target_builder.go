package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"funcfleet/internal/policies"
	"funcfleet/internal/types"
)

type TargetBuilder struct {
	Rollout policies.RolloutPolicy
}

// TargetInputs are the sources a deploy or package run can name its
// functions from. Explicit names and plan entries are unioned; All takes
// the whole fleet.
type TargetInputs struct {
	Functions []string
	Plan      []types.PlanEntry
	All       bool
}

// DeployTarget is one function scheduled for deployment, carrying its
// rollout group placement and the plan revision when one is known.
type DeployTarget struct {
	Function   types.FunctionSpec
	Revision   string
	Group      types.RolloutGroup
	GroupIndex int
}

func NewTargetBuilder(rollout policies.RolloutPolicy) TargetBuilder {
	return TargetBuilder{Rollout: rollout}
}

// Build resolves the requested functions against the composed fleet and
// orders them by rollout group, then name. Unknown names fail instead of
// being skipped so a typo cannot silently narrow a deploy.
func (b TargetBuilder) Build(ctx context.Context, fleet types.FleetSpec, inputs TargetInputs) ([]DeployTarget, error) {
	byName := map[string]types.FunctionSpec{}
	for _, fn := range fleet.Functions {
		byName[fn.Name] = fn
	}

	revisions := map[string]string{}
	requested := map[string]struct{}{}

	if inputs.All {
		for name := range byName {
			requested[name] = struct{}{}
		}
	}
	for _, entry := range inputs.Plan {
		if _, ok := byName[entry.Function]; !ok {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg(fmt.Sprintf("plan names a function missing from the fleet: %s", entry.Function))
		}
		requested[entry.Function] = struct{}{}
		revisions[entry.Function] = entry.Revision
	}
	for _, raw := range inputs.Functions {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if _, ok := byName[name]; !ok {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg(fmt.Sprintf("unknown function: %s", name))
		}
		requested[name] = struct{}{}
	}

	if len(requested) == 0 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("no deploy targets: pass function names, a plan, or --all")
	}

	targets := make([]DeployTarget, 0, len(requested))
	for name := range requested {
		fn := byName[name]
		group, groupIndex, _ := b.Rollout.GroupFor(name)
		targets = append(targets, DeployTarget{
			Function:   fn,
			Revision:   revisions[name],
			Group:      group,
			GroupIndex: groupIndex,
		})
	}
	sort.Slice(targets, func(i, j int) bool {
		if targets[i].GroupIndex != targets[j].GroupIndex {
			return targets[i].GroupIndex < targets[j].GroupIndex
		}
		return targets[i].Function.Name < targets[j].Function.Name
	})

	log.Ctx(ctx).Debug().Int("targets", len(targets)).Msg("deploy targets collected")
	return targets, nil
}

// GroupBatches splits rollout-ordered targets into per-group batches.
// Batches deploy sequentially; functions inside a batch may deploy in
// parallel up to the group's limit.
func GroupBatches(targets []DeployTarget) [][]DeployTarget {
	var batches [][]DeployTarget
	for _, target := range targets {
		if len(batches) == 0 || batches[len(batches)-1][0].GroupIndex != target.GroupIndex {
			batches = append(batches, []DeployTarget{target})
			continue
		}
		batches[len(batches)-1] = append(batches[len(batches)-1], target)
	}
	return batches
}
