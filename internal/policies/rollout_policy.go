package policies

import (
	"sort"
	"strings"

	"funcfleet/internal/types"
)

// DefaultGroupParallel bounds concurrent deploys inside a rollout group
// when the group does not set its own limit.
const DefaultGroupParallel = 4

// RolloutPolicy assigns functions to rollout groups. Patterns are exact
// function names, `name*` prefixes, or the `*` wildcard. The first group
// in rollout order that matches a function wins; unmatched functions land
// in an implicit trailing group.
type RolloutPolicy struct {
	Groups   []types.RolloutGroup
	exact    map[string]int
	prefixes []namePrefix
	wildcard int
}

type namePrefix struct {
	prefix     string
	groupIndex int
}

func NewRolloutPolicy(rollout types.Rollout) RolloutPolicy {
	policy := RolloutPolicy{wildcard: -1}
	policy.Groups = append(policy.Groups, rollout.Groups...)
	sort.SliceStable(policy.Groups, func(i, j int) bool {
		return policy.Groups[i].Order < policy.Groups[j].Order
	})
	policy.compile()
	return policy
}

// GroupFor returns the matching group and its rollout position. The
// boolean is false when no group matches.
func (p RolloutPolicy) GroupFor(functionName string) (types.RolloutGroup, int, bool) {
	best := -1
	if idx, ok := p.exact[functionName]; ok {
		best = minGroupIndex(best, idx)
	}
	for _, entry := range p.prefixes {
		if strings.HasPrefix(functionName, entry.prefix) {
			best = minGroupIndex(best, entry.groupIndex)
		}
	}
	if p.wildcard >= 0 {
		best = minGroupIndex(best, p.wildcard)
	}
	if best >= 0 && best < len(p.Groups) {
		return p.Groups[best], best, true
	}
	return types.RolloutGroup{}, len(p.Groups), false
}

// GroupParallel returns the deploy concurrency for a group.
func GroupParallel(group types.RolloutGroup) int {
	if group.MaxParallel > 0 {
		return group.MaxParallel
	}
	return DefaultGroupParallel
}

func (p *RolloutPolicy) compile() {
	p.exact = map[string]int{}
	p.prefixes = nil
	p.wildcard = -1
	for idx, group := range p.Groups {
		for _, pattern := range group.Matches {
			trimmed := strings.TrimSpace(pattern)
			switch {
			case trimmed == "":
				continue
			case trimmed == "*":
				if p.wildcard < 0 {
					p.wildcard = idx
				}
			case strings.HasSuffix(trimmed, "*"):
				p.prefixes = append(p.prefixes, namePrefix{
					prefix:     strings.TrimSuffix(trimmed, "*"),
					groupIndex: idx,
				})
			default:
				if _, ok := p.exact[trimmed]; !ok {
					p.exact[trimmed] = idx
				}
			}
		}
	}
}

func minGroupIndex(current int, candidate int) int {
	if candidate < 0 {
		return current
	}
	if current < 0 || candidate < current {
		return candidate
	}
	return current
}
