package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog/log"

	"funcfleet/internal/policies"
	"funcfleet/internal/types"
)

type PlannerCore struct {
	Rollout policies.RolloutPolicy
}

type PlanInput struct {
	Fleet        types.FleetSpec
	ChangedPaths []string
	SourceHashes map[string]string
	Force        []string
	All          bool
}

func NewPlannerCore(rollout policies.RolloutPolicy) PlannerCore {
	return PlannerCore{Rollout: rollout}
}

// Plan selects the functions affected by the changed paths and orders
// them by rollout group. A function is affected when any changed path
// matches one of its watched path globs, when it is forced by name, or
// when a full deploy is requested.
func (p PlannerCore) Plan(ctx context.Context, input PlanInput) (types.DeployPlan, error) {
	if len(input.Fleet.Functions) == 0 {
		return types.DeployPlan{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("plan requires a composed fleet with functions")
	}

	forced, err := forcedSet(input.Fleet, input.Force)
	if err != nil {
		return types.DeployPlan{}, err
	}

	changed := normalizePaths(input.ChangedPaths)

	plan := types.DeployPlan{
		Fleet:   input.Fleet.Metadata.Name,
		Version: input.Fleet.Metadata.Version,
		Entries: []types.PlanEntry{},
	}

	type orderedEntry struct {
		entry      types.PlanEntry
		groupIndex int
	}
	var selected []orderedEntry
	for _, fn := range input.Fleet.Functions {
		reason, ok := p.selectFunction(input.Fleet, fn, changed, forced, input.All)
		if !ok {
			continue
		}
		_, groupIndex, _ := p.Rollout.GroupFor(fn.Name)
		selected = append(selected, orderedEntry{
			entry: types.PlanEntry{
				Function: fn.Name,
				Revision: FunctionRevision(fn, input.SourceHashes[fn.Name]),
				Region:   fn.Region,
				Reason:   reason,
			},
			groupIndex: groupIndex,
		})
	}

	sort.Slice(selected, func(i, j int) bool {
		if selected[i].groupIndex != selected[j].groupIndex {
			return selected[i].groupIndex < selected[j].groupIndex
		}
		return selected[i].entry.Function < selected[j].entry.Function
	})
	for _, item := range selected {
		plan.Entries = append(plan.Entries, item.entry)
	}
	plan.Fingerprint = planFingerprint(plan)

	log.Ctx(ctx).Debug().
		Str("fleet", plan.Fleet).
		Str("fingerprint", plan.Fingerprint).
		Int("functions", len(plan.Entries)).
		Msg("deploy plan computed")
	return plan, nil
}

func (p PlannerCore) selectFunction(fleet types.FleetSpec, fn types.FunctionSpec, changed []string, forced map[string]struct{}, all bool) (string, bool) {
	if _, ok := forced[fn.Name]; ok {
		return "forced", true
	}
	if all {
		return "full", true
	}
	patterns := WatchedPaths(fleet, fn)
	for _, changedPath := range changed {
		for _, pattern := range patterns {
			matched, err := doublestar.Match(pattern, changedPath)
			if err != nil {
				continue
			}
			if matched {
				return changedPath, true
			}
		}
	}
	return "", false
}

// WatchedPaths returns the path globs that trigger a deploy of fn. The
// set always includes the function's own workflow definition file, so a
// change to the generated workflow redeploys the function it drives.
func WatchedPaths(fleet types.FleetSpec, fn types.FunctionSpec) []string {
	paths := []string{
		path.Clean(fn.SourceDir) + "/**",
		ManifestPath(fn),
		WorkflowFilePath(fleet.Defaults, fn.Name),
	}
	paths = append(paths, fn.ExtraPaths...)
	return paths
}

// ManifestPath returns the function's dependency manifest location,
// defaulting to requirements.txt inside the source directory.
func ManifestPath(fn types.FunctionSpec) string {
	if fn.Manifest != "" {
		return path.Clean(fn.Manifest)
	}
	return path.Join(fn.SourceDir, "requirements.txt")
}

// FunctionRevision derives a short content identity for one function
// from its composed deploy parameters and the digest of its source tree.
func FunctionRevision(fn types.FunctionSpec, sourceDigest string) string {
	hasher := sha256.New()
	writeLine := func(format string, args ...any) {
		fmt.Fprintf(hasher, format+"\n", args...)
	}
	writeLine("function=%s", fn.Name)
	writeLine("source_dir=%s", fn.SourceDir)
	writeLine("runtime=%s", fn.Runtime)
	writeLine("entry_point=%s", fn.EntryPoint)
	writeLine("region=%s", fn.Region)
	writeLine("timeout_sec=%d", fn.TimeoutSec)
	writeLine("max_instances=%d", fn.MaxInstances)
	writeLine("memory_mb=%d", fn.MemoryMB)
	writeLine("trigger_type=%s", fn.Trigger.Type)
	writeLine("trigger_topic=%s", fn.Trigger.Topic)
	writeLine("manifest=%s", ManifestPath(fn))
	for _, key := range sortedKeys(fn.Env) {
		writeLine("env %s=%s", key, fn.Env[key])
	}
	secrets := append([]types.SecretRef{}, fn.Secrets...)
	sort.Slice(secrets, func(i, j int) bool { return secrets[i].Name < secrets[j].Name })
	for _, secret := range secrets {
		writeLine("secret %s=%s", secret.Name, secret.Env)
	}
	writeLine("source=%s", sourceDigest)
	return hex.EncodeToString(hasher.Sum(nil))[:12]
}

func planFingerprint(plan types.DeployPlan) string {
	hasher := sha256.New()
	fmt.Fprintf(hasher, "fleet=%s\n", plan.Fleet)
	fmt.Fprintf(hasher, "version=%s\n", plan.Version)
	lines := make([]string, 0, len(plan.Entries))
	for _, entry := range plan.Entries {
		lines = append(lines, fmt.Sprintf("%s=%s", entry.Function, entry.Revision))
	}
	sort.Strings(lines)
	for _, line := range lines {
		fmt.Fprintln(hasher, line)
	}
	return fmt.Sprintf("%s-%s", plan.Fleet, hex.EncodeToString(hasher.Sum(nil))[:12])
}

func forcedSet(fleet types.FleetSpec, force []string) (map[string]struct{}, error) {
	known := map[string]struct{}{}
	for _, fn := range fleet.Functions {
		known[fn.Name] = struct{}{}
	}
	forced := map[string]struct{}{}
	for _, name := range force {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if _, ok := known[trimmed]; !ok {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg(fmt.Sprintf("unknown function in force list: %s", trimmed))
		}
		forced[trimmed] = struct{}{}
	}
	return forced, nil
}

func normalizePaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, raw := range paths {
		trimmed := strings.TrimSpace(strings.ReplaceAll(raw, "\\", "/"))
		trimmed = strings.TrimPrefix(trimmed, "./")
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	sort.Strings(out)
	return out
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
