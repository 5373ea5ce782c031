package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"funcfleet/internal/ports"
	"funcfleet/internal/types"
)

func (s Service) Inspect(ctx context.Context, req InspectRequest) (InspectResult, error) {
	fleet, err := s.composeFleet(ctx, req.FleetPath, req.OverlayPaths)
	if err != nil {
		return InspectResult{}, err
	}

	functions := fleet.Functions
	if name := strings.TrimSpace(req.Function); name != "" {
		var found *types.FunctionSpec
		for i := range functions {
			if functions[i].Name == name {
				found = &functions[i]
				break
			}
		}
		if found == nil {
			return InspectResult{}, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg(fmt.Sprintf("function %s is not in the fleet", name))
		}
		functions = []types.FunctionSpec{*found}
	}

	project := strings.TrimSpace(req.Project)
	var live ports.FunctionsPort
	if project != "" {
		live, err = s.functionsPort(ctx)
		if err != nil {
			return InspectResult{}, err
		}
	}

	var lines []string
	for _, fn := range functions {
		lines = append(lines, specLines(fn)...)
		if live != nil {
			stateLines, err := liveStateLines(ctx, live, project, fn)
			if err != nil {
				return InspectResult{}, err
			}
			lines = append(lines, stateLines...)
		}
	}
	sort.Strings(lines)
	return InspectResult{Lines: lines}, nil
}

func specLines(fn types.FunctionSpec) []string {
	prefix := fn.Name + "."
	lines := []string{
		prefix + "source_dir=" + fn.SourceDir,
		prefix + "runtime=" + fn.Runtime,
		prefix + "entry_point=" + fn.EntryPoint,
		prefix + "region=" + fn.Region,
		fmt.Sprintf("%stimeout_sec=%d", prefix, fn.TimeoutSec),
		fmt.Sprintf("%smax_instances=%d", prefix, fn.MaxInstances),
		fmt.Sprintf("%smemory_mb=%d", prefix, fn.MemoryMB),
		prefix + "trigger.type=" + string(fn.Trigger.Type),
	}
	if fn.Trigger.Type == types.TriggerTypePubSub {
		lines = append(lines, prefix+"trigger.topic="+fn.Trigger.Topic)
	}
	for _, key := range sortedMapKeys(fn.Env) {
		lines = append(lines, fmt.Sprintf("%senv.%s=%s", prefix, key, fn.Env[key]))
	}
	return lines
}

func liveStateLines(ctx context.Context, live ports.FunctionsPort, project string, fn types.FunctionSpec) ([]string, error) {
	state, err := live.Get(ctx, project, fn.Region, fn.Name)
	if err != nil {
		return nil, err
	}
	prefix := fn.Name + ".live."
	if !state.Exists {
		return []string{prefix + "deployed=false"}, nil
	}
	lines := []string{
		prefix + "deployed=true",
		prefix + "status=" + state.Status,
		fmt.Sprintf("%sversion_id=%d", prefix, state.VersionID),
		prefix + "update_time=" + state.UpdateTime.UTC().Format(time.RFC3339),
		prefix + "runtime=" + state.Runtime,
	}
	if state.Runtime != fn.Runtime {
		lines = append(lines, prefix+"drift.runtime="+state.Runtime+"->"+fn.Runtime)
	}
	if state.TimeoutSec != fn.TimeoutSec {
		lines = append(lines, fmt.Sprintf("%sdrift.timeout_sec=%d->%d", prefix, state.TimeoutSec, fn.TimeoutSec))
	}
	if state.MemoryMB != fn.MemoryMB {
		lines = append(lines, fmt.Sprintf("%sdrift.memory_mb=%d->%d", prefix, state.MemoryMB, fn.MemoryMB))
	}
	return lines, nil
}

func sortedMapKeys[V any](input map[string]V) []string {
	keys := make([]string, 0, len(input))
	for key := range input {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
