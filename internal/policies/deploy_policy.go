package policies

import (
	"fmt"
	"sort"
	"strings"

	"funcfleet/internal/types"
)

// Provider limits for gen1 serverless functions.
const (
	MinTimeoutSec = 1
	MaxTimeoutSec = 540

	MinInstances = 1
	MaxInstances = 3000
)

var allowedMemoryMB = map[int]struct{}{
	128: {}, 256: {}, 512: {}, 1024: {}, 2048: {}, 4096: {}, 8192: {},
}

var allowedRegions = map[string]struct{}{
	"europe-west1":    {},
	"europe-west2":    {},
	"europe-west3":    {},
	"europe-west6":    {},
	"europe-north1":   {},
	"europe-central2": {},
	"us-central1":     {},
	"us-east1":        {},
	"us-east4":        {},
	"us-west1":        {},
	"asia-east2":      {},
	"asia-northeast1": {},
}

// DeployPolicy validates one function's provider-facing deployment
// values. Known runtimes come from the layered runtime catalog; an
// empty set skips the runtime check (no catalog loaded).
type DeployPolicy struct {
	KnownRuntimes map[string]struct{}
}

func NewDeployPolicy(runtimes map[string]types.RuntimeImage) DeployPolicy {
	known := map[string]struct{}{}
	for name := range runtimes {
		known[name] = struct{}{}
	}
	return DeployPolicy{KnownRuntimes: known}
}

// CheckFunction returns one validation record per violated limit.
func (p DeployPolicy) CheckFunction(fn types.FunctionSpec) []types.ValidationRecord {
	var records []types.ValidationRecord
	fail := func(code string, format string, args ...any) {
		records = append(records, types.ValidationRecord{
			Level:   types.ValidationLevelError,
			Code:    code,
			Subject: fn.Name,
			Message: fmt.Sprintf(format, args...),
		})
	}

	if !validEntryPoint(fn.EntryPoint) {
		fail("entry-point", "entry_point %q is not a valid identifier", fn.EntryPoint)
	}
	if fn.TimeoutSec < MinTimeoutSec || fn.TimeoutSec > MaxTimeoutSec {
		fail("timeout-range", "timeout_sec %d outside %d..%d", fn.TimeoutSec, MinTimeoutSec, MaxTimeoutSec)
	}
	if fn.MaxInstances < MinInstances || fn.MaxInstances > MaxInstances {
		fail("instances-range", "max_instances %d outside %d..%d", fn.MaxInstances, MinInstances, MaxInstances)
	}
	if _, ok := allowedMemoryMB[fn.MemoryMB]; !ok {
		fail("memory-size", "memory_mb %d is not an allowed size (%s)", fn.MemoryMB, allowedMemoryList())
	}
	if _, ok := allowedRegions[fn.Region]; !ok {
		fail("region", "region %q is not a known function region", fn.Region)
	}
	if len(p.KnownRuntimes) > 0 {
		if _, ok := p.KnownRuntimes[fn.Runtime]; !ok {
			fail("runtime", "runtime %q is not in the runtime catalog", fn.Runtime)
		}
	}
	switch fn.Trigger.Type {
	case types.TriggerTypePubSub:
		if strings.TrimSpace(fn.Trigger.Topic) == "" {
			fail("trigger-topic", "pubsub trigger requires a topic")
		}
	case types.TriggerTypeHTTP:
	default:
		fail("trigger-type", "unsupported trigger type %q", fn.Trigger.Type)
	}
	return records
}

// CheckDeployParams applies the same limits to a workflow's decoded
// deploy step, for workflows not rendered from a fleet spec.
func (p DeployPolicy) CheckDeployParams(subject string, params types.DeployParams) []types.ValidationRecord {
	fn := types.FunctionSpec{
		Name:         subject,
		EntryPoint:   params.EntryPoint,
		TimeoutSec:   params.TimeoutSec,
		MaxInstances: params.MaxInstances,
		MemoryMB:     params.MemoryMB,
		Region:       params.Region,
		Runtime:      params.Runtime,
	}
	if params.HTTPTrigger {
		fn.Trigger = types.Trigger{Type: types.TriggerTypeHTTP}
	} else {
		fn.Trigger = types.Trigger{Type: types.TriggerTypePubSub, Topic: params.TriggerResource}
	}
	return p.CheckFunction(fn)
}

// validEntryPoint accepts Python identifiers: a letter or underscore
// followed by letters, digits or underscores.
func validEntryPoint(value string) bool {
	if value == "" {
		return false
	}
	for i, r := range value {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func allowedMemoryList() string {
	sizes := make([]int, 0, len(allowedMemoryMB))
	for size := range allowedMemoryMB {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)
	parts := make([]string, 0, len(sizes))
	for _, size := range sizes {
		parts = append(parts, fmt.Sprintf("%d", size))
	}
	return strings.Join(parts, ",")
}
