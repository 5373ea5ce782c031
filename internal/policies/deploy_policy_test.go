package policies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funcfleet/internal/types"
)

func validFunction() types.FunctionSpec {
	return types.FunctionSpec{
		Name:         "check_topics",
		SourceDir:    "functions/check_topics",
		Runtime:      "python310",
		EntryPoint:   "main",
		Region:       "europe-west3",
		TimeoutSec:   540,
		MaxInstances: 10,
		MemoryMB:     512,
		Trigger:      types.Trigger{Type: types.TriggerTypePubSub, Topic: "topic_to_run_checks"},
	}
}

func TestCheckFunctionValid(t *testing.T) {
	policy := NewDeployPolicy(nil)
	assert.Empty(t, policy.CheckFunction(validFunction()))
}

func TestCheckFunctionTimeoutRange(t *testing.T) {
	policy := NewDeployPolicy(nil)

	fn := validFunction()
	fn.TimeoutSec = 0
	records := policy.CheckFunction(fn)
	require.Len(t, records, 1)
	assert.Equal(t, "timeout-range", records[0].Code)

	fn.TimeoutSec = 541
	records = policy.CheckFunction(fn)
	require.Len(t, records, 1)
	assert.Equal(t, "timeout-range", records[0].Code)
}

func TestCheckFunctionInstancesRange(t *testing.T) {
	policy := NewDeployPolicy(nil)
	fn := validFunction()
	fn.MaxInstances = 3001
	records := policy.CheckFunction(fn)
	require.Len(t, records, 1)
	assert.Equal(t, "instances-range", records[0].Code)
}

func TestCheckFunctionMemorySize(t *testing.T) {
	policy := NewDeployPolicy(nil)
	fn := validFunction()
	fn.MemoryMB = 300
	records := policy.CheckFunction(fn)
	require.Len(t, records, 1)
	assert.Equal(t, "memory-size", records[0].Code)
}

func TestCheckFunctionRegion(t *testing.T) {
	policy := NewDeployPolicy(nil)
	fn := validFunction()
	fn.Region = "mars-north1"
	records := policy.CheckFunction(fn)
	require.Len(t, records, 1)
	assert.Equal(t, "region", records[0].Code)
}

func TestCheckFunctionEntryPoint(t *testing.T) {
	policy := NewDeployPolicy(nil)
	for _, bad := range []string{"", "1main", "ma-in", "ma in"} {
		fn := validFunction()
		fn.EntryPoint = bad
		records := policy.CheckFunction(fn)
		require.Len(t, records, 1, "entry_point %q", bad)
		assert.Equal(t, "entry-point", records[0].Code)
	}
	for _, good := range []string{"main", "_handler", "handle_v2"} {
		fn := validFunction()
		fn.EntryPoint = good
		assert.Empty(t, policy.CheckFunction(fn), "entry_point %q", good)
	}
}

func TestCheckFunctionRuntimeCatalog(t *testing.T) {
	policy := NewDeployPolicy(map[string]types.RuntimeImage{"python310": {}})

	assert.Empty(t, policy.CheckFunction(validFunction()))

	fn := validFunction()
	fn.Runtime = "python27"
	records := policy.CheckFunction(fn)
	require.Len(t, records, 1)
	assert.Equal(t, "runtime", records[0].Code)
}

func TestCheckFunctionRuntimeCheckSkippedWithoutCatalog(t *testing.T) {
	policy := NewDeployPolicy(nil)
	fn := validFunction()
	fn.Runtime = "python27"
	assert.Empty(t, policy.CheckFunction(fn))
}

func TestCheckFunctionTriggerTopic(t *testing.T) {
	policy := NewDeployPolicy(nil)
	fn := validFunction()
	fn.Trigger = types.Trigger{Type: types.TriggerTypePubSub}
	records := policy.CheckFunction(fn)
	require.Len(t, records, 1)
	assert.Equal(t, "trigger-topic", records[0].Code)
}

func TestCheckFunctionCollectsAllViolations(t *testing.T) {
	policy := NewDeployPolicy(nil)
	fn := validFunction()
	fn.TimeoutSec = 0
	fn.MemoryMB = 7
	fn.Region = "nowhere"
	records := policy.CheckFunction(fn)
	assert.Len(t, records, 3)
}

func TestCheckDeployParams(t *testing.T) {
	policy := NewDeployPolicy(nil)
	records := policy.CheckDeployParams("check_topics", types.DeployParams{
		EntryPoint:      "main",
		TimeoutSec:      60,
		MaxInstances:    5,
		MemoryMB:        256,
		Region:          "europe-west3",
		TriggerResource: "projects/sar-prod/topics/topic_to_run_checks",
	})
	assert.Empty(t, records)
}

func TestCheckDeployParamsHTTP(t *testing.T) {
	policy := NewDeployPolicy(nil)
	records := policy.CheckDeployParams("webhook_bot", types.DeployParams{
		EntryPoint:   "main",
		TimeoutSec:   60,
		MaxInstances: 5,
		MemoryMB:     256,
		Region:       "europe-west3",
		HTTPTrigger:  true,
	})
	assert.Empty(t, records)
}
