package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funcfleet/internal/types"
)

func deployAt(id int64, function string, status types.DeployStatus, deployedAt time.Time) types.DeployInfo {
	return types.DeployInfo{
		ID:         id,
		Function:   function,
		Revision:   "aabbccddeeff",
		Status:     status,
		Actor:      "ci",
		DeployedAt: deployedAt,
	}
}

func prunePlanIDs(records []types.DeployInfo) []int64 {
	ids := make([]int64, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}
	return ids
}

func TestBuildDeployPrunePlanKeepLast(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	records := []types.DeployInfo{
		deployAt(1, "check_topics", types.DeployStatusOK, now.Add(-4*time.Hour)),
		deployAt(2, "check_topics", types.DeployStatusOK, now.Add(-3*time.Hour)),
		deployAt(3, "check_topics", types.DeployStatusOK, now.Add(-2*time.Hour)),
		deployAt(4, "check_topics", types.DeployStatusOK, now.Add(-time.Hour)),
	}

	plan := BuildDeployPrunePlan(records, types.DeployRetentionPolicy{KeepLast: 2}, now)
	assert.ElementsMatch(t, []int64{3, 4}, prunePlanIDs(plan.Keep))
	assert.ElementsMatch(t, []int64{1, 2}, prunePlanIDs(plan.Delete))
}

func TestBuildDeployPrunePlanKeepDays(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	records := []types.DeployInfo{
		deployAt(1, "check_topics", types.DeployStatusFailed, now.AddDate(0, 0, -30)),
		deployAt(2, "check_topics", types.DeployStatusFailed, now.AddDate(0, 0, -3)),
		deployAt(3, "check_topics", types.DeployStatusFailed, now.Add(-time.Hour)),
	}

	plan := BuildDeployPrunePlan(records, types.DeployRetentionPolicy{KeepDays: 7}, now)
	assert.ElementsMatch(t, []int64{2, 3}, prunePlanIDs(plan.Keep))
	assert.ElementsMatch(t, []int64{1}, prunePlanIDs(plan.Delete))
}

func TestBuildDeployPrunePlanProtectedFunctions(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	records := []types.DeployInfo{
		deployAt(1, "webhook_bot", types.DeployStatusFailed, now.AddDate(0, 0, -90)),
		deployAt(2, "check_topics", types.DeployStatusFailed, now.AddDate(0, 0, -90)),
		deployAt(3, "check_topics", types.DeployStatusFailed, now.AddDate(0, 0, -60)),
	}

	plan := BuildDeployPrunePlan(records, types.DeployRetentionPolicy{
		KeepLast:         1,
		ProtectFunctions: []string{" Webhook_Bot "},
	}, now)
	assert.ElementsMatch(t, []int64{1, 3}, prunePlanIDs(plan.Keep))
	assert.ElementsMatch(t, []int64{2}, prunePlanIDs(plan.Delete))
}

func TestBuildDeployPrunePlanAlwaysKeepsLastSuccess(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	records := []types.DeployInfo{
		deployAt(1, "send_notifications", types.DeployStatusOK, now.AddDate(0, 0, -120)),
		deployAt(2, "send_notifications", types.DeployStatusFailed, now.Add(-2*time.Hour)),
		deployAt(3, "send_notifications", types.DeployStatusFailed, now.Add(-time.Hour)),
	}

	plan := BuildDeployPrunePlan(records, types.DeployRetentionPolicy{KeepLast: 2}, now)
	// The old success survives even though it falls outside KeepLast.
	assert.ElementsMatch(t, []int64{1, 2, 3}, prunePlanIDs(plan.Keep))
	assert.Empty(t, plan.Delete)
}

func TestBuildDeployPrunePlanPerFunctionGrouping(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	records := []types.DeployInfo{
		deployAt(1, "check_topics", types.DeployStatusFailed, now.Add(-3*time.Hour)),
		deployAt(2, "check_topics", types.DeployStatusFailed, now.Add(-time.Hour)),
		deployAt(3, "webhook_bot", types.DeployStatusFailed, now.Add(-2*time.Hour)),
	}

	plan := BuildDeployPrunePlan(records, types.DeployRetentionPolicy{KeepLast: 1}, now)
	assert.ElementsMatch(t, []int64{2, 3}, prunePlanIDs(plan.Keep))
	assert.ElementsMatch(t, []int64{1}, prunePlanIDs(plan.Delete))
}

func TestBuildDeployPrunePlanNegativePolicyValues(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	records := []types.DeployInfo{
		deployAt(1, "check_topics", types.DeployStatusFailed, now.Add(-time.Hour)),
	}

	plan := BuildDeployPrunePlan(records, types.DeployRetentionPolicy{KeepLast: -5, KeepDays: -1}, now)
	require.Empty(t, plan.Keep)
	assert.ElementsMatch(t, []int64{1}, prunePlanIDs(plan.Delete))
}

func TestBuildDeployPrunePlanTieBreaksOnID(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	at := now.Add(-time.Hour)
	records := []types.DeployInfo{
		deployAt(1, "check_topics", types.DeployStatusFailed, at),
		deployAt(2, "check_topics", types.DeployStatusFailed, at),
	}

	plan := BuildDeployPrunePlan(records, types.DeployRetentionPolicy{KeepLast: 1}, now)
	assert.ElementsMatch(t, []int64{2}, prunePlanIDs(plan.Keep))
	assert.ElementsMatch(t, []int64{1}, prunePlanIDs(plan.Delete))
}
