package app

import (
	"sort"
	"strings"
	"time"

	"funcfleet/internal/types"
)

// BuildDeployPrunePlan splits ledger rows into keep and delete sets.
// Per function the newest KeepLast rows and everything younger than
// KeepDays survive; the most recent successful deploy is always kept so
// the ledger can answer "what is live" for every function.
func BuildDeployPrunePlan(records []types.DeployInfo, policy types.DeployRetentionPolicy, now time.Time) types.DeployPrunePlan {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	normalized := normalizeRetentionPolicy(policy)
	protected := normalizeSet(normalized.ProtectFunctions)

	keepIDs := map[int64]struct{}{}
	grouped := map[string][]types.DeployInfo{}
	for _, record := range records {
		if _, ok := protected[strings.ToLower(record.Function)]; ok {
			keepIDs[record.ID] = struct{}{}
		}
		if normalized.KeepDays > 0 && !record.DeployedAt.IsZero() {
			cutoff := now.AddDate(0, 0, -normalized.KeepDays)
			if !record.DeployedAt.Before(cutoff) {
				keepIDs[record.ID] = struct{}{}
			}
		}
		grouped[record.Function] = append(grouped[record.Function], record)
	}

	for _, group := range grouped {
		sorted := append([]types.DeployInfo(nil), group...)
		sort.Slice(sorted, func(i, j int) bool {
			if !sorted[i].DeployedAt.Equal(sorted[j].DeployedAt) {
				return sorted[i].DeployedAt.After(sorted[j].DeployedAt)
			}
			return sorted[i].ID > sorted[j].ID
		})
		limit := normalized.KeepLast
		if limit > len(sorted) {
			limit = len(sorted)
		}
		for i := 0; i < limit; i++ {
			keepIDs[sorted[i].ID] = struct{}{}
		}
		for _, record := range sorted {
			if record.Status == types.DeployStatusOK {
				keepIDs[record.ID] = struct{}{}
				break
			}
		}
	}

	var keep []types.DeployInfo
	var del []types.DeployInfo
	for _, record := range records {
		if _, ok := keepIDs[record.ID]; ok {
			keep = append(keep, record)
		} else {
			del = append(del, record)
		}
	}
	return types.DeployPrunePlan{Keep: keep, Delete: del}
}

func normalizeRetentionPolicy(policy types.DeployRetentionPolicy) types.DeployRetentionPolicy {
	normalized := policy
	if normalized.KeepLast < 0 {
		normalized.KeepLast = 0
	}
	if normalized.KeepDays < 0 {
		normalized.KeepDays = 0
	}
	return normalized
}

func normalizeSet(values []string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, value := range values {
		key := strings.ToLower(strings.TrimSpace(value))
		if key == "" {
			continue
		}
		set[key] = struct{}{}
	}
	return set
}
