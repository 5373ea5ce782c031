package ports

import (
	"context"
	"time"

	"funcfleet/internal/types"
)

// LedgerPort is the deploy history table.
type LedgerPort interface {
	InsertDeploy(ctx context.Context, record types.DeployInfo) error
	ListDeploys(ctx context.Context, function string, since time.Time, limit int) ([]types.DeployInfo, error)
	ListAllDeploys(ctx context.Context) ([]types.DeployInfo, error)
	DeleteDeploys(ctx context.Context, ids []int64) (int, error)
}

// MonitorStorePort is the forum monitoring state: sweep candidates,
// visibility checks and first-post history.
type MonitorStorePort interface {
	ListCandidates(ctx context.Context) ([]types.SearchCandidate, error)
	RecordHealthCheck(ctx context.Context, topicID int, at time.Time, status types.Visibility) error

	// ActualFirstPost returns the current first-post record for a topic.
	// The bool is false when the topic has never been recorded.
	ActualFirstPost(ctx context.Context, topicID int) (types.FirstPostRecord, bool, error)

	// SaveFirstPost demotes the topic's previous actual rows and inserts
	// the new record in one transaction.
	SaveFirstPost(ctx context.Context, record types.FirstPostRecord) error
}

// UserStorePort is the subscriber bot's user state.
type UserStorePort interface {
	SetUserStatus(ctx context.Context, userID int64, status string, at time.Time) error
	UpsertCoordinates(ctx context.Context, coords types.UserCoordinates) error
	Coordinates(ctx context.Context, userID int64) (types.UserCoordinates, bool, error)
	SetPreference(ctx context.Context, userID int64, prefID int, name string) error
	DeletePreference(ctx context.Context, userID int64, prefID int) error
	Preferences(ctx context.Context, userID int64) ([]types.UserPreference, error)

	// ToggleRegionalPreference flips a folder subscription and reports
	// whether it is now on.
	ToggleRegionalPreference(ctx context.Context, userID int64, folderID int) (bool, error)
	RegionalPreferences(ctx context.Context, userID int64) ([]int, error)

	RecentSearches(ctx context.Context, limit int) ([]types.SearchSummary, error)
}
