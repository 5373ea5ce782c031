package types

import "time"

type UserPreference struct {
	UserID     int64
	PrefID     int
	Preference string
}

// Notification preference identifiers.  The numbering is part of the
// stored data contract and must not be reordered.
const (
	PrefTopicNew             = 0
	PrefTopicStatusChange    = 1
	PrefTopicTitleChange     = 2
	PrefTopicCommentNew      = 3
	PrefTopicInforgComment   = 4
	PrefTopicFieldTripNew    = 5
	PrefTopicFieldTripChange = 6
	PrefTopicCoordsChange    = 7
	PrefBotNews              = 20
	PrefAll                  = 30
	PrefNotDefined           = 99
)

type UserCoordinates struct {
	UserID    int64
	Latitude  float64
	Longitude float64
	UpdatedAt time.Time
}

type UserStatus struct {
	UserID    int64
	Status    string
	Timestamp time.Time
}

const (
	UserStatusActive  = "active"
	UserStatusBlocked = "blocked"
)

type RegionFolders struct {
	Region  string
	Folders []int
}

// SearchSummary is what the bot shows for "searches near me": the most
// recent searches with enough fields to format a distance line.
type SearchSummary struct {
	TopicID     int
	Title       string
	StatusShort string
	FolderID    int
	StartTime   time.Time
	Latitude    float64
	Longitude   float64
	HasCoords   bool
}
