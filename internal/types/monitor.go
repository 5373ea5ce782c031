package types

import "time"

// SearchCandidate is a forum topic eligible for a monitor sweep, joined
// with the ordering signals the selector weighs.
type SearchCandidate struct {
	TopicID      int
	FolderID     int
	FolderWeight int
	StartTime    time.Time
	LastChecked  time.Time
	ChecksMade   int
	Status       string
}

type TopicPage struct {
	TopicID    int
	Visibility Visibility
	StatusCode int
	Body       string
}

type FirstPost struct {
	TopicID     int
	Content     string
	ContentHash string
	Status      TopicStatus
}

type FirstPostRecord struct {
	SearchID    int
	Timestamp   time.Time
	Actual      bool
	ContentHash string
	Content     string
	NumOfChecks int
}

type MonitorResult struct {
	Mode    string
	Checked int
	Changed int
	Hidden  int
	Deleted int
}
