package types

import "time"

type DeployInfo struct {
	ID         int64
	EventID    string
	Function   string
	Revision   string
	Status     DeployStatus
	Actor      string
	DeployedAt time.Time
}

type DeployRetentionPolicy struct {
	KeepLast         int
	KeepDays         int
	ProtectFunctions []string
	DryRun           bool
}

type DeployPrunePlan struct {
	Keep   []DeployInfo
	Delete []DeployInfo
}
