package app

import (
	"time"

	"funcfleet/internal/types"
)

type ValidateRequest struct {
	FleetPath    string
	OverlayPaths []string
	RepoDir      string
	Manifests    []string
	CatalogFiles []string
	OutputDir    string
}

type ValidateResult struct {
	FleetName string
	Report    types.ValidationReport
	Errors    int
	Warnings  int
}

type RenderRequest struct {
	FleetPath    string
	OverlayPaths []string
	Project      string
	OutputDir    string
	Apply        bool
	RepoDir      string
}

type RenderResult struct {
	Rendered []types.RenderedWorkflow
	Removed  []string
}

type PlanRequest struct {
	FleetPath    string
	OverlayPaths []string
	RepoDir      string
	Changed      []string
	GitRange     string
	Force        []string
	All          bool
	OutputDir    string
}

type PlanResult struct {
	Plan types.DeployPlan
}

type PackageRequest struct {
	FleetPath    string
	OverlayPaths []string
	Functions    []string
	All          bool
	OutputDir    string
}

type PackageResult struct {
	Archives []types.ArchiveInfo
}

type DeployRequest struct {
	FleetPath      string
	OverlayPaths   []string
	Functions      []string
	PlanPath       string
	All            bool
	Project        string
	StageBucket    string
	SkipPreflight  bool
	DryRun         bool
	OutputDir      string
	CatalogFiles   []string
	Actor          string
	DatabaseURL    string
	SecretsBackend string
}

type DeployResult struct {
	Entries []types.DeployReportEntry
	DryRun  bool
}

type InspectRequest struct {
	FleetPath    string
	OverlayPaths []string
	Function     string
	Project      string
}

type InspectResult struct {
	Lines []string
}

type HistoryRequest struct {
	Function       string
	Since          time.Duration
	Limit          int
	Project        string
	DatabaseURL    string
	SecretsBackend string
}

type HistoryResult struct {
	Records []types.DeployInfo
}

type HistoryPruneRequest struct {
	KeepLast         int
	KeepDays         int
	ProtectFunctions []string
	Apply            bool
	Project          string
	DatabaseURL      string
	SecretsBackend   string
}

type HistoryPruneResult struct {
	KeepCount   int
	DeleteCount int
	DryRun      bool
}

type AuditRequest struct {
	Manifests      []string
	IndexURL       string
	IndexFile      string
	Workers        int
	OutputDir      string
	HTTPTimeoutSec int
	HTTPRetries    int
}

type AuditResult struct {
	Findings []types.AuditFinding
	Errors   int
	Warnings int
}

type MonitorRequest struct {
	Percent        int
	Mode           string
	Limit          int
	ForumBase      string
	Project        string
	DatabaseURL    string
	SecretsBackend string
}

type RelayRequest struct {
	Subscription   string
	Project        string
	Message        string
	Once           bool
	SecretsBackend string
}

type RelayResult struct {
	Delivered int
}

type WebhookRequest struct {
	Project        string
	DatabaseURL    string
	SecretsBackend string
}
