package types

type ValidationRecord struct {
	Level   ValidationLevel
	Code    string
	Subject string
	Message string
}

type ValidationReport struct {
	Records []ValidationRecord
}

type PlanEntry struct {
	Function string
	Revision string
	Region   string
	Reason   string
}

type DeployPlan struct {
	Fleet       string
	Version     string
	Fingerprint string
	Entries     []PlanEntry
}

type RenderedWorkflow struct {
	Function string
	File     string
	Revision string
}

type ArchiveInfo struct {
	Function string
	Revision string
	Path     string
	Bytes    int64
}

type DeployReportEntry struct {
	Function string
	Revision string
	Status   DeployStatus
	Detail   string
}

type AuditFinding struct {
	Level   ValidationLevel
	Package string
	Pinned  string
	Latest  string
	Message string
}

type ResolutionRecord struct {
	Package    string
	UseVersion string
	Reason     string
	Owner      string
	ExpiresAt  string
}

type ResolutionReport struct {
	Records []ResolutionRecord
}
