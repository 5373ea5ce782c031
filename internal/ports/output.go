package ports

import "funcfleet/internal/types"

type OutputPort interface {
	WriteValidationReport(report types.ValidationReport) error
	WritePlan(plan types.DeployPlan) error
	WriteRenderReport(rendered []types.RenderedWorkflow) error
	WriteArchiveReport(archives []types.ArchiveInfo) error
	WriteDeployReport(entries []types.DeployReportEntry) error
	WriteAuditReport(findings []types.AuditFinding) error
	WriteResolutionReport(report types.ResolutionReport) error
}

// DeployReportJSONPort writes the machine-readable deploy report with a
// content digest, alongside the plain-text one.
type DeployReportJSONPort interface {
	WriteDeployReportJSON(fleet string, fingerprint string, createdAt string, entries []types.DeployReportEntry) error
}
