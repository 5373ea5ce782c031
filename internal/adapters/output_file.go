package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"funcfleet/internal/ports"
	"funcfleet/internal/types"
)

type OutputFileAdapter struct {
	Dir string
}

func NewOutputFileAdapter(dir string) OutputFileAdapter {
	return OutputFileAdapter{Dir: dir}
}

func (a OutputFileAdapter) WriteValidationReport(report types.ValidationReport) error {
	path, err := a.ensurePath("validate.report")
	if err != nil {
		return err
	}
	ordered := append([]types.ValidationRecord(nil), report.Records...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Level != ordered[j].Level {
			return ordered[i].Level < ordered[j].Level
		}
		if ordered[i].Code != ordered[j].Code {
			return ordered[i].Code < ordered[j].Code
		}
		if ordered[i].Subject != ordered[j].Subject {
			return ordered[i].Subject < ordered[j].Subject
		}
		return ordered[i].Message < ordered[j].Message
	})
	var lines []string
	for _, record := range ordered {
		lines = append(lines, fmt.Sprintf("%s,%s,%s,%s", record.Level, record.Code, record.Subject, record.Message))
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644)
}

func (a OutputFileAdapter) WritePlan(plan types.DeployPlan) error {
	path, err := a.ensurePath("fleet.plan")
	if err != nil {
		return err
	}
	var builder strings.Builder
	fmt.Fprintf(&builder, "# plan %s\n", plan.Fingerprint)
	ordered := append([]types.PlanEntry(nil), plan.Entries...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Function < ordered[j].Function })
	for _, entry := range ordered {
		fmt.Fprintf(&builder, "function=%s revision=%s region=%s reason=%s\n",
			entry.Function, entry.Revision, entry.Region, entry.Reason)
	}
	return os.WriteFile(path, []byte(builder.String()), 0644)
}

func (a OutputFileAdapter) WriteRenderReport(rendered []types.RenderedWorkflow) error {
	path, err := a.ensurePath("render.report")
	if err != nil {
		return err
	}
	ordered := append([]types.RenderedWorkflow(nil), rendered...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Function < ordered[j].Function })
	var lines []string
	for _, unit := range ordered {
		lines = append(lines, fmt.Sprintf("workflow=%s function=%s revision=%s", unit.File, unit.Function, unit.Revision))
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644)
}

func (a OutputFileAdapter) WriteArchiveReport(archives []types.ArchiveInfo) error {
	path, err := a.ensurePath("archive.report")
	if err != nil {
		return err
	}
	ordered := append([]types.ArchiveInfo(nil), archives...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Function < ordered[j].Function })
	var lines []string
	for _, archive := range ordered {
		lines = append(lines, fmt.Sprintf("function=%s revision=%s archive=%s bytes=%d",
			archive.Function, archive.Revision, archive.Path, archive.Bytes))
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644)
}

func (a OutputFileAdapter) WriteDeployReport(entries []types.DeployReportEntry) error {
	path, err := a.ensurePath("deploy.report")
	if err != nil {
		return err
	}
	ordered := append([]types.DeployReportEntry(nil), entries...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Function != ordered[j].Function {
			return ordered[i].Function < ordered[j].Function
		}
		return ordered[i].Revision < ordered[j].Revision
	})
	var lines []string
	for _, entry := range ordered {
		lines = append(lines, fmt.Sprintf("%s,%s,%s,%s", entry.Function, entry.Revision, entry.Status, entry.Detail))
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644)
}

func (a OutputFileAdapter) WriteAuditReport(findings []types.AuditFinding) error {
	path, err := a.ensurePath("audit.report")
	if err != nil {
		return err
	}
	ordered := append([]types.AuditFinding(nil), findings...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Level != ordered[j].Level {
			return ordered[i].Level < ordered[j].Level
		}
		return ordered[i].Package < ordered[j].Package
	})
	var lines []string
	for _, finding := range ordered {
		lines = append(lines, fmt.Sprintf("%s,%s,%s", finding.Level, finding.Package, finding.Message))
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644)
}

func (a OutputFileAdapter) WriteResolutionReport(report types.ResolutionReport) error {
	path, err := a.ensurePath("resolution.report")
	if err != nil {
		return err
	}
	ordered := append([]types.ResolutionRecord(nil), report.Records...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Package != ordered[j].Package {
			return ordered[i].Package < ordered[j].Package
		}
		return ordered[i].UseVersion < ordered[j].UseVersion
	})
	var lines []string
	for _, record := range ordered {
		lines = append(lines, fmt.Sprintf("%s,%s,%s,%s,%s",
			record.Package, record.UseVersion, record.Reason, record.Owner, record.ExpiresAt))
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644)
}

func (a OutputFileAdapter) ensurePath(filename string) (string, error) {
	if a.Dir == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is empty")
	}
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create output directory").
			WithCause(err)
	}
	return filepath.Join(a.Dir, filename), nil
}

var _ ports.OutputPort = OutputFileAdapter{}
