package adapters

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"funcfleet/internal/ports"
	"funcfleet/internal/types"
)

type OutputReaderAdapter struct{}

func NewOutputReaderAdapter() OutputReaderAdapter {
	return OutputReaderAdapter{}
}

// ReadPlan parses a fleet.plan file written by WritePlan. The header
// line carries the fingerprint; every following line is one entry.
func (a OutputReaderAdapter) ReadPlan(path string) (types.DeployPlan, error) {
	file, err := os.Open(path)
	if err != nil {
		return types.DeployPlan{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("plan file not found").
			WithCause(err)
	}
	defer file.Close()

	plan := types.DeployPlan{}
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "# plan ") {
			plan.Fingerprint = strings.TrimSpace(strings.TrimPrefix(line, "# plan "))
			if idx := strings.LastIndex(plan.Fingerprint, "-"); idx > 0 {
				plan.Fleet = plan.Fingerprint[:idx]
			}
			continue
		}
		entry, err := parsePlanLine(line)
		if err != nil {
			return types.DeployPlan{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("invalid plan line %d: %s", lineNo, line)).
				WithCause(err)
		}
		plan.Entries = append(plan.Entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return types.DeployPlan{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read plan file").
			WithCause(err)
	}
	if plan.Fingerprint == "" {
		return types.DeployPlan{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("plan file has no fingerprint header")
	}
	return plan, nil
}

func (a OutputReaderAdapter) ReadValidationReport(path string) (types.ValidationReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.ValidationReport{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("validation report not found").
			WithCause(err)
	}
	report := types.ValidationReport{}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ",", 4)
		if len(parts) != 4 {
			return types.ValidationReport{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("invalid validation report line: %s", line))
		}
		report.Records = append(report.Records, types.ValidationRecord{
			Level:   types.ValidationLevel(parts[0]),
			Code:    parts[1],
			Subject: parts[2],
			Message: parts[3],
		})
	}
	return report, nil
}

func parsePlanLine(line string) (types.PlanEntry, error) {
	entry := types.PlanEntry{}
	for _, field := range strings.Fields(line) {
		key, value, found := strings.Cut(field, "=")
		if !found {
			return types.PlanEntry{}, fmt.Errorf("field %q has no value", field)
		}
		switch key {
		case "function":
			entry.Function = value
		case "revision":
			entry.Revision = value
		case "region":
			entry.Region = value
		case "reason":
			entry.Reason = value
		}
	}
	if entry.Function == "" || entry.Revision == "" {
		return types.PlanEntry{}, fmt.Errorf("missing function or revision")
	}
	return entry, nil
}

var _ ports.OutputReaderPort = OutputReaderAdapter{}
