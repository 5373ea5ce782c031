package ports

import "funcfleet/internal/types"

type OutputReaderPort interface {
	ReadPlan(path string) (types.DeployPlan, error)
	ReadValidationReport(path string) (types.ValidationReport, error)
}
