package ports

import "funcfleet/internal/types"

// WorkflowPort reads and writes deploy workflow definition files in the
// CI provider's YAML dialect.
type WorkflowPort interface {
	LoadWorkflow(path string) (types.Workflow, error)
	SaveWorkflow(path string, workflow types.Workflow) error

	// ListWorkflows returns the deploy workflow files (deploy_*.yml)
	// found directly in dir, sorted by name.
	ListWorkflows(dir string) ([]string, error)
}

// WorkflowApplyPort installs rendered workflows into a repo checkout.
// The map key is the repo-relative workflow file path. Stale deploy
// workflows not present in the map are removed; their paths are
// returned. Files the renderer does not own are never touched.
type WorkflowApplyPort interface {
	Apply(repoDir string, workflows map[string]types.Workflow) (removed []string, err error)
}
