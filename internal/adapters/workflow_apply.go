package adapters

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"funcfleet/internal/ports"
	"funcfleet/internal/types"
)

// WorkflowApplyAdapter installs rendered workflows under a repo
// checkout and prunes deploy workflows the renderer no longer emits.
// Workflow files outside the deploy_ prefix are left alone.
type WorkflowApplyAdapter struct {
	Files WorkflowFileAdapter
}

func NewWorkflowApplyAdapter() WorkflowApplyAdapter {
	return WorkflowApplyAdapter{Files: NewWorkflowFileAdapter()}
}

func (a WorkflowApplyAdapter) Apply(repoDir string, workflows map[string]types.Workflow) ([]string, error) {
	if strings.TrimSpace(repoDir) == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("repo directory is required")
	}
	dirs := map[string]struct{}{}
	relPaths := make([]string, 0, len(workflows))
	for relPath := range workflows {
		relPaths = append(relPaths, relPath)
	}
	sort.Strings(relPaths)
	for _, relPath := range relPaths {
		fullPath := filepath.Join(repoDir, filepath.FromSlash(relPath))
		if err := a.Files.SaveWorkflow(fullPath, workflows[relPath]); err != nil {
			return nil, err
		}
		dirs[filepath.Dir(fullPath)] = struct{}{}
	}
	owned := map[string]struct{}{}
	for _, relPath := range relPaths {
		owned[filepath.Join(repoDir, filepath.FromSlash(relPath))] = struct{}{}
	}
	var removed []string
	for dir := range dirs {
		existing, err := a.Files.ListWorkflows(dir)
		if err != nil {
			return nil, err
		}
		for _, path := range existing {
			if _, ok := owned[path]; ok {
				continue
			}
			if err := os.Remove(path); err != nil {
				return nil, errbuilder.New().
					WithCode(errbuilder.CodeInternal).
					WithMsg("failed to remove stale workflow").
					WithCause(err)
			}
			rel, err := filepath.Rel(repoDir, path)
			if err != nil {
				rel = path
			}
			removed = append(removed, filepath.ToSlash(rel))
		}
	}
	sort.Strings(removed)
	return removed, nil
}

var _ ports.WorkflowApplyPort = WorkflowApplyAdapter{}
