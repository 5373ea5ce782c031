package adapters

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"funcfleet/internal/ports"
	"funcfleet/internal/types"
)

// Step action prefixes the fleet's workflows are built from. Versions
// after the @ may move; the prefix identifies the step.
const (
	AuthActionPrefix   = "google-github-actions/auth@"
	DeployActionPrefix = "google-github-actions/deploy-cloud-functions@"
)

type WorkflowFileAdapter struct{}

func NewWorkflowFileAdapter() WorkflowFileAdapter {
	return WorkflowFileAdapter{}
}

func (a WorkflowFileAdapter) LoadWorkflow(path string) (types.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Workflow{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("workflow file not found").
			WithCause(err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var workflow types.Workflow
	if err := decoder.Decode(&workflow); err != nil {
		return types.Workflow{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("failed to parse workflow yaml: %s", path)).
			WithCause(err)
	}
	return workflow, nil
}

func (a WorkflowFileAdapter) SaveWorkflow(path string, workflow types.Workflow) error {
	data, err := yaml.Marshal(workflow)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to marshal workflow").
			WithCause(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create workflow directory").
			WithCause(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write workflow file").
			WithCause(err)
	}
	return nil
}

func (a WorkflowFileAdapter) ListWorkflows(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("workflow directory not found").
			WithCause(err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "deploy_") && (strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".yaml")) {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// DeployStep locates the single deploy step in a workflow and decodes
// its with: block. The returned index counts steps across all jobs in
// job-name order, so step ordering checks are deterministic.
func DeployStep(workflow types.Workflow) (types.DeployParams, int, error) {
	step, index, err := findStep(workflow, DeployActionPrefix)
	if err != nil {
		return types.DeployParams{}, -1, err
	}
	params, err := decodeDeployParams(step.With)
	if err != nil {
		return types.DeployParams{}, -1, err
	}
	return params, index, nil
}

// AuthStepIndex returns the position of the auth step, or -1 when the
// workflow has none.
func AuthStepIndex(workflow types.Workflow) int {
	_, index, err := findStep(workflow, AuthActionPrefix)
	if err != nil {
		return -1
	}
	return index
}

func findStep(workflow types.Workflow, usesPrefix string) (types.Step, int, error) {
	var found *types.Step
	foundIndex := -1
	index := 0
	for _, jobName := range sortedJobNames(workflow.Jobs) {
		for _, step := range workflow.Jobs[jobName].Steps {
			if strings.HasPrefix(step.Uses, usesPrefix) {
				if found != nil {
					return types.Step{}, -1, errbuilder.New().
						WithCode(errbuilder.CodeInvalidArgument).
						WithMsg(fmt.Sprintf("workflow %s has multiple %s steps", workflow.Name, strings.TrimSuffix(usesPrefix, "@")))
				}
				step := step
				found = &step
				foundIndex = index
			}
			index++
		}
	}
	if found == nil {
		return types.Step{}, -1, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("workflow %s has no %s step", workflow.Name, strings.TrimSuffix(usesPrefix, "@")))
	}
	return *found, foundIndex, nil
}

func decodeDeployParams(with map[string]string) (types.DeployParams, error) {
	params := types.DeployParams{
		Name:            with["name"],
		SourceDir:       with["source_dir"],
		Runtime:         with["runtime"],
		EntryPoint:      with["entry_point"],
		Region:          with["region"],
		TriggerType:     with["event_trigger_type"],
		TriggerResource: with["event_trigger_resource"],
	}
	params.HTTPTrigger = params.TriggerType == "" && params.TriggerResource == ""

	for key, target := range map[string]*int{
		"timeout":       &params.TimeoutSec,
		"max_instances": &params.MaxInstances,
		"memory_mb":     &params.MemoryMB,
	} {
		raw, ok := with[key]
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		value, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(raw), "s"))
		if err != nil {
			return types.DeployParams{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("deploy step input %s is not numeric: %s", key, raw)).
				WithCause(err)
		}
		*target = value
	}
	return params, nil
}

func sortedJobNames(jobs map[string]types.Job) []string {
	names := make([]string, 0, len(jobs))
	for name := range jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var _ ports.WorkflowPort = WorkflowFileAdapter{}
