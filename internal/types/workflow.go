package types

// Workflow models the CI pipeline dialect the fleet deploys with: a
// push-triggered pipeline whose deploy job publishes one serverless
// function.  Field order matters for deterministic rendering.
type Workflow struct {
	Name string         `yaml:"name"`
	On   WorkflowOn     `yaml:"on"`
	Jobs map[string]Job `yaml:"jobs"`
}

type WorkflowOn struct {
	Push PushTrigger `yaml:"push"`
}

// PushTrigger fires the workflow when a watched path changes on a
// watched branch.  Paths support gitignore-style globs including "**".
type PushTrigger struct {
	Branches []string `yaml:"branches"`
	Paths    []string `yaml:"paths"`
}

type Job struct {
	RunsOn string `yaml:"runs-on"`
	Steps  []Step `yaml:"steps"`
}

type Step struct {
	ID   string            `yaml:"id,omitempty"`
	Name string            `yaml:"name,omitempty"`
	Uses string            `yaml:"uses,omitempty"`
	Run  string            `yaml:"run,omitempty"`
	With map[string]string `yaml:"with,omitempty"`
}

// DeployParams is the decoded "with:" block of a deploy step.  These are
// the provider-facing deployment values; validation ranges live in the
// deploy policy.
type DeployParams struct {
	Name            string
	SourceDir       string
	Runtime         string
	EntryPoint      string
	Region          string
	TimeoutSec      int
	MaxInstances    int
	MemoryMB        int
	TriggerType     string
	TriggerResource string
	HTTPTrigger     bool
}
