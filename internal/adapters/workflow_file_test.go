package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funcfleet/internal/types"
)

func deployWorkflow() types.Workflow {
	return types.Workflow{
		Name: "deploy-check_topics",
		On: types.WorkflowOn{Push: types.PushTrigger{
			Branches: []string{"master"},
			Paths:    []string{"functions/check_topics/**"},
		}},
		Jobs: map[string]types.Job{
			"deploy": {
				RunsOn: "ubuntu-latest",
				Steps: []types.Step{
					{Uses: "actions/checkout@v4"},
					{Uses: "google-github-actions/auth@v2", With: map[string]string{
						"credentials_json": "${{ secrets.GCP_SA_KEY }}",
					}},
					{Uses: "google-github-actions/deploy-cloud-functions@v2", With: map[string]string{
						"name":                   "check_topics",
						"source_dir":             "functions/check_topics",
						"runtime":                "python310",
						"entry_point":            "main",
						"region":                 "europe-west3",
						"timeout":                "540s",
						"memory_mb":              "512",
						"max_instances":          "10",
						"event_trigger_type":     "google.pubsub.topic.publish",
						"event_trigger_resource": "projects/sar-prod/topics/topic_for_topic_management",
					}},
				},
			},
		},
	}
}

func TestSaveAndLoadWorkflow(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".github", "workflows", "deploy_check_topics.yml")
	adapter := NewWorkflowFileAdapter()

	require.NoError(t, adapter.SaveWorkflow(path, deployWorkflow()))

	loaded, err := adapter.LoadWorkflow(path)
	require.NoError(t, err)
	assert.Equal(t, "deploy-check_topics", loaded.Name)
	assert.Equal(t, []string{"master"}, loaded.On.Push.Branches)
	require.Contains(t, loaded.Jobs, "deploy")
	assert.Len(t, loaded.Jobs["deploy"].Steps, 3)
}

func TestLoadWorkflowMissingFile(t *testing.T) {
	_, err := NewWorkflowFileAdapter().LoadWorkflow(filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workflow file not found")
}

func TestLoadWorkflowUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deploy_x.yml")
	require.NoError(t, os.WriteFile(path, []byte("name: x\nconcurrency: group\n"), 0644))

	_, err := NewWorkflowFileAdapter().LoadWorkflow(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse workflow yaml")
}

func TestListWorkflows(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"deploy_check_topics.yml",
		"deploy_send_notifications.yaml",
		"lint.yml",
		"deploy_notes.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("name: x\n"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "deploy_subdir.yml"), 0755))

	paths, err := NewWorkflowFileAdapter().ListWorkflows(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "deploy_check_topics.yml"),
		filepath.Join(dir, "deploy_send_notifications.yaml"),
	}, paths)
}

func TestListWorkflowsMissingDir(t *testing.T) {
	_, err := NewWorkflowFileAdapter().ListWorkflows(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workflow directory not found")
}

func TestDeployStep(t *testing.T) {
	params, index, err := DeployStep(deployWorkflow())
	require.NoError(t, err)
	assert.Equal(t, 2, index)
	assert.Equal(t, "check_topics", params.Name)
	assert.Equal(t, "python310", params.Runtime)
	assert.Equal(t, 540, params.TimeoutSec)
	assert.Equal(t, 512, params.MemoryMB)
	assert.Equal(t, 10, params.MaxInstances)
	assert.Equal(t, "google.pubsub.topic.publish", params.TriggerType)
	assert.False(t, params.HTTPTrigger)
}

func TestDeployStepHTTPTrigger(t *testing.T) {
	workflow := deployWorkflow()
	job := workflow.Jobs["deploy"]
	delete(job.Steps[2].With, "event_trigger_type")
	delete(job.Steps[2].With, "event_trigger_resource")
	workflow.Jobs["deploy"] = job

	params, _, err := DeployStep(workflow)
	require.NoError(t, err)
	assert.True(t, params.HTTPTrigger)
}

func TestDeployStepMissing(t *testing.T) {
	workflow := deployWorkflow()
	job := workflow.Jobs["deploy"]
	job.Steps = job.Steps[:2]
	workflow.Jobs["deploy"] = job

	_, index, err := DeployStep(workflow)
	require.Error(t, err)
	assert.Equal(t, -1, index)
	assert.Contains(t, err.Error(), "has no")
}

func TestDeployStepDuplicate(t *testing.T) {
	workflow := deployWorkflow()
	job := workflow.Jobs["deploy"]
	job.Steps = append(job.Steps, job.Steps[2])
	workflow.Jobs["deploy"] = job

	_, _, err := DeployStep(workflow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple")
}

func TestDeployStepNonNumericInput(t *testing.T) {
	workflow := deployWorkflow()
	workflow.Jobs["deploy"].Steps[2].With["memory_mb"] = "big"

	_, _, err := DeployStep(workflow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not numeric")
}

func TestAuthStepIndex(t *testing.T) {
	assert.Equal(t, 1, AuthStepIndex(deployWorkflow()))

	workflow := deployWorkflow()
	job := workflow.Jobs["deploy"]
	job.Steps = []types.Step{job.Steps[0], job.Steps[2]}
	workflow.Jobs["deploy"] = job
	assert.Equal(t, -1, AuthStepIndex(workflow))
}
