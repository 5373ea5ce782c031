package core

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"funcfleet/internal/shared"
	"funcfleet/internal/types"
)

const (
	defaultWorkflowDir = ".github/workflows"

	checkoutAction = "actions/checkout@v4"
	authAction     = "google-github-actions/auth@v2"
	deployAction   = "google-github-actions/deploy-cloud-functions@v1"

	pubsubEventType = "google.pubsub.topic.publish"
)

type RenderCore struct{}

type RenderedUnit struct {
	Function string
	File     string
	Workflow types.Workflow
}

func NewRenderCore() RenderCore {
	return RenderCore{}
}

// Render produces one push-triggered deploy workflow per function. Each
// workflow watches the function's source tree, manifest, extra paths and
// its own definition file, so editing a workflow redeploys the function
// it belongs to.
func (r RenderCore) Render(ctx context.Context, fleet types.FleetSpec, project string) ([]RenderedUnit, error) {
	if project == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("render requires a project id")
	}

	units := make([]RenderedUnit, 0, len(fleet.Functions))
	for _, fn := range fleet.Functions {
		workflow, err := buildWorkflow(fleet, fn, project)
		if err != nil {
			return nil, err
		}
		units = append(units, RenderedUnit{
			Function: fn.Name,
			File:     WorkflowFilePath(fleet.Defaults, fn.Name),
			Workflow: workflow,
		})
	}
	sort.Slice(units, func(i, j int) bool { return units[i].Function < units[j].Function })

	log.Ctx(ctx).Debug().Str("fleet", fleet.Metadata.Name).Int("workflows", len(units)).Msg("workflows rendered")
	return units, nil
}

// WorkflowFilePath returns the repo-relative location of a function's
// deploy workflow definition.
func WorkflowFilePath(defaults types.DeployDefaults, functionName string) string {
	dir := defaults.WorkflowDir
	if dir == "" {
		dir = defaultWorkflowDir
	}
	return path.Join(dir, "deploy_"+functionName+".yml")
}

func buildWorkflow(fleet types.FleetSpec, fn types.FunctionSpec, project string) (types.Workflow, error) {
	branch := fleet.Defaults.Branch
	if branch == "" {
		branch = "main"
	}

	deployWith, err := deployInputs(fn, project)
	if err != nil {
		return types.Workflow{}, err
	}

	return types.Workflow{
		Name: "deploy-" + fn.Name,
		On: types.WorkflowOn{
			Push: types.PushTrigger{
				Branches: []string{branch},
				Paths:    WatchedPaths(fleet, fn),
			},
		},
		Jobs: map[string]types.Job{
			"deploy": {
				RunsOn: "ubuntu-latest",
				Steps: []types.Step{
					{
						ID:   "checkout",
						Name: "Checkout",
						Uses: checkoutAction,
					},
					{
						ID:   "auth",
						Name: "Authenticate",
						Uses: authAction,
						With: map[string]string{
							"credentials_json": "${{ secrets.GCP_CREDENTIALS }}",
						},
					},
					{
						ID:   "deploy",
						Name: "Deploy " + fn.Name,
						Uses: deployAction,
						With: deployWith,
					},
				},
			},
		},
	}, nil
}

func deployInputs(fn types.FunctionSpec, project string) (map[string]string, error) {
	with := map[string]string{
		"name":          fn.Name,
		"region":        fn.Region,
		"runtime":       fn.Runtime,
		"entry_point":   fn.EntryPoint,
		"source_dir":    path.Clean(fn.SourceDir),
		"timeout":       strconv.Itoa(fn.TimeoutSec),
		"max_instances": strconv.Itoa(fn.MaxInstances),
		"memory_mb":     strconv.Itoa(fn.MemoryMB),
	}

	switch fn.Trigger.Type {
	case types.TriggerTypePubSub:
		if fn.Trigger.Topic == "" {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("function %s has a pubsub trigger without a topic", fn.Name))
		}
		with["event_trigger_type"] = pubsubEventType
		with["event_trigger_resource"] = shared.TopicResource(project, fn.Trigger.Topic)
	case types.TriggerTypeHTTP:
		// The deploy action defaults to an HTTPS trigger when no event
		// trigger inputs are present.
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("function %s has unsupported trigger type: %s", fn.Name, fn.Trigger.Type))
	}

	if len(fn.Env) > 0 {
		pairs := make([]string, 0, len(fn.Env))
		for _, key := range sortedKeys(fn.Env) {
			pairs = append(pairs, fmt.Sprintf("%s=%s", key, fn.Env[key]))
		}
		with["env_vars"] = strings.Join(pairs, ",")
	}

	if len(fn.Secrets) > 0 {
		refs := append([]types.SecretRef{}, fn.Secrets...)
		sort.Slice(refs, func(i, j int) bool { return refs[i].Env < refs[j].Env })
		pairs := make([]string, 0, len(refs))
		for _, ref := range refs {
			pairs = append(pairs, fmt.Sprintf("%s=projects/%s/secrets/%s/versions/latest", ref.Env, project, ref.Name))
		}
		with["secret_environment_variables"] = strings.Join(pairs, ",")
	}

	return with, nil
}
