package adapters

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"google.golang.org/api/cloudfunctions/v1"
	"google.golang.org/api/googleapi"

	"funcfleet/internal/ports"
	"funcfleet/internal/shared"
)

const pubsubPublishEventType = "google.pubsub.topic.publish"
const operationPollInterval = 5 * time.Second

// FunctionsGCPAdapter drives the Cloud Functions v1 API. Apply blocks
// until the create or patch operation settles.
type FunctionsGCPAdapter struct {
	Service *cloudfunctions.Service

	// PollInterval overrides the operation poll cadence in tests.
	PollInterval time.Duration
}

func NewFunctionsGCPAdapter(ctx context.Context) (*FunctionsGCPAdapter, error) {
	service, err := cloudfunctions.NewService(ctx)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create cloud functions client").
			WithCause(err)
	}
	return &FunctionsGCPAdapter{Service: service}, nil
}

func (a *FunctionsGCPAdapter) Get(ctx context.Context, project string, region string, name string) (ports.FunctionState, error) {
	resource := shared.FunctionResource(project, region, name)
	fn, err := a.Service.Projects.Locations.Functions.Get(resource).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return ports.FunctionState{}, nil
		}
		return ports.FunctionState{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to fetch function").
			WithCause(err)
	}
	state := ports.FunctionState{
		Exists:       true,
		Status:       fn.Status,
		VersionID:    fn.VersionId,
		UpdateTime:   parseUpdateTime(fn.UpdateTime),
		Runtime:      fn.Runtime,
		EntryPoint:   fn.EntryPoint,
		TimeoutSec:   parseTimeoutSeconds(fn.Timeout),
		MaxInstances: int(fn.MaxInstances),
		MemoryMB:     int(fn.AvailableMemoryMb),
	}
	if fn.EventTrigger != nil {
		state.TriggerType = fn.EventTrigger.EventType
		state.TriggerResource = fn.EventTrigger.Resource
	}
	return state, nil
}

func (a *FunctionsGCPAdapter) GenerateUploadURL(ctx context.Context, project string, region string) (string, error) {
	parent := fmt.Sprintf("projects/%s/locations/%s", project, region)
	resp, err := a.Service.Projects.Locations.Functions.GenerateUploadUrl(parent, &cloudfunctions.GenerateUploadUrlRequest{}).Context(ctx).Do()
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to generate upload url").
			WithCause(err)
	}
	return resp.UploadUrl, nil
}

func (a *FunctionsGCPAdapter) Apply(ctx context.Context, spec ports.FunctionDeploySpec) error {
	resource := shared.FunctionResource(spec.Project, spec.Region, spec.Name)
	fn := &cloudfunctions.CloudFunction{
		Name:                 resource,
		Runtime:              spec.Runtime,
		EntryPoint:           spec.EntryPoint,
		Timeout:              fmt.Sprintf("%ds", spec.TimeoutSec),
		MaxInstances:         int64(spec.MaxInstances),
		AvailableMemoryMb:    int64(spec.MemoryMB),
		EnvironmentVariables: spec.Env,
	}
	mask := []string{"runtime", "entryPoint", "timeout", "maxInstances", "availableMemoryMb", "environmentVariables"}
	switch {
	case spec.SourceUploadURL != "":
		fn.SourceUploadUrl = spec.SourceUploadURL
		mask = append(mask, "sourceUploadUrl")
	case spec.SourceArchiveURL != "":
		fn.SourceArchiveUrl = spec.SourceArchiveURL
		mask = append(mask, "sourceArchiveUrl")
	default:
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("deploy spec has no source location")
	}
	if spec.TriggerTopic != "" {
		fn.EventTrigger = &cloudfunctions.EventTrigger{
			EventType: pubsubPublishEventType,
			Resource:  shared.TopicResource(spec.Project, spec.TriggerTopic),
		}
		mask = append(mask, "eventTrigger")
	} else {
		fn.HttpsTrigger = &cloudfunctions.HttpsTrigger{}
		mask = append(mask, "httpsTrigger")
	}

	existing, err := a.Get(ctx, spec.Project, spec.Region, spec.Name)
	if err != nil {
		return err
	}
	var op *cloudfunctions.Operation
	if existing.Exists {
		op, err = a.Service.Projects.Locations.Functions.Patch(resource, fn).
			UpdateMask(strings.Join(mask, ",")).Context(ctx).Do()
	} else {
		parent := fmt.Sprintf("projects/%s/locations/%s", spec.Project, spec.Region)
		op, err = a.Service.Projects.Locations.Functions.Create(parent, fn).Context(ctx).Do()
	}
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to submit function deployment").
			WithCause(err)
	}
	return a.waitOperation(ctx, op.Name)
}

func (a *FunctionsGCPAdapter) waitOperation(ctx context.Context, name string) error {
	interval := a.PollInterval
	if interval <= 0 {
		interval = operationPollInterval
	}
	for {
		op, err := a.Service.Operations.Get(name).Context(ctx).Do()
		if err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to poll deployment operation").
				WithCause(err)
		}
		if op.Done {
			if op.Error != nil {
				return errbuilder.New().
					WithCode(errbuilder.CodeInternal).
					WithMsg("function deployment failed").
					WithCause(fmt.Errorf("code=%d message=%s", op.Error.Code, op.Error.Message))
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("deployment wait canceled").
				WithCause(ctx.Err())
		case <-time.After(interval):
		}
	}
}

func parseTimeoutSeconds(value string) int {
	trimmed := strings.TrimSuffix(strings.TrimSpace(value), "s")
	if trimmed == "" {
		return 0
	}
	var seconds int
	if _, err := fmt.Sscanf(trimmed, "%d", &seconds); err != nil {
		return 0
	}
	return seconds
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound
	}
	return false
}

var _ ports.FunctionsPort = (*FunctionsGCPAdapter)(nil)
