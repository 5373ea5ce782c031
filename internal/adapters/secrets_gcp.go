package adapters

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/ZanzyTHEbar/errbuilder-go"

	"funcfleet/internal/ports"
)

// SecretsGCPAdapter reads secret values from Secret Manager. Bare names
// resolve against the configured project at the latest version.
type SecretsGCPAdapter struct {
	Client  *secretmanager.Client
	Project string
}

func NewSecretsGCPAdapter(ctx context.Context, project string) (*SecretsGCPAdapter, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create secret manager client").
			WithCause(err)
	}
	return &SecretsGCPAdapter{Client: client, Project: project}, nil
}

func (a *SecretsGCPAdapter) Get(ctx context.Context, name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("secret name is required")
	}
	resource := trimmed
	if !strings.HasPrefix(resource, "projects/") {
		resource = fmt.Sprintf("projects/%s/secrets/%s/versions/latest", a.Project, trimmed)
	}
	resp, err := a.Client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: resource})
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("failed to access secret").
			WithCause(err)
	}
	return string(resp.Payload.Data), nil
}

var _ ports.SecretsPort = (*SecretsGCPAdapter)(nil)
