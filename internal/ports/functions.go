package ports

import (
	"context"
	"time"
)

// FunctionState is the provider-side view of a deployed function.
// Exists is false when the function has never been deployed.
type FunctionState struct {
	Exists          bool
	Status          string
	VersionID       int64
	UpdateTime      time.Time
	Runtime         string
	EntryPoint      string
	TimeoutSec      int
	MaxInstances    int
	MemoryMB        int
	TriggerType     string
	TriggerResource string
}

// FunctionDeploySpec carries everything the provider needs to create or
// patch one function. TriggerTopic empty means an HTTPS trigger.
type FunctionDeploySpec struct {
	Project          string
	Region           string
	Name             string
	Runtime          string
	EntryPoint       string
	TimeoutSec       int
	MaxInstances     int
	MemoryMB         int
	Env              map[string]string
	TriggerTopic     string
	SourceUploadURL  string
	SourceArchiveURL string
}

type FunctionsPort interface {
	Get(ctx context.Context, project string, region string, name string) (FunctionState, error)
	GenerateUploadURL(ctx context.Context, project string, region string) (string, error)

	// Apply creates the function when absent, patches it otherwise, and
	// waits for the resulting operation to finish.
	Apply(ctx context.Context, spec FunctionDeploySpec) error
}

// UploadPort PUTs a source archive to a provider-issued signed URL.
type UploadPort interface {
	Upload(ctx context.Context, uploadURL string, archivePath string) error
}

// ObjectStoragePort stages archives in a bucket and returns the object
// URL the deploy API accepts.
type ObjectStoragePort interface {
	UploadObject(ctx context.Context, bucket string, object string, path string) (string, error)
}
