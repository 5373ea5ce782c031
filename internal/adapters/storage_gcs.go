package adapters

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/ZanzyTHEbar/errbuilder-go"

	"funcfleet/internal/ports"
)

// StorageGCSAdapter stages source archives in a bucket when deploys use
// archive-url sourcing instead of signed upload URLs.
type StorageGCSAdapter struct {
	Client *storage.Client
}

func NewStorageGCSAdapter(ctx context.Context) (*StorageGCSAdapter, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create storage client").
			WithCause(err)
	}
	return &StorageGCSAdapter{Client: client}, nil
}

func (a *StorageGCSAdapter) UploadObject(ctx context.Context, bucket string, object string, path string) (string, error) {
	if strings.TrimSpace(bucket) == "" || strings.TrimSpace(object) == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("bucket and object are required")
	}
	file, err := os.Open(path)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("failed to open archive for staging").
			WithCause(err)
	}
	defer file.Close()
	writer := a.Client.Bucket(bucket).Object(object).NewWriter(ctx)
	writer.ContentType = "application/zip"
	if _, err := io.Copy(writer, file); err != nil {
		_ = writer.Close()
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to stage archive object").
			WithCause(err)
	}
	if err := writer.Close(); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to finalize archive object").
			WithCause(err)
	}
	return fmt.Sprintf("gs://%s/%s", bucket, object), nil
}

var _ ports.ObjectStoragePort = (*StorageGCSAdapter)(nil)
