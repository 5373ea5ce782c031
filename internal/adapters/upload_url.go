package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"funcfleet/internal/ports"
)

// UploadURLAdapter streams a source archive to a Cloud Functions signed
// upload URL. The service only accepts a zip body with the exact
// headers GenerateUploadUrl was issued for.
type UploadURLAdapter struct {
	Client *http.Client
	cfg    httpRetryConfig
}

func NewUploadURLAdapter(timeoutSec int, retries int) UploadURLAdapter {
	cfg := normalizeHTTPConfig(timeoutSec, retries, 0)
	if cfg.timeout < 60*time.Second {
		cfg.timeout = 60 * time.Second
	}
	return UploadURLAdapter{
		Client: &http.Client{Timeout: cfg.timeout},
		cfg:    cfg,
	}
}

func (a UploadURLAdapter) Upload(ctx context.Context, uploadURL string, archivePath string) error {
	if strings.TrimSpace(uploadURL) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("upload url is required")
	}
	var lastErr error
	for attempt := 0; attempt < a.cfg.retries; attempt++ {
		if ctx.Err() != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("upload canceled").
				WithCause(ctx.Err())
		}
		retry, err := a.uploadOnce(ctx, uploadURL, archivePath)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry || attempt == a.cfg.retries-1 {
			return err
		}
		time.Sleep(httpRetryDelay(attempt, a.cfg))
	}
	if lastErr == nil {
		lastErr = errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("archive upload failed")
	}
	return lastErr
}

func (a UploadURLAdapter) uploadOnce(ctx context.Context, uploadURL string, archivePath string) (bool, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("failed to open source archive").
			WithCause(err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to stat source archive").
			WithCause(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, file)
	if err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create upload request").
			WithCause(err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", "application/zip")
	req.Header.Set("x-goog-content-length-range", "0,104857600")
	resp, err := a.Client.Do(req)
	if err != nil {
		return true, errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("archive upload failed").
			WithCause(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return false, nil
	}
	body, _ := io.ReadAll(resp.Body)
	retry := resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests
	return retry, errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("archive upload failed").
		WithCause(fmt.Errorf("status=%d response=%s", resp.StatusCode, strings.TrimSpace(string(body))))
}

var _ ports.UploadPort = UploadURLAdapter{}
