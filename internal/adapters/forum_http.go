package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"golang.org/x/net/html/charset"

	"funcfleet/internal/core"
	"funcfleet/internal/ports"
	"funcfleet/internal/types"
)

const defaultForumBase = "https://lizaalert.org/forum"

// ForumHTTPAdapter fetches forum topic pages. The forum serves
// windows-1251 on some themes, so the body is decoded through the
// declared content-type charset.
type ForumHTTPAdapter struct {
	Base   string
	Client *http.Client
	cfg    httpRetryConfig
}

func NewForumHTTPAdapter(base string, timeoutSec int, retries int) ForumHTTPAdapter {
	trimmed := strings.TrimRight(strings.TrimSpace(base), "/")
	if trimmed == "" {
		trimmed = defaultForumBase
	}
	cfg := normalizeHTTPConfig(timeoutSec, retries, 0)
	return ForumHTTPAdapter{
		Base:   trimmed,
		Client: &http.Client{Timeout: cfg.timeout},
		cfg:    cfg,
	}
}

func (a ForumHTTPAdapter) FetchTopic(ctx context.Context, topicID int) (types.TopicPage, error) {
	if topicID <= 0 {
		return types.TopicPage{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("topic id must be positive")
	}
	url := fmt.Sprintf("%s/viewtopic.php?t=%d", a.Base, topicID)
	resp, err := doGet(ctx, a.Client, url, a.cfg)
	if err != nil {
		return types.TopicPage{}, err
	}
	defer resp.Body.Close()
	page := types.TopicPage{
		TopicID:    topicID,
		StatusCode: resp.StatusCode,
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Gateway failures are a page state the caller counts, not an
		// error: the sweep has a bad-gateway guard of its own.
		return page, nil
	}
	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return types.TopicPage{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to decode topic page charset").
			WithCause(err)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return types.TopicPage{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read topic page").
			WithCause(err)
	}
	page.Body = string(body)
	page.Visibility = core.ClassifyTopicPage(page.Body)
	return page, nil
}

var _ ports.ForumPort = ForumHTTPAdapter{}
