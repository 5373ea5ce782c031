package adapters

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"funcfleet/internal/types"
)

const topicPageHTML = `<html><body>
<h2 class="topic-title"><a href="#">Пропал Иванов Иван, 45 лет</a></h2>
<div class="content">Пропал человек. Координаты штаба уточняются.</div>
<div class="back2top"></div>
</body></html>`

func TestFetchTopic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/viewtopic.php", r.URL.Path)
		assert.Equal(t, "41001", r.URL.Query().Get("t"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, topicPageHTML)
	}))
	t.Cleanup(server.Close)

	forum := NewForumHTTPAdapter(server.URL, 5, 0)
	page, err := forum.FetchTopic(context.Background(), 41001)
	require.NoError(t, err)
	assert.Equal(t, 41001, page.TopicID)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Equal(t, types.VisibilityRegular, page.Visibility)
	assert.Contains(t, page.Body, "Пропал человек.")
}

func TestFetchTopicDecodesWindows1251(t *testing.T) {
	encoded, err := charmap.Windows1251.NewEncoder().String(topicPageHTML)
	require.NoError(t, err)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=windows-1251")
		fmt.Fprint(w, encoded)
	}))
	t.Cleanup(server.Close)

	forum := NewForumHTTPAdapter(server.URL, 5, 0)
	page, err := forum.FetchTopic(context.Background(), 41001)
	require.NoError(t, err)
	assert.Contains(t, page.Body, "Координаты штаба")
}

func TestFetchTopicHiddenPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Для просмотра этого форума вы должны быть авторизованы")
	}))
	t.Cleanup(server.Close)

	forum := NewForumHTTPAdapter(server.URL, 5, 0)
	page, err := forum.FetchTopic(context.Background(), 41002)
	require.NoError(t, err)
	assert.Equal(t, types.VisibilityHidden, page.Visibility)
}

func TestFetchTopicGatewayFailureIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	forum := NewForumHTTPAdapter(server.URL, 5, 0)
	page, err := forum.FetchTopic(context.Background(), 41003)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, page.StatusCode)
	assert.Empty(t, page.Body)
}

func TestFetchTopicInvalidID(t *testing.T) {
	forum := NewForumHTTPAdapter("", 5, 0)
	_, err := forum.FetchTopic(context.Background(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "topic id must be positive")
}

func TestNewForumHTTPAdapterDefaultBase(t *testing.T) {
	forum := NewForumHTTPAdapter("  ", 5, 0)
	assert.Equal(t, "https://lizaalert.org/forum", forum.Base)

	forum = NewForumHTTPAdapter("https://forum.example/", 5, 0)
	assert.Equal(t, "https://forum.example", forum.Base)
}
