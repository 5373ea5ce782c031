package adapters

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const requestsSimplePage = `<!DOCTYPE html>
<html>
  <body>
    <a href="requests-2.30.0-py3-none-any.whl#sha256=deadbeef">requests-2.30.0-py3-none-any.whl</a>
    <a href="requests-2.31.0.tar.gz?foo=bar">requests-2.31.0.tar.gz</a>
    <a href="requests-2.31.0-py3-none-any.whl">requests-2.31.0-py3-none-any.whl</a>
    <a href="requests-2.4.1-cp310-cp310-manylinux_2_17_x86_64.whl">requests-2.4.1</a>
    <a href="requests-notaversion.tar.gz">garbage</a>
  </body>
</html>`

func newSimpleIndexServer(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for name, page := range pages {
			if r.URL.Path == "/simple/"+name+"/" {
				fmt.Fprint(w, page)
				return
			}
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestPipIndexVersions(t *testing.T) {
	server := newSimpleIndexServer(t, map[string]string{"requests": requestsSimplePage})
	index := NewPipIndexAdapter(server.URL, 5, 0)

	versions, err := index.Versions(context.Background(), "requests")
	require.NoError(t, err)
	assert.Equal(t, []string{"2.4.1", "2.30.0", "2.31.0"}, versions)
}

func TestPipIndexVersionsNormalizesName(t *testing.T) {
	server := newSimpleIndexServer(t, map[string]string{"google-cloud-pubsub": `<a href="google_cloud_pubsub-2.18.0-py2.py3-none-any.whl"></a>`})
	index := NewPipIndexAdapter(server.URL, 5, 0)

	versions, err := index.Versions(context.Background(), "Google_Cloud.PubSub")
	require.NoError(t, err)
	assert.Equal(t, []string{"2.18.0"}, versions)
}

func TestPipIndexVersionsNotFound(t *testing.T) {
	server := newSimpleIndexServer(t, nil)
	index := NewPipIndexAdapter(server.URL, 5, 0)

	versions, err := index.Versions(context.Background(), "no-such-package")
	require.NoError(t, err)
	assert.Nil(t, versions)
}

func TestPipIndexVersionsEmptyName(t *testing.T) {
	index := NewPipIndexAdapter("https://pypi.org", 5, 0)

	_, err := index.Versions(context.Background(), "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "package name is required")
}

func TestPipIndexVersionsServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)
	index := NewPipIndexAdapter(server.URL, 5, 0)

	_, err := index.Versions(context.Background(), "requests")
	require.Error(t, err)
	assert.Positive(t, calls.Load())
}

func TestPipIndexVersionsMany(t *testing.T) {
	server := newSimpleIndexServer(t, map[string]string{
		"requests": requestsSimplePage,
		"lxml":     `<a href="lxml-4.9.3.tar.gz"></a>`,
	})
	index := NewPipIndexAdapter(server.URL, 5, 0)

	result, err := index.VersionsMany(context.Background(), []string{"requests", "lxml", "requests"}, 4)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, []string{"2.4.1", "2.30.0", "2.31.0"}, result["requests"])
	assert.Equal(t, []string{"4.9.3"}, result["lxml"])
}

func TestPipIndexVersionsManyEmpty(t *testing.T) {
	index := NewPipIndexAdapter("https://pypi.org", 5, 0)

	result, err := index.VersionsMany(context.Background(), nil, 4)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestNormalizeSimpleIndex(t *testing.T) {
	tests := []struct {
		name string
		base string
		want string
	}{
		{name: "empty defaults to pypi", base: "", want: "https://pypi.org/simple/"},
		{name: "bare host", base: "https://mirror.local", want: "https://mirror.local/simple/"},
		{name: "trailing slash", base: "https://mirror.local/", want: "https://mirror.local/simple/"},
		{name: "already simple", base: "https://mirror.local/simple", want: "https://mirror.local/simple/"},
		{name: "simple with slash", base: "https://mirror.local/simple/", want: "https://mirror.local/simple/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeSimpleIndex(tt.base))
		})
	}
}

func TestParseVersionFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{filename: "requests-2.31.0-py3-none-any.whl", want: "2.31.0"},
		{filename: "lxml-4.9.3-cp310-cp310-manylinux_2_17_x86_64.whl", want: "4.9.3"},
		{filename: "requests-2.31.0.tar.gz", want: "2.31.0"},
		{filename: "psycopg2-binary-2.9.9.tar.gz", want: "2.9.9"},
		{filename: "archive.zip", want: ""},
		{filename: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, parseVersionFromFilename(tt.filename))
		})
	}
}

func TestSortPep440Versions(t *testing.T) {
	sorted := sortPep440Versions([]string{"2.31.0", "2.4.1", "2.30.0", "2.31.0rc1"})
	assert.Equal(t, []string{"2.4.1", "2.30.0", "2.31.0rc1", "2.31.0"}, sorted)
}
