package adapters

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"

	"funcfleet/internal/ports"
	"funcfleet/internal/shared"
)

const defaultIndexWorkers = 8

// PipIndexAdapter fetches package version lists from a PEP 503 simple
// index such as https://pypi.org/simple/.
type PipIndexAdapter struct {
	Base   string
	Client *http.Client
	cfg    httpRetryConfig
}

func NewPipIndexAdapter(base string, timeoutSec int, retries int) PipIndexAdapter {
	cfg := normalizeHTTPConfig(timeoutSec, retries, 0)
	return PipIndexAdapter{
		Base:   normalizeSimpleIndex(base),
		Client: &http.Client{Timeout: cfg.timeout},
		cfg:    cfg,
	}
}

func (a PipIndexAdapter) Versions(ctx context.Context, name string) ([]string, error) {
	normalized := shared.NormalizePackageName(name)
	if normalized == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("package name is required")
	}
	url := strings.TrimRight(a.Base, "/") + "/" + normalized + "/"
	resp, err := doGet(ctx, a.Client, url, a.cfg)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, shared.HTTPStatusError(resp.StatusCode, url)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read package index page").
			WithCause(err)
	}
	return sortPep440Versions(parseVersionsFromSimple(string(body))), nil
}

func (a PipIndexAdapter) VersionsMany(ctx context.Context, names []string, workers int) (map[string][]string, error) {
	normalized := uniqueStrings(normalizePackageNames(names))
	index := map[string][]string{}
	if len(normalized) == 0 {
		return index, nil
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if workers <= 0 {
		workers = defaultIndexWorkers
	}
	if len(normalized) < workers {
		workers = len(normalized)
	}
	type indexResult struct {
		name     string
		versions []string
		err      error
	}
	tasks := make(chan string)
	results := make(chan indexResult, len(normalized))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range tasks {
				if ctx.Err() != nil {
					results <- indexResult{name: name, err: ctx.Err()}
					continue
				}
				versions, err := a.Versions(ctx, name)
				results <- indexResult{name: name, versions: versions, err: err}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()
	for _, name := range normalized {
		if ctx.Err() != nil {
			break
		}
		tasks <- name
	}
	close(tasks)

	var firstErr error
	for result := range results {
		if result.err != nil && firstErr == nil {
			firstErr = result.err
			cancel()
		}
		if result.err == nil {
			index[result.name] = result.versions
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return index, nil
}

func normalizeSimpleIndex(base string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(base), "/")
	if trimmed == "" {
		trimmed = "https://pypi.org"
	}
	if strings.HasSuffix(trimmed, "/simple") {
		return trimmed + "/"
	}
	return trimmed + "/simple/"
}

func normalizePackageNames(values []string) []string {
	var out []string
	for _, value := range values {
		name := shared.NormalizePackageName(value)
		if name == "" {
			continue
		}
		out = append(out, name)
	}
	return out
}

func parseVersionsFromSimple(content string) []string {
	re := regexp.MustCompile(`href=["']([^"']+)["']`)
	matches := re.FindAllStringSubmatch(content, -1)
	versions := map[string]struct{}{}
	for _, match := range matches {
		raw := strings.Split(match[1], "#")[0]
		raw = strings.Split(raw, "?")[0]
		filename := filepath.Base(raw)
		version := parseVersionFromFilename(filename)
		if version == "" {
			continue
		}
		if _, err := pep440.Parse(version); err != nil {
			continue
		}
		versions[version] = struct{}{}
	}
	return mapKeys(versions)
}

func parseVersionFromFilename(filename string) string {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return ""
	}
	wheel := regexp.MustCompile(`^(.+?)-([0-9][^-]*)(?:-[^-]+)?-[^-]+-[^-]+-[^-]+\.whl$`)
	if match := wheel.FindStringSubmatch(filename); len(match) == 3 {
		return match[2]
	}
	sdist := regexp.MustCompile(`^(.+?)-([0-9][^-]*)\.(?:tar\.gz|zip|tar\.bz2|tar\.xz|tgz)$`)
	if match := sdist.FindStringSubmatch(filename); len(match) == 3 {
		return match[2]
	}
	return ""
}

func sortPep440Versions(versions []string) []string {
	sort.Slice(versions, func(i, j int) bool {
		vi, err := pep440.Parse(versions[i])
		if err != nil {
			return versions[i] < versions[j]
		}
		vj, err := pep440.Parse(versions[j])
		if err != nil {
			return versions[i] < versions[j]
		}
		return vi.Compare(vj) < 0
	})
	return versions
}

func mapKeys(values map[string]struct{}) []string {
	out := make([]string, 0, len(values))
	for key := range values {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func uniqueStrings(values []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

var _ ports.PackageIndexPort = PipIndexAdapter{}
