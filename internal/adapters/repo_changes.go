package adapters

import (
	"context"
	"os/exec"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"funcfleet/internal/ports"
	"funcfleet/internal/shared"
)

// RepoChangesAdapter lists the paths touched by a git revision range
// using the repo's own git binary.
type RepoChangesAdapter struct{}

func NewRepoChangesAdapter() RepoChangesAdapter {
	return RepoChangesAdapter{}
}

func (a RepoChangesAdapter) ChangedPaths(ctx context.Context, repoDir string, gitRange string) ([]string, error) {
	trimmedRange := strings.TrimSpace(gitRange)
	if trimmedRange == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("git range is required")
	}
	cmd := exec.CommandContext(ctx, "git", "diff", "--name-only", trimmedRange)
	if strings.TrimSpace(repoDir) != "" {
		cmd.Dir = repoDir
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, shared.CommandError(output, err)
	}
	var paths []string
	for _, line := range strings.Split(string(output), "\n") {
		path := strings.TrimSpace(line)
		if path == "" {
			continue
		}
		paths = append(paths, path)
	}
	return paths, nil
}

var _ ports.RepoChangesPort = RepoChangesAdapter{}
