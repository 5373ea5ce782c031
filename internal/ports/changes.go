package ports

import "context"

// RepoChangesPort lists the repo-relative paths changed in a git range.
type RepoChangesPort interface {
	ChangedPaths(ctx context.Context, repoDir string, gitRange string) ([]string, error)
}
