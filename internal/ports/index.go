package ports

import (
	"context"

	"funcfleet/internal/types"
)

// PackageIndexPort lists the published versions of a package, sorted
// ascending under PEP 440 ordering.
type PackageIndexPort interface {
	Versions(ctx context.Context, name string) ([]string, error)
	VersionsMany(ctx context.Context, names []string, workers int) (map[string][]string, error)
}

// VersionIndexPort reads and writes the offline name->versions cache.
type VersionIndexPort interface {
	Read(path string) (types.VersionIndexFile, error)
	Write(path string, index types.VersionIndexFile) error
}
