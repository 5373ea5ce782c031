package ports

import "funcfleet/internal/types"

type ManifestPort interface {
	LoadManifest(path string) (types.Manifest, error)
}

// FreezeWriterPort emits a normalized pip-compatible requirements file
// (sorted, deduplicated, exact pins only).
type FreezeWriterPort interface {
	WriteFrozenManifest(path string, manifest types.Manifest) error
}
