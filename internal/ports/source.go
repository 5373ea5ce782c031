package ports

import "funcfleet/internal/types"

// SourceScanPort walks a function source directory, skipping junk
// directories, and produces a stable tree digest.
type SourceScanPort interface {
	ScanSource(root string) (types.SourceTree, error)
}

// ArchivePort packs a scanned source tree into a deterministic zip.
type ArchivePort interface {
	BuildArchive(tree types.SourceTree, destPath string) (int64, error)
}
