package adapters

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"funcfleet/internal/ports"
	"funcfleet/internal/types"
)

// archiveEpoch is the fixed timestamp written into every archive entry
// so identical sources zip to identical bytes.
var archiveEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

type ArchiveAdapter struct{}

func NewArchiveAdapter() ArchiveAdapter {
	return ArchiveAdapter{}
}

// BuildArchive packs a scanned source tree into a zip at destPath and
// returns the archive size in bytes. Entries keep the tree's sorted
// order and store relative slash paths.
func (a ArchiveAdapter) BuildArchive(tree types.SourceTree, destPath string) (int64, error) {
	if len(tree.Files) == 0 {
		return 0, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("source tree is empty")
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return 0, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create archive directory").
			WithCause(err)
	}
	out, err := os.Create(destPath)
	if err != nil {
		return 0, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create archive file").
			WithCause(err)
	}
	defer out.Close()

	writer := zip.NewWriter(out)
	for _, file := range tree.Files {
		header := &zip.FileHeader{
			Name:     file.RelPath,
			Method:   zip.Deflate,
			Modified: archiveEpoch,
		}
		entry, err := writer.CreateHeader(header)
		if err != nil {
			return 0, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to create archive entry").
				WithCause(err)
		}
		source, err := os.Open(filepath.Join(tree.Root, filepath.FromSlash(file.RelPath)))
		if err != nil {
			return 0, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg("source file disappeared during packaging").
				WithCause(err)
		}
		_, copyErr := io.Copy(entry, source)
		source.Close()
		if copyErr != nil {
			return 0, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to write archive entry").
				WithCause(copyErr)
		}
	}
	if err := writer.Close(); err != nil {
		return 0, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to finalize archive").
			WithCause(err)
	}
	if err := out.Sync(); err != nil {
		return 0, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to flush archive").
			WithCause(err)
	}
	info, err := out.Stat()
	if err != nil {
		return 0, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to stat archive").
			WithCause(err)
	}
	return info.Size(), nil
}

var _ ports.ArchivePort = ArchiveAdapter{}
