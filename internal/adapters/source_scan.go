package adapters

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"funcfleet/internal/ports"
	"funcfleet/internal/types"
)

type SourceScanAdapter struct{}

func NewSourceScanAdapter() SourceScanAdapter {
	return SourceScanAdapter{}
}

// ScanSource walks a function source directory and returns its file
// listing with per-file content hashes plus a tree digest. The digest
// is stable across hosts: relative slash paths, sorted.
func (a SourceScanAdapter) ScanSource(root string) (types.SourceTree, error) {
	if strings.TrimSpace(root) == "" {
		return types.SourceTree{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("source root is empty")
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return types.SourceTree{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("source directory not found: %s", root)).
			WithCause(err)
	}

	tree := types.SourceTree{Root: root}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if shouldSkipSourceDir(d.Name()) && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		entry, err := hashSourceFile(path, filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		tree.Files = append(tree.Files, entry)
		return nil
	})
	if err != nil {
		return types.SourceTree{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to scan source directory").
			WithCause(err)
	}

	sort.Slice(tree.Files, func(i, j int) bool { return tree.Files[i].RelPath < tree.Files[j].RelPath })
	tree.Digest = treeDigest(tree.Files)
	return tree, nil
}

func shouldSkipSourceDir(name string) bool {
	switch name {
	case ".git", "__pycache__", "venv", ".venv", "node_modules", ".mypy_cache", ".pytest_cache":
		return true
	default:
		return false
	}
}

func hashSourceFile(path string, rel string) (types.SourceFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return types.SourceFile{}, err
	}
	defer file.Close()
	hasher := sha256.New()
	size, err := io.Copy(hasher, file)
	if err != nil {
		return types.SourceFile{}, err
	}
	return types.SourceFile{
		RelPath: rel,
		Size:    size,
		SHA256:  hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

func treeDigest(files []types.SourceFile) string {
	hasher := sha256.New()
	for _, file := range files {
		fmt.Fprintf(hasher, "%s %d %s\n", file.RelPath, file.Size, file.SHA256)
	}
	return hex.EncodeToString(hasher.Sum(nil))[:12]
}

var _ ports.SourceScanPort = SourceScanAdapter{}
