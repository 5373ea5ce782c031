package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"funcfleet/internal/ports"
	"funcfleet/internal/types"
)

// FreezeWriterAdapter emits the normalized requirements.lock a pip
// install can consume directly: exact pins only, sorted, one per line.
type FreezeWriterAdapter struct{}

func NewFreezeWriterAdapter() FreezeWriterAdapter {
	return FreezeWriterAdapter{}
}

func (a FreezeWriterAdapter) WriteFrozenManifest(path string, manifest types.Manifest) error {
	if strings.TrimSpace(path) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("frozen manifest path is empty")
	}
	seen := map[string]struct{}{}
	var lines []string
	for _, entry := range manifest.Entries {
		if entry.Op != types.ConstraintOpEq && entry.Op != types.ConstraintOpEq2 {
			continue
		}
		line := fmt.Sprintf("%s==%s", entry.Name, entry.Version)
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		lines = append(lines, line)
	}
	sort.Strings(lines)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create frozen manifest directory").
			WithCause(err)
	}
	content := strings.Join(lines, "\n")
	if content != "" {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write frozen manifest").
			WithCause(err)
	}
	return nil
}

var _ ports.FreezeWriterPort = FreezeWriterAdapter{}
