package adapters

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"

	"funcfleet/internal/core"
	"funcfleet/internal/ports"
	"funcfleet/internal/types"
)

type ManifestFileAdapter struct{}

func NewManifestFileAdapter() ManifestFileAdapter {
	return ManifestFileAdapter{}
}

// LoadManifest reads a pip requirements file. Comments and blank lines
// are skipped; inline comments are stripped. Every entry keeps its
// file:line provenance for conflict reporting.
func (a ManifestFileAdapter) LoadManifest(path string) (types.Manifest, error) {
	file, err := os.Open(path)
	if err != nil {
		return types.Manifest{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("manifest file not found").
			WithCause(err)
	}
	defer file.Close()

	manifest := types.Manifest{Path: path}
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "-") {
			continue
		}
		entry, err := core.ParseRequirement(line, fmt.Sprintf("%s:%d", path, lineNo))
		if err != nil {
			return types.Manifest{}, err
		}
		if entry.Op != types.ConstraintOpNone {
			if _, err := pep440.Parse(entry.Version); err != nil {
				return types.Manifest{}, errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("invalid version %q at %s:%d", entry.Version, path, lineNo)).
					WithCause(err)
			}
		}
		manifest.Entries = append(manifest.Entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return types.Manifest{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read manifest file").
			WithCause(err)
	}
	return manifest, nil
}

var _ ports.ManifestPort = ManifestFileAdapter{}
