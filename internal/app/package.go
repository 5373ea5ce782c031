package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"funcfleet/internal/core"
	"funcfleet/internal/policies"
	"funcfleet/internal/types"
)

// entryModule is the module the python runtimes load the entry point
// from.
const entryModule = "main.py"

func (s Service) Package(ctx context.Context, req PackageRequest) (PackageResult, error) {
	fleet, err := s.composeFleet(ctx, req.FleetPath, req.OverlayPaths)
	if err != nil {
		return PackageResult{}, err
	}
	outputDir := strings.TrimSpace(req.OutputDir)
	if outputDir == "" {
		return PackageResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is required")
	}

	builder := core.NewTargetBuilder(policies.NewRolloutPolicy(fleet.Rollout))
	targets, err := builder.Build(ctx, fleet, core.TargetInputs{
		Functions: req.Functions,
		All:       req.All || len(req.Functions) == 0,
	})
	if err != nil {
		return PackageResult{}, err
	}

	archives := make([]types.ArchiveInfo, 0, len(targets))
	for _, target := range targets {
		info, err := s.packageFunction(target.Function, outputDir)
		if err != nil {
			return PackageResult{}, err
		}
		archives = append(archives, info)
	}
	if err := s.output(outputDir).WriteArchiveReport(archives); err != nil {
		return PackageResult{}, err
	}
	log.Ctx(ctx).Debug().
		Str("fleet", fleet.Metadata.Name).
		Int("archives", len(archives)).
		Msg("source archives built")
	return PackageResult{Archives: archives}, nil
}

// packageFunction scans one function's source tree and packs it into a
// deterministic zip named after the function revision.
func (s Service) packageFunction(fn types.FunctionSpec, outputDir string) (types.ArchiveInfo, error) {
	sourceDir := sourcePath("", fn.SourceDir)
	if _, err := os.Stat(filepath.Join(sourceDir, entryModule)); err != nil {
		return types.ArchiveInfo{}, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("function %s: source directory %s has no %s", fn.Name, fn.SourceDir, entryModule))
	}
	tree, err := s.Source.ScanSource(sourceDir)
	if err != nil {
		return types.ArchiveInfo{}, err
	}
	revision := core.FunctionRevision(fn, tree.Digest)
	destPath := filepath.Join(outputDir, "archives", fmt.Sprintf("%s-%s.zip", fn.Name, revision))
	size, err := s.Archiver.BuildArchive(tree, destPath)
	if err != nil {
		return types.ArchiveInfo{}, err
	}
	return types.ArchiveInfo{
		Function: fn.Name,
		Revision: revision,
		Path:     destPath,
		Bytes:    size,
	}, nil
}

// sourcePath joins a function source dir onto a repo checkout root.
func sourcePath(repoDir string, sourceDir string) string {
	cleaned := filepath.FromSlash(sourceDir)
	if strings.TrimSpace(repoDir) == "" {
		return cleaned
	}
	return filepath.Join(repoDir, cleaned)
}
