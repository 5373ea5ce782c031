package app

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog/log"

	"funcfleet/internal/adapters"
	"funcfleet/internal/core"
	"funcfleet/internal/policies"
	"funcfleet/internal/types"
)

func (s Service) Validate(ctx context.Context, req ValidateRequest) (ValidateResult, error) {
	fleet, err := s.composeFleet(ctx, req.FleetPath, req.OverlayPaths)
	if err != nil {
		return ValidateResult{}, err
	}
	catalog, err := s.buildCatalog(fleet, req.CatalogFiles)
	if err != nil {
		return ValidateResult{}, err
	}

	deployPolicy := policies.NewDeployPolicy(catalog.Runtimes())
	var records []types.ValidationRecord
	for _, fn := range fleet.Functions {
		records = append(records, deployPolicy.CheckFunction(fn)...)
	}

	repoDir := strings.TrimSpace(req.RepoDir)
	if repoDir != "" {
		for _, fn := range fleet.Functions {
			records = append(records, s.checkWorkflow(fleet, fn, repoDir, deployPolicy)...)
			records = append(records, checkSourceTree(fn, repoDir)...)
		}
	}

	manifestRecords, resolution, err := s.checkManifests(fleet, catalog.Runtimes(), repoDir, req.Manifests)
	records = append(records, manifestRecords...)
	if err != nil {
		// Conflicts still get reported before the run fails.
		if writeErr := s.writeValidateReports(req.OutputDir, records, resolution); writeErr != nil {
			return ValidateResult{}, writeErr
		}
		return ValidateResult{}, err
	}

	sortRecords(records)
	if err := s.writeValidateReports(req.OutputDir, records, resolution); err != nil {
		return ValidateResult{}, err
	}

	result := ValidateResult{
		FleetName: fleet.Metadata.Name,
		Report:    types.ValidationReport{Records: records},
	}
	for _, record := range records {
		switch record.Level {
		case types.ValidationLevelError:
			result.Errors++
		case types.ValidationLevelWarn:
			result.Warnings++
		}
	}
	log.Ctx(ctx).Debug().
		Str("fleet", fleet.Metadata.Name).
		Int("errors", result.Errors).
		Int("warnings", result.Warnings).
		Msg("fleet validated")
	if result.Errors > 0 {
		return result, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("validation failed with %d error(s)", result.Errors))
	}
	return result, nil
}

// checkWorkflow validates one function's deploy workflow on disk: the
// self-watch property, branch filter, step ordering, deploy parameter
// limits and drift against the composed fleet spec.
func (s Service) checkWorkflow(fleet types.FleetSpec, fn types.FunctionSpec, repoDir string, deployPolicy policies.DeployPolicy) []types.ValidationRecord {
	relPath := core.WorkflowFilePath(fleet.Defaults, fn.Name)
	fullPath := filepath.Join(repoDir, filepath.FromSlash(relPath))
	if _, err := os.Stat(fullPath); err != nil {
		return []types.ValidationRecord{{
			Level:   types.ValidationLevelWarn,
			Code:    "workflow-missing",
			Subject: fn.Name,
			Message: fmt.Sprintf("no deploy workflow at %s; run render to create it", relPath),
		}}
	}
	workflow, err := s.Workflows.LoadWorkflow(fullPath)
	if err != nil {
		return []types.ValidationRecord{{
			Level:   types.ValidationLevelError,
			Code:    "workflow-load",
			Subject: fn.Name,
			Message: err.Error(),
		}}
	}

	var records []types.ValidationRecord
	fail := func(code string, format string, args ...any) {
		records = append(records, types.ValidationRecord{
			Level:   types.ValidationLevelError,
			Code:    code,
			Subject: fn.Name,
			Message: fmt.Sprintf(format, args...),
		})
	}

	if !watchesSelf(workflow.On.Push.Paths, relPath) {
		fail("self-watch", "watched paths do not include the workflow file %s", relPath)
	}
	if len(workflow.On.Push.Branches) == 0 {
		fail("branch-filter", "workflow has no branch filter")
	}
	records = append(records, hintUnmatchedPaths(fn.Name, repoDir, workflow.On.Push.Paths)...)

	params, deployIndex, err := adapters.DeployStep(workflow)
	if err != nil {
		fail("deploy-step", "%s", err.Error())
		return records
	}
	authIndex := adapters.AuthStepIndex(workflow)
	if authIndex < 0 {
		fail("auth-step", "workflow has no auth step")
	} else if authIndex > deployIndex {
		fail("auth-step", "auth step must come before the deploy step")
	}

	records = append(records, deployPolicy.CheckDeployParams(fn.Name, params)...)
	records = append(records, checkDeployDrift(fn, params)...)
	return records
}

// checkDeployDrift compares the workflow's deploy parameters against
// the composed fleet spec. The trigger resource embeds a project id the
// validate run does not know, so only the topic suffix is compared.
func checkDeployDrift(fn types.FunctionSpec, params types.DeployParams) []types.ValidationRecord {
	var records []types.ValidationRecord
	drift := func(field string, want any, got any) {
		records = append(records, types.ValidationRecord{
			Level:   types.ValidationLevelError,
			Code:    "workflow-drift",
			Subject: fn.Name,
			Message: fmt.Sprintf("%s differs from fleet spec: workflow has %v, fleet has %v", field, got, want),
		})
	}

	if params.Name != fn.Name {
		drift("name", fn.Name, params.Name)
	}
	if path.Clean(params.SourceDir) != path.Clean(fn.SourceDir) {
		drift("source_dir", path.Clean(fn.SourceDir), params.SourceDir)
	}
	if params.Runtime != fn.Runtime {
		drift("runtime", fn.Runtime, params.Runtime)
	}
	if params.EntryPoint != fn.EntryPoint {
		drift("entry_point", fn.EntryPoint, params.EntryPoint)
	}
	if params.Region != fn.Region {
		drift("region", fn.Region, params.Region)
	}
	if params.TimeoutSec != fn.TimeoutSec {
		drift("timeout", fn.TimeoutSec, params.TimeoutSec)
	}
	if params.MaxInstances != fn.MaxInstances {
		drift("max_instances", fn.MaxInstances, params.MaxInstances)
	}
	if params.MemoryMB != fn.MemoryMB {
		drift("memory_mb", fn.MemoryMB, params.MemoryMB)
	}
	switch fn.Trigger.Type {
	case types.TriggerTypePubSub:
		if params.HTTPTrigger {
			drift("trigger", "pubsub", "http")
		} else if !strings.HasSuffix(params.TriggerResource, "/topics/"+fn.Trigger.Topic) {
			drift("trigger topic", fn.Trigger.Topic, params.TriggerResource)
		}
	case types.TriggerTypeHTTP:
		if !params.HTTPTrigger {
			drift("trigger", "http", params.TriggerType)
		}
	}
	return records
}

func checkSourceTree(fn types.FunctionSpec, repoDir string) []types.ValidationRecord {
	sourceDir := filepath.Join(repoDir, filepath.FromSlash(fn.SourceDir))
	info, err := os.Stat(sourceDir)
	if err != nil || !info.IsDir() {
		return []types.ValidationRecord{{
			Level:   types.ValidationLevelError,
			Code:    "source-dir",
			Subject: fn.Name,
			Message: fmt.Sprintf("source directory %s does not exist", fn.SourceDir),
		}}
	}
	if _, err := os.Stat(filepath.Join(sourceDir, entryModule)); err != nil {
		return []types.ValidationRecord{{
			Level:   types.ValidationLevelError,
			Code:    "entry-module",
			Subject: fn.Name,
			Message: fmt.Sprintf("source directory %s has no %s", fn.SourceDir, entryModule),
		}}
	}
	return nil
}

// checkManifests loads the explicit manifest files plus each function's
// own manifest (when present in the checkout), checks cross-manifest
// pin conflicts and the native requirements of every function's runtime.
func (s Service) checkManifests(fleet types.FleetSpec, runtimes map[string]types.RuntimeImage, repoDir string, explicit []string) ([]types.ValidationRecord, types.ResolutionReport, error) {
	var records []types.ValidationRecord
	var manifests []types.Manifest
	byFunction := map[string]types.Manifest{}

	for _, manifestPath := range explicit {
		manifest, err := s.Manifests.LoadManifest(manifestPath)
		if err != nil {
			return nil, types.ResolutionReport{}, err
		}
		manifests = append(manifests, manifest)
	}
	if repoDir != "" {
		for _, fn := range fleet.Functions {
			fullPath := filepath.Join(repoDir, filepath.FromSlash(core.ManifestPath(fn)))
			if _, err := os.Stat(fullPath); err != nil {
				continue
			}
			manifest, err := s.Manifests.LoadManifest(fullPath)
			if err != nil {
				return nil, types.ResolutionReport{}, err
			}
			manifests = append(manifests, manifest)
			byFunction[fn.Name] = manifest
		}
	}
	if len(manifests) == 0 {
		return nil, types.ResolutionReport{}, nil
	}

	manifestPolicy := policies.NewManifestPolicy(fleet.Resolutions)
	outcome, conflictErr := manifestPolicy.Check(manifests)
	records = append(records, outcome.Records...)

	if len(runtimes) > 0 {
		runtimePolicy := policies.NewRuntimePolicy(runtimes)
		for _, fn := range fleet.Functions {
			manifest, ok := byFunction[fn.Name]
			if !ok {
				continue
			}
			runtimeRecords, err := runtimePolicy.CheckManifest(fn.Name, fn.Runtime, manifest)
			if err != nil {
				return records, outcome.Resolution, err
			}
			records = append(records, runtimeRecords...)
		}
	}
	return records, outcome.Resolution, conflictErr
}

func (s Service) writeValidateReports(outputDir string, records []types.ValidationRecord, resolution types.ResolutionReport) error {
	if strings.TrimSpace(outputDir) == "" {
		return nil
	}
	output := s.output(outputDir)
	if err := output.WriteValidationReport(types.ValidationReport{Records: records}); err != nil {
		return err
	}
	if len(resolution.Records) > 0 {
		if err := output.WriteResolutionReport(resolution); err != nil {
			return err
		}
	}
	return nil
}

// watchesSelf reports whether the workflow's own definition file is
// covered by its watched paths, exactly or through a glob.
func watchesSelf(paths []string, workflowFile string) bool {
	for _, pattern := range paths {
		if pattern == workflowFile {
			return true
		}
		if ok, err := doublestar.Match(pattern, workflowFile); err == nil && ok {
			return true
		}
	}
	return false
}

func sortRecords(records []types.ValidationRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Level != records[j].Level {
			return records[i].Level < records[j].Level
		}
		if records[i].Subject != records[j].Subject {
			return records[i].Subject < records[j].Subject
		}
		if records[i].Code != records[j].Code {
			return records[i].Code < records[j].Code
		}
		return records[i].Message < records[j].Message
	})
}
