package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"funcfleet/internal/core"
	"funcfleet/internal/policies"
	"funcfleet/internal/shared"
	"funcfleet/internal/types"
)

const defaultAuditWorkers = 8

func (s Service) Audit(ctx context.Context, req AuditRequest) (AuditResult, error) {
	if len(req.Manifests) == 0 {
		return AuditResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("audit requires at least one manifest")
	}

	var pinned []types.Requirement
	seen := map[string]struct{}{}
	for _, manifestPath := range req.Manifests {
		manifest, err := s.Manifests.LoadManifest(manifestPath)
		if err != nil {
			return AuditResult{}, err
		}
		for _, entry := range policies.Dedupe(manifest).Entries {
			if !core.Pinned(entry) {
				continue
			}
			key := entry.Name + "==" + entry.Version
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			pinned = append(pinned, entry)
		}
	}
	if len(pinned) == 0 {
		return AuditResult{}, nil
	}

	available, err := s.auditVersions(ctx, req, pinned)
	if err != nil {
		return AuditResult{}, err
	}

	var findings []types.AuditFinding
	for _, entry := range pinned {
		versions := available[shared.NormalizePackageName(entry.Name)]
		if !core.VersionPublished(entry.Version, versions) {
			findings = append(findings, types.AuditFinding{
				Level:   types.ValidationLevelError,
				Package: entry.Name,
				Pinned:  entry.Version,
				Message: fmt.Sprintf("%s: pinned version %s is not published on the index", entry.Name, entry.Version),
			})
			continue
		}
		latest, err := core.LatestVersion(versions)
		if err != nil {
			return AuditResult{}, err
		}
		if latest != entry.Version {
			findings = append(findings, types.AuditFinding{
				Level:   types.ValidationLevelWarn,
				Package: entry.Name,
				Pinned:  entry.Version,
				Latest:  latest,
				Message: fmt.Sprintf("%s: %s -> %s", entry.Name, entry.Version, latest),
			})
		}
	}

	if outputDir := strings.TrimSpace(req.OutputDir); outputDir != "" {
		if err := s.output(outputDir).WriteAuditReport(findings); err != nil {
			return AuditResult{}, err
		}
	}

	result := AuditResult{Findings: findings}
	for _, finding := range findings {
		switch finding.Level {
		case types.ValidationLevelError:
			result.Errors++
		case types.ValidationLevelWarn:
			result.Warnings++
		}
	}
	log.Ctx(ctx).Debug().
		Int("packages", len(pinned)).
		Int("errors", result.Errors).
		Int("warnings", result.Warnings).
		Msg("manifest audit finished")
	if result.Errors > 0 {
		return result, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("audit found %d unpublished pin(s)", result.Errors))
	}
	return result, nil
}

// auditVersions resolves the published versions for every pinned
// package, preferring the on-disk version cache and fetching only the
// packages it does not cover. The merged result is saved back to the
// cache file when one is configured.
func (s Service) auditVersions(ctx context.Context, req AuditRequest, pinned []types.Requirement) (map[string][]string, error) {
	available := map[string][]string{}
	indexFile := strings.TrimSpace(req.IndexFile)
	if indexFile != "" {
		cache, err := s.VersionIndex.Read(indexFile)
		if err == nil {
			for name, versions := range cache.Packages {
				available[shared.NormalizePackageName(name)] = versions
			}
		}
	}

	var missing []string
	for _, entry := range pinned {
		name := shared.NormalizePackageName(entry.Name)
		if _, ok := available[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)

	if len(missing) > 0 {
		index := s.packageIndexPort(req.IndexURL, req.HTTPTimeoutSec, req.HTTPRetries)
		workers := req.Workers
		if workers <= 0 {
			workers = defaultAuditWorkers
		}
		fetched, err := index.VersionsMany(ctx, missing, workers)
		if err != nil {
			return nil, err
		}
		for name, versions := range fetched {
			available[shared.NormalizePackageName(name)] = versions
		}
	}

	if indexFile != "" && len(missing) > 0 {
		cache := types.VersionIndexFile{
			GeneratedAt: timeNow(s.Clock).Format(time.RFC3339),
			Index:       strings.TrimSpace(req.IndexURL),
			Packages:    available,
		}
		if err := s.VersionIndex.Write(indexFile, cache); err != nil {
			return nil, err
		}
	}
	return available, nil
}
