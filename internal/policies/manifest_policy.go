package policies

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"

	"funcfleet/internal/types"
)

// ManifestPolicy checks dependency manifests for duplicate pins with
// conflicting versions. Conflicts can be resolved explicitly by a
// fleet-level resolution directive; everything unresolved is an error.
type ManifestPolicy struct {
	resolutions map[string]types.ManifestResolution
}

func NewManifestPolicy(resolutions []types.ManifestResolution) ManifestPolicy {
	byPackage := map[string]types.ManifestResolution{}
	for _, resolution := range resolutions {
		byPackage[resolution.Package] = resolution
	}
	return ManifestPolicy{resolutions: byPackage}
}

// ManifestOutcome is the result of checking one or more manifests:
// validation records for every finding plus the resolution directives
// that were actually exercised.
type ManifestOutcome struct {
	Records    []types.ValidationRecord
	Resolution types.ResolutionReport
}

// Check inspects all entries across the given manifests. Duplicate pins
// with identical versions are deduplicated with a warning; conflicting
// pins without a resolution directive produce an error record. The
// returned error is non-nil only for conflicts with no directive.
func (p ManifestPolicy) Check(manifests []types.Manifest) (ManifestOutcome, error) {
	byName := map[string][]types.Requirement{}
	var names []string
	for _, manifest := range manifests {
		for _, entry := range manifest.Entries {
			if _, seen := byName[entry.Name]; !seen {
				names = append(names, entry.Name)
			}
			byName[entry.Name] = append(byName[entry.Name], entry)
		}
	}
	sort.Strings(names)

	outcome := ManifestOutcome{}
	var firstConflict error
	for _, name := range names {
		entries := byName[name]
		if len(entries) < 2 {
			continue
		}
		conflict := false
		for _, entry := range entries[1:] {
			if pinsConflict(entries[0], entry) {
				conflict = true
				break
			}
		}
		if !conflict {
			outcome.Records = append(outcome.Records, types.ValidationRecord{
				Level:   types.ValidationLevelWarn,
				Code:    "manifest-duplicate",
				Subject: name,
				Message: fmt.Sprintf("duplicate entries deduplicated: %s", provenances(entries)),
			})
			continue
		}
		if resolution, ok := p.resolutions[name]; ok {
			outcome.Records = append(outcome.Records, types.ValidationRecord{
				Level:   types.ValidationLevelWarn,
				Code:    "manifest-resolved",
				Subject: name,
				Message: fmt.Sprintf("conflict resolved to %s: %s", resolution.UseVersion, resolution.Reason),
			})
			outcome.Resolution.Records = append(outcome.Resolution.Records, types.ResolutionRecord{
				Package:    resolution.Package,
				UseVersion: resolution.UseVersion,
				Reason:     resolution.Reason,
				Owner:      resolution.Owner,
				ExpiresAt:  resolution.ExpiresAt,
			})
			continue
		}
		outcome.Records = append(outcome.Records, types.ValidationRecord{
			Level:   types.ValidationLevelError,
			Code:    "manifest-conflict",
			Subject: name,
			Message: fmt.Sprintf("conflicting pinned versions: %s", provenances(entries)),
		})
		if firstConflict == nil {
			firstConflict = errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg(fmt.Sprintf("manifest conflict without resolution directive: %s (%s)", name, provenances(entries)))
		}
	}
	return outcome, firstConflict
}

// Dedupe returns the manifests' entries with same-name-same-version
// duplicates collapsed. Entry order follows first appearance.
func Dedupe(manifest types.Manifest) types.Manifest {
	seen := map[string]struct{}{}
	out := types.Manifest{Path: manifest.Path}
	for _, entry := range manifest.Entries {
		key := entry.Name + string(entry.Op) + entry.Version
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out.Entries = append(out.Entries, entry)
	}
	return out
}

// pinsConflict reports whether two pinned entries disagree on the
// release. Unpinned entries never conflict; "1.0" and "1.0.0" pin the
// same release under PEP 440 equality.
func pinsConflict(a types.Requirement, b types.Requirement) bool {
	if !pinnedOp(a.Op) || !pinnedOp(b.Op) {
		return false
	}
	va, errA := pep440.Parse(a.Version)
	vb, errB := pep440.Parse(b.Version)
	if errA != nil || errB != nil {
		return a.Version != b.Version
	}
	return !va.Equal(vb)
}

func pinnedOp(op types.ConstraintOp) bool {
	return op == types.ConstraintOpEq || op == types.ConstraintOpEq2
}

func provenances(entries []types.Requirement) string {
	var parts []string
	for _, entry := range entries {
		value := entry.Version
		if value == "" {
			value = "unpinned"
		}
		parts = append(parts, fmt.Sprintf("%s@%s", entry.Source, value))
	}
	return strings.Join(parts, ", ")
}
