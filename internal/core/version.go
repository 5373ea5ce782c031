package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"

	"funcfleet/internal/types"
)

// versionCache memoizes parsed PEP 440 objects to avoid repeated parsing
// while comparing manifest entries and index listings.
type versionCache struct {
	pep  map[string]pep440.Version
	spec map[string]pep440.Specifiers
}

func newVersionCache() *versionCache {
	return &versionCache{
		pep:  map[string]pep440.Version{},
		spec: map[string]pep440.Specifiers{},
	}
}

// pepVersion returns a parsed PEP 440 version, caching the result.
func (c *versionCache) pepVersion(value string) (pep440.Version, error) {
	if parsed, ok := c.pep[value]; ok {
		return parsed, nil
	}
	parsed, err := pep440.Parse(value)
	if err != nil {
		return pep440.Version{}, err
	}
	c.pep[value] = parsed
	return parsed, nil
}

// pepSpec returns parsed PEP 440 specifiers, caching the result.
func (c *versionCache) pepSpec(value string) (pep440.Specifiers, error) {
	if parsed, ok := c.spec[value]; ok {
		return parsed, nil
	}
	parsed, err := pep440.NewSpecifiers(value)
	if err != nil {
		return pep440.Specifiers{}, err
	}
	c.spec[value] = parsed
	return parsed, nil
}

// compare returns -1, 0, or 1 comparing two version strings under PEP 440
// semantics. Unparseable versions fall back to string comparison.
func (c *versionCache) compare(a string, b string) int {
	v1, err := c.pepVersion(a)
	if err != nil {
		return strings.Compare(a, b)
	}
	v2, err := c.pepVersion(b)
	if err != nil {
		return strings.Compare(a, b)
	}
	return v1.Compare(v2)
}

// equal reports PEP 440 equality, so "1.0" and "1.0.0" pin the same
// release.
func (c *versionCache) equal(a string, b string) bool {
	v1, err := c.pepVersion(a)
	if err != nil {
		return a == b
	}
	v2, err := c.pepVersion(b)
	if err != nil {
		return a == b
	}
	return v1.Equal(v2)
}

// LatestVersion returns the highest parseable version from available.
func LatestVersion(available []string) (string, error) {
	cache := newVersionCache()
	var candidates []string
	for _, version := range available {
		if _, err := cache.pepVersion(version); err != nil {
			continue
		}
		candidates = append(candidates, version)
	}
	if len(candidates) == 0 {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("no parseable versions available")
	}
	sort.Slice(candidates, func(i, j int) bool {
		return cache.compare(candidates[i], candidates[j]) > 0
	})
	return candidates[0], nil
}

// VersionPublished reports whether the pinned version appears in the
// available list under PEP 440 equality.
func VersionPublished(pinned string, available []string) bool {
	cache := newVersionCache()
	for _, version := range available {
		if cache.equal(pinned, version) {
			return true
		}
	}
	return false
}

// SatisfiesRequirement checks a candidate version against a requirement's
// operator and version using PEP 440 specifier semantics. Bare
// requirements accept everything.
func SatisfiesRequirement(req types.Requirement, version string) (bool, error) {
	if req.Op == types.ConstraintOpNone {
		return true, nil
	}
	cache := newVersionCache()
	spec, err := cache.pepSpec(toPep440Spec(req))
	if err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid requirement specifier for %s", req.Name)).
			WithCause(err)
	}
	parsed, err := cache.pepVersion(version)
	if err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid version %q", version)).
			WithCause(err)
	}
	return spec.Check(parsed), nil
}

// PinsConflict reports whether two pinned requirements for the same
// package name disagree on the release.
func PinsConflict(a types.Requirement, b types.Requirement) bool {
	if !Pinned(a) || !Pinned(b) {
		return false
	}
	cache := newVersionCache()
	return !cache.equal(a.Version, b.Version)
}

// toPep440Spec converts a requirement to a PEP 440 specifier string
// (e.g. ">= 1.0", "~= 2.3").
func toPep440Spec(req types.Requirement) string {
	op := string(req.Op)
	switch req.Op {
	case types.ConstraintOpEq, types.ConstraintOpEq2:
		op = "=="
	case types.ConstraintOpNe:
		op = "!="
	case types.ConstraintOpCompat:
		op = "~="
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s", op, req.Version))
}
