package policies

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	debversion "github.com/knqyf263/go-deb-version"

	"funcfleet/internal/types"
)

// nativeRequirement names a system package a manifest entry needs inside
// the runtime image, with the minimum deb version that works.
type nativeRequirement struct {
	SystemPackage string
	MinVersion    string
}

// nativeRequirements maps manifest package names (and name prefixes,
// marked with a trailing *) to the system libraries their C extensions
// link against.
var nativeRequirements = map[string]nativeRequirement{
	"psycopg2*":      {SystemPackage: "libpq5", MinVersion: "9.6"},
	"lxml":           {SystemPackage: "libxml2", MinVersion: "2.9.1"},
	"pillow":         {SystemPackage: "zlib1g", MinVersion: "1.2.11"},
	"cryptography":   {SystemPackage: "libssl3", MinVersion: "3.0.0"},
	"python-magic":   {SystemPackage: "libmagic1", MinVersion: "5.0"},
	"mysqlclient":    {SystemPackage: "libmariadb3", MinVersion: "10.0"},
	"pycurl":         {SystemPackage: "libcurl4", MinVersion: "7.68.0"},
	"reportlab":      {SystemPackage: "libfreetype6", MinVersion: "2.10"},
	"google-crc32c*": {SystemPackage: "libcrc32c1", MinVersion: "1.1"},
}

// RuntimePolicy checks that every manifest entry with a native
// dependency is covered by the function's runtime image.
type RuntimePolicy struct {
	Catalog map[string]types.RuntimeImage
}

func NewRuntimePolicy(catalog map[string]types.RuntimeImage) RuntimePolicy {
	return RuntimePolicy{Catalog: catalog}
}

// CheckManifest validates one function's manifest against its runtime.
// Unknown runtime names in the catalog fail the whole check; missing or
// outdated system packages produce per-package error records.
func (p RuntimePolicy) CheckManifest(functionName string, runtime string, manifest types.Manifest) ([]types.ValidationRecord, error) {
	image, ok := p.Catalog[runtime]
	if !ok {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("function %s uses runtime %q missing from the catalog", functionName, runtime))
	}

	var records []types.ValidationRecord
	for _, entry := range manifest.Entries {
		requirement, ok := nativeRequirementFor(entry.Name)
		if !ok {
			continue
		}
		provided, ok := image.SystemPackages[requirement.SystemPackage]
		if !ok {
			records = append(records, types.ValidationRecord{
				Level:   types.ValidationLevelError,
				Code:    "runtime-native",
				Subject: functionName,
				Message: fmt.Sprintf("%s needs system package %s, absent from runtime %s", entry.Name, requirement.SystemPackage, runtime),
			})
			continue
		}
		if debOlder(provided, requirement.MinVersion) {
			records = append(records, types.ValidationRecord{
				Level:   types.ValidationLevelError,
				Code:    "runtime-native",
				Subject: functionName,
				Message: fmt.Sprintf("%s needs %s >= %s, runtime %s ships %s", entry.Name, requirement.SystemPackage, requirement.MinVersion, runtime, provided),
			})
		}
	}
	if image.Deprecated {
		records = append(records, types.ValidationRecord{
			Level:   types.ValidationLevelWarn,
			Code:    "runtime-deprecated",
			Subject: functionName,
			Message: fmt.Sprintf("runtime %s is deprecated", runtime),
		})
	}
	return records, nil
}

func nativeRequirementFor(name string) (nativeRequirement, bool) {
	if requirement, ok := nativeRequirements[name]; ok {
		return requirement, true
	}
	for pattern, requirement := range nativeRequirements {
		if strings.HasSuffix(pattern, "*") && strings.HasPrefix(name, strings.TrimSuffix(pattern, "*")) {
			return requirement, true
		}
	}
	return nativeRequirement{}, false
}

// debOlder reports whether provided sorts before minimum under deb
// version ordering. Unparseable versions never fail the check.
func debOlder(provided string, minimum string) bool {
	haveVersion, err := debversion.NewVersion(provided)
	if err != nil {
		return false
	}
	wantVersion, err := debversion.NewVersion(minimum)
	if err != nil {
		return false
	}
	return haveVersion.Compare(wantVersion) < 0
}
