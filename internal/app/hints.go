package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"funcfleet/internal/types"
)

// hintUnmatchedPaths warns about watched path globs that match no file
// in the checkout. Such patterns can never fire the workflow.
func hintUnmatchedPaths(subject string, repoDir string, paths []string) []types.ValidationRecord {
	var records []types.ValidationRecord
	for _, pattern := range paths {
		matches, err := doublestar.FilepathGlob(filepath.Join(repoDir, filepath.FromSlash(pattern)))
		if err != nil || len(matches) > 0 {
			continue
		}
		records = append(records, types.ValidationRecord{
			Level:   types.ValidationLevelWarn,
			Code:    "watched-path",
			Subject: subject,
			Message: fmt.Sprintf("watched path %s matches no file in the checkout", pattern),
		})
	}
	return records
}

// checkDeployDefaultsHints returns hints for deploy flags that could be
// replaced by fleet spec values. A hint is generated when the user
// explicitly provided a value the spec already carries.
func checkDeployDefaultsHints(req DeployRequest, fleet types.FleetSpec) []string {
	checks := []struct {
		flagName string
		specKey  string
		provided bool
		hasValue bool
	}{
		{
			flagName: "--project",
			specKey:  "notify.project",
			provided: strings.TrimSpace(req.Project) != "",
			hasValue: fleet.Notify.Project != "",
		},
		{
			flagName: "--output",
			specKey:  "defaults.output",
			provided: strings.TrimSpace(req.OutputDir) != "",
			hasValue: fleet.Defaults.Output != "",
		},
	}

	var hints []string
	for _, c := range checks {
		if c.provided && c.hasValue {
			hints = append(hints, fmt.Sprintf(
				"hint: %s is also set in fleet spec (%s); you can omit the flag",
				c.flagName, c.specKey,
			))
		}
	}
	return hints
}

// emitHints writes hint messages to stderr.
func emitHints(hints []string) {
	for _, h := range hints {
		fmt.Fprintln(os.Stderr, h)
	}
}
