package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funcfleet/internal/adapters"
	"funcfleet/internal/app"
	"funcfleet/internal/core"
	"funcfleet/internal/types"
)

// TestInlineOverlayFlow exercises the single-file fleet workflow:
//
//	load -> resolve inline overlay -> compose -> validate structure
//
// This verifies the full pipeline for a fleet spec that embeds its
// environment overlay and runtime catalog instead of referencing
// separate files.
func TestInlineOverlayFlow(t *testing.T) {
	dir := t.TempDir()

	// Step 1: Write a fleet spec with an inline overlay and embedded runtimes.
	fleetContent := `
api_version: "v1"
kind: "fleet"
metadata:
  name: "inline-fleet"
  version: "0.1.0"
  owners:
    - "ci"

defaults:
  branch: "master"
  region: "europe-west1"
  memory_mb: 256

overlays:
  - name: "staging"
    version: "0.1.0"
    source: "inline"
    overlay:
      defaults:
        branch: "staging"
      functions:
        - name: "check_topics"
          memory_mb: 512

functions:
  - name: "check_topics"
    source_dir: "functions/check_topics"
    trigger:
      type: "pubsub"
      topic: "topic_for_topic_management"
  - name: "webhook_bot"
    source_dir: "functions/webhook_bot"
    trigger:
      type: "http"

runtimes:
  python310:
    base_image: "ubuntu:22.04"
    system_packages:
      libpq5: "14.9"
`
	fleetPath := filepath.Join(dir, "fleet.yaml")
	require.NoError(t, os.WriteFile(fleetPath, []byte(fleetContent), 0644))

	// Step 2: Load the fleet spec.
	fleetAdapter := adapters.NewFleetFileAdapter()
	fleet, err := fleetAdapter.LoadFleet(fleetPath)
	require.NoError(t, err)

	// Step 3: Verify defaults were parsed correctly.
	assert.Equal(t, "master", fleet.Defaults.Branch)
	assert.Equal(t, "europe-west1", fleet.Defaults.Region)
	assert.Equal(t, 256, fleet.Defaults.MemoryMB)

	// Step 4: Verify the inline overlay reference is present.
	require.Len(t, fleet.Overlays, 1)
	assert.Equal(t, "staging", fleet.Overlays[0].Name)
	assert.Equal(t, "inline", fleet.Overlays[0].Source)
	require.NotNil(t, fleet.Overlays[0].Overlay)

	// Step 5: Verify embedded runtimes were parsed.
	require.Len(t, fleet.Runtimes, 1)
	assert.Equal(t, "ubuntu:22.04", fleet.Runtimes["python310"].BaseImage)

	// Step 6: Resolve overlays (this exercises the inline overlay path).
	overlaySource := adapters.NewOverlaySourceAdapter(fleetAdapter)
	overlays, err := overlaySource.LoadOverlays(fleet, nil)
	require.NoError(t, err)
	require.Len(t, overlays, 1)
	assert.Equal(t, types.SpecKindOverlay, overlays[0].Kind)
	assert.Equal(t, "staging", overlays[0].Metadata.Name)

	// Step 7: Compose and validate the structure.
	composer := core.NewFleetComposer()
	composed, err := composer.Compose(t.Context(), fleet, overlays)
	require.NoError(t, err)

	compiler := core.NewFleetCompiler()
	require.NoError(t, compiler.ValidateFleet(t.Context(), composed))

	// Step 8: Verify the merge. The base branch is set and wins over
	// the overlay's; the overlay memory patch fills a field the base
	// function leaves unset.
	assert.Equal(t, "master", composed.Defaults.Branch)
	byName := map[string]types.FunctionSpec{}
	for _, fn := range composed.Functions {
		byName[fn.Name] = fn
	}
	assert.Equal(t, 512, byName["check_topics"].MemoryMB)
	assert.Equal(t, 256, byName["webhook_bot"].MemoryMB)

	// Step 9: Verify built-in fallbacks filled the unset fields.
	assert.Equal(t, "python310", byName["check_topics"].Runtime)
	assert.Equal(t, "main", byName["check_topics"].EntryPoint)
	assert.Equal(t, 540, byName["check_topics"].TimeoutSec)
	assert.Equal(t, "europe-west1", byName["webhook_bot"].Region)
}

// TestValidateTempCheckout runs a full validate against a scratch
// checkout, embedded-runtime catalog included.
func TestValidateTempCheckout(t *testing.T) {
	dir := t.TempDir()

	writeFunction := func(name string, manifest string) {
		srcDir := filepath.Join(dir, "functions", name)
		require.NoError(t, os.MkdirAll(srcDir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(srcDir, "main.py"), []byte("def main(event, context):\n    pass\n"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(srcDir, "requirements.txt"), []byte(manifest), 0644))
	}
	writeFunction("check_topics", "requests==2.31.0\npsycopg2-binary==2.9.9\n")
	writeFunction("webhook_bot", "requests==2.31.0\n")

	fleetContent := `
api_version: "v1"
kind: "fleet"
metadata:
  name: "scratch-fleet"
  version: "0.1.0"
  owners:
    - "ci"

defaults:
  region: "europe-west3"
  memory_mb: 512

functions:
  - name: "check_topics"
    source_dir: "functions/check_topics"
    trigger:
      type: "pubsub"
      topic: "topic_for_topic_management"
  - name: "webhook_bot"
    source_dir: "functions/webhook_bot"
    trigger:
      type: "http"

runtimes:
  python310:
    base_image: "ubuntu:22.04"
    system_packages:
      libpq5: "14.9"
`
	fleetPath := filepath.Join(dir, "fleet.yaml")
	require.NoError(t, os.WriteFile(fleetPath, []byte(fleetContent), 0644))

	service := app.NewService()
	result, err := service.Validate(t.Context(), app.ValidateRequest{
		FleetPath: fleetPath,
		RepoDir:   dir,
	})
	require.NoError(t, err)
	assert.Zero(t, result.Errors)

	// The only findings are the missing workflows and the shared pin.
	codes := map[string]int{}
	for _, record := range result.Report.Records {
		assert.Equal(t, types.ValidationLevelWarn, record.Level)
		codes[record.Code]++
	}
	assert.Equal(t, 2, codes["workflow-missing"])
	assert.Equal(t, 1, codes["manifest-duplicate"])
}

// TestValidateRejectsBadLimits verifies that provider limit violations
// fail the run with a precondition error.
func TestValidateRejectsBadLimits(t *testing.T) {
	dir := t.TempDir()

	fleetContent := `
api_version: "v1"
kind: "fleet"
metadata:
  name: "broken-fleet"
  version: "0.1.0"
  owners:
    - "ci"

functions:
  - name: "check_topics"
    source_dir: "functions/check_topics"
    memory_mb: 500
    timeout_sec: 900
    trigger:
      type: "pubsub"
      topic: "topic_for_topic_management"
`
	fleetPath := filepath.Join(dir, "fleet.yaml")
	require.NoError(t, os.WriteFile(fleetPath, []byte(fleetContent), 0644))

	service := app.NewService()
	result, err := service.Validate(t.Context(), app.ValidateRequest{
		FleetPath: fleetPath,
	})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
	assert.Equal(t, 2, result.Errors)

	codes := map[string]struct{}{}
	for _, record := range result.Report.Records {
		if record.Level == types.ValidationLevelError {
			codes[record.Code] = struct{}{}
		}
	}
	assert.Contains(t, codes, "memory-size")
	assert.Contains(t, codes, "timeout-range")
}
