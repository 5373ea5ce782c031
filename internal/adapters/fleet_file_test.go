package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funcfleet/internal/types"
)

func writeSpecFile(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const fleetYAML = `api_version: funcfleet/v1
kind: fleet
metadata:
  name: forum-monitor
  version: "1.0"
  owners:
    - platform-team
defaults:
  project: sar-prod
  branch: master
  runtime: python310
  region: europe-west3
functions:
  - name: check_topics
    source_dir: functions/check_topics
    trigger:
      type: pubsub
      topic: topic_for_topic_management
    env:
      STAGE: prod
rollout:
  groups:
    - name: monitors
      matches: ["check_*"]
      order: 1
`

const overlayYAML = `api_version: funcfleet/v1
kind: overlay
metadata:
  name: staging
  version: "1.0"
defaults:
  project: sar-staging
functions:
  - name: check_topics
    source_dir: functions/check_topics
    memory_mb: 1024
`

func TestLoadFleet(t *testing.T) {
	path := writeSpecFile(t, "fleet.yaml", fleetYAML)

	spec, err := NewFleetFileAdapter().LoadFleet(path)
	require.NoError(t, err)
	assert.Equal(t, types.SpecKindFleet, spec.Kind)
	assert.Equal(t, "forum-monitor", spec.Metadata.Name)
	assert.Equal(t, "sar-prod", spec.Defaults.Project)
	require.Len(t, spec.Functions, 1)
	assert.Equal(t, "check_topics", spec.Functions[0].Name)
	assert.Equal(t, types.TriggerTypePubSub, spec.Functions[0].Trigger.Type)
	assert.Equal(t, "topic_for_topic_management", spec.Functions[0].Trigger.Topic)
	assert.Equal(t, "prod", spec.Functions[0].Env["STAGE"])
	require.Len(t, spec.Rollout.Groups, 1)
	assert.Equal(t, "monitors", spec.Rollout.Groups[0].Name)
}

func TestLoadFleetRejectsOverlayKind(t *testing.T) {
	path := writeSpecFile(t, "overlay.yaml", overlayYAML)

	_, err := NewFleetFileAdapter().LoadFleet(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spec kind is not fleet")
}

func TestLoadOverlay(t *testing.T) {
	path := writeSpecFile(t, "overlay.yaml", overlayYAML)

	spec, err := NewFleetFileAdapter().LoadOverlay(path)
	require.NoError(t, err)
	assert.Equal(t, types.SpecKindOverlay, spec.Kind)
	assert.Equal(t, "sar-staging", spec.Defaults.Project)
	require.Len(t, spec.Functions, 1)
	assert.Equal(t, 1024, spec.Functions[0].MemoryMB)
}

func TestLoadOverlayRejectsFleetKind(t *testing.T) {
	path := writeSpecFile(t, "fleet.yaml", fleetYAML)

	_, err := NewFleetFileAdapter().LoadOverlay(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spec kind is not overlay")
}

func TestLoadFleetMissingFile(t *testing.T) {
	_, err := NewFleetFileAdapter().LoadFleet(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fleet spec file not found")
}

func TestLoadFleetRejectsUnknownFields(t *testing.T) {
	path := writeSpecFile(t, "fleet.yaml", `api_version: funcfleet/v1
kind: fleet
metadata:
  name: forum-monitor
  version: "1.0"
functions: []
unknown_key: true
`)

	_, err := NewFleetFileAdapter().LoadFleet(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse fleet spec yaml")
}

func TestLoadFleetMalformedYAML(t *testing.T) {
	path := writeSpecFile(t, "fleet.yaml", "kind: [unterminated")

	_, err := NewFleetFileAdapter().LoadFleet(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse fleet spec yaml")
}
