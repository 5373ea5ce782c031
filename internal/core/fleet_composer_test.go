package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funcfleet/internal/types"
)

func baseFleet() types.FleetSpec {
	return types.FleetSpec{
		APIVersion: "v1",
		Kind:       types.SpecKindFleet,
		Metadata:   types.Metadata{Name: "forum-monitor", Version: "1.0.0", Owners: []string{"ops"}},
		Defaults:   types.DeployDefaults{Region: "europe-west3", MemoryMB: 512},
		Functions: []types.FunctionSpec{
			{
				Name:      "check_topics",
				SourceDir: "functions/check_topics",
				Trigger:   types.Trigger{Type: types.TriggerTypePubSub, Topic: "topic_to_run_checks"},
			},
		},
	}
}

func TestComposeBaseOnly(t *testing.T) {
	composer := NewFleetComposer()
	composed, err := composer.Compose(context.Background(), baseFleet(), nil)
	require.NoError(t, err)
	assert.Equal(t, types.SpecKindFleet, composed.Kind)
	assert.Equal(t, "forum-monitor", composed.Metadata.Name)
	require.Len(t, composed.Functions, 1)
	assert.Equal(t, "check_topics", composed.Functions[0].Name)
}

func TestComposeRejectsNonFleetBase(t *testing.T) {
	composer := NewFleetComposer()
	overlay := baseFleet()
	overlay.Kind = types.SpecKindOverlay
	_, err := composer.Compose(context.Background(), overlay, nil)
	require.Error(t, err)
}

func TestComposeRejectsNonOverlayLayer(t *testing.T) {
	composer := NewFleetComposer()
	_, err := composer.Compose(context.Background(), baseFleet(), []types.FleetSpec{baseFleet()})
	require.Error(t, err)
}

func TestComposeOverlayPatchesFunction(t *testing.T) {
	composer := NewFleetComposer()
	overlay := types.FleetSpec{
		Kind:     types.SpecKindOverlay,
		Metadata: types.Metadata{Name: "prod"},
		Functions: []types.FunctionSpec{
			{Name: "check_topics", MemoryMB: 1024, Env: map[string]string{"STAGE": "prod"}},
		},
	}
	composed, err := composer.Compose(context.Background(), baseFleet(), []types.FleetSpec{overlay})
	require.NoError(t, err)
	require.Len(t, composed.Functions, 1)
	assert.Equal(t, 1024, composed.Functions[0].MemoryMB)
	assert.Equal(t, "prod", composed.Functions[0].Env["STAGE"])
	// Unset overlay fields keep the base values.
	assert.Equal(t, "functions/check_topics", composed.Functions[0].SourceDir)
}

func TestComposeOverlayAddsFunction(t *testing.T) {
	composer := NewFleetComposer()
	overlay := types.FleetSpec{
		Kind:     types.SpecKindOverlay,
		Metadata: types.Metadata{Name: "prod"},
		Functions: []types.FunctionSpec{
			{
				Name:      "send_debug_to_admin",
				SourceDir: "functions/send_debug_to_admin",
				Trigger:   types.Trigger{Type: types.TriggerTypePubSub, Topic: "topic_notify_admin"},
			},
		},
	}
	composed, err := composer.Compose(context.Background(), baseFleet(), []types.FleetSpec{overlay})
	require.NoError(t, err)
	assert.Len(t, composed.Functions, 2)
}

func TestComposeBaseWinsPerField(t *testing.T) {
	composer := NewFleetComposer()
	overlay := types.FleetSpec{
		Kind:     types.SpecKindOverlay,
		Metadata: types.Metadata{Name: "staging"},
		Defaults: types.DeployDefaults{Region: "us-east1"},
		Functions: []types.FunctionSpec{
			{Name: "check_topics", SourceDir: "functions/other", MemoryMB: 2048},
		},
	}
	composed, err := composer.Compose(context.Background(), baseFleet(), []types.FleetSpec{overlay})
	require.NoError(t, err)

	// Fields the base sets keep their base values.
	assert.Equal(t, "europe-west3", composed.Defaults.Region)
	assert.Equal(t, "functions/check_topics", composed.Functions[0].SourceDir)
	// Fields the base leaves unset take the overlay value.
	assert.Equal(t, 2048, composed.Functions[0].MemoryMB)
}

// Later overlays win among themselves for fields the base leaves unset.
func TestComposeLaterOverlayWins(t *testing.T) {
	composer := NewFleetComposer()
	first := types.FleetSpec{
		Kind:      types.SpecKindOverlay,
		Metadata:  types.Metadata{Name: "a"},
		Functions: []types.FunctionSpec{{Name: "check_topics", MemoryMB: 1024}},
	}
	second := types.FleetSpec{
		Kind:      types.SpecKindOverlay,
		Metadata:  types.Metadata{Name: "b"},
		Functions: []types.FunctionSpec{{Name: "check_topics", MemoryMB: 2048}},
	}
	composed, err := composer.Compose(context.Background(), baseFleet(), []types.FleetSpec{first, second})
	require.NoError(t, err)
	assert.Equal(t, 2048, composed.Functions[0].MemoryMB)
}

func TestComposeAppliesDefaults(t *testing.T) {
	composer := NewFleetComposer()
	composed, err := composer.Compose(context.Background(), baseFleet(), nil)
	require.NoError(t, err)

	fn := composed.Functions[0]
	assert.Equal(t, "europe-west3", fn.Region)
	assert.Equal(t, 512, fn.MemoryMB)
	// Built-in fallbacks for fields neither layer set.
	assert.Equal(t, "python310", fn.Runtime)
	assert.Equal(t, "main", fn.EntryPoint)
	assert.Equal(t, 540, fn.TimeoutSec)
	assert.Equal(t, 10, fn.MaxInstances)
}

func TestComposeOverlayDefaults(t *testing.T) {
	composer := NewFleetComposer()
	overlay := types.FleetSpec{
		Kind:     types.SpecKindOverlay,
		Metadata: types.Metadata{Name: "prod"},
		Defaults: types.DeployDefaults{Region: "us-east1", TimeoutSec: 120},
	}
	composed, err := composer.Compose(context.Background(), baseFleet(), []types.FleetSpec{overlay})
	require.NoError(t, err)
	// The base sets the region default, so the overlay's loses.
	assert.Equal(t, "europe-west3", composed.Functions[0].Region)
	// The timeout default is only set by the overlay and survives.
	assert.Equal(t, 120, composed.Functions[0].TimeoutSec)
}

func TestComposeNotifyFromOverlay(t *testing.T) {
	composer := NewFleetComposer()
	overlay := types.FleetSpec{
		Kind:     types.SpecKindOverlay,
		Metadata: types.Metadata{Name: "prod"},
		Notify:   types.Notify{Enabled: true, Topic: "topic_notify_admin", Project: "sar-prod"},
	}
	composed, err := composer.Compose(context.Background(), baseFleet(), []types.FleetSpec{overlay})
	require.NoError(t, err)
	assert.True(t, composed.Notify.Enabled)
	assert.Equal(t, "topic_notify_admin", composed.Notify.Topic)
}

func TestComposeDuplicateOverlayRef(t *testing.T) {
	composer := NewFleetComposer()
	fleet := baseFleet()
	fleet.Overlays = []types.OverlayRef{
		{Name: "prod", Version: "1"},
		{Name: "prod", Version: "1"},
	}
	_, err := composer.Compose(context.Background(), fleet, nil)
	require.Error(t, err)
}
