package core

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"funcfleet/internal/types"
)

type FleetComposer struct{}

func NewFleetComposer() FleetComposer {
	return FleetComposer{}
}

// Compose merges the base fleet spec with its environment overlays.
// Overlays are applied first in declaration order, the base last, so the
// base wins for any scalar field it sets; overlays only fill fields the
// base leaves unset. Functions merge by name: a later entry patches the
// earlier entry's set fields; unknown names are appended as new
// functions.
func (c FleetComposer) Compose(ctx context.Context, fleet types.FleetSpec, overlays []types.FleetSpec) (types.FleetSpec, error) {
	if fleet.Kind != types.SpecKindFleet {
		return types.FleetSpec{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("compose requires fleet spec")
	}
	if err := validateOverlayOrder(fleet.Overlays); err != nil {
		return types.FleetSpec{}, err
	}

	composed := types.FleetSpec{
		APIVersion:  fleet.APIVersion,
		Kind:        types.SpecKindFleet,
		Metadata:    fleet.Metadata,
		Overlays:    fleet.Overlays,
		Rollout:     fleet.Rollout,
		Resolutions: []types.ManifestResolution{},
		Runtimes:    map[string]types.RuntimeImage{},
	}

	for _, overlay := range overlays {
		if overlay.Kind != types.SpecKindOverlay {
			return types.FleetSpec{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("invalid overlay spec kind: %s", overlay.Metadata.Name))
		}
		if err := mergeSpec(&composed, overlay); err != nil {
			return types.FleetSpec{}, err
		}
	}

	if err := mergeSpec(&composed, fleet); err != nil {
		return types.FleetSpec{}, err
	}

	applyDefaults(&composed)

	log.Ctx(ctx).Debug().Str("fleet", fleet.Metadata.Name).Int("overlays", len(overlays)).Msg("fleet composed")
	return composed, nil
}

func mergeSpec(target *types.FleetSpec, incoming types.FleetSpec) error {
	mergeDefaults(&target.Defaults, incoming.Defaults)
	for _, fn := range incoming.Functions {
		if err := mergeFunction(target, fn); err != nil {
			return err
		}
	}
	target.Resolutions = append(target.Resolutions, incoming.Resolutions...)
	if incoming.Notify.Topic != "" || incoming.Notify.Enabled {
		target.Notify = incoming.Notify
	}
	for runtime, image := range incoming.Runtimes {
		target.Runtimes[runtime] = image
	}
	return nil
}

func mergeDefaults(target *types.DeployDefaults, incoming types.DeployDefaults) {
	if incoming.Branch != "" {
		target.Branch = incoming.Branch
	}
	if incoming.Runtime != "" {
		target.Runtime = incoming.Runtime
	}
	if incoming.Region != "" {
		target.Region = incoming.Region
	}
	if incoming.EntryPoint != "" {
		target.EntryPoint = incoming.EntryPoint
	}
	if incoming.TimeoutSec != 0 {
		target.TimeoutSec = incoming.TimeoutSec
	}
	if incoming.MaxInstances != 0 {
		target.MaxInstances = incoming.MaxInstances
	}
	if incoming.MemoryMB != 0 {
		target.MemoryMB = incoming.MemoryMB
	}
	if incoming.Output != "" {
		target.Output = incoming.Output
	}
	if incoming.WorkflowDir != "" {
		target.WorkflowDir = incoming.WorkflowDir
	}
}

func mergeFunction(target *types.FleetSpec, incoming types.FunctionSpec) error {
	for i := range target.Functions {
		if target.Functions[i].Name != incoming.Name {
			continue
		}
		patchFunction(&target.Functions[i], incoming)
		return nil
	}
	target.Functions = append(target.Functions, incoming)
	return nil
}

func patchFunction(target *types.FunctionSpec, incoming types.FunctionSpec) {
	if incoming.SourceDir != "" {
		target.SourceDir = incoming.SourceDir
	}
	if incoming.Runtime != "" {
		target.Runtime = incoming.Runtime
	}
	if incoming.EntryPoint != "" {
		target.EntryPoint = incoming.EntryPoint
	}
	if incoming.Region != "" {
		target.Region = incoming.Region
	}
	if incoming.TimeoutSec != 0 {
		target.TimeoutSec = incoming.TimeoutSec
	}
	if incoming.MaxInstances != 0 {
		target.MaxInstances = incoming.MaxInstances
	}
	if incoming.MemoryMB != 0 {
		target.MemoryMB = incoming.MemoryMB
	}
	if incoming.Trigger.Type != "" {
		target.Trigger = incoming.Trigger
	}
	if incoming.Manifest != "" {
		target.Manifest = incoming.Manifest
	}
	target.ExtraPaths = append(target.ExtraPaths, incoming.ExtraPaths...)
	if len(incoming.Env) > 0 {
		if target.Env == nil {
			target.Env = map[string]string{}
		}
		for key, value := range incoming.Env {
			target.Env[key] = value
		}
	}
	target.Secrets = append(target.Secrets, incoming.Secrets...)
}

// applyDefaults fills each function's unset fields from the composed
// fleet defaults, then from the built-in fallbacks.
func applyDefaults(fleet *types.FleetSpec) {
	defaults := fleet.Defaults
	if defaults.Branch == "" {
		defaults.Branch = "main"
	}
	if defaults.Runtime == "" {
		defaults.Runtime = "python310"
	}
	if defaults.Region == "" {
		defaults.Region = "europe-west3"
	}
	if defaults.EntryPoint == "" {
		defaults.EntryPoint = "main"
	}
	if defaults.TimeoutSec == 0 {
		defaults.TimeoutSec = 540
	}
	if defaults.MaxInstances == 0 {
		defaults.MaxInstances = 10
	}
	if defaults.MemoryMB == 0 {
		defaults.MemoryMB = 256
	}
	fleet.Defaults = defaults

	for i := range fleet.Functions {
		fn := &fleet.Functions[i]
		if fn.Runtime == "" {
			fn.Runtime = defaults.Runtime
		}
		if fn.Region == "" {
			fn.Region = defaults.Region
		}
		if fn.EntryPoint == "" {
			fn.EntryPoint = defaults.EntryPoint
		}
		if fn.TimeoutSec == 0 {
			fn.TimeoutSec = defaults.TimeoutSec
		}
		if fn.MaxInstances == 0 {
			fn.MaxInstances = defaults.MaxInstances
		}
		if fn.MemoryMB == 0 {
			fn.MemoryMB = defaults.MemoryMB
		}
		if fn.Trigger.Type == "" {
			fn.Trigger.Type = types.TriggerTypePubSub
		}
	}
}

func validateOverlayOrder(overlays []types.OverlayRef) error {
	seen := map[string]struct{}{}
	for _, ref := range overlays {
		key := fmt.Sprintf("%s@%s", ref.Name, ref.Version)
		if _, ok := seen[key]; ok {
			return errbuilder.New().
				WithCode(errbuilder.CodeAlreadyExists).
				WithMsg(fmt.Sprintf("duplicate overlay entry: %s", key))
		}
		seen[key] = struct{}{}
	}
	return nil
}
