package core

import (
	"context"
	"fmt"
	"strings"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"funcfleet/internal/shared"
	"funcfleet/internal/types"
)

type FleetCompiler struct{}

func NewFleetCompiler() FleetCompiler {
	return FleetCompiler{}
}

// ValidateFleet checks the structural integrity of a composed fleet spec.
// Provider-facing value ranges (timeouts, memory, regions) are the deploy
// policy's job; this guards the shape of the document itself.
func (c FleetCompiler) ValidateFleet(ctx context.Context, fleet types.FleetSpec) error {
	assert.NotEmpty(ctx, fleet.APIVersion, "api_version must be set")
	assert.NotEmpty(ctx, string(fleet.Kind), "kind must be set")
	assert.NotEmpty(ctx, fleet.Metadata.Name, "metadata.name must be set")
	assert.NotEmpty(ctx, fleet.Metadata.Version, "metadata.version must be set")
	if len(fleet.Metadata.Owners) == 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("metadata.owners must not be empty")
	}
	if fleet.Kind != types.SpecKindFleet && fleet.Kind != types.SpecKindOverlay {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("spec kind must be fleet or overlay")
	}
	if fleet.Kind == types.SpecKindFleet && len(fleet.Functions) == 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("fleet spec must declare at least one function")
	}
	if fleet.Kind == types.SpecKindOverlay && len(fleet.Overlays) > 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("overlay spec must not nest overlays")
	}
	seen := map[string]struct{}{}
	for _, fn := range fleet.Functions {
		if err := validateFunction(fn); err != nil {
			return err
		}
		if _, ok := seen[fn.Name]; ok {
			return errbuilder.New().
				WithCode(errbuilder.CodeAlreadyExists).
				WithMsg(fmt.Sprintf("duplicate function: %s", fn.Name))
		}
		seen[fn.Name] = struct{}{}
	}
	if err := validateRollout(fleet.Rollout); err != nil {
		return err
	}
	if err := validateResolutions(fleet.Resolutions); err != nil {
		return err
	}
	if fleet.Notify.Enabled && strings.TrimSpace(fleet.Notify.Topic) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("notify.topic must be set when notify is enabled")
	}
	log.Ctx(ctx).Debug().Str("fleet", fleet.Metadata.Name).Msg("fleet validated")
	return nil
}

func validateFunction(fn types.FunctionSpec) error {
	if strings.TrimSpace(fn.Name) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("functions.name must not be empty")
	}
	if strings.TrimSpace(fn.SourceDir) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("function %s missing source_dir", fn.Name))
	}
	switch fn.Trigger.Type {
	case types.TriggerTypePubSub:
		if strings.TrimSpace(fn.Trigger.Topic) == "" {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("function %s has a pubsub trigger without a topic", fn.Name))
		}
	case types.TriggerTypeHTTP:
		if strings.TrimSpace(fn.Trigger.Topic) != "" {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("function %s has an http trigger with a topic", fn.Name))
		}
	default:
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("function %s has invalid trigger type %q", fn.Name, fn.Trigger.Type))
	}
	for _, secret := range fn.Secrets {
		if strings.TrimSpace(secret.Name) == "" || strings.TrimSpace(secret.Env) == "" {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("function %s has a secret ref without name or env", fn.Name))
		}
	}
	return nil
}

func validateRollout(rollout types.Rollout) error {
	seen := map[string]struct{}{}
	for _, group := range rollout.Groups {
		if strings.TrimSpace(group.Name) == "" {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("rollout.groups.name must not be empty")
		}
		if _, ok := seen[group.Name]; ok {
			return errbuilder.New().
				WithCode(errbuilder.CodeAlreadyExists).
				WithMsg(fmt.Sprintf("duplicate rollout group: %s", group.Name))
		}
		seen[group.Name] = struct{}{}
		if len(group.Matches) == 0 {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("rollout group %s missing matches", group.Name))
		}
		if group.MaxParallel < 0 {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("rollout group %s has negative max_parallel", group.Name))
		}
	}
	return nil
}

func validateResolutions(resolutions []types.ManifestResolution) error {
	for _, resolution := range resolutions {
		if strings.TrimSpace(resolution.Package) == "" {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("manifest resolution package must not be empty")
		}
		if shared.NormalizePackageName(resolution.Package) != resolution.Package {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("manifest resolution package must be normalized: %s", resolution.Package))
		}
		if strings.TrimSpace(resolution.UseVersion) == "" {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("manifest resolution for %s missing use_version", resolution.Package))
		}
		if strings.TrimSpace(resolution.Reason) == "" {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("manifest resolution for %s missing reason", resolution.Package))
		}
		if strings.TrimSpace(resolution.Owner) == "" {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("manifest resolution for %s missing owner", resolution.Package))
		}
	}
	return nil
}
