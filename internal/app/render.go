package app

import (
	"context"
	"path"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"funcfleet/internal/core"
	"funcfleet/internal/types"
)

func (s Service) Render(ctx context.Context, req RenderRequest) (RenderResult, error) {
	fleet, err := s.composeFleet(ctx, req.FleetPath, req.OverlayPaths)
	if err != nil {
		return RenderResult{}, err
	}
	project := strings.TrimSpace(req.Project)
	if project == "" {
		project = fleet.Notify.Project
	}

	renderer := core.NewRenderCore()
	units, err := renderer.Render(ctx, fleet, project)
	if err != nil {
		return RenderResult{}, err
	}

	outputDir := strings.TrimSpace(req.OutputDir)
	if outputDir == "" {
		return RenderResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is required")
	}

	byName := map[string]types.FunctionSpec{}
	for _, fn := range fleet.Functions {
		byName[fn.Name] = fn
	}

	rendered := make([]types.RenderedWorkflow, 0, len(units))
	owned := map[string]types.Workflow{}
	for _, unit := range units {
		destPath := filepath.Join(outputDir, "workflows", path.Base(unit.File))
		if err := s.Workflows.SaveWorkflow(destPath, unit.Workflow); err != nil {
			return RenderResult{}, err
		}
		rendered = append(rendered, types.RenderedWorkflow{
			Function: unit.Function,
			File:     unit.File,
			Revision: core.FunctionRevision(byName[unit.Function], ""),
		})
		owned[unit.File] = unit.Workflow
	}
	if err := s.output(outputDir).WriteRenderReport(rendered); err != nil {
		return RenderResult{}, err
	}

	result := RenderResult{Rendered: rendered}
	if req.Apply {
		repoDir := strings.TrimSpace(req.RepoDir)
		if repoDir == "" {
			repoDir = "."
		}
		removed, err := s.WorkflowApply.Apply(repoDir, owned)
		if err != nil {
			return RenderResult{}, err
		}
		result.Removed = removed
	}

	log.Ctx(ctx).Debug().
		Str("fleet", fleet.Metadata.Name).
		Int("workflows", len(rendered)).
		Int("removed", len(result.Removed)).
		Msg("workflows rendered")
	return result, nil
}
