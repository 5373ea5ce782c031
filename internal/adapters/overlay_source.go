package adapters

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"funcfleet/internal/ports"
	"funcfleet/internal/types"
)

type OverlaySourceAdapter struct {
	Fleet FleetFileAdapter
}

func NewOverlaySourceAdapter(fleet FleetFileAdapter) OverlaySourceAdapter {
	return OverlaySourceAdapter{Fleet: fleet}
}

func (a OverlaySourceAdapter) LoadOverlays(fleet types.FleetSpec, explicit []string) ([]types.FleetSpec, error) {
	if len(explicit) > 0 {
		return a.loadOverlayPaths(explicit)
	}
	var overlays []types.FleetSpec
	for _, ref := range fleet.Overlays {
		spec, err := a.loadOverlayRef(ref)
		if err != nil {
			return nil, err
		}
		overlays = append(overlays, spec)
	}
	return overlays, nil
}

func (a OverlaySourceAdapter) loadOverlayPaths(paths []string) ([]types.FleetSpec, error) {
	var overlays []types.FleetSpec
	for _, path := range paths {
		spec, err := a.Fleet.LoadOverlay(path)
		if err != nil {
			return nil, err
		}
		overlays = append(overlays, spec)
	}
	return overlays, nil
}

func (a OverlaySourceAdapter) loadOverlayRef(ref types.OverlayRef) (types.FleetSpec, error) {
	switch strings.ToLower(strings.TrimSpace(ref.Source)) {
	case "local":
		if strings.TrimSpace(ref.Path) == "" {
			return types.FleetSpec{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("overlay path is required for local sources")
		}
		return a.Fleet.LoadOverlay(ref.Path)
	case "git":
		return a.loadGitOverlay(ref)
	case "inline":
		return a.loadInlineOverlay(ref)
	default:
		return types.FleetSpec{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported overlay source: %s", ref.Source))
	}
}

func (a OverlaySourceAdapter) loadInlineOverlay(ref types.OverlayRef) (types.FleetSpec, error) {
	if ref.Overlay == nil {
		return types.FleetSpec{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("overlay source is 'inline' but no overlay definition provided")
	}

	name := strings.TrimSpace(ref.Name)
	if name == "" {
		name = "inline"
	}
	version := strings.TrimSpace(ref.Version)
	if version == "" {
		version = "0.0.0"
	}

	return types.FleetSpec{
		APIVersion: "v1",
		Kind:       types.SpecKindOverlay,
		Metadata: types.Metadata{
			Name:    name,
			Version: version,
		},
		Defaults:    ref.Overlay.Defaults,
		Functions:   ref.Overlay.Functions,
		Resolutions: ref.Overlay.Resolutions,
	}, nil
}

func (a OverlaySourceAdapter) loadGitOverlay(ref types.OverlayRef) (types.FleetSpec, error) {
	repo := strings.TrimSpace(ref.Name)
	if repo == "" {
		return types.FleetSpec{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("overlay name must be git repository URL for git sources")
	}
	if strings.TrimSpace(ref.Path) == "" {
		return types.FleetSpec{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("overlay path is required for git sources")
	}
	tempDir, err := os.MkdirTemp("", "funcfleet-overlay-")
	if err != nil {
		return types.FleetSpec{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create temp directory for overlay").
			WithCause(err)
	}
	defer os.RemoveAll(tempDir)

	args := []string{"clone", "--depth", "1"}
	if strings.TrimSpace(ref.Version) != "" {
		args = append(args, "--branch", ref.Version)
	}
	args = append(args, repo, tempDir)

	cmd := exec.Command("git", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return types.FleetSpec{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to clone git overlay source").
			WithCause(fmt.Errorf("%s: %w", strings.TrimSpace(string(output)), err))
	}

	return a.Fleet.LoadOverlay(filepath.Join(tempDir, ref.Path))
}

var _ ports.OverlaySourcePort = OverlaySourceAdapter{}
