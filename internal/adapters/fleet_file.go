package adapters

import (
	"bytes"
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"funcfleet/internal/ports"
	"funcfleet/internal/types"
)

type FleetFileAdapter struct{}

func NewFleetFileAdapter() FleetFileAdapter {
	return FleetFileAdapter{}
}

func (a FleetFileAdapter) LoadFleet(path string) (types.FleetSpec, error) {
	spec, err := a.load(path)
	if err != nil {
		return types.FleetSpec{}, err
	}
	if spec.Kind != types.SpecKindFleet {
		return types.FleetSpec{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("spec kind is not fleet")
	}
	return spec, nil
}

func (a FleetFileAdapter) LoadOverlay(path string) (types.FleetSpec, error) {
	spec, err := a.load(path)
	if err != nil {
		return types.FleetSpec{}, err
	}
	if spec.Kind != types.SpecKindOverlay {
		return types.FleetSpec{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("spec kind is not overlay")
	}
	return spec, nil
}

func (a FleetFileAdapter) load(path string) (types.FleetSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.FleetSpec{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("fleet spec file not found").
			WithCause(err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var spec types.FleetSpec
	if err := decoder.Decode(&spec); err != nil {
		return types.FleetSpec{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse fleet spec yaml").
			WithCause(err)
	}
	return spec, nil
}

var _ ports.FleetSpecPort = FleetFileAdapter{}
