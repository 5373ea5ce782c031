package ports

import "funcfleet/internal/types"

type FleetSpecPort interface {
	LoadFleet(path string) (types.FleetSpec, error)
	LoadOverlay(path string) (types.FleetSpec, error)
}

type OverlaySourcePort interface {
	LoadOverlays(fleet types.FleetSpec, explicit []string) ([]types.FleetSpec, error)
}
