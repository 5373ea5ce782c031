package ports

import "funcfleet/internal/types"

// RuntimeCatalogPort resolves provider runtime names to their image
// contents.
//
// The catalog supports layered overrides: each call to LoadCatalog adds
// a new layer. When multiple layers define the same runtime, the
// last-loaded layer wins. This enables embedded -> file precedence.
type RuntimeCatalogPort interface {
	// LoadCatalog loads a runtimes.yaml file and merges its entries into
	// the catalog. Later loads override earlier ones per runtime key.
	LoadCatalog(path string) error

	// LoadEmbedded merges an in-memory layer, used for entries embedded
	// in the fleet spec.
	LoadEmbedded(runtimes map[string]types.RuntimeImage)

	// Runtime returns the effective image for a runtime name.
	Runtime(name string) (types.RuntimeImage, bool)

	// Runtimes returns the effective merged catalog.
	Runtimes() map[string]types.RuntimeImage
}
