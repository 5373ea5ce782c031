package adapters

import (
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"funcfleet/internal/ports"
	"funcfleet/internal/types"
)

// RuntimeCatalogAdapter merges layered runtimes.yaml files. Later loads
// override earlier ones per runtime key; load order is tracked so
// diagnostics can name the winning layer.
type RuntimeCatalogAdapter struct {
	layers   []string
	runtimes map[string]types.RuntimeImage
	origin   map[string]string
}

func NewRuntimeCatalogAdapter() *RuntimeCatalogAdapter {
	return &RuntimeCatalogAdapter{
		runtimes: map[string]types.RuntimeImage{},
		origin:   map[string]string{},
	}
}

func (a *RuntimeCatalogAdapter) LoadCatalog(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("runtime catalog file not found").
			WithCause(err)
	}
	var file types.RuntimeCatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse runtime catalog yaml").
			WithCause(err)
	}
	a.layers = append(a.layers, path)
	for name, image := range file.Runtimes {
		a.runtimes[name] = image
		a.origin[name] = path
	}
	return nil
}

func (a *RuntimeCatalogAdapter) LoadEmbedded(runtimes map[string]types.RuntimeImage) {
	if len(runtimes) == 0 {
		return
	}
	a.layers = append(a.layers, "embedded")
	for name, image := range runtimes {
		a.runtimes[name] = image
		a.origin[name] = "embedded"
	}
}

func (a *RuntimeCatalogAdapter) Runtime(name string) (types.RuntimeImage, bool) {
	image, ok := a.runtimes[name]
	return image, ok
}

func (a *RuntimeCatalogAdapter) Runtimes() map[string]types.RuntimeImage {
	out := make(map[string]types.RuntimeImage, len(a.runtimes))
	for name, image := range a.runtimes {
		out[name] = image
	}
	return out
}

// Origin names the layer that provided a runtime entry.
func (a *RuntimeCatalogAdapter) Origin(name string) (string, bool) {
	origin, ok := a.origin[name]
	return origin, ok
}

var _ ports.RuntimeCatalogPort = (*RuntimeCatalogAdapter)(nil)
