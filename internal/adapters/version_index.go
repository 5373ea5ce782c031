package adapters

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"funcfleet/internal/ports"
	"funcfleet/internal/types"
)

// VersionIndexAdapter persists the name->versions cache audits use to
// run offline.
type VersionIndexAdapter struct{}

func NewVersionIndexAdapter() VersionIndexAdapter {
	return VersionIndexAdapter{}
}

func (a VersionIndexAdapter) Read(path string) (types.VersionIndexFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.VersionIndexFile{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("version index file not found").
			WithCause(err)
	}
	var index types.VersionIndexFile
	if err := yaml.Unmarshal(data, &index); err != nil {
		return types.VersionIndexFile{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse version index yaml").
			WithCause(err)
	}
	return index, nil
}

func (a VersionIndexAdapter) Write(path string, index types.VersionIndexFile) error {
	if strings.TrimSpace(path) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("version index path is required")
	}
	data, err := yaml.Marshal(index)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to marshal version index").
			WithCause(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create version index directory").
			WithCause(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write version index").
			WithCause(err)
	}
	return nil
}

var _ ports.VersionIndexPort = VersionIndexAdapter{}
