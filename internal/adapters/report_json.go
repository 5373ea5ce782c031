package adapters

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"funcfleet/internal/ports"
	"funcfleet/internal/types"
)

type DeployReportJSONAdapter struct {
	Dir string
}

func NewDeployReportJSONAdapter(dir string) DeployReportJSONAdapter {
	return DeployReportJSONAdapter{Dir: dir}
}

// WriteDeployReportJSON writes the schema-versioned machine-readable
// deploy report. The digest covers the entries block only, so consumers
// can verify the payload independent of the creation timestamp.
func (a DeployReportJSONAdapter) WriteDeployReportJSON(fleet string, fingerprint string, createdAt string, entries []types.DeployReportEntry) error {
	if strings.TrimSpace(a.Dir) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is empty")
	}
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create output directory").
			WithCause(err)
	}

	type reportEntry struct {
		Function string `json:"function"`
		Revision string `json:"revision"`
		Status   string `json:"status"`
		Detail   string `json:"detail,omitempty"`
	}
	ordered := append([]types.DeployReportEntry(nil), entries...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Function != ordered[j].Function {
			return ordered[i].Function < ordered[j].Function
		}
		return ordered[i].Revision < ordered[j].Revision
	})
	payload := struct {
		SchemaVersion string        `json:"schema_version"`
		Fleet         string        `json:"fleet"`
		Fingerprint   string        `json:"fingerprint"`
		CreatedAt     string        `json:"created_at"`
		Entries       []reportEntry `json:"entries"`
		Digest        string        `json:"digest"`
	}{
		SchemaVersion: "1",
		Fleet:         fleet,
		Fingerprint:   fingerprint,
		CreatedAt:     createdAt,
	}
	if payload.CreatedAt == "" {
		payload.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	for _, entry := range ordered {
		payload.Entries = append(payload.Entries, reportEntry{
			Function: entry.Function,
			Revision: entry.Revision,
			Status:   string(entry.Status),
			Detail:   entry.Detail,
		})
	}
	entriesJSON, err := json.Marshal(payload.Entries)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to marshal deploy report entries").
			WithCause(err)
	}
	digest := sha256.Sum256(entriesJSON)
	payload.Digest = hex.EncodeToString(digest[:])

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to marshal deploy report").
			WithCause(err)
	}
	path := filepath.Join(a.Dir, "deploy.report.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write deploy report json").
			WithCause(err)
	}
	return nil
}

var _ ports.DeployReportJSONPort = DeployReportJSONAdapter{}
