package app

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"funcfleet/internal/adapters"
	"funcfleet/internal/core"
	"funcfleet/internal/ports"
	"funcfleet/internal/types"
)

// Service wires the application operations to their adapters. File
// adapters are fixed at construction; cloud-facing ports stay nil until
// an operation needs them and are then built from the request, so tests
// can inject fakes by setting the field.
type Service struct {
	Fleet         ports.FleetSpecPort
	Overlays      ports.OverlaySourcePort
	Workflows     ports.WorkflowPort
	WorkflowApply ports.WorkflowApplyPort
	Manifests     ports.ManifestPort
	FreezeWriter  ports.FreezeWriterPort
	Changes       ports.RepoChangesPort
	Source        ports.SourceScanPort
	Archiver      ports.ArchivePort
	OutputReader  ports.OutputReaderPort
	VersionIndex  ports.VersionIndexPort
	NewCatalog    func() ports.RuntimeCatalogPort

	// Test-injection overrides for ports normally built per request.
	Output       ports.OutputPort
	ReportJSON   ports.DeployReportJSONPort
	Functions    ports.FunctionsPort
	Uploader     ports.UploadPort
	Storage      ports.ObjectStoragePort
	Topics       ports.TopicsPort
	Subscriber   ports.SubscriberPort
	Secrets      ports.SecretsPort
	Messenger    ports.MessengerPort
	Forum        ports.ForumPort
	Ledger       ports.LedgerPort
	MonitorStore ports.MonitorStorePort
	UserStore    ports.UserStorePort
	PackageIndex ports.PackageIndexPort

	Clock func() time.Time
	Rand  *rand.Rand
}

func NewService() Service {
	fleet := adapters.NewFleetFileAdapter()
	return Service{
		Fleet:         fleet,
		Overlays:      adapters.NewOverlaySourceAdapter(fleet),
		Workflows:     adapters.NewWorkflowFileAdapter(),
		WorkflowApply: adapters.NewWorkflowApplyAdapter(),
		Manifests:     adapters.NewManifestFileAdapter(),
		FreezeWriter:  adapters.NewFreezeWriterAdapter(),
		Changes:       adapters.NewRepoChangesAdapter(),
		Source:        adapters.NewSourceScanAdapter(),
		Archiver:      adapters.NewArchiveAdapter(),
		OutputReader:  adapters.NewOutputReaderAdapter(),
		VersionIndex:  adapters.NewVersionIndexAdapter(),
		NewCatalog: func() ports.RuntimeCatalogPort {
			return adapters.NewRuntimeCatalogAdapter()
		},
		Clock: time.Now,
	}
}

func timeNow(clock func() time.Time) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock().UTC()
}

// composeFleet loads the fleet spec, resolves its overlays plus any
// explicit overlay paths, and returns the composed result.
func (s Service) composeFleet(ctx context.Context, fleetPath string, overlayPaths []string) (types.FleetSpec, error) {
	path := strings.TrimSpace(fleetPath)
	if path == "" {
		return types.FleetSpec{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("fleet spec path is required")
	}
	fleet, err := s.Fleet.LoadFleet(path)
	if err != nil {
		return types.FleetSpec{}, err
	}
	overlays, err := s.Overlays.LoadOverlays(fleet, overlayPaths)
	if err != nil {
		return types.FleetSpec{}, err
	}
	composer := core.NewFleetComposer()
	composed, err := composer.Compose(ctx, fleet, overlays)
	if err != nil {
		return types.FleetSpec{}, err
	}
	compiler := core.NewFleetCompiler()
	if err := compiler.ValidateFleet(ctx, composed); err != nil {
		return types.FleetSpec{}, err
	}
	return composed, nil
}

// buildCatalog layers the fleet's embedded runtimes first so catalog
// files loaded afterwards override them per runtime key.
func (s Service) buildCatalog(fleet types.FleetSpec, catalogFiles []string) (ports.RuntimeCatalogPort, error) {
	catalog := s.NewCatalog()
	if len(fleet.Runtimes) > 0 {
		catalog.LoadEmbedded(fleet.Runtimes)
	}
	for _, path := range catalogFiles {
		if strings.TrimSpace(path) == "" {
			continue
		}
		if err := catalog.LoadCatalog(path); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

func (s Service) output(dir string) ports.OutputPort {
	if s.Output != nil {
		return s.Output
	}
	return adapters.NewOutputFileAdapter(dir)
}

func (s Service) reportJSON(dir string) ports.DeployReportJSONPort {
	if s.ReportJSON != nil {
		return s.ReportJSON
	}
	return adapters.NewDeployReportJSONAdapter(dir)
}

func (s Service) functionsPort(ctx context.Context) (ports.FunctionsPort, error) {
	if s.Functions != nil {
		return s.Functions, nil
	}
	return adapters.NewFunctionsGCPAdapter(ctx)
}

func (s Service) uploadPort() ports.UploadPort {
	if s.Uploader != nil {
		return s.Uploader
	}
	return adapters.NewUploadURLAdapter(0, 0)
}

func (s Service) storagePort(ctx context.Context) (ports.ObjectStoragePort, error) {
	if s.Storage != nil {
		return s.Storage, nil
	}
	return adapters.NewStorageGCSAdapter(ctx)
}

func (s Service) topicsPort() ports.TopicsPort {
	if s.Topics != nil {
		return s.Topics
	}
	return adapters.NewPubSubGCPAdapter()
}

func (s Service) subscriberPort() ports.SubscriberPort {
	if s.Subscriber != nil {
		return s.Subscriber
	}
	return adapters.NewPubSubGCPAdapter()
}

func (s Service) secretsPort(ctx context.Context, backend string, project string) (ports.SecretsPort, error) {
	if s.Secrets != nil {
		return s.Secrets, nil
	}
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "env":
		return adapters.NewSecretsEnvAdapter(), nil
	case "gcp":
		return adapters.NewSecretsGCPAdapter(ctx, project)
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unsupported secrets backend")
	}
}

func (s Service) messengerPort(token string) (ports.MessengerPort, error) {
	if s.Messenger != nil {
		return s.Messenger, nil
	}
	return adapters.NewTelegramBotAdapter(token)
}

func (s Service) forumPort(base string) ports.ForumPort {
	if s.Forum != nil {
		return s.Forum
	}
	return adapters.NewForumHTTPAdapter(base, 0, 0)
}

func (s Service) ledgerPort(databaseURL string) (ports.LedgerPort, error) {
	if s.Ledger != nil {
		return s.Ledger, nil
	}
	return adapters.NewPostgresStore(databaseURL)
}

func (s Service) monitorStorePort(databaseURL string) (ports.MonitorStorePort, error) {
	if s.MonitorStore != nil {
		return s.MonitorStore, nil
	}
	return adapters.NewPostgresStore(databaseURL)
}

func (s Service) userStorePort(databaseURL string) (ports.UserStorePort, error) {
	if s.UserStore != nil {
		return s.UserStore, nil
	}
	return adapters.NewPostgresStore(databaseURL)
}

func (s Service) packageIndexPort(indexURL string, timeoutSec int, retries int) ports.PackageIndexPort {
	if s.PackageIndex != nil {
		return s.PackageIndex
	}
	return adapters.NewPipIndexAdapter(indexURL, timeoutSec, retries)
}

func (s Service) rng() *rand.Rand {
	if s.Rand != nil {
		return s.Rand
	}
	return rand.New(rand.NewSource(timeNow(s.Clock).UnixNano()))
}
