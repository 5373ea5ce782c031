package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"funcfleet/internal/core"
	"funcfleet/internal/policies"
	"funcfleet/internal/ports"
	"funcfleet/internal/shared"
	"funcfleet/internal/types"
)

// defaultNotifyTopic receives deploy events when the fleet enables
// notifications without naming a topic.
const defaultNotifyTopic = "topic_notify_admin"

func (s Service) Deploy(ctx context.Context, req DeployRequest) (DeployResult, error) {
	fleet, err := s.composeFleet(ctx, req.FleetPath, req.OverlayPaths)
	if err != nil {
		return DeployResult{}, err
	}
	emitHints(checkDeployDefaultsHints(req, fleet))

	outputDir := strings.TrimSpace(req.OutputDir)
	if outputDir == "" {
		return DeployResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is required")
	}
	project := strings.TrimSpace(req.Project)
	if project == "" {
		project = fleet.Notify.Project
	}
	if project == "" {
		return DeployResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("project id is required")
	}

	catalog, err := s.buildCatalog(fleet, req.CatalogFiles)
	if err != nil {
		return DeployResult{}, err
	}
	deployPolicy := policies.NewDeployPolicy(catalog.Runtimes())

	var planEntries []types.PlanEntry
	fingerprint := ""
	if planPath := strings.TrimSpace(req.PlanPath); planPath != "" {
		plan, err := s.OutputReader.ReadPlan(planPath)
		if err != nil {
			return DeployResult{}, err
		}
		if err := s.checkPlanFresh(fleet, plan); err != nil {
			return DeployResult{}, err
		}
		planEntries = plan.Entries
		fingerprint = plan.Fingerprint
	}

	builder := core.NewTargetBuilder(policies.NewRolloutPolicy(fleet.Rollout))
	targets, err := builder.Build(ctx, fleet, core.TargetInputs{
		Functions: req.Functions,
		Plan:      planEntries,
		All:       req.All,
	})
	if err != nil {
		return DeployResult{}, err
	}
	if len(targets) == 0 {
		return DeployResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("deploy requires --function, --plan or --all")
	}

	run := deployRun{
		service:   s,
		fleet:     fleet,
		policy:    deployPolicy,
		project:   project,
		outputDir: outputDir,
		req:       req,
	}
	if err := run.connect(ctx); err != nil {
		return DeployResult{}, err
	}

	var entries []types.DeployReportEntry
	var firstErr error
	for _, batch := range core.GroupBatches(targets) {
		batchEntries, err := run.deployBatch(ctx, batch)
		entries = append(entries, batchEntries...)
		if err != nil {
			firstErr = err
			break
		}
	}

	if err := s.output(outputDir).WriteDeployReport(entries); err != nil {
		return DeployResult{}, err
	}
	createdAt := timeNow(s.Clock).Format(time.RFC3339)
	if err := s.reportJSON(outputDir).WriteDeployReportJSON(fleet.Metadata.Name, fingerprint, createdAt, entries); err != nil {
		return DeployResult{}, err
	}
	log.Ctx(ctx).Info().
		Str("fleet", fleet.Metadata.Name).
		Int("functions", len(entries)).
		Bool("dry_run", req.DryRun).
		Msg("deploy finished")
	return DeployResult{Entries: entries, DryRun: req.DryRun}, firstErr
}

// checkPlanFresh recomputes every plan entry's revision against the
// current fleet spec and sources. A drifted revision means the plan was
// computed from different inputs and must not be deployed.
func (s Service) checkPlanFresh(fleet types.FleetSpec, plan types.DeployPlan) error {
	if plan.Fleet != fleet.Metadata.Name || plan.Version != fleet.Metadata.Version {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("plan belongs to fleet %s %s, current spec is %s %s",
				plan.Fleet, plan.Version, fleet.Metadata.Name, fleet.Metadata.Version))
	}
	byName := map[string]types.FunctionSpec{}
	for _, fn := range fleet.Functions {
		byName[fn.Name] = fn
	}
	for _, entry := range plan.Entries {
		fn, ok := byName[entry.Function]
		if !ok {
			return errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg(fmt.Sprintf("plan names function %s missing from the fleet spec", entry.Function))
		}
		digest := ""
		if tree, err := s.Source.ScanSource(sourcePath("", fn.SourceDir)); err == nil {
			digest = tree.Digest
		}
		if revision := core.FunctionRevision(fn, digest); revision != entry.Revision {
			return errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg(fmt.Sprintf("plan is stale: %s changed since planning (%s != %s); re-run plan",
					entry.Function, entry.Revision, revision))
		}
	}
	return nil
}

// deployRun carries the connected ports for one deploy invocation.
type deployRun struct {
	service   Service
	fleet     types.FleetSpec
	policy    policies.DeployPolicy
	project   string
	outputDir string
	req       DeployRequest

	functions ports.FunctionsPort
	uploader  ports.UploadPort
	storage   ports.ObjectStoragePort
	topics    ports.TopicsPort
	ledger    ports.LedgerPort
}

func (r *deployRun) connect(ctx context.Context) error {
	var err error
	r.functions, err = r.service.functionsPort(ctx)
	if err != nil {
		return err
	}
	r.uploader = r.service.uploadPort()
	if strings.TrimSpace(r.req.StageBucket) != "" {
		r.storage, err = r.service.storagePort(ctx)
		if err != nil {
			return err
		}
	}
	needTopics := r.fleet.Notify.Enabled
	for _, fn := range r.fleet.Functions {
		if fn.Trigger.Type == types.TriggerTypePubSub {
			needTopics = true
		}
	}
	if needTopics {
		r.topics = r.service.topicsPort()
	}
	r.ledger, err = r.service.deployLedger(ctx, r.req)
	if err != nil {
		return err
	}
	return nil
}

// deployLedger connects the deploy history store. Without a database
// URL (flag or secret) deploys still run, just unrecorded.
func (s Service) deployLedger(ctx context.Context, req DeployRequest) (ports.LedgerPort, error) {
	if s.Ledger != nil {
		return s.Ledger, nil
	}
	databaseURL := strings.TrimSpace(req.DatabaseURL)
	if databaseURL == "" {
		secrets, err := s.secretsPort(ctx, req.SecretsBackend, req.Project)
		if err != nil {
			return nil, err
		}
		if url, err := secrets.Get(ctx, secretDatabaseURL); err == nil {
			databaseURL = url
		}
	}
	if databaseURL == "" {
		log.Ctx(ctx).Warn().Msg("no database url configured; deploy history will not be recorded")
		return nil, nil
	}
	return s.ledgerPort(databaseURL)
}

// deployBatch runs one rollout group on a bounded worker pool. The
// first failure cancels the rest of the batch; entries for cancelled
// functions are reported as skipped.
func (r *deployRun) deployBatch(ctx context.Context, batch []core.DeployTarget) ([]types.DeployReportEntry, error) {
	workers := policies.GroupParallel(batch[0].Group)
	if workers > len(batch) {
		workers = len(batch)
	}
	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks := make(chan core.DeployTarget)
	type outcome struct {
		entry types.DeployReportEntry
		err   error
	}
	results := make(chan outcome, len(batch))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for target := range tasks {
				if batchCtx.Err() != nil {
					results <- outcome{entry: types.DeployReportEntry{
						Function: target.Function.Name,
						Status:   types.DeployStatusSkipped,
						Detail:   "cancelled after earlier failure",
					}}
					continue
				}
				entry, err := r.deployOne(batchCtx, target)
				if err != nil {
					cancel()
				}
				results <- outcome{entry: entry, err: err}
			}
		}()
	}
	for _, target := range batch {
		tasks <- target
	}
	close(tasks)
	wg.Wait()
	close(results)

	var entries []types.DeployReportEntry
	var firstErr error
	for result := range results {
		entries = append(entries, result.entry)
		if result.err != nil && firstErr == nil {
			firstErr = result.err
		}
	}
	return entries, firstErr
}

func (r *deployRun) deployOne(ctx context.Context, target core.DeployTarget) (types.DeployReportEntry, error) {
	fn := target.Function
	s := r.service
	failed := func(revision string, err error) (types.DeployReportEntry, error) {
		entry := types.DeployReportEntry{
			Function: fn.Name,
			Revision: revision,
			Status:   types.DeployStatusFailed,
			Detail:   err.Error(),
		}
		r.recordDeploy(ctx, entry)
		return entry, err
	}

	if records := r.policy.CheckFunction(fn); len(records) > 0 {
		return failed("", errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("function %s is invalid: %s", fn.Name, records[0].Message)))
	}

	if fn.Trigger.Type == types.TriggerTypePubSub && !r.req.SkipPreflight && !r.req.DryRun {
		exists, err := r.topics.TopicExists(ctx, r.project, fn.Trigger.Topic)
		if err != nil {
			return failed("", err)
		}
		if !exists {
			return failed("", errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg(fmt.Sprintf("topic %s does not exist in project %s", fn.Trigger.Topic, r.project)))
		}
	}

	archive, err := s.packageFunction(fn, r.outputDir)
	if err != nil {
		return failed("", err)
	}

	if r.req.DryRun {
		detail, err := r.dryRunDetail(ctx, fn, archive.Revision)
		if err != nil {
			return failed(archive.Revision, err)
		}
		return types.DeployReportEntry{
			Function: fn.Name,
			Revision: archive.Revision,
			Status:   types.DeployStatusDryRun,
			Detail:   detail,
		}, nil
	}

	spec := ports.FunctionDeploySpec{
		Project:      r.project,
		Region:       fn.Region,
		Name:         fn.Name,
		Runtime:      fn.Runtime,
		EntryPoint:   fn.EntryPoint,
		TimeoutSec:   fn.TimeoutSec,
		MaxInstances: fn.MaxInstances,
		MemoryMB:     fn.MemoryMB,
		Env:          fn.Env,
	}
	if fn.Trigger.Type == types.TriggerTypePubSub {
		spec.TriggerTopic = fn.Trigger.Topic
	}

	if bucket := strings.TrimSpace(r.req.StageBucket); bucket != "" {
		object := fmt.Sprintf("funcfleet/source/%s-%s.zip", fn.Name, archive.Revision)
		url, err := r.storage.UploadObject(ctx, bucket, object, archive.Path)
		if err != nil {
			return failed(archive.Revision, err)
		}
		spec.SourceArchiveURL = url
	} else {
		uploadURL, err := r.functions.GenerateUploadURL(ctx, r.project, fn.Region)
		if err != nil {
			return failed(archive.Revision, err)
		}
		if err := r.uploader.Upload(ctx, uploadURL, archive.Path); err != nil {
			return failed(archive.Revision, err)
		}
		spec.SourceUploadURL = uploadURL
	}

	if err := r.functions.Apply(ctx, spec); err != nil {
		return failed(archive.Revision, err)
	}

	entry := types.DeployReportEntry{
		Function: fn.Name,
		Revision: archive.Revision,
		Status:   types.DeployStatusOK,
		Detail:   shared.FunctionResource(r.project, fn.Region, fn.Name),
	}
	r.recordDeploy(ctx, entry)
	r.notifyDeploy(ctx, entry)
	return entry, nil
}

// dryRunDetail describes what a real deploy would change, diffing the
// live function state against the composed spec when one exists.
func (r *deployRun) dryRunDetail(ctx context.Context, fn types.FunctionSpec, revision string) (string, error) {
	state, err := r.functions.Get(ctx, r.project, fn.Region, fn.Name)
	if err != nil {
		return "", err
	}
	if !state.Exists {
		return "would create", nil
	}
	var changes []string
	diff := func(field string, current any, desired any) {
		if current != desired {
			changes = append(changes, fmt.Sprintf("%s %v->%v", field, current, desired))
		}
	}
	diff("runtime", state.Runtime, fn.Runtime)
	diff("entry_point", state.EntryPoint, fn.EntryPoint)
	diff("timeout", state.TimeoutSec, fn.TimeoutSec)
	diff("max_instances", state.MaxInstances, fn.MaxInstances)
	diff("memory_mb", state.MemoryMB, fn.MemoryMB)
	if len(changes) == 0 {
		return "would update source only", nil
	}
	return "would update: " + strings.Join(changes, ", "), nil
}

func (r *deployRun) recordDeploy(ctx context.Context, entry types.DeployReportEntry) {
	if r.ledger == nil {
		return
	}
	record := types.DeployInfo{
		EventID:    uuid.NewString(),
		Function:   entry.Function,
		Revision:   entry.Revision,
		Status:     entry.Status,
		Actor:      r.req.Actor,
		DeployedAt: timeNow(r.service.Clock),
	}
	if err := r.ledger.InsertDeploy(ctx, record); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("function", entry.Function).Msg("failed to record deploy in ledger")
	}
}

func (r *deployRun) notifyDeploy(ctx context.Context, entry types.DeployReportEntry) {
	if !r.fleet.Notify.Enabled || r.topics == nil {
		return
	}
	topic := r.fleet.Notify.Topic
	if topic == "" {
		topic = defaultNotifyTopic
	}
	text := fmt.Sprintf("deployed %s revision %s (%s)", entry.Function, entry.Revision, entry.Status)
	payload, err := encodeEnvelope(text)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to encode deploy notification")
		return
	}
	if _, err := r.topics.Publish(ctx, r.project, topic, payload); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("topic", topic).Msg("failed to publish deploy notification")
	}
}
