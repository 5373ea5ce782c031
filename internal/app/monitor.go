package app

import (
	"context"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"funcfleet/internal/core"
	"funcfleet/internal/ports"
	"funcfleet/internal/types"
)

// Topics the monitor publishes to. The names are part of the fleet's
// wire contract with the downstream functions.
const (
	topicManagementTopic = "topic_for_topic_management"
	firstPostTopic       = "topic_for_first_post_processing"
	userManagementTopic  = "topic_for_user_management"
)

// maxBadGateways aborts a sweep drowning in upstream 5xx responses.
const maxBadGateways = 3

func (s Service) MonitorSweep(ctx context.Context, req MonitorRequest) (types.MonitorResult, error) {
	store, err := s.monitorStore(ctx, req)
	if err != nil {
		return types.MonitorResult{}, err
	}
	candidates, err := store.ListCandidates(ctx)
	if err != nil {
		return types.MonitorResult{}, err
	}
	if len(candidates) == 0 {
		log.Ctx(ctx).Info().Msg("no sweep candidates")
		return types.MonitorResult{}, nil
	}

	selector := core.NewMonitorSelector(s.rng())
	mode := selector.PickMode()
	if value := strings.TrimSpace(req.Mode); value != "" {
		mode, err = core.ParseSelectMode(value)
		if err != nil {
			return types.MonitorResult{}, err
		}
	}
	percent := req.Percent
	if percent <= 0 {
		percent = core.DefaultSweepPercent
	}
	limit := req.Limit
	if limit <= 0 {
		limit = core.VisibilityBatchLimit
	}
	selected := core.VisibilityBatch(selector.Select(candidates, mode, percent), limit)

	forum := s.forumPort(req.ForumBase)
	topics := s.topicsPort()
	now := timeNow(s.Clock)

	result := types.MonitorResult{Mode: string(mode)}
	badGateways := 0
	var changedTopics []int
	for _, candidate := range selected {
		page, err := forum.FetchTopic(ctx, candidate.TopicID)
		if err != nil {
			return result, err
		}
		if page.StatusCode == 502 || page.StatusCode == 503 || page.StatusCode == 504 {
			badGateways++
			if badGateways > maxBadGateways {
				return result, errbuilder.New().
					WithCode(errbuilder.CodeUnavailable).
					WithMsg("sweep aborted: forum keeps answering with gateway errors")
			}
			continue
		}
		if page.StatusCode < 200 || page.StatusCode >= 300 {
			log.Ctx(ctx).Warn().Int("topic", candidate.TopicID).Int("status", page.StatusCode).Msg("topic fetch skipped")
			continue
		}

		result.Checked++
		if err := store.RecordHealthCheck(ctx, candidate.TopicID, now, page.Visibility); err != nil {
			return result, err
		}
		switch page.Visibility {
		case types.VisibilityHidden:
			result.Hidden++
			continue
		case types.VisibilityDeleted:
			result.Deleted++
			continue
		}

		changed, err := s.processFirstPost(ctx, store, topics, req.Project, candidate, page, now)
		if err != nil {
			return result, err
		}
		if changed {
			result.Changed++
			changedTopics = append(changedTopics, candidate.TopicID)
		}
	}

	if len(changedTopics) > 0 {
		if err := s.publishEvent(ctx, topics, req.Project, firstPostTopic, changedTopics); err != nil {
			return result, err
		}
	}
	log.Ctx(ctx).Info().
		Str("mode", result.Mode).
		Int("checked", result.Checked).
		Int("changed", result.Changed).
		Int("hidden", result.Hidden).
		Int("deleted", result.Deleted).
		Msg("sweep finished")
	return result, nil
}

// processFirstPost extracts and hashes the topic's first post, saving a
// new record when the content moved since the last stored hash.
func (s Service) processFirstPost(ctx context.Context, store ports.MonitorStorePort, topics ports.TopicsPort, project string, candidate types.SearchCandidate, page types.TopicPage, now time.Time) (bool, error) {
	content, _ := core.ExtractFirstPost(page.Body)
	normalized := core.NormalizeFirstPost(content)
	hash := core.HashFirstPost(normalized)

	if status := core.ExtractTopicStatus(page.Body); status != types.TopicStatusActive {
		event := struct {
			TopicID int    `json:"topic_id"`
			Status  string `json:"status"`
		}{TopicID: candidate.TopicID, Status: string(status)}
		if err := s.publishEvent(ctx, topics, project, topicManagementTopic, event); err != nil {
			return false, err
		}
	}

	previous, found, err := store.ActualFirstPost(ctx, candidate.TopicID)
	if err != nil {
		return false, err
	}
	if found && previous.ContentHash == hash {
		return false, nil
	}
	record := types.FirstPostRecord{
		SearchID:    candidate.TopicID,
		Timestamp:   now,
		Actual:      true,
		ContentHash: hash,
		Content:     normalized,
		NumOfChecks: previous.NumOfChecks + 1,
	}
	if err := store.SaveFirstPost(ctx, record); err != nil {
		return false, err
	}
	return true, nil
}

// publishEvent wraps a payload in the fleet envelope and publishes it.
// Without a project configured the event is logged and dropped, so
// local sweeps do not need pub/sub access.
func (s Service) publishEvent(ctx context.Context, topics ports.TopicsPort, project string, topic string, message any) error {
	if strings.TrimSpace(project) == "" && s.Topics == nil {
		log.Ctx(ctx).Warn().Str("topic", topic).Msg("no project configured; event not published")
		return nil
	}
	payload, err := encodeEnvelope(message)
	if err != nil {
		return err
	}
	_, err = topics.Publish(ctx, project, topic, payload)
	return err
}

func (s Service) monitorStore(ctx context.Context, req MonitorRequest) (ports.MonitorStorePort, error) {
	if s.MonitorStore != nil {
		return s.MonitorStore, nil
	}
	url := strings.TrimSpace(req.DatabaseURL)
	if url == "" {
		secrets, err := s.secretsPort(ctx, req.SecretsBackend, req.Project)
		if err != nil {
			return nil, err
		}
		url, err = secrets.Get(ctx, secretDatabaseURL)
		if err != nil {
			return nil, err
		}
	}
	return s.monitorStorePort(url)
}
