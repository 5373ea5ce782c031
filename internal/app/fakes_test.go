package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"funcfleet/internal/ports"
	"funcfleet/internal/types"
)

// fakeSecrets answers Get from a fixed map.
type fakeSecrets struct {
	values map[string]string
}

func (f fakeSecrets) Get(_ context.Context, name string) (string, error) {
	value, ok := f.values[name]
	if !ok {
		return "", errors.New("secret not set: " + name)
	}
	return value, nil
}

type sentMessage struct {
	ChatID int64
	Text   string
}

// fakeMessenger records sent messages and can fail the first N sends.
type fakeMessenger struct {
	sent     []sentMessage
	left     []int64
	failNext int
}

func (f *fakeMessenger) Send(_ context.Context, chatID int64, text string) error {
	if f.failNext > 0 {
		f.failNext--
		return errors.New("telegram: bad gateway")
	}
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (f *fakeMessenger) SendWithKeyboard(ctx context.Context, chatID int64, text string, _ [][]string) error {
	return f.Send(ctx, chatID, text)
}

func (f *fakeMessenger) LeaveChat(_ context.Context, chatID int64) error {
	f.left = append(f.left, chatID)
	return nil
}

// fakeSubscriber replays queued payloads through the handler.
type fakeSubscriber struct {
	payloads [][]byte
}

func (f fakeSubscriber) Receive(ctx context.Context, _ string, _ string, handle func(ctx context.Context, data []byte) error) error {
	for _, payload := range f.payloads {
		if err := handle(ctx, payload); err != nil {
			return err
		}
	}
	return nil
}

type publishedEvent struct {
	Project string
	Topic   string
	Payload []byte
}

// fakeTopics records published events; topics in missing are reported
// as absent.
type fakeTopics struct {
	published     []publishedEvent
	existsChecked []string
	missing       map[string]bool
}

func (f *fakeTopics) TopicExists(_ context.Context, _ string, topic string) (bool, error) {
	f.existsChecked = append(f.existsChecked, topic)
	return !f.missing[topic], nil
}

func (f *fakeTopics) Publish(_ context.Context, project string, topic string, payload []byte) (string, error) {
	f.published = append(f.published, publishedEvent{Project: project, Topic: topic, Payload: payload})
	return "msg-1", nil
}

// fakeForum serves canned topic pages by id.
type fakeForum struct {
	pages map[int]types.TopicPage
}

func (f fakeForum) FetchTopic(_ context.Context, topicID int) (types.TopicPage, error) {
	page, ok := f.pages[topicID]
	if !ok {
		return types.TopicPage{TopicID: topicID, StatusCode: 404}, nil
	}
	page.TopicID = topicID
	return page, nil
}

// fakeMonitorStore keeps sweep state in memory.
type fakeMonitorStore struct {
	candidates []types.SearchCandidate
	firstPosts map[int]types.FirstPostRecord
	health     []types.Visibility
	saved      []types.FirstPostRecord
}

func (f *fakeMonitorStore) ListCandidates(_ context.Context) ([]types.SearchCandidate, error) {
	return f.candidates, nil
}

func (f *fakeMonitorStore) RecordHealthCheck(_ context.Context, _ int, _ time.Time, status types.Visibility) error {
	f.health = append(f.health, status)
	return nil
}

func (f *fakeMonitorStore) ActualFirstPost(_ context.Context, topicID int) (types.FirstPostRecord, bool, error) {
	record, ok := f.firstPosts[topicID]
	return record, ok, nil
}

func (f *fakeMonitorStore) SaveFirstPost(_ context.Context, record types.FirstPostRecord) error {
	if f.firstPosts == nil {
		f.firstPosts = map[int]types.FirstPostRecord{}
	}
	f.firstPosts[record.SearchID] = record
	f.saved = append(f.saved, record)
	return nil
}

// fakeFunctions answers provider calls from canned state and records
// every applied spec.
type fakeFunctions struct {
	states   map[string]ports.FunctionState
	applyErr map[string]error
	applied  []ports.FunctionDeploySpec
	urls     int
}

func (f *fakeFunctions) Get(_ context.Context, _ string, _ string, name string) (ports.FunctionState, error) {
	return f.states[name], nil
}

func (f *fakeFunctions) GenerateUploadURL(_ context.Context, _ string, region string) (string, error) {
	f.urls++
	return fmt.Sprintf("https://storage.example/upload/%s/%d", region, f.urls), nil
}

func (f *fakeFunctions) Apply(_ context.Context, spec ports.FunctionDeploySpec) error {
	f.applied = append(f.applied, spec)
	return f.applyErr[spec.Name]
}

// fakeUploader records signed-url uploads.
type fakeUploader struct {
	uploads []string
}

func (f *fakeUploader) Upload(_ context.Context, uploadURL string, _ string) error {
	f.uploads = append(f.uploads, uploadURL)
	return nil
}

// fakeStorage stages archives under a gs:// prefix.
type fakeStorage struct {
	objects []string
}

func (f *fakeStorage) UploadObject(_ context.Context, bucket string, object string, _ string) (string, error) {
	f.objects = append(f.objects, object)
	return "gs://" + bucket + "/" + object, nil
}

// fakeUserStore keeps subscriber bot state in memory.
type fakeUserStore struct {
	statuses  map[int64]string
	statusErr error
	coords    map[int64]types.UserCoordinates
	prefs     map[int64][]types.UserPreference
	regional  map[int64]map[int]bool
	searches  []types.SearchSummary
}

func (f *fakeUserStore) SetUserStatus(_ context.Context, userID int64, status string, _ time.Time) error {
	if f.statusErr != nil {
		return f.statusErr
	}
	if f.statuses == nil {
		f.statuses = map[int64]string{}
	}
	f.statuses[userID] = status
	return nil
}

func (f *fakeUserStore) UpsertCoordinates(_ context.Context, coords types.UserCoordinates) error {
	if f.coords == nil {
		f.coords = map[int64]types.UserCoordinates{}
	}
	f.coords[coords.UserID] = coords
	return nil
}

func (f *fakeUserStore) Coordinates(_ context.Context, userID int64) (types.UserCoordinates, bool, error) {
	coords, ok := f.coords[userID]
	return coords, ok, nil
}

func (f *fakeUserStore) SetPreference(_ context.Context, userID int64, prefID int, name string) error {
	if f.prefs == nil {
		f.prefs = map[int64][]types.UserPreference{}
	}
	f.prefs[userID] = append(f.prefs[userID], types.UserPreference{UserID: userID, PrefID: prefID, Preference: name})
	return nil
}

func (f *fakeUserStore) DeletePreference(_ context.Context, userID int64, prefID int) error {
	var kept []types.UserPreference
	for _, pref := range f.prefs[userID] {
		if pref.PrefID != prefID {
			kept = append(kept, pref)
		}
	}
	f.prefs[userID] = kept
	return nil
}

func (f *fakeUserStore) Preferences(_ context.Context, userID int64) ([]types.UserPreference, error) {
	return f.prefs[userID], nil
}

func (f *fakeUserStore) ToggleRegionalPreference(_ context.Context, userID int64, folderID int) (bool, error) {
	if f.regional == nil {
		f.regional = map[int64]map[int]bool{}
	}
	if f.regional[userID] == nil {
		f.regional[userID] = map[int]bool{}
	}
	f.regional[userID][folderID] = !f.regional[userID][folderID]
	return f.regional[userID][folderID], nil
}

func (f *fakeUserStore) RegionalPreferences(_ context.Context, userID int64) ([]int, error) {
	var out []int
	for folder, on := range f.regional[userID] {
		if on {
			out = append(out, folder)
		}
	}
	return out, nil
}

func (f *fakeUserStore) RecentSearches(_ context.Context, limit int) ([]types.SearchSummary, error) {
	if limit > 0 && len(f.searches) > limit {
		return f.searches[:limit], nil
	}
	return f.searches, nil
}

// fakeLedger is an in-memory deploy history.
type fakeLedger struct {
	records []types.DeployInfo
	deleted []int64
}

func (f *fakeLedger) InsertDeploy(_ context.Context, record types.DeployInfo) error {
	record.ID = int64(len(f.records) + 1)
	f.records = append(f.records, record)
	return nil
}

func (f *fakeLedger) ListDeploys(_ context.Context, function string, since time.Time, limit int) ([]types.DeployInfo, error) {
	var out []types.DeployInfo
	for _, record := range f.records {
		if function != "" && record.Function != function {
			continue
		}
		if !since.IsZero() && record.DeployedAt.Before(since) {
			continue
		}
		out = append(out, record)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeLedger) ListAllDeploys(_ context.Context) ([]types.DeployInfo, error) {
	return f.records, nil
}

func (f *fakeLedger) DeleteDeploys(_ context.Context, ids []int64) (int, error) {
	f.deleted = append(f.deleted, ids...)
	return len(ids), nil
}
