package source

import (
	"context"
	"errors"
	"sync"

	"github.com/calebmi254/Safety-and-Security-management-system/internal/model"
)

type statusWrite struct {
	Source string
	Count  int
	Status string
	Err    string
}

// fakeStore is an in-memory Store keeping just enough state to observe
// adapter behavior: dedup by (source, external_id), checkpoint reads and the
// sequence of checkpoint writes.
type fakeStore struct {
	mu          sync.Mutex
	events      map[string]model.Event
	signals     map[string]model.MediaSignal
	checkpoints map[string]model.Checkpoint

	failUpsertID  string // external_id that fails on upsert
	failInsertURL string // signal URL that fails on insert

	fileWrites   []string
	statusWrites []statusWrite
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:      make(map[string]model.Event),
		signals:     make(map[string]model.MediaSignal),
		checkpoints: make(map[string]model.Checkpoint),
	}
}

func (f *fakeStore) UpsertEvent(_ context.Context, ev model.Event) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpsertID != "" && ev.ExternalID == f.failUpsertID {
		return false, errors.New("synthetic upsert failure")
	}
	key := ev.Source + "::" + ev.ExternalID
	_, exists := f.events[key]
	if exists && ev.Title == "" {
		// Preserve a previously-enriched title, mirroring the COALESCE.
		ev.Title = f.events[key].Title
	}
	f.events[key] = ev
	return !exists, nil
}

func (f *fakeStore) InsertSignal(_ context.Context, sig model.MediaSignal) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsertURL != "" && sig.URL == f.failInsertURL {
		return false, errors.New("synthetic insert failure")
	}
	key := sig.Source + "::" + sig.ExternalID
	if _, exists := f.signals[key]; exists {
		return false, nil
	}
	f.signals[key] = sig
	return true, nil
}

func (f *fakeStore) Checkpoint(_ context.Context, source string) (model.Checkpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp, ok := f.checkpoints[source]
	if !ok {
		return model.Checkpoint{Source: source}, nil
	}
	return cp, nil
}

func (f *fakeStore) MarkFileProcessed(_ context.Context, source, filename string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := f.checkpoints[source]
	cp.Source = source
	cp.LastFileProcessed = filename
	f.checkpoints[source] = cp
	f.fileWrites = append(f.fileWrites, filename)
	return nil
}

func (f *fakeStore) UpdateRunStatus(_ context.Context, source string, count int, status, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := f.checkpoints[source]
	cp.Source = source
	cp.LastRunCount = count
	cp.LastRunStatus = status
	cp.LastError = errMsg
	f.checkpoints[source] = cp
	f.statusWrites = append(f.statusWrites, statusWrite{Source: source, Count: count, Status: status, Err: errMsg})
	return nil
}

// fakeEnricher records which URLs were asked for and answers from a fixed map.
type fakeEnricher struct {
	mu     sync.Mutex
	titles map[string]string
	calls  []string
}

func (f *fakeEnricher) Headline(_ context.Context, url string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	return f.titles[url]
}
