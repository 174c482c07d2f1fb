package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/calebmi254/Safety-and-Security-management-system/internal/ingest"
	"github.com/calebmi254/Safety-and-Security-management-system/internal/model"
)

type fakeReader struct {
	events      []model.Event
	nearCalled  bool
	signals     []model.MediaSignal
	checkpoints []model.Checkpoint
}

func (f *fakeReader) LatestEvents(_ context.Context, limit int) ([]model.Event, error) {
	return f.events, nil
}

func (f *fakeReader) EventsNear(_ context.Context, lat, lon, radiusKm float64, limit int) ([]model.Event, error) {
	f.nearCalled = true
	return f.events, nil
}

func (f *fakeReader) LatestSignals(_ context.Context, limit, offset int) ([]model.MediaSignal, error) {
	return f.signals, nil
}

func (f *fakeReader) IngestionStatus(_ context.Context) ([]model.Checkpoint, error) {
	return f.checkpoints, nil
}

func newTestServer(reader *fakeReader) *Server {
	sched := ingest.NewScheduler(ingest.NewManager(nil), 0)
	return NewServer(":0", sched, reader)
}

func TestHandleStatus(t *testing.T) {
	reader := &fakeReader{checkpoints: []model.Checkpoint{
		{Source: "gdelt_doc", LastRunStatus: model.StatusSuccess, LastRunCount: 12},
		{Source: "gdelt_event", LastRunStatus: model.StatusPending},
	}}
	srv := newTestServer(reader)

	req := httptest.NewRequest(http.MethodGet, "/api/ingest/status", nil)
	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got []model.Checkpoint
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Source != "gdelt_doc" {
		t.Errorf("body = %+v", got)
	}
}

func TestHandleTriggerRespondsImmediately(t *testing.T) {
	srv := newTestServer(&fakeReader{})

	req := httptest.NewRequest(http.MethodPost, "/api/ingest/trigger", nil)
	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "triggered" {
		t.Errorf("body = %v", body)
	}
}

func TestHandleTriggerRejectsGet(t *testing.T) {
	srv := newTestServer(&fakeReader{})

	req := httptest.NewRequest(http.MethodGet, "/api/ingest/trigger", nil)
	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleEventsProximity(t *testing.T) {
	reader := &fakeReader{events: []model.Event{{Source: "gdelt_event", Severity: 4}}}
	srv := newTestServer(reader)

	req := httptest.NewRequest(http.MethodGet, "/api/events?lat=12.5&lon=45.0&radius_km=50", nil)
	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !reader.nearCalled {
		t.Error("lat/lon query must use the proximity path")
	}
}

func TestHandleEventsBadCoordinates(t *testing.T) {
	srv := newTestServer(&fakeReader{})

	req := httptest.NewRequest(http.MethodGet, "/api/events?lat=abc&lon=1", nil)
	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleSignals(t *testing.T) {
	reader := &fakeReader{signals: []model.MediaSignal{{Source: "gdelt_doc", Tone: -8.5}}}
	srv := newTestServer(reader)

	req := httptest.NewRequest(http.MethodGet, "/api/signals?limit=5", nil)
	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got []model.MediaSignal
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Tone != -8.5 {
		t.Errorf("body = %+v", got)
	}
}
