package source

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/calebmi254/Safety-and-Security-management-system/internal/config"
	"github.com/calebmi254/Safety-and-Security-management-system/internal/model"
)

// eventTSVRow renders one full-width tab-separated feed row.
func eventTSVRow(id, mentions, lat, lon, sourceURL string) string {
	rec := makeRow(map[int]string{
		colGlobalEventID:  id,
		colSQLDate:        "20260815",
		colActor1Code:     "GOVXXX",
		colEventCode:      "182",
		colEventRootCode:  "18",
		colGoldsteinScale: "-9.0",
		colNumMentions:    mentions,
		colActionGeoLat:   lat,
		colActionGeoLong:  lon,
		colSourceURL:      sourceURL,
	})
	return strings.Join(rec, "\t")
}

func buildArchive(t *testing.T, tsv string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("20260830120000.export.CSV")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(tsv)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// newFeedServer serves a pointer file plus the archive it points at.
func newFeedServer(t *testing.T, archive []byte) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "lastupdate.txt"):
			fmt.Fprintf(w, "123456 abcdef %s/20260830120000.export.CSV.zip\n", srv.URL)
		case strings.HasSuffix(r.URL.Path, ".zip"):
			w.Write(archive)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEventIngestEndToEnd(t *testing.T) {
	tsv := strings.Join([]string{
		eventTSVRow("1001", "100", "12.5", "45.0", "http://example.com/a"),
		eventTSVRow("1002", "10", "1.0", "2.0", "http://example.com/b"),
		eventTSVRow("1003", "50", "bad", "2.0", "http://example.com/c"), // rejected: bad lat
	}, "\n")
	srv := newFeedServer(t, buildArchive(t, tsv))

	fs := newFakeStore()
	src := NewGDELTEvents(config.EventFeedConfig{BaseURL: srv.URL}, fs)
	enr := &fakeEnricher{titles: map[string]string{"http://example.com/a": "Capital Assault Reported"}}
	src.enricher = enr

	res := src.Ingest(context.Background())
	if res.Status != model.StatusSuccess {
		t.Fatalf("status = %q (%s), want success", res.Status, res.Error)
	}
	if res.Inserted != 2 || res.Total != 2 {
		t.Errorf("result = %+v, want 2 inserted of 2 total", res)
	}
	if _, ok := fs.events[EventSourceID+"::1003"]; ok {
		t.Error("row with non-numeric latitude must never be persisted")
	}
	if got := fs.events[EventSourceID+"::1001"].Title; got != "Capital Assault Reported" {
		t.Errorf("enriched title = %q", got)
	}
	if cp := fs.checkpoints[EventSourceID]; cp.LastFileProcessed != "20260830120000.export.CSV.zip" {
		t.Errorf("checkpoint file = %q", cp.LastFileProcessed)
	}
	// The bulk path never writes run status; the file pointer is the watermark.
	if len(fs.statusWrites) != 0 {
		t.Errorf("unexpected status writes: %+v", fs.statusWrites)
	}
}

func TestEventIngestSkipsProcessedFile(t *testing.T) {
	srv := newFeedServer(t, buildArchive(t, eventTSVRow("1001", "1", "1.0", "2.0", "")))

	fs := newFakeStore()
	fs.checkpoints[EventSourceID] = model.Checkpoint{
		Source:            EventSourceID,
		LastFileProcessed: "20260830120000.export.CSV.zip",
	}
	src := NewGDELTEvents(config.EventFeedConfig{BaseURL: srv.URL}, fs)
	src.enricher = &fakeEnricher{}

	res := src.Ingest(context.Background())
	if res.Status != model.StatusSkipped {
		t.Fatalf("status = %q, want skipped", res.Status)
	}
	if len(fs.events) != 0 {
		t.Errorf("no rows should be persisted on a skipped run, got %d", len(fs.events))
	}
	if len(fs.fileWrites) != 0 {
		t.Errorf("checkpoint must not be rewritten on skip: %v", fs.fileWrites)
	}
}

func TestEventIngestIdempotent(t *testing.T) {
	srv := newFeedServer(t, buildArchive(t, eventTSVRow("1001", "1", "1.0", "2.0", "")))

	fs := newFakeStore()
	src := NewGDELTEvents(config.EventFeedConfig{BaseURL: srv.URL}, fs)
	src.enricher = &fakeEnricher{}

	if res := src.Ingest(context.Background()); res.Status != model.StatusSuccess {
		t.Fatalf("first run: %+v", res)
	}
	res := src.Ingest(context.Background())
	if res.Status != model.StatusSkipped {
		t.Fatalf("second run status = %q, want skipped", res.Status)
	}
	if len(fs.events) != 1 {
		t.Errorf("row count changed on re-ingestion: %d", len(fs.events))
	}
}

func TestEventIngestEnrichmentBounded(t *testing.T) {
	const total = 8
	rows := make([]string, 0, total)
	for i := 0; i < total; i++ {
		// Mention counts 10, 20, ... 80; URLs /r0.../r7.
		rows = append(rows, eventTSVRow(
			fmt.Sprintf("%d", 2000+i),
			fmt.Sprintf("%d", (i+1)*10),
			"1.0", "2.0",
			fmt.Sprintf("http://example.com/r%d", i),
		))
	}
	srv := newFeedServer(t, buildArchive(t, strings.Join(rows, "\n")))

	fs := newFakeStore()
	src := NewGDELTEvents(config.EventFeedConfig{BaseURL: srv.URL, EnrichLimit: 3}, fs)
	enr := &fakeEnricher{titles: map[string]string{}}
	src.enricher = enr

	if res := src.Ingest(context.Background()); res.Status != model.StatusSuccess {
		t.Fatalf("run: %+v", res)
	}
	if len(enr.calls) != 3 {
		t.Fatalf("enrichment fetches = %d, want exactly 3", len(enr.calls))
	}
	// The prefix must be the top rows by descending mention count.
	want := []string{"http://example.com/r7", "http://example.com/r6", "http://example.com/r5"}
	for i, u := range want {
		if enr.calls[i] != u {
			t.Errorf("enrich call %d = %q, want %q", i, enr.calls[i], u)
		}
	}
}

func TestEventIngestRowFailureDoesNotAbort(t *testing.T) {
	tsv := strings.Join([]string{
		eventTSVRow("3001", "5", "1.0", "2.0", ""),
		eventTSVRow("3002", "4", "1.0", "2.0", ""),
	}, "\n")
	srv := newFeedServer(t, buildArchive(t, tsv))

	fs := newFakeStore()
	fs.failUpsertID = "3001"
	src := NewGDELTEvents(config.EventFeedConfig{BaseURL: srv.URL}, fs)
	src.enricher = &fakeEnricher{}

	res := src.Ingest(context.Background())
	if res.Status != model.StatusSuccess {
		t.Fatalf("status = %q, want success despite row failure", res.Status)
	}
	if res.Inserted != 1 || res.Skipped != 1 {
		t.Errorf("result = %+v, want 1 inserted 1 skipped", res)
	}
	if len(fs.fileWrites) != 1 {
		t.Error("checkpoint must still advance after the stream completes")
	}
}

func TestEventIngestPointerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "feed down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	fs := newFakeStore()
	src := NewGDELTEvents(config.EventFeedConfig{BaseURL: srv.URL}, fs)
	src.enricher = &fakeEnricher{}

	res := src.Ingest(context.Background())
	if res.Status != model.StatusError || res.Error == "" {
		t.Fatalf("result = %+v, want error with message", res)
	}
	// Early aborts leave the checkpoint untouched on the bulk path.
	if len(fs.fileWrites) != 0 || len(fs.statusWrites) != 0 {
		t.Error("checkpoint must not be mutated on early abort")
	}
}

func TestZipEntryReaderRoundTrip(t *testing.T) {
	payload := "col1\tcol2\tcol3\nval1\tval2\tval3\n"
	archive := buildArchive(t, payload)

	r, err := zipEntryReader(bytes.NewReader(archive))
	if err != nil {
		t.Fatalf("zipEntryReader: %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read entry: %v", err)
	}
	if string(got) != payload {
		t.Errorf("entry content = %q, want %q", got, payload)
	}
}

func TestZipEntryReaderRejectsGarbage(t *testing.T) {
	if _, err := zipEntryReader(strings.NewReader("this is not a zip file at all")); err == nil {
		t.Error("expected error for non-zip input")
	}
}
