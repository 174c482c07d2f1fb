package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/calebmi254/Safety-and-Security-management-system/internal/config"
	"github.com/calebmi254/Safety-and-Security-management-system/internal/enrich"
	"github.com/calebmi254/Safety-and-Security-management-system/internal/metrics"
	"github.com/calebmi254/Safety-and-Security-management-system/internal/model"
	"github.com/calebmi254/Safety-and-Security-management-system/internal/util"
)

// EventSourceID tags rows produced by the bulk-file adapter and keys its
// checkpoint row.
const EventSourceID = "gdelt_event"

const (
	defaultEventBaseURL = "http://data.gdeltproject.org/gdeltv2/"
	lastUpdateFile      = "lastupdate.txt"
	defaultEnrichLimit  = 50
)

type eventSource struct {
	cfg      config.EventFeedConfig
	client   *http.Client
	db       Store
	enricher Enricher
	limit    int
}

func NewGDELTEvents(cfg config.EventFeedConfig, db Store) *eventSource {
	to := cfg.HTTP.Timeout
	if to == 0 {
		// Covers the full archive download; the feed publishes multi-MB files.
		to = 2 * time.Minute
	}
	limit := cfg.EnrichLimit
	if limit <= 0 {
		limit = defaultEnrichLimit
	}
	return &eventSource{
		cfg:      cfg,
		client:   util.NewHTTPClient(to),
		db:       db,
		enricher: enrich.New(cfg.EnrichTimeout, cfg.EnrichByteBudget),
		limit:    limit,
	}
}

func (s *eventSource) Name() string { return EventSourceID }

type fileMeta struct {
	URL      string
	Filename string
}

// Ingest runs one bulk-file cycle: pointer file → checkpoint short-circuit →
// streaming unzip/parse → coordinate filter → mention-sorted enrichment
// prefix → upsert → checkpoint. Errors before the stream completes abort the
// run without touching the checkpoint.
func (s *eventSource) Ingest(ctx context.Context) model.RunResult {
	meta, err := s.latestFileMeta(ctx)
	if err != nil {
		log.Error().Err(err).Msg("[GDELT_EVENT] Pointer file fetch failed")
		return errResult(err)
	}

	cp, err := s.db.Checkpoint(ctx, EventSourceID)
	if err != nil {
		return errResult(err)
	}
	if cp.LastFileProcessed == meta.Filename {
		log.Info().Str("file", meta.Filename).Msg("[GDELT_EVENT] Latest file already processed")
		return model.RunResult{Status: model.StatusSkipped}
	}

	rows, err := s.downloadAndFilter(ctx, meta.URL)
	if err != nil {
		log.Error().Err(err).Str("file", meta.Filename).Msg("[GDELT_EVENT] Ingestion run failed")
		return errResult(err)
	}

	// Spend the limited enrichment bandwidth on the most-reported incidents.
	sort.Slice(rows, func(i, j int) bool {
		return mentionCount(rows[i]) > mentionCount(rows[j])
	})

	log.Info().Int("rows", len(rows)).Int("enrich", min(s.limit, len(rows))).
		Msg("[GDELT_EVENT] Processing events")

	inserted, skipped := 0, 0
	for i, rec := range rows {
		ev, ok := transformEventRow(rec)
		if !ok {
			skipped++
			continue
		}
		if i < s.limit && ev.SourceURL != "" {
			metrics.EnrichmentAttempts.Inc()
			if title := s.enricher.Headline(ctx, ev.SourceURL); title != "" {
				ev.Title = title
				metrics.EnrichmentHits.Inc()
				log.Debug().Str("headline", title).Msg("[GDELT_EVENT] Extracted headline")
			}
		}
		created, err := s.db.UpsertEvent(ctx, ev)
		if err != nil {
			log.Warn().Err(err).Str("external_id", ev.ExternalID).Msg("[GDELT_EVENT] Row upsert failed")
			skipped++
			metrics.RowsTotal.WithLabelValues(EventSourceID, "skipped").Inc()
			continue
		}
		if created {
			inserted++
			metrics.RowsTotal.WithLabelValues(EventSourceID, "inserted").Inc()
		} else {
			skipped++
			metrics.RowsTotal.WithLabelValues(EventSourceID, "skipped").Inc()
		}
	}

	// Happy path writes only the file pointer and sync time; run status is
	// not flipped here. The pointer is the watermark for this feed.
	if err := s.db.MarkFileProcessed(ctx, EventSourceID, meta.Filename); err != nil {
		log.Error().Err(err).Msg("[GDELT_EVENT] Checkpoint write failed")
		return errResult(err)
	}

	log.Info().Int("inserted", inserted).Int("skipped", skipped).
		Str("file", meta.Filename).Msg("[GDELT_EVENT] Run complete")
	return model.RunResult{Status: model.StatusSuccess, Inserted: inserted, Skipped: skipped, Total: len(rows)}
}

// latestFileMeta fetches the feed's pointer file and derives the current
// archive URL and filename. Pointer format: first line is
// "<size> <hash> <url-of-export-archive>".
func (s *eventSource) latestFileMeta(ctx context.Context) (fileMeta, error) {
	base := s.cfg.BaseURL
	if base == "" {
		base = defaultEventBaseURL
	}
	pointerURL := strings.TrimRight(base, "/") + "/" + lastUpdateFile

	var body []byte
	err := util.Retry(ctx, max(1, s.cfg.MaxRetries), defaultDur(s.cfg.Backoff, 500*time.Millisecond), defaultDur(s.cfg.MaxBackoff, 5*time.Second), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pointerURL, nil)
		if err != nil {
			return err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode/100 != 2 {
			return fmt.Errorf("pointer file: status %d", resp.StatusCode)
		}
		body, err = io.ReadAll(io.LimitReader(resp.Body, 16<<10))
		return err
	})
	if err != nil {
		return fileMeta{}, err
	}

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	fields := strings.Fields(lines[0])
	if len(fields) < 3 {
		return fileMeta{}, fmt.Errorf("malformed pointer line: %q", lines[0])
	}
	u := fields[2]
	return fileMeta{URL: u, Filename: path.Base(u)}, nil
}

// downloadAndFilter streams the archive, decompresses the single TSV entry on
// the fly and keeps only rows whose action coordinates parse as finite
// numbers. Rows are returned raw so enrichment order can be decided after the
// full set is known.
func (s *eventSource) downloadAndFilter(ctx context.Context, url string) ([][]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("archive download: status %d", resp.StatusCode)
	}

	entry, err := zipEntryReader(resp.Body)
	if err != nil {
		return nil, err
	}

	tsv := csv.NewReader(entry)
	tsv.Comma = '\t'
	tsv.LazyQuotes = true
	tsv.FieldsPerRecord = -1

	var rows [][]string
	for {
		rec, err := tsv.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				// Malformed row: a row-level condition, the stream continues.
				continue
			}
			return nil, fmt.Errorf("parse archive: %w", err)
		}
		if len(rec) < numEventColumns {
			continue
		}
		_, latOK := parseFinite(rec[colActionGeoLat])
		_, lonOK := parseFinite(rec[colActionGeoLong])
		if latOK && lonOK {
			rows = append(rows, rec)
		}
	}
	return rows, nil
}

func mentionCount(rec []string) int {
	n, err := strconv.Atoi(strings.TrimSpace(rec[colNumMentions]))
	if err != nil {
		return 0
	}
	return n
}

func defaultDur(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}
