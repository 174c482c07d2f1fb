package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/calebmi254/Safety-and-Security-management-system/internal/config"
	"github.com/calebmi254/Safety-and-Security-management-system/internal/metrics"
	"github.com/calebmi254/Safety-and-Security-management-system/internal/model"
	"github.com/calebmi254/Safety-and-Security-management-system/internal/severity"
	"github.com/calebmi254/Safety-and-Security-management-system/internal/util"
)

// DocSourceID tags rows produced by the news-tier adapter and keys its
// checkpoint row.
const DocSourceID = "gdelt_doc"

const (
	defaultDocBaseURL    = "https://api.gdeltproject.org/api/v2/doc/doc"
	defaultDocQuery      = "(protest OR violence)"
	defaultDocMaxRecords = 20
	noTitlePlaceholder   = "No title available"
)

type docSource struct {
	cfg    config.DocFeedConfig
	client *http.Client
	db     Store
}

func NewGDELTDoc(cfg config.DocFeedConfig, db Store) *docSource {
	to := cfg.HTTP.Timeout
	if to == 0 {
		to = 30 * time.Second
	}
	return &docSource{cfg: cfg, client: util.NewHTTPClient(to), db: db}
}

func (s *docSource) Name() string { return DocSourceID }

type docArticle struct {
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	Tone          toneValue `json:"tone"`
	SourceCountry string    `json:"sourcecountry"`
	Language      string    `json:"language"`
	SeenDate      string    `json:"seendate"`
}

// toneValue tolerates the feed emitting tone as either a bare number or a
// quoted string; anything unparseable decodes to zero.
type toneValue float64

func (t *toneValue) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*t = 0
		return nil
	}
	*t = toneValue(v)
	return nil
}

// Ingest runs one news-tier cycle: a single bounded article-search request,
// per-article transform+insert with row-level isolation, then an
// unconditional success checkpoint. Skipped duplicates are steady state, not
// failures.
func (s *docSource) Ingest(ctx context.Context) model.RunResult {
	log.Info().Msg("[GDELT_DOC] Starting signal ingestion run")

	inserted, skipped := 0, 0

	articles, err := s.fetchArticles(ctx)
	if err != nil {
		log.Error().Err(err).Msg("[GDELT_DOC] Ingestion run failed")
		if cpErr := s.db.UpdateRunStatus(ctx, DocSourceID, inserted, model.StatusError, err.Error()); cpErr != nil {
			log.Error().Err(cpErr).Msg("[GDELT_DOC] Checkpoint write failed")
		}
		return errResult(err)
	}

	if len(articles) == 0 {
		log.Warn().Msg("[GDELT_DOC] No articles returned from API")
		if err := s.db.UpdateRunStatus(ctx, DocSourceID, 0, model.StatusSuccess, ""); err != nil {
			return errResult(err)
		}
		return model.RunResult{Status: model.StatusSuccess}
	}

	for _, a := range articles {
		sig := transformArticle(a)
		// Auxiliary scoring only; the signal schema carries raw tone, not severity.
		sev := severity.FromTone(sig.Tone)
		metrics.SignalSeverity.WithLabelValues(strconv.Itoa(sev)).Inc()

		created, err := s.db.InsertSignal(ctx, sig)
		if err != nil {
			log.Warn().Err(err).Str("url", sig.URL).Msg("[GDELT_DOC] Skipped signal")
			skipped++
			metrics.RowsTotal.WithLabelValues(DocSourceID, "skipped").Inc()
			continue
		}
		if created {
			inserted++
			metrics.RowsTotal.WithLabelValues(DocSourceID, "inserted").Inc()
		} else {
			skipped++
			metrics.RowsTotal.WithLabelValues(DocSourceID, "skipped").Inc()
		}
	}

	if err := s.db.UpdateRunStatus(ctx, DocSourceID, inserted, model.StatusSuccess, ""); err != nil {
		log.Error().Err(err).Msg("[GDELT_DOC] Checkpoint write failed")
		return errResult(err)
	}

	log.Info().Int("inserted", inserted).Int("skipped", skipped).Msg("[GDELT_DOC] Run complete")
	return model.RunResult{Status: model.StatusSuccess, Inserted: inserted, Skipped: skipped, Total: len(articles)}
}

func (s *docSource) fetchArticles(ctx context.Context) ([]docArticle, error) {
	base := s.cfg.BaseURL
	if base == "" {
		base = defaultDocBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}

	query := s.cfg.Query
	if query == "" {
		query = defaultDocQuery
	}
	maxRecords := s.cfg.MaxRecords
	if maxRecords <= 0 {
		maxRecords = defaultDocMaxRecords
	}

	q := u.Query()
	q.Set("query", query)
	q.Set("mode", "ArtList")
	q.Set("format", "json")
	q.Set("maxrecords", strconv.Itoa(maxRecords))
	q.Set("sort", "DateDesc")
	u.RawQuery = q.Encode()

	var body []byte
	err = util.Retry(ctx, max(1, s.cfg.MaxRetries), defaultDur(s.cfg.Backoff, 500*time.Millisecond), defaultDur(s.cfg.MaxBackoff, 5*time.Second), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return err
		}
		if ua := s.cfg.HTTP.UserAgent; ua != "" {
			req.Header.Set("User-Agent", ua)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode/100 != 2 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return fmt.Errorf("article search %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Articles []docArticle `json:"articles"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode article list: %w", err)
	}
	return payload.Articles, nil
}

// transformArticle maps a raw article into the media-signal schema. It is
// total: missing titles become a placeholder and unparseable timestamps fall
// back to now.
func transformArticle(a docArticle) model.MediaSignal {
	title := a.Title
	if title == "" {
		title = noTitlePlaceholder
	}
	return model.MediaSignal{
		Source:     DocSourceID,
		ExternalID: a.URL, // the URL is the natural dedup key for news
		Title:      title,
		URL:        a.URL,
		Tone:       float64(a.Tone),
		Country:    a.SourceCountry,
		Language:   a.Language,
		OccurredAt: parseSeenDate(a.SeenDate),
	}
}

// parseSeenDate parses the feed's compact YYYYMMDDTHHMMSSZ stamp
// positionally. Any parse failure yields now.
func parseSeenDate(s string) time.Time {
	if len(s) < 15 {
		return time.Now().UTC()
	}
	y, err1 := strconv.Atoi(s[0:4])
	mo, err2 := strconv.Atoi(s[4:6])
	d, err3 := strconv.Atoi(s[6:8])
	h, err4 := strconv.Atoi(s[9:11])
	mi, err5 := strconv.Atoi(s[11:13])
	sec, err6 := strconv.Atoi(s[13:15])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil || err6 != nil ||
		mo < 1 || mo > 12 || d < 1 || d > 31 || h > 23 || mi > 59 || sec > 60 {
		return time.Now().UTC()
	}
	return time.Date(y, time.Month(mo), d, h, mi, sec, 0, time.UTC)
}
