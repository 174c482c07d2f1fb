// Package store owns all writes to the events, media_signals and
// ingestion_state tables. Deduplication lives here: the partial unique index
// on (source, external_id) is the single serialization point for repeated or
// overlapping ingestion runs.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/calebmi254/Safety-and-Security-management-system/internal/config"
	"github.com/calebmi254/Safety-and-Security-management-system/internal/model"
)

type DB struct {
	db *sql.DB
}

func Open(cfg config.DBConfig) (*DB, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open db connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &DB{db: db}
	if err := s.InitSchema(context.Background()); err != nil {
		return nil, fmt.Errorf("initialize db schema: %w", err)
	}
	return s, nil
}

func (s *DB) Close() error { return s.db.Close() }

// InitSchema creates the three core tables and pre-seeds one checkpoint row
// per known source so adapters can always UPDATE in place.
func (s *DB) InitSchema(ctx context.Context) error {
	const schema = `
	CREATE EXTENSION IF NOT EXISTS postgis;

	CREATE TABLE IF NOT EXISTS events (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		source VARCHAR(50) NOT NULL,
		external_id VARCHAR(255),
		event_category VARCHAR(100),
		severity INTEGER,
		intensity DECIMAL(4,1),
		title VARCHAR(500),
		description TEXT,
		actors JSONB,
		location GEOGRAPHY(POINT, 4326),
		country VARCHAR(100),
		source_url TEXT,
		occurred_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT NOW(),
		updated_at TIMESTAMP DEFAULT NOW()
	);

	CREATE UNIQUE INDEX IF NOT EXISTS events_source_external_id_idx
		ON events (source, external_id) WHERE external_id IS NOT NULL;
	CREATE INDEX IF NOT EXISTS events_occurred_at_idx ON events (occurred_at DESC);
	CREATE INDEX IF NOT EXISTS events_location_idx ON events USING GIST (location);

	CREATE TABLE IF NOT EXISTS media_signals (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		source VARCHAR(50) NOT NULL,
		external_id VARCHAR(255) NOT NULL,
		title VARCHAR(500),
		url TEXT,
		tone REAL,
		country VARCHAR(100),
		language VARCHAR(50),
		occurred_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT NOW(),
		UNIQUE (source, external_id)
	);

	CREATE INDEX IF NOT EXISTS idx_media_signals_country_date
		ON media_signals (country, occurred_at DESC);

	CREATE TABLE IF NOT EXISTS ingestion_state (
		source VARCHAR(50) PRIMARY KEY,
		last_synced_at TIMESTAMP,
		last_run_count INTEGER DEFAULT 0,
		last_run_status TEXT DEFAULT 'pending',
		last_error TEXT,
		last_file_processed VARCHAR(255),
		updated_at TIMESTAMP DEFAULT NOW()
	);

	INSERT INTO ingestion_state (source, last_run_status)
	VALUES ('gdelt_doc', 'pending'), ('gdelt_event', 'pending'), ('acled', 'pending')
	ON CONFLICT (source) DO NOTHING;`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// UpsertEvent inserts or updates one structured event keyed by
// (source, external_id). On conflict only the mutable fields are refreshed,
// and a previously-enriched title is never clobbered by an empty one. The
// returned bool is true when a net-new row was created.
func (s *DB) UpsertEvent(ctx context.Context, ev model.Event) (bool, error) {
	actors, err := json.Marshal(ev.Actors)
	if err != nil {
		return false, fmt.Errorf("marshal actors: %w", err)
	}

	const query = `
	INSERT INTO events
		(source, external_id, event_category, severity, intensity, title, description, actors, location, country, source_url, occurred_at)
	VALUES
		($1, $2, $3, $4, $5, $6, $7, $8::jsonb, ST_GeographyFromText($9), $10, $11, $12)
	ON CONFLICT (source, external_id) WHERE external_id IS NOT NULL
	DO UPDATE SET
		title = COALESCE(EXCLUDED.title, events.title),
		description = EXCLUDED.description,
		intensity = EXCLUDED.intensity,
		source_url = EXCLUDED.source_url,
		updated_at = NOW()
	RETURNING (xmax = 0)`

	var created bool
	err = s.db.QueryRowContext(ctx, query,
		ev.Source, nullString(ev.ExternalID), ev.EventCategory, ev.Severity, ev.Intensity,
		nullString(ev.Title), ev.Description, string(actors), pointWKT(ev.Lon, ev.Lat),
		nullString(ev.Country), nullString(ev.SourceURL), ev.OccurredAt,
	).Scan(&created)
	if err != nil {
		log.Error().Err(err).Str("external_id", ev.ExternalID).Msg("Failed to upsert event")
		return false, err
	}
	return created, nil
}

// InsertSignal inserts one media signal, ignoring duplicates. Signals are
// never updated once stored. Returns true when a row was actually created.
func (s *DB) InsertSignal(ctx context.Context, sig model.MediaSignal) (bool, error) {
	const query = `
	INSERT INTO media_signals
		(source, external_id, title, url, tone, country, language, occurred_at)
	VALUES
		($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (source, external_id)
	DO NOTHING
	RETURNING id`

	var id string
	err := s.db.QueryRowContext(ctx, query,
		sig.Source, sig.ExternalID, sig.Title, sig.URL, sig.Tone,
		nullString(sig.Country), nullString(sig.Language), sig.OccurredAt,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil // duplicate: expected steady state, not an error
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Checkpoint returns the watermark row for a source. A source with no row yet
// yields an empty checkpoint rather than an error.
func (s *DB) Checkpoint(ctx context.Context, source string) (model.Checkpoint, error) {
	const query = `
	SELECT source, last_synced_at, last_run_count, last_run_status, last_error, last_file_processed, updated_at
	FROM ingestion_state WHERE source = $1`

	cp := model.Checkpoint{Source: source}
	var syncedAt, updatedAt sql.NullTime
	var lastErr, lastFile sql.NullString
	err := s.db.QueryRowContext(ctx, query, source).Scan(
		&cp.Source, &syncedAt, &cp.LastRunCount, &cp.LastRunStatus, &lastErr, &lastFile, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return model.Checkpoint{Source: source}, nil
	}
	if err != nil {
		return cp, err
	}
	cp.LastSyncedAt = syncedAt.Time
	cp.UpdatedAt = updatedAt.Time
	cp.LastError = lastErr.String
	cp.LastFileProcessed = lastFile.String
	return cp, nil
}

// MarkFileProcessed records that a bulk file was fully parsed. Only the file
// name and sync timestamp move; run status is intentionally untouched on this
// path (the file pointer is the real watermark for the bulk feed).
func (s *DB) MarkFileProcessed(ctx context.Context, source, filename string) error {
	const query = `
	UPDATE ingestion_state
	SET last_synced_at = NOW(), last_file_processed = $2, updated_at = NOW()
	WHERE source = $1`
	_, err := s.db.ExecContext(ctx, query, source, filename)
	return err
}

// UpdateRunStatus writes the outcome of one adapter run.
func (s *DB) UpdateRunStatus(ctx context.Context, source string, count int, status, errMsg string) error {
	const query = `
	UPDATE ingestion_state
	SET last_synced_at = NOW(), last_run_count = $2, last_run_status = $3, last_error = $4, updated_at = NOW()
	WHERE source = $1`
	_, err := s.db.ExecContext(ctx, query, source, count, status, nullString(errMsg))
	return err
}

// LatestEvents returns the most recent events globally, newest first.
func (s *DB) LatestEvents(ctx context.Context, limit int) ([]model.Event, error) {
	const query = `
	SELECT id, source, external_id, event_category, severity, intensity, title,
	       description, actors, country, source_url, occurred_at, created_at
	FROM events
	ORDER BY occurred_at DESC NULLS LAST
	LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, clampLimit(limit, 100))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// EventsNear returns events within radiusKm of a point, nearest-relevant
// first by occurrence time. ST_DWithin on GEOGRAPHY measures meters.
func (s *DB) EventsNear(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]model.Event, error) {
	const query = `
	SELECT id, source, external_id, event_category, severity, intensity, title,
	       description, actors, country, source_url, occurred_at, created_at
	FROM events
	WHERE location IS NOT NULL
	  AND ST_DWithin(location, ST_GeographyFromText($1), $2)
	ORDER BY occurred_at DESC NULLS LAST
	LIMIT $3`

	rows, err := s.db.QueryContext(ctx, query, pointWKT(lon, lat), radiusKm*1000, clampLimit(limit, 50))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// LatestSignals returns recent media signals with limit/offset pagination.
func (s *DB) LatestSignals(ctx context.Context, limit, offset int) ([]model.MediaSignal, error) {
	const query = `
	SELECT id, source, external_id, title, url, tone, country, language, occurred_at, created_at
	FROM media_signals
	ORDER BY occurred_at DESC
	LIMIT $1 OFFSET $2`

	rows, err := s.db.QueryContext(ctx, query, clampLimit(limit, 20), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MediaSignal
	for rows.Next() {
		var sig model.MediaSignal
		var title, url, country, language sql.NullString
		var tone sql.NullFloat64
		var occurredAt, createdAt sql.NullTime
		if err := rows.Scan(&sig.ID, &sig.Source, &sig.ExternalID, &title, &url,
			&tone, &country, &language, &occurredAt, &createdAt); err != nil {
			return nil, err
		}
		sig.Title = title.String
		sig.URL = url.String
		sig.Tone = tone.Float64
		sig.Country = country.String
		sig.Language = language.String
		sig.OccurredAt = occurredAt.Time
		sig.CreatedAt = createdAt.Time
		out = append(out, sig)
	}
	return out, rows.Err()
}

// IngestionStatus lists all checkpoint rows for the status endpoint.
func (s *DB) IngestionStatus(ctx context.Context) ([]model.Checkpoint, error) {
	const query = `
	SELECT source, last_synced_at, last_run_count, last_run_status, last_error, last_file_processed, updated_at
	FROM ingestion_state
	ORDER BY source`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Checkpoint
	for rows.Next() {
		var cp model.Checkpoint
		var syncedAt, updatedAt sql.NullTime
		var lastErr, lastFile sql.NullString
		if err := rows.Scan(&cp.Source, &syncedAt, &cp.LastRunCount, &cp.LastRunStatus,
			&lastErr, &lastFile, &updatedAt); err != nil {
			return nil, err
		}
		cp.LastSyncedAt = syncedAt.Time
		cp.UpdatedAt = updatedAt.Time
		cp.LastError = lastErr.String
		cp.LastFileProcessed = lastFile.String
		out = append(out, cp)
	}
	return out, rows.Err()
}

func scanEvents(rows *sql.Rows) ([]model.Event, error) {
	var out []model.Event
	for rows.Next() {
		var ev model.Event
		var externalID, title, country, sourceURL sql.NullString
		var actors []byte
		var occurredAt, createdAt sql.NullTime
		if err := rows.Scan(&ev.ID, &ev.Source, &externalID, &ev.EventCategory,
			&ev.Severity, &ev.Intensity, &title, &ev.Description, &actors,
			&country, &sourceURL, &occurredAt, &createdAt); err != nil {
			return nil, err
		}
		ev.ExternalID = externalID.String
		ev.Title = title.String
		ev.Country = country.String
		ev.SourceURL = sourceURL.String
		ev.OccurredAt = occurredAt.Time
		ev.CreatedAt = createdAt.Time
		if len(actors) > 0 {
			if err := json.Unmarshal(actors, &ev.Actors); err != nil {
				log.Warn().Err(err).Str("id", ev.ID).Msg("Undecodable actors blob")
			}
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func pointWKT(lon, lat float64) string {
	return "POINT(" + strconv.FormatFloat(lon, 'f', -1, 64) + " " + strconv.FormatFloat(lat, 'f', -1, 64) + ")"
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func clampLimit(limit, def int) int {
	if limit <= 0 || limit > 500 {
		return def
	}
	return limit
}
