package model

import "time"

// Run statuses reported by source adapters and stored in the checkpoint.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// Actors captures the participants of a structured event. Stored as JSONB.
type Actors struct {
	Actor1    string `json:"actor1,omitempty"`
	Actor2    string `json:"actor2,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
	EventCode string `json:"event_code,omitempty"`
}

// Event is the canonical structured incident produced by the event-tier
// adapters. Severity is our internal 1-5 scale; Intensity keeps the raw
// source score for audit.
type Event struct {
	ID            string    `json:"id,omitempty"`
	Source        string    `json:"source"`
	ExternalID    string    `json:"external_id,omitempty"`
	EventCategory string    `json:"event_category"`
	Severity      int       `json:"severity"`
	Intensity     float64   `json:"intensity"`
	Title         string    `json:"title,omitempty"` // enriched headline; empty = none
	Description   string    `json:"description"`
	Actors        Actors    `json:"actors"`
	Lat           float64   `json:"lat"`
	Lon           float64   `json:"lon"`
	Country       string    `json:"country,omitempty"`
	SourceURL     string    `json:"source_url,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

// MediaSignal is an unverified news-tier record. The article URL doubles as
// the external id, so re-ingestion is a no-op.
type MediaSignal struct {
	ID         string    `json:"id,omitempty"`
	Source     string    `json:"source"`
	ExternalID string    `json:"external_id"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	Tone       float64   `json:"tone"`
	Country    string    `json:"country,omitempty"`
	Language   string    `json:"language,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// Checkpoint is the per-source watermark row from ingestion_state.
type Checkpoint struct {
	Source            string    `json:"source"`
	LastSyncedAt      time.Time `json:"last_synced_at,omitempty"`
	LastRunCount      int       `json:"last_run_count"`
	LastRunStatus     string    `json:"last_run_status"`
	LastError         string    `json:"last_error,omitempty"`
	LastFileProcessed string    `json:"last_file_processed,omitempty"`
	UpdatedAt         time.Time `json:"updated_at,omitempty"`
}

// RunResult is the uniform summary every adapter reports back to the
// orchestrator.
type RunResult struct {
	Status   string `json:"status"`
	Inserted int    `json:"inserted"`
	Skipped  int    `json:"skipped"`
	Total    int    `json:"total"`
	Error    string `json:"error,omitempty"`
}
