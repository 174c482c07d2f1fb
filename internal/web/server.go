// Package web exposes the thin HTTP surface around the ingestion core:
// a fire-and-forget manual trigger, checkpoint status, read access to
// persisted events/signals, and Prometheus metrics. Auth and tenancy are
// handled upstream and are not this server's concern.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/calebmi254/Safety-and-Security-management-system/internal/ingest"
	"github.com/calebmi254/Safety-and-Security-management-system/internal/model"
)

// Reader is the query slice of the persistence layer the HTTP surface needs.
type Reader interface {
	LatestEvents(ctx context.Context, limit int) ([]model.Event, error)
	EventsNear(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]model.Event, error)
	LatestSignals(ctx context.Context, limit, offset int) ([]model.MediaSignal, error)
	IngestionStatus(ctx context.Context) ([]model.Checkpoint, error)
}

type Server struct {
	sched  *ingest.Scheduler
	reader Reader
	http   *http.Server
}

func NewServer(addr string, sched *ingest.Scheduler, reader Reader) *Server {
	s := &Server{sched: sched, reader: reader}

	r := mux.NewRouter()
	r.HandleFunc("/api/ingest/trigger", s.handleTrigger).Methods(http.MethodPost)
	r.HandleFunc("/api/ingest/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/events", s.handleEvents).Methods(http.MethodGet)
	r.HandleFunc("/api/signals", s.handleSignals).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	s.http = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe() error { return s.http.ListenAndServe() }

func (s *Server) Shutdown(ctx context.Context) error { return s.http.Shutdown(ctx) }

// handleTrigger kicks off a full ingestion cycle without blocking the
// request. There is no job token; progress is observable via /api/ingest/status.
func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	go func() {
		// Detached from the request context: the run proceeds to natural
		// completion even if the caller disconnects.
		s.sched.RunNow(context.Background())
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "triggered"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	rows, err := s.reader.IngestionStatus(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to read ingestion status")
		writeError(w, http.StatusInternalServerError, "failed to read ingestion status")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := queryInt(q.Get("limit"), 100)

	latStr, lonStr := q.Get("lat"), q.Get("lon")
	if latStr != "" && lonStr != "" {
		lat, err1 := strconv.ParseFloat(latStr, 64)
		lon, err2 := strconv.ParseFloat(lonStr, 64)
		if err1 != nil || err2 != nil {
			writeError(w, http.StatusBadRequest, "invalid lat/lon")
			return
		}
		radius := 100.0
		if v, err := strconv.ParseFloat(q.Get("radius_km"), 64); err == nil && v > 0 {
			radius = v
		}
		events, err := s.reader.EventsNear(r.Context(), lat, lon, radius, limit)
		if err != nil {
			log.Error().Err(err).Msg("Failed to query events by proximity")
			writeError(w, http.StatusInternalServerError, "failed to query events")
			return
		}
		writeJSON(w, http.StatusOK, events)
		return
	}

	events, err := s.reader.LatestEvents(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to query events")
		writeError(w, http.StatusInternalServerError, "failed to query events")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	signals, err := s.reader.LatestSignals(r.Context(), queryInt(q.Get("limit"), 20), queryInt(q.Get("offset"), 0))
	if err != nil {
		log.Error().Err(err).Msg("Failed to query signals")
		writeError(w, http.StatusInternalServerError, "failed to query signals")
		return
	}
	writeJSON(w, http.StatusOK, signals)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
