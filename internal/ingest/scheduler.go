package ingest

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/calebmi254/Safety-and-Security-management-system/internal/model"
)

// Scheduler fires the Manager once per interval and exposes RunNow for
// manual triggers. A manual trigger is independent of the timer: it may
// overlap a scheduled cycle, in which case the persistence layer's unique
// constraint is the only duplicate guard (documented behavior; checkpoint
// rows are last-writer-wins).
type Scheduler struct {
	manager  *Manager
	interval time.Duration
	running  atomic.Bool // guards only the ticker against lapping itself
}

func NewScheduler(manager *Manager, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{manager: manager, interval: interval}
}

// Start runs an immediate cycle and then ticks until ctx is cancelled.
// Blocking; run it from main.
func (s *Scheduler) Start(ctx context.Context) {
	log.Info().Dur("interval", s.interval).Msg("[Scheduler] Ingestion scheduled")

	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("[Scheduler] Stopping")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		log.Warn().Msg("[Scheduler] Previous cycle still running, skipping tick")
		return
	}
	defer s.running.Store(false)
	s.manager.Run(ctx)
}

// RunNow triggers an immediate ingestion cycle outside the timer and returns
// its aggregated results. HTTP-facing callers should invoke this from a
// goroutine and respond without waiting; the outcome is observable later via
// the checkpoint rows.
func (s *Scheduler) RunNow(ctx context.Context) map[string]model.RunResult {
	log.Info().Msg("[Scheduler] Manual ingestion trigger invoked")
	return s.manager.Run(ctx)
}
