package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rech03/CES-sub001/internal/session"
)

// staleGateAge is how long an opened gate may sit without being admitted
// or aborted before the sweep discards it.
const staleGateAge = 10 * time.Minute

// ReaperWorker submits attempts whose deadline passed while no session
// goroutine was alive to enforce it (process restart, student never
// came back after a crash). Live sessions auto-submit themselves; the
// reaper only sweeps the orphans left behind in Redis, plus gates that
// were opened and then abandoned.
type ReaperWorker struct {
	platform session.Platform
	cache    *session.StateCache
	manager  *session.Manager
	interval time.Duration
	log      zerolog.Logger
}

// NewReaperWorker creates a new ReaperWorker.
func NewReaperWorker(platform session.Platform, cache *session.StateCache, manager *session.Manager, interval time.Duration, log zerolog.Logger) *ReaperWorker {
	return &ReaperWorker{
		platform: platform,
		cache:    cache,
		manager:  manager,
		interval: interval,
		log:      log.With().Str("component", "reaper_worker").Logger(),
	}
}

// Start begins the sweep loop. Call in a goroutine.
func (w *ReaperWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ReaperWorker) sweep(ctx context.Context) {
	if n := w.manager.SweepGates(staleGateAge); n > 0 {
		w.log.Info().Int("count", n).Msg("Abandoned gates swept")
	}

	expired, err := w.cache.ExpiredSessions(ctx, time.Now())
	if err != nil {
		w.log.Error().Err(err).Msg("Expired session scan failed")
		return
	}

	for _, studentID := range expired {
		// A running session owns its own deadline; leave it alone.
		if w.manager.HasActive(studentID) {
			continue
		}
		w.reap(ctx, studentID)
	}
}

func (w *ReaperWorker) reap(ctx context.Context, studentID int) {
	meta, err := w.cache.Meta(ctx, studentID)
	if err != nil {
		w.log.Error().Err(err).Int("student_id", studentID).Msg("Meta lookup failed")
		return
	}
	if meta == nil {
		// Already cleared; nothing to submit.
		return
	}

	if err := w.platform.SubmitAttempt(ctx, meta.Token, meta.AttemptID); err != nil {
		w.log.Warn().Err(err).
			Int("student_id", studentID).
			Str("attempt_id", meta.AttemptID).
			Msg("Orphan submit failed, will retry next sweep")
		return
	}

	if err := w.cache.Clear(ctx, studentID); err != nil {
		w.log.Error().Err(err).Int("student_id", studentID).Msg("State clear failed")
		return
	}

	w.log.Info().
		Int("student_id", studentID).
		Str("attempt_id", meta.AttemptID).
		Msg("Orphaned attempt submitted")
}
