package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/JoseGikaara/instantsite-sub000/internal/infra/metrics"
	"github.com/JoseGikaara/instantsite-sub000/internal/infra/redis"
	"github.com/JoseGikaara/instantsite-sub000/internal/usecase"
)

const (
	sweepLockKey = "lock:hosting-sweep"
	sweepLockTTL = 5 * time.Minute
)

// SweepWorker periodically runs the hosting billing sweep. A redis lock
// single-flights it across instances; a tick that loses the lock is skipped,
// the next one re-evaluates eligibility from scratch.
type SweepWorker struct {
	interval time.Duration
	sweepUC  *usecase.SweepUseCase
	locker   redis.Locker
	log      *zerolog.Logger
}

func NewSweepWorker(interval time.Duration, sweepUC *usecase.SweepUseCase, locker redis.Locker, logger *zerolog.Logger) *SweepWorker {
	compLog := logger.With().Str("component", "SweepWorker").Logger()
	if interval <= 0 {
		interval = time.Hour
	}
	return &SweepWorker{
		interval: interval,
		sweepUC:  sweepUC,
		locker:   locker,
		log:      &compLog,
	}
}

func (w *SweepWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting billing sweep worker")
	// Run once on startup, then on every tick.
	w.runSweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping billing sweep worker")
			return ctx.Err()
		case <-ticker.C:
			w.runSweep(ctx)
		}
	}
}

func (w *SweepWorker) runSweep(ctx context.Context) {
	if w.locker != nil {
		token, err := w.locker.TryLock(ctx, sweepLockKey, sweepLockTTL)
		if err != nil {
			metrics.IncSweepRun("skipped")
			w.log.Debug().Msg("sweep lock held elsewhere, skipping tick")
			return
		}
		defer func() {
			if err := w.locker.Unlock(ctx, sweepLockKey, token); err != nil {
				w.log.Warn().Err(err).Msg("sweep lock release failed")
			}
		}()
	}

	report, err := w.sweepUC.Run(ctx, time.Now())
	if err != nil {
		metrics.IncSweepRun("error")
		w.log.Error().Err(err).Msg("billing sweep failed")
		return
	}

	metrics.IncSweepRun("ok")
	metrics.AddSweepSites("charged", report.Charged)
	metrics.AddSweepSites("paused", report.Paused)
	metrics.AddSweepSites("skipped", report.Skipped)
	metrics.AddSweepSites("errored", report.Errored)
	metrics.ObserveSweepDuration(report.Duration.Seconds())

	if counts, err := w.sweepUC.SiteCounts(ctx); err == nil {
		for status, n := range counts {
			metrics.SetSitesByStatus(string(status), n)
		}
	}

	if report.Due > 0 {
		w.log.Info().
			Str("run_id", report.RunID).
			Int("due", report.Due).
			Int("charged", report.Charged).
			Int("paused", report.Paused).
			Int("skipped", report.Skipped).
			Int("errored", report.Errored).
			Dur("duration", report.Duration).
			Msg("billing sweep finished")
	}
}
