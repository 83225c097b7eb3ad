package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/JoseGikaara/instantsite-sub000/internal/domain"
	"github.com/JoseGikaara/instantsite-sub000/internal/domain/model"
	"github.com/JoseGikaara/instantsite-sub000/internal/domain/ports/repository"
	"github.com/JoseGikaara/instantsite-sub000/internal/infra/worker"
)

// SweepDetail records what happened to one site during a sweep run.
type SweepDetail struct {
	SiteID  string        `json:"site_id"`
	AgentID string        `json:"agent_id"`
	Outcome string        `json:"outcome"` // charged | paused | skipped | errored
	Cost    int           `json:"cost,omitempty"`
	Err     string        `json:"error,omitempty"`
	Elapsed time.Duration `json:"-"`
}

// SweepReport summarizes one billing sweep run.
type SweepReport struct {
	RunID    string        `json:"run_id"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Due      int           `json:"due"`
	Charged  int           `json:"charged"`
	Paused   int           `json:"paused"`
	Skipped  int           `json:"skipped"`
	Errored  int           `json:"errored"`
	Details  []SweepDetail `json:"details"`
}

// SweepUseCase is the recurring billing sweep: it selects every Live site
// whose billing period has elapsed and settles each one independently through
// the lifecycle. One bad site degrades to an errored detail row, never an
// aborted run. The sweep performs no retries; eligibility is re-evaluated per
// site inside its own transaction, so overlapping runs charge once.
type SweepUseCase struct {
	sites     repository.SiteRepository
	lifecycle *LifecycleUseCase
	workers   int
	log       *zerolog.Logger
}

func NewSweepUseCase(sites repository.SiteRepository, lifecycle *LifecycleUseCase, workers int, logger *zerolog.Logger) *SweepUseCase {
	if workers <= 0 {
		workers = 4
	}
	l := logger.With().Str("component", "SweepUC").Logger()
	return &SweepUseCase{sites: sites, lifecycle: lifecycle, workers: workers, log: &l}
}

// Run executes one sweep over all due Live sites as of now.
func (uc *SweepUseCase) Run(ctx context.Context, now time.Time) (*SweepReport, error) {
	report := &SweepReport{
		RunID:   ulid.Make().String(),
		Started: now,
	}

	due, err := uc.sites.ListDueLive(ctx, repository.NoTx, now)
	if err != nil {
		return nil, fmt.Errorf("list due sites: %w", err)
	}
	report.Due = len(due)

	var (
		mu   sync.Mutex
		done sync.WaitGroup
	)
	pool := worker.NewPool(uc.workers, uc.log)
	pool.Start(ctx)
	for _, site := range due {
		site := site
		done.Add(1)
		task := func(ctx context.Context) error {
			defer done.Done()
			d := uc.settleOne(ctx, site, now)
			mu.Lock()
			defer mu.Unlock()
			switch d.Outcome {
			case string(ChargeOutcomeCharged):
				report.Charged++
			case string(ChargeOutcomePaused):
				report.Paused++
			case "skipped":
				report.Skipped++
			default:
				report.Errored++
			}
			report.Details = append(report.Details, d)
			return nil
		}
		if err := pool.Submit(ctx, task); err != nil {
			done.Done()
			mu.Lock()
			report.Errored++
			report.Details = append(report.Details, SweepDetail{SiteID: site.ID, AgentID: site.AgentID, Outcome: "errored", Err: err.Error()})
			mu.Unlock()
		}
	}
	done.Wait()
	pool.Stop()

	report.Duration = time.Since(now)
	uc.log.Info().
		Str("run_id", report.RunID).
		Int("due", report.Due).
		Int("charged", report.Charged).
		Int("paused", report.Paused).
		Int("skipped", report.Skipped).
		Int("errored", report.Errored).
		Dur("duration", report.Duration).
		Msg("hosting sweep finished")
	return report, nil
}

// settleOne isolates a single site: panics and errors become detail rows.
func (uc *SweepUseCase) settleOne(ctx context.Context, site *model.Site, now time.Time) (d SweepDetail) {
	start := time.Now()
	d = SweepDetail{SiteID: site.ID, AgentID: site.AgentID}
	defer func() {
		d.Elapsed = time.Since(start)
		if rec := recover(); rec != nil {
			d.Outcome = "errored"
			d.Err = fmt.Sprintf("panic: %v", rec)
			uc.log.Error().Str("site_id", site.ID).Interface("panic", rec).Msg("sweep panic isolated")
		}
	}()

	res, err := uc.lifecycle.ChargeOrPause(ctx, site.ID, now)
	if errors.Is(err, domain.ErrTxConflict) {
		d.Outcome = "skipped"
		return d
	}
	if err != nil {
		d.Outcome = "errored"
		d.Err = err.Error()
		uc.log.Error().Str("site_id", site.ID).Err(err).Msg("sweep charge failed")
		return d
	}
	d.Outcome = string(res.Outcome)
	d.Cost = res.Cost
	return d
}

// SiteCounts reports current sites by status, used to refresh gauges.
func (uc *SweepUseCase) SiteCounts(ctx context.Context) (map[model.SiteStatus]int, error) {
	return uc.sites.CountByStatus(ctx, repository.NoTx)
}
