package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/JoseGikaara/instantsite-sub000/internal/domain"
	"github.com/JoseGikaara/instantsite-sub000/internal/domain/model"
	"github.com/JoseGikaara/instantsite-sub000/internal/domain/ports/repository"
)

// DeployReceipt reports the charge breakdown of a successful deployment.
type DeployReceipt struct {
	Site       *model.Site
	DeployFee  int
	HostingFee int
	Total      int
	NewBalance int
}

// ChargeOutcome is the result of one sweep charge attempt.
type ChargeOutcome string

const (
	ChargeOutcomeCharged ChargeOutcome = "charged"
	ChargeOutcomePaused  ChargeOutcome = "paused"
)

// ChargeResult reports what ChargeOrPause did to a site.
type ChargeResult struct {
	SiteID     string
	AgentID    string
	Outcome    ChargeOutcome
	Cost       int
	NewBalance int
}

// ResumeReceipt reports an all-or-nothing bulk resumption.
type ResumeReceipt struct {
	Sites      []*model.Site
	Total      int
	NewBalance int
}

// LifecycleUseCase drives the Preview -> Live <-> Paused state machine. Every
// transition that admits a site into Live holds the agent's advisory lock so
// the cap check and the deduction are one decision against one snapshot.
type LifecycleUseCase struct {
	sites  repository.SiteRepository
	agents repository.AgentRepository
	ledger *LedgerUseCase
	policy model.CostPolicy
	tm     repository.TransactionManager
	log    *zerolog.Logger
}

func NewLifecycleUseCase(sites repository.SiteRepository, agents repository.AgentRepository, ledger *LedgerUseCase, policy model.CostPolicy, tm repository.TransactionManager, logger *zerolog.Logger) *LifecycleUseCase {
	l := logger.With().Str("component", "LifecycleUC").Logger()
	return &LifecycleUseCase{sites: sites, agents: agents, ledger: ledger, policy: policy, tm: tm, log: &l}
}

// Deploy moves a Preview site to Live, charging the deployment base fee plus
// the first hosting period.
func (uc *LifecycleUseCase) Deploy(ctx context.Context, agentID, siteID string, plan model.HostingPlan) (*DeployReceipt, error) {
	if plan != model.HostingPlanMonthly && plan != model.HostingPlanAnnual {
		return nil, domain.ErrInvalidPlan
	}

	var receipt DeployReceipt
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := uc.agents.Lock(ctx, tx, agentID); err != nil {
			return err
		}
		site, err := uc.sites.FindByIDForUpdate(ctx, tx, siteID)
		if err != nil {
			return err
		}
		if site.AgentID != agentID {
			return domain.ErrNotSiteOwner
		}
		switch site.Status {
		case model.SiteStatusLive:
			return domain.ErrAlreadyLive
		case model.SiteStatusPaused:
			return domain.ErrSitePaused
		}

		liveCount, err := uc.sites.CountLiveByAgent(ctx, tx, agentID)
		if err != nil {
			return err
		}
		if liveCount >= uc.policy.MaxLiveSites {
			return domain.ErrMaxLiveSites
		}

		base, hosting, total := uc.policy.DeployCost(plan)
		newBalance, err := uc.ledger.Deduct(ctx, tx, agentID, total, model.ReasonDeploy)
		if err != nil {
			return err
		}

		now := time.Now()
		site.Status = model.SiteStatusLive
		site.HostingPlan = plan
		site.DeployedAt = &now
		site.LastHostingChargedAt = &now
		site.UpdatedAt = now
		if err := uc.sites.Save(ctx, tx, site); err != nil {
			return err
		}
		receipt = DeployReceipt{Site: site, DeployFee: base, HostingFee: hosting, Total: total, NewBalance: newBalance}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("site_id", siteID).Str("agent_id", agentID).Str("plan", string(plan)).Int("total", receipt.Total).Msg("site deployed")
	return &receipt, nil
}

// ChargeOrPause settles one due Live site: charge the owner and stamp the
// charge date, or demote the site to Paused when the balance falls short.
// Nothing is ever partially applied. domain.ErrTxConflict means another run
// already handled the site; callers skip it.
func (uc *LifecycleUseCase) ChargeOrPause(ctx context.Context, siteID string, now time.Time) (*ChargeResult, error) {
	var result ChargeResult
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		site, err := uc.sites.FindByIDForUpdate(ctx, tx, siteID)
		if err != nil {
			return err
		}
		if !site.HostingDue(now) {
			// Not live anymore, or an overlapping run charged it first.
			return domain.ErrTxConflict
		}

		cost := uc.policy.HostingCost(site.HostingPlan)
		newBalance, err := uc.ledger.Deduct(ctx, tx, site.AgentID, cost, model.ReasonHosting)
		if errors.Is(err, domain.ErrInsufficientCredits) {
			if err := uc.sites.UpdateStatus(ctx, tx, site.ID, model.SiteStatusPaused); err != nil {
				return err
			}
			result = ChargeResult{SiteID: site.ID, AgentID: site.AgentID, Outcome: ChargeOutcomePaused, Cost: cost}
			return nil
		}
		if err != nil {
			return err
		}

		if err := uc.sites.MarkCharged(ctx, tx, site.ID, site.LastHostingChargedAt, now); err != nil {
			// Guard lost: roll the deduction back with the transaction.
			return err
		}
		result = ChargeResult{SiteID: site.ID, AgentID: site.AgentID, Outcome: ChargeOutcomeCharged, Cost: cost, NewBalance: newBalance}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Outcome == ChargeOutcomePaused {
		uc.log.Info().Str("site_id", result.SiteID).Str("agent_id", result.AgentID).Int("cost", result.Cost).Msg("site paused for insufficient credits")
	}
	return &result, nil
}

// ResumeAll moves every Paused site of the agent back to Live as a single
// all-or-nothing operation: one summed charge, every site stamped, or nothing
// changes. Partial resumption is not supported.
func (uc *LifecycleUseCase) ResumeAll(ctx context.Context, agentID string, now time.Time) (*ResumeReceipt, error) {
	var receipt ResumeReceipt
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := uc.agents.Lock(ctx, tx, agentID); err != nil {
			return err
		}
		paused, err := uc.sites.ListPausedByAgentForUpdate(ctx, tx, agentID)
		if err != nil {
			return err
		}
		if len(paused) == 0 {
			a, err := uc.agents.FindByID(ctx, tx, agentID)
			if err != nil {
				return err
			}
			receipt = ResumeReceipt{NewBalance: a.CreditBalance}
			return nil
		}

		liveCount, err := uc.sites.CountLiveByAgent(ctx, tx, agentID)
		if err != nil {
			return err
		}
		if liveCount+len(paused) > uc.policy.MaxLiveSites {
			return domain.ErrMaxLiveSites
		}

		total := 0
		for _, s := range paused {
			total += uc.policy.HostingCost(s.HostingPlan)
		}
		newBalance, err := uc.ledger.Deduct(ctx, tx, agentID, total, model.ReasonResume)
		if err != nil {
			return err
		}

		for _, s := range paused {
			charged := now
			s.Status = model.SiteStatusLive
			s.LastHostingChargedAt = &charged
			s.UpdatedAt = now
			if err := uc.sites.Save(ctx, tx, s); err != nil {
				return err
			}
		}
		receipt = ResumeReceipt{Sites: paused, Total: total, NewBalance: newBalance}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("agent_id", agentID).Int("sites", len(receipt.Sites)).Int("total", receipt.Total).Msg("paused sites resumed")
	return &receipt, nil
}
