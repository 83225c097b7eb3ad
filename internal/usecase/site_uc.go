package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/JoseGikaara/instantsite-sub000/internal/domain"
	"github.com/JoseGikaara/instantsite-sub000/internal/domain/model"
	"github.com/JoseGikaara/instantsite-sub000/internal/domain/ports/adapter"
	"github.com/JoseGikaara/instantsite-sub000/internal/domain/ports/repository"
)

// RateLimiter is the throttling port for AI-backed actions. Backed by a
// shared TTL store so limits hold across processes.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// EnhanceResult carries the generated copy and the post-charge balance.
type EnhanceResult struct {
	Copy       adapter.SiteCopy
	NewBalance int
}

// SiteUseCase covers the paid boundary actions around site content: preview
// generation and AI enhancement. Both funnel through the ledger; the AI call
// itself is a collaborator behind the ContentEnhancer port.
type SiteUseCase struct {
	sites    repository.SiteRepository
	agents   repository.AgentRepository
	ledger   *LedgerUseCase
	policy   model.CostPolicy
	enhancer adapter.ContentEnhancer
	limiter  RateLimiter

	enhanceLimit  int
	enhanceWindow time.Duration

	tm  repository.TransactionManager
	log *zerolog.Logger
}

func NewSiteUseCase(
	sites repository.SiteRepository,
	agents repository.AgentRepository,
	ledger *LedgerUseCase,
	policy model.CostPolicy,
	enhancer adapter.ContentEnhancer,
	limiter RateLimiter,
	enhanceLimit int,
	enhanceWindow time.Duration,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *SiteUseCase {
	if enhanceLimit <= 0 {
		enhanceLimit = 10
	}
	if enhanceWindow <= 0 {
		enhanceWindow = time.Minute
	}
	l := logger.With().Str("component", "SiteUC").Logger()
	return &SiteUseCase{
		sites:         sites,
		agents:        agents,
		ledger:        ledger,
		policy:        policy,
		enhancer:      enhancer,
		limiter:       limiter,
		enhanceLimit:  enhanceLimit,
		enhanceWindow: enhanceWindow,
		tm:            tm,
		log:           &l,
	}
}

// GeneratePreview charges one credit and creates a site in Preview state.
func (uc *SiteUseCase) GeneratePreview(ctx context.Context, agentID, name string) (*model.Site, int, error) {
	site, err := model.NewSite("", agentID, name)
	if err != nil {
		return nil, 0, err
	}
	var newBalance int
	err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		newBalance, err = uc.ledger.Deduct(ctx, tx, agentID, uc.policy.CostOf(model.ActionPreviewGenerate), model.ReasonPreview)
		if err != nil {
			return err
		}
		return uc.sites.Save(ctx, tx, site)
	})
	if err != nil {
		return nil, 0, err
	}
	return site, newBalance, nil
}

// Enhance rate-limits, charges one credit, then calls the AI collaborator.
// An adapter failure after the charge is compensated with a refund so the
// agent never pays for copy that was not produced.
func (uc *SiteUseCase) Enhance(ctx context.Context, agentID, siteID, brief string) (*EnhanceResult, error) {
	ok, err := uc.limiter.Allow(ctx, enhanceRateKey(agentID), uc.enhanceLimit, uc.enhanceWindow)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	if !ok {
		return nil, domain.ErrRateLimited
	}

	site, err := uc.sites.FindByID(ctx, repository.NoTx, siteID)
	if err != nil {
		return nil, err
	}
	if site.AgentID != agentID {
		return nil, domain.ErrNotSiteOwner
	}

	cost := uc.policy.CostOf(model.ActionAIEnhance)
	var newBalance int
	err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		newBalance, err = uc.ledger.Deduct(ctx, tx, agentID, cost, model.ReasonAIEnhance)
		if err != nil {
			return err
		}
		return uc.agents.AddAIUsage(ctx, tx, agentID, cost)
	})
	if err != nil {
		return nil, err
	}

	copyOut, err := uc.enhancer.Enhance(ctx, site.Name, brief)
	if err != nil {
		refunded, refundErr := uc.ledger.Credit(ctx, repository.NoTx, agentID, cost, model.ReasonAIRefund)
		if refundErr != nil {
			uc.log.Error().Str("agent_id", agentID).Err(refundErr).Msg("refund after enhancer failure failed")
		} else {
			newBalance = refunded
		}
		return nil, fmt.Errorf("%w: enhance %q: %v", domain.ErrOperationFailed, site.Name, err)
	}

	uc.log.Info().Str("site_id", siteID).Str("provider", uc.enhancer.Name()).Msg("site copy enhanced")
	return &EnhanceResult{Copy: copyOut, NewBalance: newBalance}, nil
}

// ListSites returns the agent's sites.
func (uc *SiteUseCase) ListSites(ctx context.Context, agentID string) ([]*model.Site, error) {
	if _, err := uc.agents.FindByID(ctx, repository.NoTx, agentID); err != nil {
		return nil, err
	}
	return uc.sites.ListByAgent(ctx, repository.NoTx, agentID)
}

func enhanceRateKey(agentID string) string {
	return "rate_limit:enhance:" + agentID
}
