package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JoseGikaara/instantsite-sub000/internal/domain"
	"github.com/JoseGikaara/instantsite-sub000/internal/domain/model"
	"github.com/JoseGikaara/instantsite-sub000/internal/domain/ports/repository"
	"github.com/JoseGikaara/instantsite-sub000/internal/infra/metrics"
	"github.com/JoseGikaara/instantsite-sub000/internal/usecase"
)

// recordSweep pushes one sweep report into the metrics and refreshes the
// per-status site gauges.
func recordSweep(ctx context.Context, sweepUC *usecase.SweepUseCase, report *usecase.SweepReport) {
	metrics.IncSweepRun("ok")
	metrics.AddSweepSites("charged", report.Charged)
	metrics.AddSweepSites("paused", report.Paused)
	metrics.AddSweepSites("skipped", report.Skipped)
	metrics.AddSweepSites("errored", report.Errored)
	metrics.ObserveSweepDuration(report.Duration.Seconds())

	if counts, err := sweepUC.SiteCounts(ctx); err == nil {
		for status, n := range counts {
			metrics.SetSitesByStatus(string(status), n)
		}
	}
}

// ---- JSON helpers ----

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Required  int    `json:"required,omitempty"`
	Available int    `json:"available,omitempty"`
}

// writeDomainError maps domain errors onto HTTP status codes. Unexpected
// errors become an opaque 500.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var insufficient *domain.InsufficientCreditsError
	if errors.As(err, &insufficient) {
		writeJSON(w, http.StatusPaymentRequired, errorResponse{
			Error:     "insufficient_credits",
			Message:   insufficient.Error(),
			Required:  insufficient.Required,
			Available: insufficient.Available,
		})
		return
	}

	var status int
	var code string
	switch {
	case errors.Is(err, domain.ErrInsufficientCredits):
		status, code = http.StatusPaymentRequired, "insufficient_credits"
	case errors.Is(err, domain.ErrAgentNotFound):
		status, code = http.StatusNotFound, "agent_not_found"
	case errors.Is(err, domain.ErrSiteNotFound):
		status, code = http.StatusNotFound, "site_not_found"
	case errors.Is(err, domain.ErrCodeNotFound):
		status, code = http.StatusNotFound, "code_not_found"
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrNotSiteOwner):
		status, code = http.StatusForbidden, "not_site_owner"
	case errors.Is(err, domain.ErrCodeAlreadyRedeemed):
		status, code = http.StatusConflict, "code_already_redeemed"
	case errors.Is(err, domain.ErrCodeExpired):
		status, code = http.StatusGone, "code_expired"
	case errors.Is(err, domain.ErrAlreadyLive):
		status, code = http.StatusConflict, "already_live"
	case errors.Is(err, domain.ErrSitePaused):
		status, code = http.StatusConflict, "site_paused"
	case errors.Is(err, domain.ErrMaxLiveSites):
		status, code = http.StatusConflict, "max_live_sites"
	case errors.Is(err, domain.ErrTxConflict):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrRateLimited):
		status, code = http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, domain.ErrInvalidPlan):
		status, code = http.StatusBadRequest, "invalid_plan"
	case errors.Is(err, domain.ErrInvalidArgument):
		status, code = http.StatusBadRequest, "invalid_argument"
	default:
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("unexpected handler error")
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "internal",
			Message: "internal server error",
		})
		return
	}
	writeJSON(w, status, errorResponse{Error: code, Message: err.Error()})
}

// siteView is the wire form of a site.
type siteView struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	Status               string     `json:"status"`
	HostingPlan          string     `json:"hosting_plan,omitempty"`
	DeployedAt           *time.Time `json:"deployed_at,omitempty"`
	LastHostingChargedAt *time.Time `json:"last_hosting_charged_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

func toSiteView(s *model.Site) siteView {
	return siteView{
		ID:                   s.ID,
		Name:                 s.Name,
		Status:               string(s.Status),
		HostingPlan:          string(s.HostingPlan),
		DeployedAt:           s.DeployedAt,
		LastHostingChargedAt: s.LastHostingChargedAt,
		CreatedAt:            s.CreatedAt,
	}
}

// ---- auth ----

// handleSession is the development stand-in for the product's real identity
// layer: it registers the agent on first sight (with the starting balance)
// and mints a session token.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	agent, err := s.agents.FindByEmail(ctx, repository.NoTx, req.Email)
	if errors.Is(err, domain.ErrAgentNotFound) {
		agent, err = model.NewAgent("", req.Email, req.DisplayName)
		if err == nil {
			err = s.agents.Save(ctx, repository.NoTx, agent)
		}
	}
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	token, err := s.auth.Mint(w, agent.ID, agent.Email)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Token         string `json:"token"`
		AgentID       string `json:"agent_id"`
		CreditBalance int    `json:"credit_balance"`
	}{token, agent.ID, agent.CreditBalance})
}

// ---- credits ----

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	agent, err := s.agents.FindByID(r.Context(), repository.NoTx, agentID(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		CreditBalance int `json:"credit_balance"`
		AICreditsUsed int `json:"ai_credits_used"`
	}{agent.CreditBalance, agent.AICreditsUsed})
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.ledgerUC.Entries(r.Context(), agentID(r), limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	type entryView struct {
		Delta        int       `json:"delta"`
		Reason       string    `json:"reason"`
		BalanceAfter int       `json:"balance_after"`
		CreatedAt    time.Time `json:"created_at"`
	}
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, entryView{e.Delta, e.Reason, e.BalanceAfter, e.CreatedAt})
	}
	writeJSON(w, http.StatusOK, struct {
		Data []entryView `json:"data"`
	}{views})
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	receipt, err := s.redeemUC.Redeem(r.Context(), agentID(r), req.Code)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	metrics.IncCodeRedeemed()
	metrics.AddCreditsGranted(model.ReasonRedeem, receipt.CreditsGranted)

	writeJSON(w, http.StatusOK, struct {
		CreditsGranted int    `json:"credits_granted"`
		NewBalance     int    `json:"new_balance"`
		PackageName    string `json:"package_name"`
	}{receipt.CreditsGranted, receipt.NewBalance, receipt.PackageName})
}

// ---- sites ----

func (s *Server) handleListSites(w http.ResponseWriter, r *http.Request) {
	sites, err := s.siteUC.ListSites(r.Context(), agentID(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	views := make([]siteView, 0, len(sites))
	for _, site := range sites {
		views = append(views, toSiteView(site))
	}
	writeJSON(w, http.StatusOK, struct {
		Data []siteView `json:"data"`
	}{views})
}

func (s *Server) handleCreateSite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	site, newBalance, err := s.siteUC.GeneratePreview(r.Context(), agentID(r), req.Name)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientCredits) {
			metrics.IncCreditDenial(model.ReasonPreview)
		}
		s.writeDomainError(w, r, err)
		return
	}
	metrics.AddCreditsDeducted(model.ReasonPreview, 1)

	writeJSON(w, http.StatusCreated, struct {
		Site       siteView `json:"site"`
		NewBalance int      `json:"new_balance"`
	}{toSiteView(site), newBalance})
}

func (s *Server) handleDeploy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Plan string `json:"plan"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	plan, err := model.ParseHostingPlan(req.Plan)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	receipt, err := s.lifecycleUC.Deploy(r.Context(), agentID(r), chi.URLParam(r, "siteID"), plan)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientCredits) {
			metrics.IncCreditDenial(model.ReasonDeploy)
		}
		s.writeDomainError(w, r, err)
		return
	}
	metrics.AddCreditsDeducted(model.ReasonDeploy, receipt.Total)

	writeJSON(w, http.StatusOK, struct {
		Site       siteView `json:"site"`
		DeployFee  int      `json:"deploy_fee"`
		HostingFee int      `json:"hosting_fee"`
		Total      int      `json:"total"`
		NewBalance int      `json:"new_balance"`
	}{toSiteView(receipt.Site), receipt.DeployFee, receipt.HostingFee, receipt.Total, receipt.NewBalance})
}

func (s *Server) handleEnhance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Brief string `json:"brief"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := s.siteUC.Enhance(r.Context(), agentID(r), chi.URLParam(r, "siteID"), req.Brief)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRateLimited):
			metrics.IncAIEnhance("rate_limited")
		case errors.Is(err, domain.ErrInsufficientCredits):
			metrics.IncCreditDenial(model.ReasonAIEnhance)
		case errors.Is(err, domain.ErrOperationFailed):
			metrics.IncAIEnhance("refunded")
		}
		s.writeDomainError(w, r, err)
		return
	}
	metrics.IncAIEnhance("ok")
	metrics.AddCreditsDeducted(model.ReasonAIEnhance, 1)

	writeJSON(w, http.StatusOK, struct {
		Headline   string `json:"headline"`
		Tagline    string `json:"tagline"`
		About      string `json:"about"`
		NewBalance int    `json:"new_balance"`
	}{result.Copy.Headline, result.Copy.Tagline, result.Copy.About, result.NewBalance})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	receipt, err := s.lifecycleUC.ResumeAll(r.Context(), agentID(r), time.Now())
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientCredits) {
			metrics.IncCreditDenial(model.ReasonResume)
		}
		s.writeDomainError(w, r, err)
		return
	}
	if receipt.Total > 0 {
		metrics.AddCreditsDeducted(model.ReasonResume, receipt.Total)
	}

	views := make([]siteView, 0, len(receipt.Sites))
	for _, site := range receipt.Sites {
		views = append(views, toSiteView(site))
	}
	writeJSON(w, http.StatusOK, struct {
		Resumed    []siteView `json:"resumed"`
		Total      int        `json:"total"`
		NewBalance int        `json:"new_balance"`
	}{views, receipt.Total, receipt.NewBalance})
}

// ---- admin ----

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.locker != nil {
		token, err := s.locker.TryLock(ctx, sweepLockKey, sweepLockTTL)
		if err != nil {
			metrics.IncSweepRun("skipped")
			writeJSON(w, http.StatusConflict, errorResponse{
				Error:   "sweep_in_progress",
				Message: "another sweep holds the lock",
			})
			return
		}
		defer func() {
			if err := s.locker.Unlock(ctx, sweepLockKey, token); err != nil {
				s.log.Warn().Err(err).Msg("sweep lock release failed")
			}
		}()
	}

	report, err := s.sweepUC.Run(ctx, time.Now())
	if err != nil {
		metrics.IncSweepRun("error")
		s.writeDomainError(w, r, err)
		return
	}
	recordSweep(ctx, s.sweepUC, report)

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleMintCodes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PackageID string     `json:"package_id"`
		Count     int        `json:"count"`
		ExpiresAt *time.Time `json:"expires_at,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	codes, err := s.redeemUC.MintCodes(r.Context(), req.PackageID, req.Count, req.ExpiresAt)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Codes []string `json:"codes"`
	}{codes})
}
