package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/JoseGikaara/instantsite-sub000/internal/domain/ports/repository"
	"github.com/JoseGikaara/instantsite-sub000/internal/infra/redis"
	"github.com/JoseGikaara/instantsite-sub000/internal/usecase"
)

// sweepLockKey single-flights the billing sweep across instances: both the
// ticker worker and the admin HTTP trigger contend on it.
const (
	sweepLockKey = "lock:hosting-sweep"
	sweepLockTTL = 5 * time.Minute
)

type Server struct {
	ledgerUC    *usecase.LedgerUseCase
	siteUC      *usecase.SiteUseCase
	lifecycleUC *usecase.LifecycleUseCase
	redeemUC    *usecase.RedemptionUseCase
	sweepUC     *usecase.SweepUseCase
	agents      repository.AgentRepository
	locker      redis.Locker // optional; nil skips the sweep single-flight
	adminKey    string
	auth        *AuthManager
	log         *zerolog.Logger
}

func NewServer(
	ledgerUC *usecase.LedgerUseCase,
	siteUC *usecase.SiteUseCase,
	lifecycleUC *usecase.LifecycleUseCase,
	redeemUC *usecase.RedemptionUseCase,
	sweepUC *usecase.SweepUseCase,
	agents repository.AgentRepository,
	locker redis.Locker,
	adminKey string,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "web").Logger()
	return &Server{
		ledgerUC:    ledgerUC,
		siteUC:      siteUC,
		lifecycleUC: lifecycleUC,
		redeemUC:    redeemUC,
		sweepUC:     sweepUC,
		agents:      agents,
		locker:      locker,
		adminKey:    adminKey,
		auth:        auth,
		log:         &l,
	}
}

// Router assembles the full HTTP surface.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(s.traceMiddleware)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/session", s.handleSession)

		// Agent routes: JWT session required.
		r.Group(func(r chi.Router) {
			r.Use(s.agentAuth)
			r.Get("/credits", s.handleBalance)
			r.Get("/credits/entries", s.handleEntries)
			r.Post("/credits/redeem", s.handleRedeem)
			r.Get("/sites", s.handleListSites)
			r.Post("/sites", s.handleCreateSite)
			r.Post("/sites/resume", s.handleResume)
			r.Post("/sites/{siteID}/deploy", s.handleDeploy)
			r.Post("/sites/{siteID}/enhance", s.handleEnhance)
		})

		// Admin routes: shared bearer secret.
		r.Group(func(r chi.Router) {
			r.Use(s.adminAuth)
			r.Post("/admin/sweep", s.handleSweep)
			r.Post("/admin/codes", s.handleMintCodes)
		})
	})

	return r
}

// adminAuth provides simple Bearer token authentication for the admin API.
func (s *Server) adminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminKey == "" {
			s.log.Error().Msg("admin API key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			http.Error(w, "Unauthorized: Malformed token", http.StatusUnauthorized)
			return
		}

		if tokenParts[1] != s.adminKey {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
