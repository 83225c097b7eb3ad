package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JoseGikaara/instantsite-sub000/internal/config"
	"github.com/JoseGikaara/instantsite-sub000/internal/domain/model"
	"github.com/JoseGikaara/instantsite-sub000/internal/domain/ports/adapter"
	aiAdapters "github.com/JoseGikaara/instantsite-sub000/internal/infra/adapters/ai"
	pg "github.com/JoseGikaara/instantsite-sub000/internal/infra/db/postgres"
	"github.com/JoseGikaara/instantsite-sub000/internal/infra/logging"
	"github.com/JoseGikaara/instantsite-sub000/internal/infra/metrics"
	red "github.com/JoseGikaara/instantsite-sub000/internal/infra/redis"
	"github.com/JoseGikaara/instantsite-sub000/internal/infra/sched"
	"github.com/JoseGikaara/instantsite-sub000/internal/infra/web"
	"github.com/JoseGikaara/instantsite-sub000/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, int32(cfg.Database.MaxConns))
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	agentRepo := pg.NewAgentRepo(pool)
	siteRepo := pg.NewSiteRepo(pool)
	codeRepo := pg.NewRedemptionCodeRepo(pool)
	packageRepo := pg.NewCreditPackageRepo(pool)
	entryRepo := pg.NewCreditEntryRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Use cases ----
	policy := model.NewCostPolicy(cfg.Billing.MaxLiveSites)
	ledgerUC := usecase.NewLedgerUseCase(agentRepo, entryRepo, txManager, logger)
	lifecycleUC := usecase.NewLifecycleUseCase(siteRepo, agentRepo, ledgerUC, policy, txManager, logger)
	redeemUC := usecase.NewRedemptionUseCase(codeRepo, packageRepo, ledgerUC, txManager, logger)
	sweepUC := usecase.NewSweepUseCase(siteRepo, lifecycleUC, cfg.Billing.SweepWorkers, logger)

	// ---- AI enhancer ----
	var enhancer adapter.ContentEnhancer
	if cfg.AI.OpenAIKey != "" {
		enhancer, err = aiAdapters.NewOpenAIEnhancer(cfg.AI.OpenAIKey, cfg.AI.Model)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai enhancer")
		}
		logger.Info().Str("model", cfg.AI.Model).Msg("AI enhancer: OpenAI")
	} else if cfg.Runtime.Dev {
		enhancer = aiAdapters.NewNoopEnhancer()
		logger.Warn().Msg("AI enhancer: noop (dev mode, no ai.openai_key)")
	} else {
		logger.Fatal().Msg("ai.openai_key is required outside dev mode")
	}

	siteUC := usecase.NewSiteUseCase(
		siteRepo, agentRepo, ledgerUC, policy,
		enhancer, rateLimiter, cfg.AI.EnhanceLimit, cfg.AI.EnhanceWindow,
		txManager, logger,
	)

	// ---- Metrics ----
	metrics.MustRegister()

	// ---- Billing sweep worker ----
	sweepWorker := sched.NewSweepWorker(cfg.Billing.SweepInterval, sweepUC, locker, logger)
	go func() { _ = sweepWorker.Run(ctx) }()

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Security.JWTSecret, cfg.Security.SecureCookie, cfg.Security.CookieDomain, cfg.Security.SessionTTL)
	srv := web.NewServer(
		ledgerUC, siteUC, lifecycleUC, redeemUC, sweepUC,
		agentRepo, locker, cfg.Server.AdminAPIKey, auth, logger,
	)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}
